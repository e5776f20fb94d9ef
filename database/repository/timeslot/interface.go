// File: database/repository/timeslot/interface.go
package timeslotRepo

import (
	"context"
	"errors"
	"time"

	"servimatch/database"
	"servimatch/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrSlotNotFound is returned when a slot does not exist or belongs to another provider.
var ErrSlotNotFound = errors.New("availability slot not found")

// AvailabilityStore persists provider availability slots.
type AvailabilityStore interface {
	ListByProvider(ctx context.Context, providerID int64) ([]models.AvailabilitySlot, error)
	ListActiveByProvider(ctx context.Context, providerID int64) ([]models.AvailabilitySlot, error)
	GetByID(ctx context.Context, id, providerID int64) (*models.AvailabilitySlot, error)
	// Create assigns slot.ID and persists the slot.
	Create(ctx context.Context, slot *models.AvailabilitySlot) error
	// Update writes only the fields present in patch and returns the stored result.
	Update(ctx context.Context, id, providerID int64, patch models.SlotPatch, updatedAt time.Time) (*models.AvailabilitySlot, error)
	Delete(ctx context.Context, id, providerID int64) error
}

type MongoTimeSlotRepo struct {
	db   *mongo.Database
	coll *mongo.Collection
}

// NewMongoTimeSlotRepo constructs a MongoDB-backed AvailabilityStore.
func NewMongoTimeSlotRepo(db *mongo.Database) *MongoTimeSlotRepo {
	return &MongoTimeSlotRepo{
		db:   db,
		coll: db.Collection("availability_slots"),
	}
}

// nextID draws the next slot ID from the shared counters collection.
func (r *MongoTimeSlotRepo) nextID(ctx context.Context) (int64, error) {
	return database.NextSequence(ctx, r.db, "availability_slots")
}
