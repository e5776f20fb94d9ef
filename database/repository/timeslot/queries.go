// File: database/repository/timeslot/queries.go
package timeslotRepo

import (
	"context"
	"fmt"

	"servimatch/models"
	"servimatch/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Slots come back ordered by weekday, then date, then start time.
var slotOrder = bson.D{
	{Key: "dayOfWeek", Value: 1},
	{Key: "specificDate", Value: 1},
	{Key: "startTime", Value: 1},
	{Key: "id", Value: 1},
}

func (r *MongoTimeSlotRepo) ListByProvider(ctx context.Context, providerID int64) ([]models.AvailabilitySlot, error) {
	return r.find(ctx, bson.M{"providerId": providerID})
}

func (r *MongoTimeSlotRepo) ListActiveByProvider(ctx context.Context, providerID int64) ([]models.AvailabilitySlot, error) {
	return r.find(ctx, bson.M{"providerId": providerID, "isActive": true})
}

func (r *MongoTimeSlotRepo) find(ctx context.Context, filter bson.M) ([]models.AvailabilitySlot, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StoreTimeout)
	defer cancel()

	cursor, err := r.coll.Find(ctx, filter, options.Find().SetSort(slotOrder))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch slots: %w", err)
	}
	defer cursor.Close(ctx)

	slots := []models.AvailabilitySlot{}
	if err := cursor.All(ctx, &slots); err != nil {
		return nil, fmt.Errorf("error decoding slots: %w", err)
	}
	return slots, nil
}
