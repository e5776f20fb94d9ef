// File: database/repository/timeslot/crud.go
package timeslotRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servimatch/models"
	"servimatch/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (r *MongoTimeSlotRepo) GetByID(ctx context.Context, id, providerID int64) (*models.AvailabilitySlot, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StoreTimeout)
	defer cancel()

	var slot models.AvailabilitySlot
	err := r.coll.FindOne(ctx, bson.M{"id": id, "providerId": providerID}).Decode(&slot)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to fetch slot %d: %w", id, err)
	}
	return &slot, nil
}

func (r *MongoTimeSlotRepo) Create(ctx context.Context, slot *models.AvailabilitySlot) error {
	id, err := r.nextID(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, utils.StoreTimeout)
	defer cancel()

	slot.ID = id
	if _, err := r.coll.InsertOne(ctx, slot); err != nil {
		return fmt.Errorf("failed to insert slot: %w", err)
	}
	return nil
}

func (r *MongoTimeSlotRepo) Update(ctx context.Context, id, providerID int64, patch models.SlotPatch, updatedAt time.Time) (*models.AvailabilitySlot, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StoreTimeout)
	defer cancel()

	set := bson.M{"updatedAt": updatedAt}
	unset := bson.M{}
	if patch.DayOfWeek.Set {
		if patch.DayOfWeek.Valid {
			set["dayOfWeek"] = patch.DayOfWeek.Value
		} else {
			unset["dayOfWeek"] = ""
		}
	}
	if patch.SpecificDate.Set {
		if patch.SpecificDate.Valid {
			set["specificDate"] = patch.SpecificDate.Value
		} else {
			unset["specificDate"] = ""
		}
	}
	if patch.StartTime != nil {
		set["startTime"] = *patch.StartTime
	}
	if patch.EndTime != nil {
		set["endTime"] = *patch.EndTime
	}
	if patch.MaxBookings != nil {
		set["maxBookings"] = *patch.MaxBookings
	}
	if patch.IsActive != nil {
		set["isActive"] = *patch.IsActive
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.AvailabilitySlot
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"id": id, "providerId": providerID}, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("failed to update slot %d: %w", id, err)
	}
	return &updated, nil
}

func (r *MongoTimeSlotRepo) Delete(ctx context.Context, id, providerID int64) error {
	ctx, cancel := context.WithTimeout(ctx, utils.StoreTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"id": id, "providerId": providerID})
	if err != nil {
		return fmt.Errorf("failed to delete slot %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrSlotNotFound
	}
	return nil
}
