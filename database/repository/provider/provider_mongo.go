package providerRepo

import (
	"context"
	"errors"
	"fmt"

	"servimatch/models"
	"servimatch/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoProviderRepo implements ProviderDirectory over the "providers" collection.
type MongoProviderRepo struct {
	coll *mongo.Collection
}

func NewMongoProviderRepo(db *mongo.Database) *MongoProviderRepo {
	return &MongoProviderRepo{coll: db.Collection("providers")}
}

func (r *MongoProviderRepo) ListEligibleProviders(ctx context.Context, categoryID int64, minCredits int, verifiedOnly bool) ([]models.ServiceProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StoreTimeout)
	defer cancel()

	filter := bson.M{
		"categoryIds": categoryID,
		"credits":     bson.M{"$gte": minCredits},
	}
	if verifiedOnly {
		filter["isVerified"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "id", Value: 1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find providers for category %d: %w", categoryID, err)
	}
	defer cursor.Close(ctx)

	var providers []models.ServiceProvider
	if err := cursor.All(ctx, &providers); err != nil {
		return nil, fmt.Errorf("failed to decode providers: %w", err)
	}
	return providers, nil
}

func (r *MongoProviderRepo) GetByID(ctx context.Context, id int64) (*models.ServiceProvider, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StoreTimeout)
	defer cancel()

	var provider models.ServiceProvider
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&provider); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("failed to fetch provider %d: %w", id, err)
	}
	return &provider, nil
}
