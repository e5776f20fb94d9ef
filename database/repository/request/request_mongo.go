package requestRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"servimatch/database"
	"servimatch/models"
	"servimatch/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRequestRepo implements RequestStore over the "service_requests" collection.
type MongoRequestRepo struct {
	db   *mongo.Database
	coll *mongo.Collection
}

func NewMongoRequestRepo(db *mongo.Database) *MongoRequestRepo {
	return &MongoRequestRepo{db: db, coll: db.Collection("service_requests")}
}

func (r *MongoRequestRepo) Create(ctx context.Context, req *models.ServiceRequest) error {
	id, err := database.NextSequence(ctx, r.db, "service_requests")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, utils.StoreTimeout)
	defer cancel()

	req.ID = id
	if _, err := r.coll.InsertOne(ctx, req); err != nil {
		return fmt.Errorf("failed to insert service request: %w", err)
	}
	return nil
}

func (r *MongoRequestRepo) GetByID(ctx context.Context, id int64) (*models.ServiceRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StoreTimeout)
	defer cancel()

	var req models.ServiceRequest
	if err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to fetch service request %d: %w", id, err)
	}
	return &req, nil
}

func (r *MongoRequestRepo) ListByProviderOnDate(ctx context.Context, providerID int64, from, to time.Time, statuses []models.RequestStatus) ([]models.ServiceRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StoreTimeout)
	defer cancel()

	filter := bson.M{
		"providerId":    providerID,
		"preferredDate": bson.M{"$gte": from, "$lt": to},
		"status":        bson.M{"$in": statuses},
	}
	opts := options.Find().SetSort(bson.D{{Key: "preferredDate", Value: 1}, {Key: "id", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requests for provider %d: %w", providerID, err)
	}
	defer cursor.Close(ctx)

	var reqs []models.ServiceRequest
	if err := cursor.All(ctx, &reqs); err != nil {
		return nil, fmt.Errorf("failed to decode service requests: %w", err)
	}
	return reqs, nil
}

func (r *MongoRequestRepo) UpdateStatus(ctx context.Context, id int64, version int64, patch models.StatusPatch) (*models.ServiceRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, utils.StoreTimeout)
	defer cancel()

	set := bson.M{
		"status":    patch.Status,
		"updatedAt": patch.UpdatedAt,
	}
	if patch.ProviderID != nil {
		set["providerId"] = *patch.ProviderID
	}
	if patch.QuotedPrice != nil {
		set["quotedPrice"] = *patch.QuotedPrice
	}
	if patch.QuotedAt != nil {
		set["quotedAt"] = *patch.QuotedAt
	}
	if patch.AcceptedAt != nil {
		set["acceptedAt"] = *patch.AcceptedAt
	}
	if patch.StartedAt != nil {
		set["startedAt"] = *patch.StartedAt
	}
	if patch.CompletedAt != nil {
		set["completedAt"] = *patch.CompletedAt
	}
	if patch.CancelledAt != nil {
		set["cancelledAt"] = *patch.CancelledAt
	}
	if patch.CancelledBy != "" {
		set["cancelledBy"] = patch.CancelledBy
	}

	// The version guard in the filter makes this a compare-and-set.
	// Rows written before versioning have no field and count as version 0.
	filter := bson.M{"id": id, "version": version}
	if version == 0 {
		filter["version"] = bson.M{"$in": bson.A{int64(0), nil}}
	}
	update := bson.M{"$set": set, "$inc": bson.M{"version": int64(1)}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.ServiceRequest
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update service request %d: %w", id, err)
	}

	count, err := r.coll.CountDocuments(ctx, bson.M{"id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to check service request %d: %w", id, err)
	}
	if count == 0 {
		return nil, ErrRequestNotFound
	}
	return nil, ErrConcurrentUpdate
}

// EnsureIndexes creates the indexes on the service_requests collection.
func (r *MongoRequestRepo) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Conflict and capacity checks read one provider-day at a time.
		{
			Keys:    bson.D{{Key: "providerId", Value: 1}, {Key: "preferredDate", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("provider_date_status_idx"),
		},
		{
			Keys:    bson.D{{Key: "customerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("customer_created_idx"),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexModels); err != nil {
		return fmt.Errorf("failed to create service request indexes: %w", err)
	}
	return nil
}
