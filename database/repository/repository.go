package repository

import (
	"context"
	"fmt"

	categoryRepo "servimatch/database/repository/category"
	"servimatch/database/repository/memstore"
	providerRepo "servimatch/database/repository/provider"
	requestRepo "servimatch/database/repository/request"
	timeslotRepo "servimatch/database/repository/timeslot"
	"servimatch/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// Re-export the store interfaces.
type (
	ProviderDirectory = providerRepo.ProviderDirectory
	AvailabilityStore = timeslotRepo.AvailabilityStore
	RequestStore      = requestRepo.RequestStore
	CategoryDirectory = categoryRepo.CategoryDirectory
)

// Stores bundles every repository the engine reads and writes.
type Stores struct {
	Providers  ProviderDirectory
	Slots      AvailabilityStore
	Requests   RequestStore
	Categories CategoryDirectory
}

// NewMongoStores builds Mongo-backed stores and creates their indexes.
func NewMongoStores(ctx context.Context, db *mongo.Database) (*Stores, error) {
	providers := providerRepo.NewMongoProviderRepo(db)
	slots := timeslotRepo.NewMongoTimeSlotRepo(db)
	requests := requestRepo.NewMongoRequestRepo(db)

	if err := providers.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("provider indexes: %w", err)
	}
	if err := slots.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("availability slot indexes: %w", err)
	}
	if err := requests.EnsureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("service request indexes: %w", err)
	}

	return &Stores{
		Providers:  providers,
		Slots:      slots,
		Requests:   requests,
		Categories: categoryRepo.NewMongoCategoryRepo(db),
	}, nil
}

// NewMemoryStores builds in-memory stores seeded with providers and categories.
func NewMemoryStores(providers []models.ServiceProvider, categories []models.Category) *Stores {
	return &Stores{
		Providers:  memstore.NewProviders(providers...),
		Slots:      memstore.NewSlots(),
		Requests:   memstore.NewRequests(),
		Categories: memstore.NewCategories(categories...),
	}
}
