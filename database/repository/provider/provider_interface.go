package providerRepo

import (
	"context"
	"errors"

	"servimatch/models"
)

// ErrProviderNotFound is returned when no provider has the requested ID.
var ErrProviderNotFound = errors.New("provider not found")

// ProviderDirectory is the read-only view of provider profiles used by matching.
type ProviderDirectory interface {
	// ListEligibleProviders returns providers serving categoryID with at least
	// minCredits credits, restricted to verified providers when verifiedOnly is set.
	// Results come back in ascending ID order.
	ListEligibleProviders(ctx context.Context, categoryID int64, minCredits int, verifiedOnly bool) ([]models.ServiceProvider, error)
	GetByID(ctx context.Context, id int64) (*models.ServiceProvider, error)
}
