package requestRepo

import (
	"context"
	"errors"
	"time"

	"servimatch/models"
)

var (
	// ErrRequestNotFound is returned when no request has the given ID.
	ErrRequestNotFound = errors.New("service request not found")
	// ErrConcurrentUpdate is returned by UpdateStatus when the stored request
	// was written after the caller loaded it.
	ErrConcurrentUpdate = errors.New("service request was modified concurrently")
)

// RequestStore persists service requests.
type RequestStore interface {
	// Create assigns r.ID and persists the request.
	Create(ctx context.Context, r *models.ServiceRequest) error
	GetByID(ctx context.Context, id int64) (*models.ServiceRequest, error)
	// ListByProviderOnDate returns the provider's requests whose preferred date
	// falls in [from, to) and whose status is one of statuses.
	ListByProviderOnDate(ctx context.Context, providerID int64, from, to time.Time, statuses []models.RequestStatus) ([]models.ServiceRequest, error)
	// UpdateStatus applies patch and bumps the version only if the stored
	// version still equals version. The patch covers the whole row, so
	// ownership checked on the loaded copy holds for the write.
	UpdateStatus(ctx context.Context, id int64, version int64, patch models.StatusPatch) (*models.ServiceRequest, error)
}
