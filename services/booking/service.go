package booking

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	providerRepo "servimatch/database/repository/provider"
	requestRepo "servimatch/database/repository/request"
	"servimatch/models"
	"servimatch/services/locking"
	"servimatch/services/matching"

	"go.uber.org/zap"
)

// ReminderScheduler queues reminders once a request is accepted and
// withdraws them when it is cancelled.
type ReminderScheduler interface {
	ScheduleReminders(ctx context.Context, req models.ServiceRequest) error
	CancelReminders(ctx context.Context, requestID int64) error
}

// ServiceRequestService drives a request through its lifecycle.
type ServiceRequestService interface {
	CreateRequest(ctx context.Context, customerID int64, in models.CreateRequestInput) (*models.ServiceRequest, error)
	GetRequest(ctx context.Context, requestID int64, role string, actorID int64) (*models.ServiceRequest, error)
	AssignProvider(ctx context.Context, requestID, customerID, providerID int64) (*models.ServiceRequest, error)
	Quote(ctx context.Context, requestID, providerID int64, price float64) (*models.ServiceRequest, error)
	Accept(ctx context.Context, requestID, customerID int64) (*models.ServiceRequest, error)
	Start(ctx context.Context, requestID, providerID int64) (*models.ServiceRequest, error)
	Complete(ctx context.Context, requestID, providerID int64) (*models.ServiceRequest, error)
	Cancel(ctx context.Context, requestID int64, role string, actorID int64) (*models.ServiceRequest, error)
}

// RequestService is the default ServiceRequestService. Every status write is
// a compare-and-set on the status that was validated, so a failed call never
// changes the stored request.
type RequestService struct {
	Requests  requestRepo.RequestStore
	Providers providerRepo.ProviderDirectory
	Checker   *ConflictChecker
	Locker    locking.ProviderLocker
	Reminders ReminderScheduler
	Now       func() time.Time
	Logger    *zap.Logger
}

func NewRequestService(
	requests requestRepo.RequestStore,
	providers providerRepo.ProviderDirectory,
	checker *ConflictChecker,
	locker locking.ProviderLocker,
	reminders ReminderScheduler,
	logger *zap.Logger,
) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RequestService{
		Requests:  requests,
		Providers: providers,
		Checker:   checker,
		Locker:    locker,
		Reminders: reminders,
		Now:       time.Now,
		Logger:    logger,
	}
}

func (s *RequestService) CreateRequest(ctx context.Context, customerID int64, in models.CreateRequestInput) (*models.ServiceRequest, error) {
	req, err := in.Validate(customerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	req.CreatedAt = now
	req.UpdatedAt = now
	if err := s.Requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create service request: %w", err)
	}
	s.Logger.Info("Service request created",
		zap.Int64("requestId", req.ID),
		zap.Int64("customerId", customerID),
		zap.Int64("categoryId", req.CategoryID))
	return req, nil
}

// GetRequest returns the request to its customer or assigned provider.
// Anyone else gets the same answer as for a missing request.
func (s *RequestService) GetRequest(ctx context.Context, requestID int64, role string, actorID int64) (*models.ServiceRequest, error) {
	if requestID <= 0 {
		return nil, models.InvalidArgument("id", requestID, "must be a positive integer")
	}
	req, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, requestRepo.ErrRequestNotFound) {
			return nil, models.NotFoundOrUnauthorized("service request", requestID)
		}
		return nil, fmt.Errorf("failed to load service request %d: %w", requestID, err)
	}
	if !isParty(*req, role, actorID) {
		return nil, models.NotFoundOrUnauthorized("service request", requestID)
	}
	return req, nil
}

// AssignProvider records the customer's chosen provider on a pending request.
func (s *RequestService) AssignProvider(ctx context.Context, requestID, customerID, providerID int64) (*models.ServiceRequest, error) {
	if providerID <= 0 {
		return nil, models.InvalidArgument("providerId", providerID, "must be a positive integer")
	}
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != customerID {
		return nil, models.Forbidden("customerId", customerID, "caller is not the request's customer")
	}
	if req.Status != models.StatusPending {
		return nil, models.ValidationFailed("status", string(req.Status), "a provider can only be assigned while the request is pending")
	}

	provider, err := s.Providers.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, providerRepo.ErrProviderNotFound) {
			return nil, models.NotFound("provider", providerID)
		}
		return nil, fmt.Errorf("failed to load provider %d: %w", providerID, err)
	}
	if !matching.IsEligible(models.CriteriaFromRequest(*req), *provider) {
		return nil, models.ValidationFailed("providerId", providerID, "provider cannot serve this request")
	}

	return s.write(ctx, req, models.StatusPending, models.StatusPatch{
		Status:     models.StatusPending,
		ProviderID: &providerID,
		UpdatedAt:  s.now(),
	})
}

func (s *RequestService) Quote(ctx context.Context, requestID, providerID int64, price float64) (*models.ServiceRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.HasProvider(providerID) {
		return nil, models.Forbidden("providerId", providerID, "caller is not the assigned provider")
	}
	if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return nil, models.InvalidArgument("price", price, "must be a finite, non-negative number")
	}
	if err := ValidateTransition(req.Status, models.StatusQuoted); err != nil {
		return nil, err
	}

	now := s.now()
	return s.write(ctx, req, models.StatusQuoted, models.StatusPatch{
		Status:      models.StatusQuoted,
		QuotedPrice: &price,
		QuotedAt:    &now,
		UpdatedAt:   now,
	})
}

// Accept books the quoted request. With a preferred date the provider's
// schedule is checked and written under the provider lock.
func (s *RequestService) Accept(ctx context.Context, requestID, customerID int64) (*models.ServiceRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.CustomerID != customerID {
		return nil, models.Forbidden("customerId", customerID, "caller is not the request's customer")
	}
	if err := ValidateTransition(req.Status, models.StatusAccepted); err != nil {
		return nil, err
	}

	var accepted *models.ServiceRequest
	if req.PreferredDate != nil {
		if req.ProviderID == nil {
			return nil, models.ValidationFailed("providerId", nil, "request has no assigned provider")
		}
		providerID := *req.ProviderID

		unlock, err := s.Locker.Lock(ctx, providerID)
		if err != nil {
			return nil, fmt.Errorf("failed to lock provider %d: %w", providerID, err)
		}
		defer unlock()

		if err := s.Checker.Check(ctx, providerID, *req.PreferredDate, req.Duration(), req.ID); err != nil {
			s.Logger.Info("Accept rejected by schedule check",
				zap.Int64("requestId", req.ID),
				zap.Int64("providerId", providerID),
				zap.Error(err))
			return nil, err
		}
	}

	now := s.now()
	accepted, err = s.write(ctx, req, models.StatusAccepted, models.StatusPatch{
		Status:     models.StatusAccepted,
		AcceptedAt: &now,
		UpdatedAt:  now,
	})
	if err != nil {
		return nil, err
	}

	if s.Reminders != nil && accepted.PreferredDate != nil {
		if err := s.Reminders.ScheduleReminders(ctx, *accepted); err != nil {
			s.Logger.Warn("Failed to schedule reminders", zap.Int64("requestId", accepted.ID), zap.Error(err))
		}
	}
	return accepted, nil
}

func (s *RequestService) Start(ctx context.Context, requestID, providerID int64) (*models.ServiceRequest, error) {
	return s.providerTransition(ctx, requestID, providerID, models.StatusInProgress)
}

func (s *RequestService) Complete(ctx context.Context, requestID, providerID int64) (*models.ServiceRequest, error) {
	return s.providerTransition(ctx, requestID, providerID, models.StatusCompleted)
}

func (s *RequestService) providerTransition(ctx context.Context, requestID, providerID int64, to models.RequestStatus) (*models.ServiceRequest, error) {
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.HasProvider(providerID) {
		return nil, models.Forbidden("providerId", providerID, "caller is not the assigned provider")
	}
	if err := ValidateTransition(req.Status, to); err != nil {
		return nil, err
	}

	now := s.now()
	patch := models.StatusPatch{Status: to, UpdatedAt: now}
	switch to {
	case models.StatusInProgress:
		patch.StartedAt = &now
	case models.StatusCompleted:
		patch.CompletedAt = &now
	}
	return s.write(ctx, req, to, patch)
}

// Cancel is open to the customer and the assigned provider from any
// non-terminal status.
func (s *RequestService) Cancel(ctx context.Context, requestID int64, role string, actorID int64) (*models.ServiceRequest, error) {
	if role != models.RoleCustomer && role != models.RoleProvider {
		return nil, models.InvalidArgument("role", role, "must be customer or provider")
	}
	req, err := s.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !isParty(*req, role, actorID) {
		return nil, models.Forbidden(role+"Id", actorID, "caller is not a party to this request")
	}
	if req.Status.IsTerminal() {
		return nil, models.InvalidStatusTransition(req.Status, models.StatusCancelled)
	}

	now := s.now()
	cancelled, err := s.write(ctx, req, models.StatusCancelled, models.StatusPatch{
		Status:      models.StatusCancelled,
		CancelledAt: &now,
		CancelledBy: role,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	if s.Reminders != nil && req.Status == models.StatusAccepted && req.PreferredDate != nil {
		if err := s.Reminders.CancelReminders(ctx, req.ID); err != nil {
			s.Logger.Warn("Failed to withdraw reminders", zap.Int64("requestId", req.ID), zap.Error(err))
		}
	}
	return cancelled, nil
}

func (s *RequestService) load(ctx context.Context, requestID int64) (*models.ServiceRequest, error) {
	if requestID <= 0 {
		return nil, models.InvalidArgument("id", requestID, "must be a positive integer")
	}
	req, err := s.Requests.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, requestRepo.ErrRequestNotFound) {
			return nil, models.NotFound("service request", requestID)
		}
		return nil, fmt.Errorf("failed to load service request %d: %w", requestID, err)
	}
	return req, nil
}

// write commits patch only if nothing was written since req was loaded, so
// the ownership and status checks made on req still hold. A lost race is
// reported against the row that won.
func (s *RequestService) write(ctx context.Context, req *models.ServiceRequest, to models.RequestStatus, patch models.StatusPatch) (*models.ServiceRequest, error) {
	updated, err := s.Requests.UpdateStatus(ctx, req.ID, req.Version, patch)
	if err == nil {
		s.Logger.Info("Service request updated",
			zap.Int64("requestId", req.ID),
			zap.String("from", string(req.Status)),
			zap.String("to", string(to)))
		return updated, nil
	}
	if errors.Is(err, requestRepo.ErrConcurrentUpdate) {
		latest, loadErr := s.load(ctx, req.ID)
		if loadErr != nil {
			return nil, loadErr
		}
		return nil, lostRace(req, latest, to)
	}
	if errors.Is(err, requestRepo.ErrRequestNotFound) {
		return nil, models.NotFound("service request", req.ID)
	}
	return nil, fmt.Errorf("failed to update service request %d: %w", req.ID, err)
}

func lostRace(loaded, latest *models.ServiceRequest, to models.RequestStatus) error {
	switch {
	case latest.Status != loaded.Status:
		return models.InvalidStatusTransition(latest.Status, to)
	case !sameProvider(loaded.ProviderID, latest.ProviderID):
		return models.Forbidden("providerId", latest.ProviderID, "request was reassigned to another provider")
	}
	return models.ConcurrentModification(loaded.ID)
}

func sameProvider(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func isParty(req models.ServiceRequest, role string, actorID int64) bool {
	switch role {
	case models.RoleCustomer:
		return req.CustomerID == actorID
	case models.RoleProvider:
		return req.HasProvider(actorID)
	}
	return false
}

func (s *RequestService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
