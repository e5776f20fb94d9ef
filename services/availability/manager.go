package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	timeslotRepo "servimatch/database/repository/timeslot"
	"servimatch/models"
	"servimatch/services/locking"
	"servimatch/utils"

	"go.uber.org/zap"
)

// AvailabilityService manages one provider's declared working windows.
type AvailabilityService interface {
	ListSlots(ctx context.Context, providerID int64) ([]models.AvailabilitySlot, error)
	CreateSlot(ctx context.Context, providerID int64, in models.SlotInput) (*models.AvailabilitySlot, error)
	UpdateSlot(ctx context.Context, id, providerID int64, patch models.SlotPatch) (*models.AvailabilitySlot, error)
	DeleteSlot(ctx context.Context, id, providerID int64) error
	CheckAvailability(ctx context.Context, providerID int64, date, timeOfDay string) (bool, error)
}

// Manager is the default AvailabilityService. Mutations hold the provider
// lock for their whole read-validate-write sequence.
type Manager struct {
	Slots    timeslotRepo.AvailabilityStore
	Locker   locking.ProviderLocker
	Location *time.Location
	Now      func() time.Time
	Logger   *zap.Logger
}

func NewManager(store timeslotRepo.AvailabilityStore, locker locking.ProviderLocker, loc *time.Location, logger *zap.Logger) *Manager {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		Slots:    store,
		Locker:   locker,
		Location: loc,
		Now:      time.Now,
		Logger:   logger,
	}
}

func (m *Manager) ListSlots(ctx context.Context, providerID int64) ([]models.AvailabilitySlot, error) {
	if providerID <= 0 {
		return nil, models.InvalidArgument("providerId", providerID, "must be a positive integer")
	}
	slots, err := m.Slots.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots for provider %d: %w", providerID, err)
	}
	return slots, nil
}

func (m *Manager) CreateSlot(ctx context.Context, providerID int64, in models.SlotInput) (*models.AvailabilitySlot, error) {
	if providerID <= 0 {
		return nil, models.InvalidArgument("providerId", providerID, "must be a positive integer")
	}

	slot := models.AvailabilitySlot{
		ProviderID:   providerID,
		DayOfWeek:    in.DayOfWeek,
		SpecificDate: in.SpecificDate,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		MaxBookings:  DefaultMaxBookings,
		IsActive:     true,
	}
	if in.MaxBookings != nil {
		slot.MaxBookings = *in.MaxBookings
	}

	window, err := validateSlot(slot)
	if err != nil {
		return nil, err
	}

	unlock, err := m.Locker.Lock(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock provider %d: %w", providerID, err)
	}
	defer unlock()

	existing, err := m.Slots.ListActiveByProvider(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load slots for provider %d: %w", providerID, err)
	}
	if clash := findOverlap(slot, window, existing); clash != nil {
		return nil, models.OverlapConflict(*clash)
	}

	now := m.now()
	slot.CreatedAt = now
	slot.UpdatedAt = now
	if err := m.Slots.Create(ctx, &slot); err != nil {
		return nil, fmt.Errorf("failed to create slot for provider %d: %w", providerID, err)
	}

	m.Logger.Info("Availability slot created",
		zap.Int64("providerId", providerID),
		zap.Int64("slotId", slot.ID),
		zap.String("window", slot.StartTime+"-"+slot.EndTime))
	return &slot, nil
}

func (m *Manager) UpdateSlot(ctx context.Context, id, providerID int64, patch models.SlotPatch) (*models.AvailabilitySlot, error) {
	if id <= 0 {
		return nil, models.InvalidArgument("id", id, "must be a positive integer")
	}
	if providerID <= 0 {
		return nil, models.InvalidArgument("providerId", providerID, "must be a positive integer")
	}
	if patch.Empty() {
		return nil, models.InvalidArgument("body", nil, "no fields to update")
	}

	unlock, err := m.Locker.Lock(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock provider %d: %w", providerID, err)
	}
	defer unlock()

	current, err := m.Slots.GetByID(ctx, id, providerID)
	if err != nil {
		if errors.Is(err, timeslotRepo.ErrSlotNotFound) {
			return nil, models.NotFoundOrUnauthorized("slot", id)
		}
		return nil, fmt.Errorf("failed to load slot %d: %w", id, err)
	}

	merged := patch.Apply(*current)
	window, err := validateSlot(merged)
	if err != nil {
		return nil, err
	}

	if merged.IsActive {
		existing, err := m.Slots.ListActiveByProvider(ctx, providerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load slots for provider %d: %w", providerID, err)
		}
		if clash := findOverlap(merged, window, existing); clash != nil {
			return nil, models.OverlapConflict(*clash)
		}
	}

	updated, err := m.Slots.Update(ctx, id, providerID, patch, m.now())
	if err != nil {
		if errors.Is(err, timeslotRepo.ErrSlotNotFound) {
			return nil, models.NotFoundOrUnauthorized("slot", id)
		}
		return nil, fmt.Errorf("failed to update slot %d: %w", id, err)
	}

	m.Logger.Info("Availability slot updated", zap.Int64("providerId", providerID), zap.Int64("slotId", id))
	return updated, nil
}

func (m *Manager) DeleteSlot(ctx context.Context, id, providerID int64) error {
	if id <= 0 {
		return models.InvalidArgument("id", id, "must be a positive integer")
	}
	if providerID <= 0 {
		return models.InvalidArgument("providerId", providerID, "must be a positive integer")
	}

	unlock, err := m.Locker.Lock(ctx, providerID)
	if err != nil {
		return fmt.Errorf("failed to lock provider %d: %w", providerID, err)
	}
	defer unlock()

	if err := m.Slots.Delete(ctx, id, providerID); err != nil {
		if errors.Is(err, timeslotRepo.ErrSlotNotFound) {
			return models.NotFoundOrUnauthorized("slot", id)
		}
		return fmt.Errorf("failed to delete slot %d: %w", id, err)
	}

	m.Logger.Info("Availability slot deleted", zap.Int64("providerId", providerID), zap.Int64("slotId", id))
	return nil
}

// CheckAvailability reports whether an active slot covers timeOfDay on date.
// Both slot bounds are inclusive, so a slot 09:00-17:00 covers 17:00. Booking
// conflict checks use the half-open rule instead.
func (m *Manager) CheckAvailability(ctx context.Context, providerID int64, date, timeOfDay string) (bool, error) {
	if providerID <= 0 {
		return false, models.InvalidArgument("providerId", providerID, "must be a positive integer")
	}
	day, err := utils.ParseDate(date, m.Location)
	if err != nil {
		return false, models.InvalidArgument("date", date, "must be a valid YYYY-MM-DD date")
	}
	minute, err := utils.ParseHHMM(timeOfDay)
	if err != nil {
		return false, models.InvalidArgument("time", timeOfDay, "must match HH:MM")
	}

	slots, err := m.Slots.ListActiveByProvider(ctx, providerID)
	if err != nil {
		return false, fmt.Errorf("failed to load slots for provider %d: %w", providerID, err)
	}

	weekday := int(day.Weekday())
	for _, slot := range slots {
		onDay := (slot.DayOfWeek != nil && *slot.DayOfWeek == weekday) ||
			(slot.SpecificDate != nil && *slot.SpecificDate == date)
		if !onDay {
			continue
		}
		start, err1 := utils.ParseHHMM(slot.StartTime)
		end, err2 := utils.ParseEndHHMM(slot.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if minute >= start && minute <= end {
			return true, nil
		}
	}
	return false, nil
}

func (m *Manager) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}
