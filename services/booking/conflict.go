package booking

import (
	"context"
	"fmt"
	"time"

	requestRepo "servimatch/database/repository/request"
	timeslotRepo "servimatch/database/repository/timeslot"
	"servimatch/models"
	"servimatch/utils"
)

// bookedStatuses occupy a provider's time.
var bookedStatuses = []models.RequestStatus{models.StatusAccepted, models.StatusInProgress}

// ConflictChecker decides whether a provider can take a booking at a given
// time. Callers must hold the provider lock across Check and the write that
// follows it.
type ConflictChecker struct {
	Slots    timeslotRepo.AvailabilityStore
	Requests requestRepo.RequestStore
	// Location fixes calendar date and time of day. Nil means UTC.
	Location *time.Location
}

func NewConflictChecker(slots timeslotRepo.AvailabilityStore, requests requestRepo.RequestStore, loc *time.Location) *ConflictChecker {
	return &ConflictChecker{Slots: slots, Requests: requests, Location: loc}
}

// Check validates a booking of durationMinutes starting at desiredStart.
// excludeRequestID is left out of capacity and overlap counts; pass 0 for none.
//
// The requested window must fit inside a slot with both bounds inclusive.
// Overlap with other bookings uses the half-open rule, so back-to-back
// bookings are allowed.
func (c *ConflictChecker) Check(ctx context.Context, providerID int64, desiredStart time.Time, durationMinutes int, excludeRequestID int64) error {
	if providerID <= 0 {
		return models.InvalidArgument("providerId", providerID, "must be a positive integer")
	}
	if durationMinutes <= 0 {
		return models.InvalidArgument("durationMinutes", durationMinutes, "must be positive")
	}

	start := desiredStart.In(c.location())
	dateStr := start.Format(utils.DateLayout)
	startMin := utils.MinuteOfDay(start)
	endMin := startMin + durationMinutes

	slots, err := c.Slots.ListActiveByProvider(ctx, providerID)
	if err != nil {
		return fmt.Errorf("failed to load slots for provider %d: %w", providerID, err)
	}
	if len(slots) == 0 {
		return models.NoAvailability(providerID)
	}

	selected := slotsForDay(slots, dateStr, int(start.Weekday()))
	if len(selected) == 0 {
		return models.ProviderNotWorkingThatDay(dateStr)
	}

	var covering *models.AvailabilitySlot
	for i := range selected {
		slotStart, err1 := utils.ParseHHMM(selected[i].StartTime)
		slotEnd, err2 := utils.ParseEndHHMM(selected[i].EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		// endMin past midnight can never satisfy this.
		if startMin >= slotStart && endMin <= slotEnd {
			covering = &selected[i]
			break
		}
	}
	if covering == nil {
		return models.OutsideWorkingHours(dateStr, utils.FormatHHMM(startMin), clockLabel(endMin))
	}

	dayStart, dayEnd := utils.DayBounds(start)
	booked, err := c.Requests.ListByProviderOnDate(ctx, providerID, dayStart, dayEnd, bookedStatuses)
	if err != nil {
		return fmt.Errorf("failed to load bookings for provider %d: %w", providerID, err)
	}

	accepted := 0
	for _, other := range booked {
		if other.ID != excludeRequestID && other.Status == models.StatusAccepted {
			accepted++
		}
	}
	if accepted >= covering.MaxBookings {
		return models.CapacityExceeded(dateStr, covering.MaxBookings)
	}

	for _, other := range booked {
		if other.ID == excludeRequestID || other.PreferredDate == nil {
			continue
		}
		otherStart := utils.MinuteOfDay(other.PreferredDate.In(c.location()))
		otherEnd := otherStart + other.Duration()
		if utils.Overlaps(startMin, endMin, otherStart, otherEnd) {
			return models.TimeConflict(other.ID)
		}
	}
	return nil
}

// slotsForDay prefers one-off slots for the exact date over recurring ones.
func slotsForDay(slots []models.AvailabilitySlot, date string, weekday int) []models.AvailabilitySlot {
	var specific, recurring []models.AvailabilitySlot
	for _, s := range slots {
		switch {
		case s.SpecificDate != nil && *s.SpecificDate == date:
			specific = append(specific, s)
		case s.DayOfWeek != nil && *s.DayOfWeek == weekday:
			recurring = append(recurring, s)
		}
	}
	if len(specific) > 0 {
		return specific
	}
	return recurring
}

func (c *ConflictChecker) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// clockLabel renders an end minute, wrapping past midnight. A booking that
// ends exactly at midnight reads as 24:00.
func clockLabel(minute int) string {
	if minute > utils.MinutesPerDay {
		minute %= utils.MinutesPerDay
	}
	return utils.FormatHHMM(minute)
}
