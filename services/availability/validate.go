package availability

import (
	"time"

	"servimatch/models"
	"servimatch/utils"
)

// DefaultMaxBookings applies when a new slot does not set maxBookings.
const DefaultMaxBookings = 1

// slotWindow is a slot's [start, end] in minutes since midnight.
type slotWindow struct {
	start, end int
}

// validateSlot checks a fully merged slot. Format errors are InvalidArgument,
// internally inconsistent values are ValidationFailed.
func validateSlot(slot models.AvailabilitySlot) (slotWindow, error) {
	if slot.DayOfWeek != nil && (*slot.DayOfWeek < 0 || *slot.DayOfWeek > 6) {
		return slotWindow{}, models.InvalidArgument("dayOfWeek", *slot.DayOfWeek, "must be between 0 (Sunday) and 6 (Saturday)")
	}

	start, err := utils.ParseHHMM(slot.StartTime)
	if err != nil {
		return slotWindow{}, models.InvalidArgument("startTime", slot.StartTime, "must match HH:MM")
	}
	end, err := utils.ParseEndHHMM(slot.EndTime)
	if err != nil {
		return slotWindow{}, models.InvalidArgument("endTime", slot.EndTime, "must match HH:MM or be 24:00")
	}
	if start >= end {
		return slotWindow{}, models.ValidationFailed("endTime", slot.EndTime, "must be after startTime")
	}

	if slot.SpecificDate != nil {
		if _, err := utils.ParseDate(*slot.SpecificDate, time.UTC); err != nil {
			return slotWindow{}, models.InvalidArgument("specificDate", *slot.SpecificDate, "must be a valid YYYY-MM-DD date")
		}
	}

	switch {
	case slot.DayOfWeek != nil && slot.SpecificDate != nil:
		return slotWindow{}, models.ValidationFailed("specificDate", *slot.SpecificDate, "a recurring slot cannot have a specific date")
	case slot.DayOfWeek == nil && slot.SpecificDate == nil:
		return slotWindow{}, models.ValidationFailed("dayOfWeek", nil, "either dayOfWeek or specificDate is required")
	}

	if slot.MaxBookings < 1 {
		return slotWindow{}, models.InvalidArgument("maxBookings", slot.MaxBookings, "must be at least 1")
	}
	return slotWindow{start: start, end: end}, nil
}

// findOverlap returns the first active slot in existing that shares candidate's
// scope and overlaps it under the half-open rule. The candidate itself is skipped.
func findOverlap(candidate models.AvailabilitySlot, w slotWindow, existing []models.AvailabilitySlot) *models.AvailabilitySlot {
	for i := range existing {
		other := existing[i]
		if other.ID == candidate.ID || !other.IsActive || !candidate.SameScope(other) {
			continue
		}
		oStart, err1 := utils.ParseHHMM(other.StartTime)
		oEnd, err2 := utils.ParseEndHHMM(other.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		if utils.Overlaps(w.start, w.end, oStart, oEnd) {
			return &other
		}
	}
	return nil
}
