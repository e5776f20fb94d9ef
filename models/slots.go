package models

import "time"

// AvailabilitySlot is a provider's declared bookable window.
// Exactly one of DayOfWeek (recurring) or SpecificDate (one-off) is set.
type AvailabilitySlot struct {
	ID           int64     `bson:"id" json:"id"`
	ProviderID   int64     `bson:"providerId" json:"providerId"`
	DayOfWeek    *int      `bson:"dayOfWeek,omitempty" json:"dayOfWeek"`       // 0 = Sunday
	SpecificDate *string   `bson:"specificDate,omitempty" json:"specificDate"` // "2006-01-02"
	StartTime    string    `bson:"startTime" json:"startTime"`                 // "HH:MM"
	EndTime      string    `bson:"endTime" json:"endTime"`                     // "HH:MM"
	MaxBookings  int       `bson:"maxBookings" json:"maxBookings"`
	IsActive     bool      `bson:"isActive" json:"isActive"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time `bson:"updatedAt" json:"updatedAt"`
}

// SameScope reports whether both slots repeat on the same weekday or both
// target the same calendar date.
func (s AvailabilitySlot) SameScope(o AvailabilitySlot) bool {
	switch {
	case s.DayOfWeek != nil && o.DayOfWeek != nil:
		return *s.DayOfWeek == *o.DayOfWeek
	case s.SpecificDate != nil && o.SpecificDate != nil:
		return *s.SpecificDate == *o.SpecificDate
	}
	return false
}

// SlotInput is the payload for creating a slot.
type SlotInput struct {
	DayOfWeek    *int    `json:"dayOfWeek"`
	SpecificDate *string `json:"specificDate"`
	StartTime    string  `json:"startTime" binding:"required"`
	EndTime      string  `json:"endTime" binding:"required"`
	MaxBookings  *int    `json:"maxBookings"`
}

// SlotPatch is a partial update. Nullable fields distinguish "absent" from
// an explicit null so a slot can switch between recurring and one-off.
type SlotPatch struct {
	DayOfWeek    NullableInt    `json:"dayOfWeek"`
	SpecificDate NullableString `json:"specificDate"`
	StartTime    *string        `json:"startTime"`
	EndTime      *string        `json:"endTime"`
	MaxBookings  *int           `json:"maxBookings"`
	IsActive     *bool          `json:"isActive"`
}

// Empty reports whether the patch carries no fields.
func (p SlotPatch) Empty() bool {
	return !p.DayOfWeek.Set && !p.SpecificDate.Set && p.StartTime == nil &&
		p.EndTime == nil && p.MaxBookings == nil && p.IsActive == nil
}

// Apply returns a copy of slot with the supplied fields overlaid.
func (p SlotPatch) Apply(slot AvailabilitySlot) AvailabilitySlot {
	merged := slot
	if p.DayOfWeek.Set {
		merged.DayOfWeek = p.DayOfWeek.Ptr()
	}
	if p.SpecificDate.Set {
		merged.SpecificDate = p.SpecificDate.Ptr()
	}
	if p.StartTime != nil {
		merged.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		merged.EndTime = *p.EndTime
	}
	if p.MaxBookings != nil {
		merged.MaxBookings = *p.MaxBookings
	}
	if p.IsActive != nil {
		merged.IsActive = *p.IsActive
	}
	return merged
}

// AvailabilityCheck is the answer to "is the provider free at this time".
type AvailabilityCheck struct {
	ProviderID int64  `json:"providerId"`
	Date       string `json:"date"`
	Time       string `json:"time"`
	Available  bool   `json:"available"`
}
