package models

import (
	"math"
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a ServiceRequest.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusQuoted     RequestStatus = "quoted"
	StatusAccepted   RequestStatus = "accepted"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []RequestStatus{
	StatusPending, StatusQuoted, StatusAccepted, StatusInProgress, StatusCompleted, StatusCancelled,
}

// IsTerminal reports whether no transition leaves s.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// DefaultDurationMinutes applies when a request carries no duration.
const DefaultDurationMinutes = 60

// Actor roles allowed to act on a request.
const (
	RoleCustomer = "customer"
	RoleProvider = "provider"
)

// ServiceRequest is a customer's request for a home service.
type ServiceRequest struct {
	ID              int64         `bson:"id" json:"id"`
	CustomerID      int64         `bson:"customerId" json:"customerId"`
	CategoryID      int64         `bson:"categoryId" json:"categoryId"`
	Description     string        `bson:"description,omitempty" json:"description,omitempty"`
	Latitude        *float64      `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude       *float64      `bson:"longitude,omitempty" json:"longitude,omitempty"`
	City            string        `bson:"city" json:"city"`
	Budget          *float64      `bson:"budget,omitempty" json:"budget,omitempty"`
	IsUrgent        bool          `bson:"isUrgent" json:"isUrgent"`
	PreferredDate   *time.Time    `bson:"preferredDate,omitempty" json:"preferredDate,omitempty"`
	DurationMinutes *int          `bson:"durationMinutes,omitempty" json:"durationMinutes,omitempty"`
	Status          RequestStatus `bson:"status" json:"status"`
	ProviderID      *int64        `bson:"providerId,omitempty" json:"providerId,omitempty"`
	QuotedPrice     *float64      `bson:"quotedPrice,omitempty" json:"quotedPrice,omitempty"`
	QuotedAt        *time.Time    `bson:"quotedAt,omitempty" json:"quotedAt,omitempty"`
	AcceptedAt      *time.Time    `bson:"acceptedAt,omitempty" json:"acceptedAt,omitempty"`
	StartedAt       *time.Time    `bson:"startedAt,omitempty" json:"startedAt,omitempty"`
	CompletedAt     *time.Time    `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CancelledAt     *time.Time    `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CancelledBy     string        `bson:"cancelledBy,omitempty" json:"cancelledBy,omitempty"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt" json:"updatedAt"`
	// Version counts committed writes. Every update is conditional on it.
	Version int64 `bson:"version" json:"version"`
}

// Duration returns the booked duration in minutes, defaulting to an hour.
func (r ServiceRequest) Duration() int {
	if r.DurationMinutes == nil || *r.DurationMinutes <= 0 {
		return DefaultDurationMinutes
	}
	return *r.DurationMinutes
}

// HasProvider reports whether providerID is the assigned provider.
func (r ServiceRequest) HasProvider(providerID int64) bool {
	return r.ProviderID != nil && *r.ProviderID == providerID
}

// StatusPatch carries the fields written alongside a status change.
type StatusPatch struct {
	Status      RequestStatus
	ProviderID  *int64
	QuotedPrice *float64
	QuotedAt    *time.Time
	AcceptedAt  *time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	CancelledBy string
	UpdatedAt   time.Time
}

// Apply overlays the patch on a request.
func (p StatusPatch) Apply(r *ServiceRequest) {
	r.Status = p.Status
	if p.ProviderID != nil {
		r.ProviderID = p.ProviderID
	}
	if p.QuotedPrice != nil {
		r.QuotedPrice = p.QuotedPrice
	}
	if p.QuotedAt != nil {
		r.QuotedAt = p.QuotedAt
	}
	if p.AcceptedAt != nil {
		r.AcceptedAt = p.AcceptedAt
	}
	if p.StartedAt != nil {
		r.StartedAt = p.StartedAt
	}
	if p.CompletedAt != nil {
		r.CompletedAt = p.CompletedAt
	}
	if p.CancelledAt != nil {
		r.CancelledAt = p.CancelledAt
	}
	if p.CancelledBy != "" {
		r.CancelledBy = p.CancelledBy
	}
	r.UpdatedAt = p.UpdatedAt
}

// CreateRequestInput is the customer-facing payload for a new request.
type CreateRequestInput struct {
	CategoryID      int64      `json:"categoryId"`
	Description     string     `json:"description"`
	Latitude        *float64   `json:"latitude"`
	Longitude       *float64   `json:"longitude"`
	City            string     `json:"city"`
	Budget          *float64   `json:"budget"`
	IsUrgent        bool       `json:"isUrgent"`
	PreferredDate   *time.Time `json:"preferredDate"`
	DurationMinutes *int       `json:"durationMinutes"`
}

// Validate turns raw input into a pending ServiceRequest owned by customerID.
func (in CreateRequestInput) Validate(customerID int64) (*ServiceRequest, error) {
	if customerID <= 0 {
		return nil, InvalidArgument("customerId", customerID, "must be a positive integer")
	}
	if in.CategoryID <= 0 {
		return nil, InvalidArgument("categoryId", in.CategoryID, "must be a positive integer")
	}
	city := strings.TrimSpace(in.City)
	if city == "" {
		return nil, InvalidArgument("city", in.City, "is required")
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return nil, ValidationFailed("latitude", in.Latitude, "latitude and longitude must be given together")
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return nil, InvalidArgument("latitude", *in.Latitude, "must be within [-90, 90]")
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return nil, InvalidArgument("longitude", *in.Longitude, "must be within [-180, 180]")
	}
	if in.Budget != nil && (math.IsNaN(*in.Budget) || math.IsInf(*in.Budget, 0) || *in.Budget < 0) {
		return nil, InvalidArgument("budget", *in.Budget, "must be a non-negative number")
	}
	if in.DurationMinutes != nil && *in.DurationMinutes <= 0 {
		return nil, InvalidArgument("durationMinutes", *in.DurationMinutes, "must be positive")
	}
	return &ServiceRequest{
		CustomerID:      customerID,
		CategoryID:      in.CategoryID,
		Description:     strings.TrimSpace(in.Description),
		Latitude:        in.Latitude,
		Longitude:       in.Longitude,
		City:            city,
		Budget:          in.Budget,
		IsUrgent:        in.IsUrgent,
		PreferredDate:   in.PreferredDate,
		DurationMinutes: in.DurationMinutes,
		Status:          StatusPending,
	}, nil
}
