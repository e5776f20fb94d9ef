package models

import "slices"

// ServiceProvider is the read-only view of a provider profile used by matching.
// It is owned by the provider-profile subsystem.
type ServiceProvider struct {
	ID                int64    `bson:"id" json:"id"`
	Name              string   `bson:"name" json:"name,omitempty"`
	CategoryIDs       []int64  `bson:"categoryIds" json:"categoryIds"`
	Latitude          *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude         *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
	City              string   `bson:"city" json:"city"`
	IsVerified        bool     `bson:"isVerified" json:"isVerified"`
	Credits           int      `bson:"credits" json:"credits"`                                         // non-negative balance
	Rating            *float64 `bson:"rating,omitempty" json:"rating,omitempty"`                       // 0-5
	CompletedJobs     *int     `bson:"completedJobs,omitempty" json:"completedJobs,omitempty"`         // lifetime completed requests
	ResponseTimeHours *float64 `bson:"responseTimeHours,omitempty" json:"responseTimeHours,omitempty"` // typical response time
	IsAvailable       *bool    `bson:"isAvailable,omitempty" json:"isAvailable,omitempty"`             // best-effort online flag
}

// ServesCategory reports whether the provider lists categoryID.
func (p ServiceProvider) ServesCategory(categoryID int64) bool {
	return slices.Contains(p.CategoryIDs, categoryID)
}

// NearbyProvider is a provider annotated with its distance from a search center.
type NearbyProvider struct {
	Provider   ServiceProvider `json:"provider"`
	DistanceKm float64         `json:"distanceKm"`
}
