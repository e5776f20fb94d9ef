package models

// ScoreBreakdown holds the six weighted sub-scores, each in [0, 100].
type ScoreBreakdown struct {
	Category     float64 `json:"category"`
	Location     float64 `json:"location"`
	Quality      float64 `json:"quality"`
	Availability float64 `json:"availability"`
	ResponseTime float64 `json:"responseTime"`
	Credits      float64 `json:"credits"`
}

// MatchScore ranks one provider against one request. It is never persisted.
type MatchScore struct {
	ProviderID            int64          `json:"providerId"`
	Score                 int            `json:"score"`
	Breakdown             ScoreBreakdown `json:"breakdown"`
	DistanceKm            *float64       `json:"distanceKm,omitempty"`
	EstimatedResponseTime string         `json:"estimatedResponseTime"`
	Reasons               []string       `json:"reasons"`
}

// MatchCriteria is the subset of a request that matching needs.
type MatchCriteria struct {
	CategoryID int64    `json:"categoryId"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	City       string   `json:"city"`
	Budget     *float64 `json:"budget"`
	IsUrgent   bool     `json:"isUrgent"`
}

// CriteriaFromRequest extracts matching criteria from a stored request.
func CriteriaFromRequest(r ServiceRequest) MatchCriteria {
	return MatchCriteria{
		CategoryID: r.CategoryID,
		Latitude:   r.Latitude,
		Longitude:  r.Longitude,
		City:       r.City,
		Budget:     r.Budget,
		IsUrgent:   r.IsUrgent,
	}
}

// MatchResponse is returned to clients; CategoryName is enrichment only.
type MatchResponse struct {
	CategoryID   int64        `json:"categoryId"`
	CategoryName string       `json:"categoryName,omitempty"`
	Matches      []MatchScore `json:"matches"`
}

// Category is a service category entry in the directory.
type Category struct {
	ID   int64  `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}
