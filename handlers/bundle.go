package handlers

import (
	"servimatch/services/availability"
	"servimatch/services/booking"
	"servimatch/services/matching"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Match    *MatchHandler
	Slots    *SlotHandler
	Requests *RequestHandler
	Health   *HealthHandler
}

func NewHandlerBundle(
	matcher matching.MatchingService,
	slots availability.AvailabilityService,
	requests booking.ServiceRequestService,
	health *HealthHandler,
	defaultMaxResults int,
) *HandlerBundle {
	return &HandlerBundle{
		Match:    &MatchHandler{Service: matcher, DefaultMaxResults: defaultMaxResults},
		Slots:    &SlotHandler{Service: slots},
		Requests: &RequestHandler{Service: requests},
		Health:   health,
	}
}
