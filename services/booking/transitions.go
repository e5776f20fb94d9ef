package booking

import (
	"slices"

	"servimatch/models"
)

var allowedTransitions = map[models.RequestStatus][]models.RequestStatus{
	models.StatusPending:    {models.StatusQuoted, models.StatusCancelled},
	models.StatusQuoted:     {models.StatusAccepted, models.StatusCancelled},
	models.StatusAccepted:   {models.StatusInProgress, models.StatusCancelled},
	models.StatusInProgress: {models.StatusCompleted, models.StatusCancelled},
	models.StatusCompleted:  {},
	models.StatusCancelled:  {},
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to models.RequestStatus) bool {
	return slices.Contains(allowedTransitions[from], to)
}

// ValidateTransition returns InvalidStatusTransition for moves outside the lifecycle.
func ValidateTransition(from, to models.RequestStatus) error {
	if !CanTransition(from, to) {
		return models.InvalidStatusTransition(from, to)
	}
	return nil
}
