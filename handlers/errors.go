package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"servimatch/middleware"
	"servimatch/models"
	"servimatch/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatusForError maps an engine error kind to an HTTP status code.
func StatusForError(err error) int {
	kind, ok := models.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case models.KindInvalidArgument, models.KindValidationFailed:
		return http.StatusBadRequest
	case models.KindForbidden:
		return http.StatusForbidden
	case models.KindNotFound, models.KindNotFoundOrUnauthorized:
		return http.StatusNotFound
	case models.KindOverlapConflict, models.KindTimeConflict, models.KindCapacityExceeded,
		models.KindOutsideWorkingHours, models.KindNoAvailability, models.KindProviderNotWorkingThatDay,
		models.KindInvalidStatusTransition, models.KindConcurrentModification:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes err as an ErrorResponse. Internal errors are logged
// and their text is not sent to the client.
func respondError(c *gin.Context, msg string, err error) {
	status := StatusForError(err)
	if status == http.StatusInternalServerError {
		getLogger(c).Error(msg, zap.Error(err))
		c.JSON(status, utils.ErrorResponse{Message: msg, Details: utils.InternalErrorDetails})
		return
	}

	getLogger(c).Debug(msg, zap.Error(err), zap.Int("status", status))
	var ee *models.EngineError
	errors.As(err, &ee)
	c.JSON(status, utils.ErrorResponse{
		Message: ee.Message,
		Kind:    string(ee.Kind),
		Field:   ee.Field,
		Value:   ee.Value,
	})
}

func badRequest(c *gin.Context, field string, value any, msg string) {
	c.JSON(http.StatusBadRequest, utils.ErrorResponse{
		Message: msg,
		Kind:    string(models.KindInvalidArgument),
		Field:   field,
		Value:   value,
	})
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, name, raw, "must be a positive integer")
		return 0, false
	}
	return id, true
}

// actor returns the authenticated caller set by ActorAuthMiddleware.
func actor(c *gin.Context) (int64, string, bool) {
	id, ok := c.Get(middleware.ActorIDKey)
	if !ok {
		utils.AbortJSON(c, http.StatusUnauthorized, "Not authenticated", "no actor in request context")
		return 0, "", false
	}
	actorID, ok := id.(int64)
	if !ok || actorID <= 0 {
		utils.AbortJSON(c, http.StatusInternalServerError, "Internal Server Error", "invalid actor ID in context")
		return 0, "", false
	}
	return actorID, c.GetString(middleware.ActorRoleKey), true
}
