package handlers

import (
	"context"
	"net/http"

	"servimatch/models"
	"servimatch/services/booking"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestHandler serves the service request lifecycle.
type RequestHandler struct {
	Service booking.ServiceRequestService
}

func (h *RequestHandler) CreateRequestHandler(c *gin.Context) {
	customerID, _, ok := actor(c)
	if !ok {
		return
	}
	var in models.CreateRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "body", nil, "Invalid request payload: "+err.Error())
		return
	}
	req, err := h.Service.CreateRequest(c.Request.Context(), customerID, in)
	if err != nil {
		respondError(c, "Failed to create service request", err)
		return
	}
	getLogger(c).Info("Service request created", zap.Int64("requestId", req.ID))
	c.JSON(http.StatusCreated, req)
}

func (h *RequestHandler) GetRequestHandler(c *gin.Context) {
	requestID, ok := paramID(c, "requestID")
	if !ok {
		return
	}
	actorID, role, ok := actor(c)
	if !ok {
		return
	}
	req, err := h.Service.GetRequest(c.Request.Context(), requestID, role, actorID)
	if err != nil {
		respondError(c, "Failed to fetch service request", err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *RequestHandler) AssignProviderHandler(c *gin.Context) {
	var body struct {
		ProviderID int64 `json:"providerId"`
	}
	h.withBody(c, &body, "Failed to assign provider", func(ctx context.Context, requestID, actorID int64) (*models.ServiceRequest, error) {
		return h.Service.AssignProvider(ctx, requestID, actorID, body.ProviderID)
	})
}

func (h *RequestHandler) QuoteHandler(c *gin.Context) {
	var body struct {
		Price *float64 `json:"price" binding:"required"`
	}
	h.withBody(c, &body, "Failed to quote service request", func(ctx context.Context, requestID, actorID int64) (*models.ServiceRequest, error) {
		return h.Service.Quote(ctx, requestID, actorID, *body.Price)
	})
}

func (h *RequestHandler) AcceptHandler(c *gin.Context) {
	h.transition(c, "Failed to accept quote", h.Service.Accept)
}

func (h *RequestHandler) StartHandler(c *gin.Context) {
	h.transition(c, "Failed to start service request", h.Service.Start)
}

func (h *RequestHandler) CompleteHandler(c *gin.Context) {
	h.transition(c, "Failed to complete service request", h.Service.Complete)
}

func (h *RequestHandler) CancelHandler(c *gin.Context) {
	requestID, ok := paramID(c, "requestID")
	if !ok {
		return
	}
	actorID, role, ok := actor(c)
	if !ok {
		return
	}
	req, err := h.Service.Cancel(c.Request.Context(), requestID, role, actorID)
	if err != nil {
		respondError(c, "Failed to cancel service request", err)
		return
	}
	c.JSON(http.StatusOK, req)
}

type transitionFunc func(ctx context.Context, requestID, actorID int64) (*models.ServiceRequest, error)

func (h *RequestHandler) transition(c *gin.Context, failMsg string, fn transitionFunc) {
	requestID, ok := paramID(c, "requestID")
	if !ok {
		return
	}
	actorID, _, ok := actor(c)
	if !ok {
		return
	}
	req, err := fn(c.Request.Context(), requestID, actorID)
	if err != nil {
		respondError(c, failMsg, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *RequestHandler) withBody(c *gin.Context, body any, failMsg string, fn transitionFunc) {
	requestID, ok := paramID(c, "requestID")
	if !ok {
		return
	}
	if err := c.ShouldBindJSON(body); err != nil {
		badRequest(c, "body", nil, "Invalid request payload: "+err.Error())
		return
	}
	actorID, _, ok := actor(c)
	if !ok {
		return
	}
	req, err := fn(c.Request.Context(), requestID, actorID)
	if err != nil {
		respondError(c, failMsg, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
