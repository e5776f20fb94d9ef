package handlers

import (
	"net/http"

	"servimatch/models"
	"servimatch/services/availability"

	"github.com/gin-gonic/gin"
)

// SlotHandler serves a provider's availability slots.
type SlotHandler struct {
	Service availability.AvailabilityService
}

// ownProvider checks that the caller is the provider named in the path.
func ownProvider(c *gin.Context) (int64, bool) {
	providerID, ok := paramID(c, "providerID")
	if !ok {
		return 0, false
	}
	actorID, role, ok := actor(c)
	if !ok {
		return 0, false
	}
	if role != models.RoleProvider || actorID != providerID {
		respondError(c, "Forbidden", models.Forbidden("providerId", providerID, "caller may only manage their own slots"))
		return 0, false
	}
	return providerID, true
}

func (h *SlotHandler) ListSlotsHandler(c *gin.Context) {
	providerID, ok := ownProvider(c)
	if !ok {
		return
	}
	slots, err := h.Service.ListSlots(c.Request.Context(), providerID)
	if err != nil {
		respondError(c, "Failed to fetch slots", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"slots": slots})
}

func (h *SlotHandler) CreateSlotHandler(c *gin.Context) {
	providerID, ok := ownProvider(c)
	if !ok {
		return
	}
	var in models.SlotInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "body", nil, "Invalid request payload: "+err.Error())
		return
	}
	slot, err := h.Service.CreateSlot(c.Request.Context(), providerID, in)
	if err != nil {
		respondError(c, "Failed to create slot", err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

func (h *SlotHandler) UpdateSlotHandler(c *gin.Context) {
	providerID, ok := ownProvider(c)
	if !ok {
		return
	}
	slotID, ok := paramID(c, "slotID")
	if !ok {
		return
	}
	var patch models.SlotPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "body", nil, "Invalid request payload: "+err.Error())
		return
	}
	slot, err := h.Service.UpdateSlot(c.Request.Context(), slotID, providerID, patch)
	if err != nil {
		respondError(c, "Failed to update slot", err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

func (h *SlotHandler) DeleteSlotHandler(c *gin.Context) {
	providerID, ok := ownProvider(c)
	if !ok {
		return
	}
	slotID, ok := paramID(c, "slotID")
	if !ok {
		return
	}
	if err := h.Service.DeleteSlot(c.Request.Context(), slotID, providerID); err != nil {
		respondError(c, "Failed to delete slot", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CheckAvailabilityHandler answers whether a provider works at ?date=&time=.
// Any authenticated caller may ask.
func (h *SlotHandler) CheckAvailabilityHandler(c *gin.Context) {
	providerID, ok := paramID(c, "providerID")
	if !ok {
		return
	}
	date, timeOfDay := c.Query("date"), c.Query("time")
	available, err := h.Service.CheckAvailability(c.Request.Context(), providerID, date, timeOfDay)
	if err != nil {
		respondError(c, "Failed to check availability", err)
		return
	}
	c.JSON(http.StatusOK, models.AvailabilityCheck{
		ProviderID: providerID,
		Date:       date,
		Time:       timeOfDay,
		Available:  available,
	})
}
