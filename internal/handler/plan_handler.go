package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"travelplanner/internal/service"
)

// planRequest тело запроса плана. Поле user игнорируется: владелец берется из токена.
type planRequest struct {
	Destination *string `json:"destination"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Activities  *string `json:"activities"`
	Notes       *string `json:"notes"`
	Status      *string `json:"status"`
	Budget      *int64  `json:"budget"`
}

func (r planRequest) input() service.PlanInput {
	return service.PlanInput{
		Destination: r.Destination,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Activities:  r.Activities,
		Notes:       r.Notes,
		Status:      r.Status,
		Budget:      r.Budget,
	}
}

func planID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found."})
		return 0, false
	}
	return id, true
}

// ListPlans обработчик для GET /api/plans/.
func (h *Handler) ListPlans(c *gin.Context) {
	plans, err := h.PlanService.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

// CreatePlan обработчик для POST /api/plans/.
func (h *Handler) CreatePlan(c *gin.Context) {
	var req planRequest
	if !h.bindJSON(c, &req) {
		return
	}
	plan, err := h.PlanService.Create(c.Request.Context(), currentUser(c).ID, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

// GetPlan обработчик для GET /api/plans/:id/.
func (h *Handler) GetPlan(c *gin.Context) {
	id, ok := planID(c)
	if !ok {
		return
	}
	plan, err := h.PlanService.Get(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// ReplacePlan обработчик для PUT /api/plans/:id/.
func (h *Handler) ReplacePlan(c *gin.Context) {
	h.updatePlan(c, false)
}

// PatchPlan обработчик для PATCH /api/plans/:id/.
func (h *Handler) PatchPlan(c *gin.Context) {
	h.updatePlan(c, true)
}

func (h *Handler) updatePlan(c *gin.Context, partial bool) {
	id, ok := planID(c)
	if !ok {
		return
	}
	var req planRequest
	if !h.bindJSON(c, &req) {
		return
	}
	plan, err := h.PlanService.Update(c.Request.Context(), currentUser(c).ID, id, req.input(), partial)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// DeletePlan обработчик для DELETE /api/plans/:id/.
func (h *Handler) DeletePlan(c *gin.Context) {
	id, ok := planID(c)
	if !ok {
		return
	}
	if err := h.PlanService.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
