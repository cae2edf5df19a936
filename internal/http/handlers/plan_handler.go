// README: Plan API: create, fetch, and refine travel plans.
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"atlas/internal/modules/itinerary"
	"atlas/internal/planner"
	"atlas/internal/types"
)

// PlanService is the slice of the planner the handler needs; the concrete
// planner and refiner wiring satisfies it.
type PlanService interface {
	Plan(ctx context.Context, req planner.Request) (*itinerary.TravelPlan, error)
	Get(ctx context.Context, id types.ID) (*itinerary.TravelPlan, error)
}

// Refiner re-plans from feedback on a previous plan.
type Refiner interface {
	RefinePlan(ctx context.Context, planID types.ID, feedbackText string) (*itinerary.TravelPlan, error)
}

type PlanHandler struct {
	plans   PlanService
	refiner Refiner
}

func NewPlanHandler(plans PlanService, refiner Refiner) *PlanHandler {
	return &PlanHandler{plans: plans, refiner: refiner}
}

type createPlanReq struct {
	Text      string   `json:"text"`
	Tags      []string `json:"tags"`
	StartDate string   `json:"start_date"`
}

// Create handles POST /api/plans.
func (h *PlanHandler) Create(c *gin.Context) {
	var req createPlanReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(c, http.StatusBadRequest, "missing text")
		return
	}

	preq := planner.Request{Text: req.Text, Tags: req.Tags}
	if req.StartDate != "" {
		t, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			writeError(c, http.StatusBadRequest, "invalid start_date, want YYYY-MM-DD")
			return
		}
		preq.StartDate = &t
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	plan, err := h.plans.Plan(ctx, preq)
	if err != nil {
		writePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, plan)
}

// Get handles GET /api/plans/:id.
func (h *PlanHandler) Get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing plan id")
		return
	}

	plan, err := h.plans.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, plan)
}

type feedbackReq struct {
	FeedbackText string `json:"feedback_text"`
}

// Feedback handles POST /api/plans/:id/feedback.
func (h *PlanHandler) Feedback(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		writeError(c, http.StatusBadRequest, "missing plan id")
		return
	}

	var req feedbackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	plan, err := h.refiner.RefinePlan(ctx, types.ID(id), req.FeedbackText)
	if err != nil {
		writePlanError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, plan)
}
