package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"aquacoop_app_echo/internal/models"
	"aquacoop_app_echo/internal/services"
)

type PlanHandler struct {
	plans    *services.PlanService
	queries  *services.QueryService
	validate *validator.Validate
}

func NewPlanHandler(plans *services.PlanService, queries *services.QueryService, validate *validator.Validate) *PlanHandler {
	return &PlanHandler{plans: plans, queries: queries, validate: validate}
}

type createPlanRequest struct {
	ConnectionID     uint    `json:"connection_id" validate:"required"`
	Category         string  `json:"category" validate:"required,oneof=installation meter"`
	TotalAmount      float64 `json:"total_amount" validate:"required,gt=0"`
	InstallmentCount int     `json:"installment_count" validate:"required,min=1"`
}

// CreatePlan provisions a new installment plan
func (h *PlanHandler) CreatePlan(c echo.Context) error {
	var req createPlanRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}

	plan, err := h.plans.Create(c.Request().Context(), services.CreatePlanInput{
		ConnectionID:     req.ConnectionID,
		Category:         models.PlanCategory(req.Category),
		TotalAmount:      req.TotalAmount,
		InstallmentCount: req.InstallmentCount,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, plan)
}

// GetPlan returns the derived state of one plan
func (h *PlanHandler) GetPlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	state, err := h.queries.PlanState(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, state)
}

type cancelPlanRequest struct {
	Reason string `json:"reason" validate:"required,max=255"`
	Actor  string `json:"actor" validate:"required,max=255"`
}

// CancelPlan cancels an active plan
func (h *PlanHandler) CancelPlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req cancelPlanRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}
	plan, err := h.plans.Cancel(c.Request().Context(), id, req.Reason, req.Actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}

// ReactivatePlan moves a cancelled plan back to active
func (h *PlanHandler) ReactivatePlan(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	plan, err := h.plans.Reactivate(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}
