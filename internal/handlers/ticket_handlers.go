package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"aquacoop_app_echo/internal/models"
	"aquacoop_app_echo/internal/services"
)

type TicketHandler struct {
	tickets  *services.TicketService
	validate *validator.Validate
}

func NewTicketHandler(tickets *services.TicketService, validate *validator.Validate) *TicketHandler {
	return &TicketHandler{tickets: tickets, validate: validate}
}

type periodRequest struct {
	Month int `json:"month" validate:"required,min=1,max=12"`
	Year  int `json:"year" validate:"required,min=1900"`
}

type monthlyItemRequest struct {
	Periods []periodRequest `json:"periods" validate:"required,min=1,dive"`
}

type installmentItemRequest struct {
	PlanID            uint    `json:"plan_id" validate:"required"`
	InstallmentNumber int     `json:"installment_number" validate:"required,min=1"`
	Amount            float64 `json:"amount" validate:"required,gt=0"`
}

type feeItemRequest struct {
	Category    string  `json:"category" validate:"required"`
	Description string  `json:"description" validate:"max=255"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
}

type createTicketRequest struct {
	ConnectionID  uint                     `json:"connection_id" validate:"required"`
	PayerName     string                   `json:"payer_name" validate:"required,max=255"`
	PayerIDNumber string                   `json:"payer_id_number" validate:"max=50"`
	PaymentDate   *time.Time               `json:"payment_date"`
	Notes         string                   `json:"notes" validate:"max=500"`
	Monthly       []monthlyItemRequest     `json:"monthly" validate:"dive"`
	Installments  []installmentItemRequest `json:"installments" validate:"dive"`
	Fees          []feeItemRequest         `json:"fees" validate:"dive"`
}

// CreateTicket records one unified front-desk payment
func (h *TicketHandler) CreateTicket(c echo.Context) error {
	var req createTicketRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}

	input := services.TicketInput{
		ConnectionID:  req.ConnectionID,
		PayerName:     req.PayerName,
		PayerIDNumber: req.PayerIDNumber,
		Notes:         req.Notes,
	}
	if req.PaymentDate != nil {
		input.PaymentDate = *req.PaymentDate
	}
	for _, item := range req.Monthly {
		periods := make([]models.Period, len(item.Periods))
		for i, p := range item.Periods {
			periods[i] = models.Period{Month: p.Month, Year: p.Year}
		}
		input.Monthly = append(input.Monthly, services.MonthlyItem{Periods: periods})
	}
	for _, item := range req.Installments {
		input.Installments = append(input.Installments, services.InstallmentItem{
			PlanID:            item.PlanID,
			InstallmentNumber: item.InstallmentNumber,
			Amount:            item.Amount,
		})
	}
	for _, item := range req.Fees {
		input.Fees = append(input.Fees, services.FeeItem{
			Category:    models.FeeCategory(item.Category),
			Description: item.Description,
			Amount:      item.Amount,
		})
	}

	ticket, err := h.tickets.Process(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ticket)
}

// VoidMonthlyPayment soft-deletes a monthly due payment and refreshes the
// connection status
func (h *TicketHandler) VoidMonthlyPayment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.tickets.VoidMonthlyPayment(c.Request().Context(), id, time.Now()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// VoidFeePayment soft-deletes a misc fee payment
func (h *TicketHandler) VoidFeePayment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.tickets.VoidFeePayment(c.Request().Context(), id, time.Now()); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
