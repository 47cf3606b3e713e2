package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"aquacoop_app_echo/internal/models"
	"aquacoop_app_echo/internal/services"
	"aquacoop_app_echo/internal/store"
)

type ConnectionHandler struct {
	st       store.Store
	queries  *services.QueryService
	validate *validator.Validate
}

func NewConnectionHandler(st store.Store, queries *services.QueryService, validate *validator.Validate) *ConnectionHandler {
	return &ConnectionHandler{st: st, queries: queries, validate: validate}
}

type createOwnerRequest struct {
	Name      string `json:"name" validate:"required,max=255"`
	IDNumber  string `json:"id_number" validate:"max=50"`
	Phone     string `json:"phone" validate:"max=50"`
	Community string `json:"community" validate:"max=100"`
}

// CreateOwner registers a new owner
func (h *ConnectionHandler) CreateOwner(c echo.Context) error {
	var req createOwnerRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}
	owner := &models.Owner{
		Name:      req.Name,
		IDNumber:  req.IDNumber,
		Phone:     req.Phone,
		Community: req.Community,
	}
	if err := h.st.CreateOwner(c.Request().Context(), owner); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, owner)
}

type createConnectionRequest struct {
	Code         string     `json:"code" validate:"required,max=50"`
	OwnerID      uint       `json:"owner_id" validate:"required"`
	Community    string     `json:"community" validate:"max=100"`
	MonthlyFee   float64    `json:"monthly_fee" validate:"gte=0"`
	BillingStart *time.Time `json:"billing_start"`
}

// CreateConnection provisions a new service point
func (h *ConnectionHandler) CreateConnection(c echo.Context) error {
	var req createConnectionRequest
	if err := bindAndValidate(c, h.validate, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.st.GetOwner(ctx, req.OwnerID); err != nil {
		return err
	}

	conn := &models.Connection{
		Code:             req.Code,
		OwnerID:          req.OwnerID,
		Community:        req.Community,
		OperationalState: models.OperationalStateOperational,
		MonthlyFee:       req.MonthlyFee,
		BillingStart:     req.BillingStart,
		PaymentStatus:    models.NewStatusSet(),
	}
	if err := h.st.CreateConnection(ctx, conn); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, conn)
}

// GetConnection returns one connection row
func (h *ConnectionHandler) GetConnection(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	conn, err := h.st.GetConnection(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, conn)
}

// GetStatus returns the status set and pending periods of a connection. An
// optional as_of=YYYY-MM-DD query parameter overrides the reference date.
func (h *ConnectionHandler) GetStatus(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	asOf := time.Now()
	if raw := c.QueryParam("as_of"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "as_of must be YYYY-MM-DD")
		}
		asOf = parsed
	}

	status, err := h.queries.ConnectionStatus(c.Request().Context(), id, asOf)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, status)
}
