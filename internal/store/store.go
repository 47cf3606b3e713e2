package store

import (
	"context"
	"errors"

	"aquacoop_app_echo/internal/models"
)

// ErrNotFound is returned when a record does not exist or is soft-deleted.
var ErrNotFound = errors.New("record not found")

// Store defines the storage interface for the payment core. The presentation
// and directory layers own everything else; the core only touches storage
// through these methods.
type Store interface {
	// Owners (read-only collaborator, plus creation for provisioning)
	CreateOwner(ctx context.Context, owner *models.Owner) error
	GetOwner(ctx context.Context, id uint) (*models.Owner, error)

	// Connections
	CreateConnection(ctx context.Context, conn *models.Connection) error
	GetConnection(ctx context.Context, id uint) (*models.Connection, error)
	// LockConnection loads the connection row locked for update. Only
	// meaningful inside Atomic; the lock is held until the transaction ends.
	LockConnection(ctx context.Context, id uint) (*models.Connection, error)
	UpdateConnectionStatus(ctx context.Context, id uint, status models.StatusSet) error

	// Monthly due payments
	CreateMonthlyPayment(ctx context.Context, p *models.MonthlyDuePayment) error
	GetMonthlyPayment(ctx context.Context, id uint) (*models.MonthlyDuePayment, error)
	ListMonthlyPayments(ctx context.Context, connectionID uint) ([]models.MonthlyDuePayment, error)
	DeleteMonthlyPayment(ctx context.Context, id uint) error

	// Installment plans and their payments
	CreatePlan(ctx context.Context, plan *models.InstallmentPlan) error
	GetPlan(ctx context.Context, id uint) (*models.InstallmentPlan, error)
	ListPlansByConnection(ctx context.Context, connectionID uint) ([]models.InstallmentPlan, error)
	SavePlan(ctx context.Context, plan *models.InstallmentPlan) error
	CreateInstallmentPayment(ctx context.Context, p *models.InstallmentPayment) error
	ListInstallmentPayments(ctx context.Context, planID uint) ([]models.InstallmentPayment, error)

	// Misc fee payments
	CreateFeePayment(ctx context.Context, p *models.MiscFeePayment) error
	GetFeePayment(ctx context.Context, id uint) (*models.MiscFeePayment, error)
	DeleteFeePayment(ctx context.Context, id uint) error

	// Unified tickets
	CreateTicket(ctx context.Context, t *models.UnifiedTicket) error
	GetTicket(ctx context.Context, id uint) (*models.UnifiedTicket, error)

	// NextReceiptValue increments and returns the shared receipt counter.
	NextReceiptValue(ctx context.Context) (int64, error)

	// Atomic runs fn against a transactional view of the store. Everything fn
	// writes is committed together or not at all.
	Atomic(ctx context.Context, fn func(Store) error) error
}
