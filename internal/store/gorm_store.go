package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"aquacoop_app_echo/internal/models"
)

// GormStore implements Store on top of a GORM Postgres connection.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a store backed by the given database handle.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *GormStore) CreateOwner(ctx context.Context, owner *models.Owner) error {
	return s.db.WithContext(ctx).Create(owner).Error
}

func (s *GormStore) GetOwner(ctx context.Context, id uint) (*models.Owner, error) {
	var owner models.Owner
	if err := s.db.WithContext(ctx).First(&owner, id).Error; err != nil {
		return nil, translate(err)
	}
	return &owner, nil
}

func (s *GormStore) CreateConnection(ctx context.Context, conn *models.Connection) error {
	return s.db.WithContext(ctx).Create(conn).Error
}

func (s *GormStore) GetConnection(ctx context.Context, id uint) (*models.Connection, error) {
	var conn models.Connection
	if err := s.db.WithContext(ctx).First(&conn, id).Error; err != nil {
		return nil, translate(err)
	}
	return &conn, nil
}

func (s *GormStore) LockConnection(ctx context.Context, id uint) (*models.Connection, error) {
	var conn models.Connection
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&conn, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &conn, nil
}

func (s *GormStore) UpdateConnectionStatus(ctx context.Context, id uint, status models.StatusSet) error {
	res := s.db.WithContext(ctx).
		Model(&models.Connection{}).
		Where("id = ?", id).
		Update("payment_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateMonthlyPayment(ctx context.Context, p *models.MonthlyDuePayment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) GetMonthlyPayment(ctx context.Context, id uint) (*models.MonthlyDuePayment, error) {
	var p models.MonthlyDuePayment
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) ListMonthlyPayments(ctx context.Context, connectionID uint) ([]models.MonthlyDuePayment, error) {
	var payments []models.MonthlyDuePayment
	err := s.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		Order("year asc, month asc").
		Find(&payments).Error
	return payments, err
}

func (s *GormStore) DeleteMonthlyPayment(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.MonthlyDuePayment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreatePlan(ctx context.Context, plan *models.InstallmentPlan) error {
	return s.db.WithContext(ctx).Create(plan).Error
}

func (s *GormStore) GetPlan(ctx context.Context, id uint) (*models.InstallmentPlan, error) {
	var plan models.InstallmentPlan
	if err := s.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		return nil, translate(err)
	}
	return &plan, nil
}

func (s *GormStore) ListPlansByConnection(ctx context.Context, connectionID uint) ([]models.InstallmentPlan, error) {
	var plans []models.InstallmentPlan
	err := s.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		Order("id asc").
		Find(&plans).Error
	return plans, err
}

func (s *GormStore) SavePlan(ctx context.Context, plan *models.InstallmentPlan) error {
	return s.db.WithContext(ctx).Save(plan).Error
}

func (s *GormStore) CreateInstallmentPayment(ctx context.Context, p *models.InstallmentPayment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) ListInstallmentPayments(ctx context.Context, planID uint) ([]models.InstallmentPayment, error) {
	var payments []models.InstallmentPayment
	err := s.db.WithContext(ctx).
		Where("plan_id = ?", planID).
		Order("id asc").
		Find(&payments).Error
	return payments, err
}

func (s *GormStore) CreateFeePayment(ctx context.Context, p *models.MiscFeePayment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

func (s *GormStore) GetFeePayment(ctx context.Context, id uint) (*models.MiscFeePayment, error) {
	var p models.MiscFeePayment
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *GormStore) DeleteFeePayment(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.MiscFeePayment{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) CreateTicket(ctx context.Context, t *models.UnifiedTicket) error {
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *GormStore) GetTicket(ctx context.Context, id uint) (*models.UnifiedTicket, error) {
	var t models.UnifiedTicket
	err := s.db.WithContext(ctx).Preload("Lines").First(&t, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// NextReceiptValue increments the shared counter under a row lock so numbers
// are unique even with two cashier stations hitting the same database.
func (s *GormStore) NextReceiptValue(ctx context.Context) (int64, error) {
	var counter models.ReceiptCounter
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		counter = models.ReceiptCounter{Value: 0}
		if err := s.db.WithContext(ctx).Create(&counter).Error; err != nil {
			return 0, err
		}
	} else if err != nil {
		return 0, err
	}

	counter.Value++
	if err := s.db.WithContext(ctx).Save(&counter).Error; err != nil {
		return 0, err
	}
	return counter.Value, nil
}

// Atomic wraps fn in a database transaction. The callback receives a store
// bound to the transaction handle; GORM rolls back when fn returns an error
// or panics.
func (s *GormStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx})
	})
}
