package services

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"aquacoop_app_echo/internal/models"
)

// InitDB initializes the database connection with connection pooling
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings. A cooperative office has a handful of
	// stations at most, but migrations and reports share the pool.
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Println("Database connection established")
	return db, nil
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	log.Println("Running database migrations...")

	err := db.AutoMigrate(
		&models.Owner{},
		&models.Connection{},
		&models.MonthlyDuePayment{},
		&models.InstallmentPlan{},
		&models.InstallmentPayment{},
		&models.MiscFeePayment{},
		&models.UnifiedTicket{},
		&models.TicketLine{},
		&models.ReceiptCounter{},
	)
	if err != nil {
		return err
	}

	log.Println("Database migrations completed")
	return nil
}
