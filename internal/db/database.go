package db

import (
	"fmt"

	"github.com/hyeonwoo/placecache/config"
	appLogger "github.com/hyeonwoo/placecache/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize opens the backing store. SQLite is the default target and
// assumes a single writer process per store file; PostgreSQL arbitrates
// concurrent writers itself and is the choice for shared deployments.
func Initialize(cfg *config.DatabaseConfig) error {
	appLogger.Info("Connecting to database", map[string]interface{}{
		"driver":   cfg.Driver,
		"path":     cfg.Path,
		"host":     cfg.Host,
		"database": cfg.DBName,
	})

	gormCfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Use silent mode, we'll use our own logger
	}

	var err error
	switch cfg.Driver {
	case "postgres":
		DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	case "sqlite", "":
		DB, err = gorm.Open(sqlite.Open(cfg.Path), gormCfg)
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == "sqlite" || cfg.Driver == "" {
		// SQLite serializes writes through one connection
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	}

	appLogger.Info("Database connection established successfully", map[string]interface{}{
		"driver": cfg.Driver,
	})
	return nil
}

// Close closes the database connection
func Close() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
