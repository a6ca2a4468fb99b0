package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/in-nis/smartschedule-back/internal/models"
)

type Storage struct {
	DB *gorm.DB
}

// Open connects with the given driver ("postgres" or "sqlite") and migrates
// the schema.
func Open(driver, dsn string) (*Storage, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite", "":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := gdb.AutoMigrate(&models.User{}, &models.GenerationRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	slog.Info("database connected and migrated", "driver", driver)
	return &Storage{DB: gdb}, nil
}

func (s *Storage) Ping() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (s *Storage) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Storage) SaveOrUpdateUser(ctx context.Context, u models.User) error {
	var existing models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", u.Email).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.DB.WithContext(ctx).Create(&u).Error
		}
		return err
	}
	return s.DB.WithContext(ctx).Model(&existing).Updates(u).Error
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Storage) SaveGeneration(ctx context.Context, rec *models.GenerationRecord) error {
	return s.DB.WithContext(ctx).Create(rec).Error
}

// ListGenerations returns the newest records of a workspace first.
func (s *Storage) ListGenerations(ctx context.Context, workspace string, limit int) ([]models.GenerationRecord, error) {
	var records []models.GenerationRecord
	err := s.DB.WithContext(ctx).
		Where("workspace = ?", workspace).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&records).Error
	return records, err
}

func (s *Storage) PruneGenerations(ctx context.Context, olderThan time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Where("created_at < ?", olderThan).Delete(&models.GenerationRecord{})
	return res.RowsAffected, res.Error
}
