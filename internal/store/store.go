// Package store keeps user records and presentation history in SQLite.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type User struct {
	ID         int64  `gorm:"primaryKey"`
	Username   string `gorm:"size:255"`
	FirstName  string `gorm:"size:255"`
	SlideCount int
	Language   string `gorm:"size:16"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Presentation struct {
	ID         uint  `gorm:"primaryKey"`
	UserID     int64 `gorm:"index"`
	Topic      string
	Title      string
	SlideCount int
	// Comma-joined list of image sources that won, e.g. "unsplash,pexels,placeholder".
	Sources   string
	Duration  time.Duration
	CreatedAt time.Time
}

type Store struct {
	db *gorm.DB
}

// Open creates the database file and runs migrations. The parent directory is
// created if missing.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(&User{}, &Presentation{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// SaveUser inserts or updates a user keyed by Telegram ID.
func (s *Store) SaveUser(ctx context.Context, user *User) error {
	if err := s.db.WithContext(ctx).Save(user).Error; err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Store) User(ctx context.Context, id int64) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}

func (s *Store) RecordPresentation(ctx context.Context, p *Presentation) error {
	if err := s.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("record presentation: %w", err)
	}
	return nil
}

// History returns the user's most recent presentations, newest first.
func (s *Store) History(ctx context.Context, userID int64, limit int) ([]Presentation, error) {
	if limit <= 0 {
		limit = 10
	}

	var items []Presentation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return items, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
