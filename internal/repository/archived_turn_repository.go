package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"yyss-assistant/internal/model"
)

type ArchivedTurnRepository struct {
	db *gorm.DB
}

func NewArchivedTurnRepository(db *gorm.DB) *ArchivedTurnRepository {
	return &ArchivedTurnRepository{db: db}
}

func (r *ArchivedTurnRepository) Create(ctx context.Context, turn *model.ArchivedTurn) error {
	if err := r.db.WithContext(ctx).Create(turn).Error; err != nil {
		return fmt.Errorf("create archived turn failed: %w", err)
	}
	return nil
}

func (r *ArchivedTurnRepository) ListBySessionID(ctx context.Context, sessionID string, limit int) ([]model.ArchivedTurn, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	var turns []model.ArchivedTurn
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at ASC, id ASC").Limit(limit).Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("list archived turns failed: %w", err)
	}
	return turns, nil
}
