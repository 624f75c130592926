package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"yyss-assistant/internal/model"
)

// ErrNotFound is returned by deletes that matched no row.
var ErrNotFound = errors.New("record not found")

type AssistantSessionRepository struct {
	db *gorm.DB
}

func NewAssistantSessionRepository(db *gorm.DB) *AssistantSessionRepository {
	return &AssistantSessionRepository{db: db}
}

func (r *AssistantSessionRepository) Create(ctx context.Context, session *model.AssistantSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return fmt.Errorf("create assistant session failed: %w", err)
	}
	return nil
}

func (r *AssistantSessionRepository) ListByUserID(ctx context.Context, userID uint) ([]model.AssistantSession, error) {
	var sessions []model.AssistantSession
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("updated_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list assistant sessions failed: %w", err)
	}
	return sessions, nil
}

func (r *AssistantSessionRepository) GetByIDAndUserID(ctx context.Context, sessionID string, userID uint) (*model.AssistantSession, error) {
	var session model.AssistantSession
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get assistant session failed: %w", err)
	}
	return &session, nil
}

// Touch bumps updated_at so listings show the most recently used session first.
func (r *AssistantSessionRepository) Touch(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).Model(&model.AssistantSession{}).
		Where("id = ?", sessionID).
		Update("updated_at", time.Now()).Error; err != nil {
		return fmt.Errorf("touch assistant session failed: %w", err)
	}
	return nil
}

func (r *AssistantSessionRepository) DeleteByID(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", sessionID).Delete(&model.AssistantSession{}).Error; err != nil {
		return fmt.Errorf("delete assistant session failed: %w", err)
	}
	return nil
}

func (r *AssistantSessionRepository) DeleteByIDAndUserID(ctx context.Context, sessionID string, userID uint) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", sessionID, userID).Delete(&model.AssistantSession{})
	if result.Error != nil {
		return fmt.Errorf("delete assistant session failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
