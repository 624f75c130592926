package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"gorm.io/gorm"

	"yyss-assistant/internal/model"
	"yyss-assistant/internal/platform/sqlite"
)

func testDB(tb testing.TB) *gorm.DB {
	tb.Helper()
	db, err := sqlite.New(context.Background(), filepath.Join(tb.TempDir(), "test.db"))
	if err != nil {
		tb.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.AssistantSession{}, &model.ArchivedTurn{}); err != nil {
		tb.Fatalf("migrate test db: %v", err)
	}
	tb.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testDB(t))

	user := &model.User{Username: "ms.lee", Email: "lee@yyss.edu", PasswordHash: "hash"}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected id to be assigned")
	}

	byName, err := repo.GetByUsername(ctx, "ms.lee")
	if err != nil || byName == nil || byName.ID != user.ID {
		t.Fatalf("GetByUsername() = %+v, %v", byName, err)
	}
	byEmail, err := repo.GetByEmail(ctx, "lee@yyss.edu")
	if err != nil || byEmail == nil {
		t.Fatalf("GetByEmail() = %+v, %v", byEmail, err)
	}
	missing, err := repo.GetByID(ctx, 999)
	if err != nil || missing != nil {
		t.Fatalf("GetByID(999) = %+v, %v; want nil, nil", missing, err)
	}
	if err := repo.Create(ctx, &model.User{Username: "ms.lee", Email: "other@yyss.edu", PasswordHash: "x"}); err == nil {
		t.Fatal("expected unique constraint error")
	}
}

func TestAssistantSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAssistantSessionRepository(testDB(t))

	older := &model.AssistantSession{ID: "s-1", UserID: 1, Title: "Algebra", UpdatedAt: time.Now().Add(-time.Hour)}
	newer := &model.AssistantSession{ID: "s-2", UserID: 1, Title: "Biology"}
	other := &model.AssistantSession{ID: "s-3", UserID: 2, Title: "Chemistry"}
	for _, s := range []*model.AssistantSession{older, newer, other} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("Create(%s) error = %v", s.ID, err)
		}
	}

	list, err := repo.ListByUserID(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "s-2" {
		t.Fatalf("ListByUserID() = %+v", list)
	}

	if got, err := repo.GetByIDAndUserID(ctx, "s-3", 1); err != nil || got != nil {
		t.Fatalf("foreign session visible: %+v, %v", got, err)
	}

	if err := repo.Touch(ctx, "s-1"); err != nil {
		t.Fatal(err)
	}
	list, _ = repo.ListByUserID(ctx, 1)
	if list[0].ID != "s-1" {
		t.Fatalf("touched session not first: %+v", list)
	}

	if err := repo.DeleteByIDAndUserID(ctx, "s-1", 1); err != nil {
		t.Fatal(err)
	}
	if got, _ := repo.GetByIDAndUserID(ctx, "s-1", 1); got != nil {
		t.Fatal("session not deleted")
	}
	if err := repo.DeleteByIDAndUserID(ctx, "s-1", 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestArchivedTurnRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewArchivedTurnRepository(testDB(t))

	now := time.Now()
	turns := []model.ArchivedTurn{
		{SessionID: "s-1", UserID: 1, Role: "user", Content: "hello", CreatedAt: now},
		{SessionID: "s-1", UserID: 1, Role: "assistant", Content: "Hi!", Source: "canned", CreatedAt: now},
		{SessionID: "s-2", UserID: 1, Role: "user", Content: "other", CreatedAt: now},
	}
	for i := range turns {
		if err := repo.Create(ctx, &turns[i]); err != nil {
			t.Fatal(err)
		}
	}

	got, err := repo.ListBySessionID(ctx, "s-1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Role != "user" || got[1].Role != "assistant" {
		t.Fatalf("ListBySessionID() = %+v", got)
	}
}
