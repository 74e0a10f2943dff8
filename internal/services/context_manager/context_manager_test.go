package context_manager

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestSetUserContext(t *testing.T) {
	id := uuid.New()
	ctx := SetUserContext(context.Background(), id)

	got, ok := GetUserFromContext(ctx)
	if !ok || got != id {
		t.Errorf("expected %s, got %s (ok=%v)", id, got, ok)
	}
}

func TestGetUserFromContext_Empty(t *testing.T) {
	if _, ok := GetUserFromContext(context.Background()); ok {
		t.Error("expected no user on a fresh context")
	}
}

func TestGetUserFromContext_NilID(t *testing.T) {
	ctx := SetUserContext(context.Background(), uuid.Nil)
	if _, ok := GetUserFromContext(ctx); ok {
		t.Error("nil id must not count as authenticated")
	}
}

func TestSetUserContext_Overwrite(t *testing.T) {
	first, second := uuid.New(), uuid.New()
	ctx := SetUserContext(context.Background(), first)
	ctx = SetUserContext(ctx, second)

	got, _ := GetUserFromContext(ctx)
	if got != second {
		t.Errorf("expected %s, got %s", second, got)
	}
}
