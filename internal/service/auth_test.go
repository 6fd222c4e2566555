package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/service"

	"go.uber.org/zap"
)

func newAuth(store *memStore) *service.AuthService {
	cats := service.NewCategoryService(store, zap.NewNop())
	return service.NewAuthService(store, cats, "test-secret", 15*time.Minute, 24*time.Hour, zap.NewNop())
}

func TestAuth_RegisterLoginValidate(t *testing.T) {
	store := newMemStore()
	auth := newAuth(store)
	ctx := context.Background()

	reg, err := auth.Register(ctx, &domain.RegisterRequest{Email: " Sari@Example.com ", Name: "Sari", Password: "rahasia123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reg.AccessToken == "" || reg.RefreshToken == "" || reg.ExpiresIn != 900 {
		t.Errorf("unexpected register response: %+v", reg)
	}
	cats, _ := store.ListCategories(ctx, reg.UserID)
	if len(cats) != len(service.DefaultCategories) {
		t.Errorf("expected default categories seeded, got %d", len(cats))
	}

	_, err = auth.Register(ctx, &domain.RegisterRequest{Email: "sari@example.com", Name: "Sari 2", Password: "rahasia123"})
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Errorf("expected conflict on duplicate email, got %v", err)
	}

	login, err := auth.Login(ctx, &domain.LoginRequest{Email: "SARI@example.com", Password: "rahasia123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	claims, err := auth.ValidateAccessToken(login.AccessToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Sub != reg.UserID {
		t.Errorf("expected sub %s, got %s", reg.UserID, claims.Sub)
	}
}

func TestAuth_LoginWrongPassword(t *testing.T) {
	store := newMemStore()
	auth := newAuth(store)
	ctx := context.Background()

	if _, err := auth.Register(ctx, &domain.RegisterRequest{Email: "a@b.co", Name: "A", Password: "password1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, req := range []domain.LoginRequest{
		{Email: "a@b.co", Password: "password2"},
		{Email: "nobody@b.co", Password: "password1"},
	} {
		_, err := auth.Login(ctx, &req)
		var unauth *domain.ErrUnauthorized
		if !errors.As(err, &unauth) {
			t.Errorf("login %s: expected unauthorized, got %v", req.Email, err)
		}
	}
}

func TestAuth_RefreshRotates(t *testing.T) {
	store := newMemStore()
	auth := newAuth(store)
	ctx := context.Background()

	reg, err := auth.Register(ctx, &domain.RegisterRequest{Email: "a@b.co", Name: "A", Password: "password1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	next, err := auth.Refresh(ctx, &domain.RefreshRequest{RefreshToken: reg.RefreshToken})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.RefreshToken == reg.RefreshToken {
		t.Error("refresh must issue a new refresh token")
	}

	_, err = auth.Refresh(ctx, &domain.RefreshRequest{RefreshToken: reg.RefreshToken})
	var unauth *domain.ErrUnauthorized
	if !errors.As(err, &unauth) {
		t.Errorf("reused refresh token must be rejected, got %v", err)
	}

	if err := auth.Logout(ctx, next.RefreshToken); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := auth.Refresh(ctx, &domain.RefreshRequest{RefreshToken: next.RefreshToken}); !errors.As(err, &unauth) {
		t.Errorf("logged-out token must be rejected, got %v", err)
	}
}

func TestAuth_ValidateRejectsGarbage(t *testing.T) {
	auth := newAuth(newMemStore())
	_, err := auth.ValidateAccessToken("not.a.jwt")
	var unauth *domain.ErrUnauthorized
	if !errors.As(err, &unauth) {
		t.Errorf("expected unauthorized, got %v", err)
	}
}
