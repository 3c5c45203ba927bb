package service

import (
	"errors"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperrors"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := t.Context()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	user := model.User{
		Username: "login.supervisor",
		Email:    "login@example.com",
		Password: string(hash),
		Role:     model.RoleSupervisor,
	}
	if err := env.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	secret := []byte("test-secret")
	auth := NewAuthService(repository.NewUserRepository(env.db), secret)

	t.Run("wrong password", func(t *testing.T) {
		_, err := auth.Login(ctx, LoginDTO{Email: "login@example.com", Password: "nope"})
		if !errors.Is(err, apperrors.PermissionDenied) {
			t.Errorf("got %v, want permission denied", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := auth.Login(ctx, LoginDTO{Email: "ghost@example.com", Password: "s3cret"})
		if !errors.Is(err, apperrors.PermissionDenied) {
			t.Errorf("got %v, want permission denied", err)
		}
	})

	t.Run("valid credentials", func(t *testing.T) {
		result, err := auth.Login(ctx, LoginDTO{Email: "login@example.com", Password: "s3cret"})
		if err != nil {
			t.Fatalf("Login: %v", err)
		}
		if result.User.ID != user.ID || result.User.Role != model.RoleSupervisor {
			t.Errorf("user summary: %+v", result.User)
		}

		parsed, err := jwt.Parse(result.Token, func(token *jwt.Token) (interface{}, error) {
			return secret, nil
		})
		if err != nil || !parsed.Valid {
			t.Fatalf("token does not verify: %v", err)
		}
		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			t.Fatalf("unexpected claims type %T", parsed.Claims)
		}
		if claims["sub"] != user.ID.String() || claims["role"] != model.RoleSupervisor {
			t.Errorf("claims: %+v", claims)
		}
	})
}
