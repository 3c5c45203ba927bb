package service

import (
	"context"
	"errors"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperrors"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LoginDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResult struct {
	Token string            `json:"token"`
	User  model.UserSummary `json:"user"`
}

// AuthService is the authentication collaborator: it resolves credentials
// into a signed token carrying the UserSummary the core engines authorize
// against. The engines themselves never touch tokens.
type AuthService interface {
	Login(ctx context.Context, req LoginDTO) (*LoginResult, error)
}

type authService struct {
	users  repository.UserRepository
	secret []byte
}

func NewAuthService(users repository.UserRepository, secret []byte) AuthService {
	return &authService{users: users, secret: secret}
}

func (s *authService) Login(ctx context.Context, req LoginDTO) (*LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.PermissionDeniedf("invalid email or password")
	} else if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, apperrors.PermissionDeniedf("invalid email or password")
	}

	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"name": user.Username,
		"role": user.Role,
		"exp":  time.Now().Add(24 * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	return &LoginResult{Token: token, User: user.Summary()}, nil
}
