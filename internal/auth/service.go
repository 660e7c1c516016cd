// Package auth implements account registration, login and password lifecycle.
// Access tokens are HMAC-signed JWTs; passwords are hashed with Argon2id and
// never leave the database in any readable form.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/config"
	"github.com/bandsync/bandsync/internal/db/models"
	"github.com/bandsync/bandsync/internal/uniuri"
)

const (
	minPasswordLen = 8
	resetTokenLen  = 48
)

// Service wires account operations to the database and token settings.
type Service struct {
	db  *gorm.DB
	cfg config.Auth
}

// NewService creates an auth service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{db: db, cfg: cfg}
}

// Credentials is the login/registration input.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Session is the result of a successful login or registration.
type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register creates a new account and returns a session for it.
// New accounts start active, with the default role and no group.
func (s *Service) Register(ctx context.Context, email, password, name, phone string) (*Session, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrEmailEmpty
	}

	if len(password) < minPasswordLen {
		return nil, ErrPasswordTooShort
	}

	user := models.User{
		ID:       uuid.NewString(),
		Active:   true,
		Email:    email,
		Password: models.HashPassword(password),
		Name:     name,
		Phone:    phone,
		Role:     models.RoleMember,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return err
		}

		if n > 0 {
			return ErrEmailTaken
		}

		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}

	return s.session(&user)
}

// Login verifies credentials and returns a fresh session.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	var user models.User

	err := s.db.WithContext(ctx).First(&user, "email = ?", normalizeEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidCredentials
	}

	if !user.Active {
		return nil, ErrAccountInactive
	}

	return s.session(&user)
}

// Identify resolves an access token to the user it was issued for.
func (s *Service) Identify(ctx context.Context, token string) (*models.User, error) {
	if s.db == nil {
		return nil, ErrDBNil
	}

	claims, err := ValidateToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return nil, err
	}

	var user models.User

	err = s.db.WithContext(ctx).First(&user, "id = ?", claims.UserID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	return &user, nil
}

// RequestPasswordReset issues a single-use reset token for the account.
// An unknown email returns an empty token without an error, so the endpoint
// does not leak which addresses are registered.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	if s.db == nil {
		return "", ErrDBNil
	}

	var user models.User

	err := s.db.WithContext(ctx).First(&user, "email = ?", normalizeEmail(email)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Debug().Str("email", email).Msg("password reset requested for unknown email")
			return "", nil
		}

		return "", err
	}

	reset := models.PasswordReset{
		Token:     uniuri.NewLen(resetTokenLen),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(s.cfg.ResetTokenExpiry),
	}

	if err := s.db.WithContext(ctx).Create(&reset).Error; err != nil {
		return "", err
	}

	return reset.Token, nil
}

// ConfirmPasswordReset consumes a reset token and sets the new password.
// The token is deleted in the same transaction, so it works exactly once.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if s.db == nil {
		return ErrDBNil
	}

	if len(newPassword) < minPasswordLen {
		return ErrPasswordTooShort
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reset models.PasswordReset

		err := tx.First(&reset, "token = ?", token).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrResetTokenInvalid
			}

			return err
		}

		if time.Now().After(reset.ExpiresAt) {
			// expired tokens are garbage, drop them on sight
			if err := tx.Delete(&reset).Error; err != nil {
				return err
			}

			return ErrResetTokenInvalid
		}

		err = tx.Model(&models.User{}).
			Where("id = ?", reset.UserID).
			Update("password", models.HashPassword(newPassword)).Error
		if err != nil {
			return err
		}

		return tx.Where("user_id = ?", reset.UserID).Delete(&models.PasswordReset{}).Error
	})
}

// ChangePassword sets a new password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, userID, current, newPassword string) error {
	if s.db == nil {
		return ErrDBNil
	}

	if len(newPassword) < minPasswordLen {
		return ErrPasswordTooShort
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User

		err := tx.First(&user, "id = ?", userID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}

			return err
		}

		if !user.VerifyPassword(current) {
			return ErrInvalidCredentials
		}

		return tx.Model(&user).Update("password", models.HashPassword(newPassword)).Error
	})
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, err := GenerateToken([]byte(s.cfg.TokenSecret), user.ID, user.Email, s.cfg.TokenExpiry)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, User: user}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
