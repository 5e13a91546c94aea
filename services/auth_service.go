package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixtura/livescore-system/repositories"
)

const tokenTTL = 12 * time.Hour

// Capability proves that a mutation was requested by an authenticated
// admin. It is passed explicitly into the coordinator instead of living in
// ambient request state.
type Capability struct {
	AdminID int
	Email   string
}

func (c Capability) Valid() bool { return c.AdminID > 0 }

type AuthService interface {
	// Login verifies the credential and returns a signed token.
	Login(ctx context.Context, email, password string) (string, error)
	// Verify parses a token and returns the capability it carries.
	Verify(tokenString string) (Capability, error)
}

type adminClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type authService struct {
	admins    repositories.AdminRepository
	secretKey []byte
}

func NewAuthService(admins repositories.AdminRepository, secretKey string) AuthService {
	return &authService{admins: admins, secretKey: []byte(secretKey)}
}

func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrAdminNotFound) {
			// Same error as a wrong password, no account probing.
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := adminClaims{
		Email: admin.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", admin.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *authService) Verify(tokenString string) (Capability, error) {
	var claims adminClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil || !token.Valid {
		return Capability{}, ErrInvalidToken
	}

	var adminID int
	if _, err := fmt.Sscanf(claims.Subject, "%d", &adminID); err != nil || adminID <= 0 {
		return Capability{}, ErrInvalidToken
	}
	return Capability{AdminID: adminID, Email: claims.Email}, nil
}
