package accounts

import (
	"errors"
	"strconv"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/example/movie-platform/internal/platform/auth"
)

const (
	AccessTokenTTL       = time.Hour
	VerificationTokenTTL = 7 * 24 * time.Hour
	ResetTokenTTL        = time.Hour
)

// TokenService mints and parses the three token kinds the account flows use:
// access (login), email verification, password reset. All HS256 with the
// shared secret.
type TokenService struct {
	Secret []byte
}

func (s TokenService) NewAccessToken(userID int64, username string, now time.Time) (string, error) {
	if len(s.Secret) == 0 {
		return "", errors.New("missing jwt secret")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
		},
		Username: username,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

type verificationClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
}

func (s TokenService) NewVerificationToken(email string, now time.Time) (string, error) {
	if len(s.Secret) == 0 {
		return "", errors.New("missing jwt secret")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	claims := verificationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(VerificationTokenTTL)),
		},
		Email: email,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// ParseVerificationToken returns the email the token was issued for.
func (s TokenService) ParseVerificationToken(tokenString string) (string, error) {
	var claims verificationClaims
	if err := s.parse(tokenString, &claims); err != nil {
		return "", err
	}
	if claims.Email == "" {
		return "", errors.New("invalid token")
	}
	return claims.Email, nil
}

type resetClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"userId"`
}

func (s TokenService) NewResetToken(userID int64, now time.Time) (string, error) {
	if len(s.Secret) == 0 {
		return "", errors.New("missing jwt secret")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	claims := resetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ResetTokenTTL)),
		},
		UserID: userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
}

// ParseResetToken returns the user id the reset was requested for.
func (s TokenService) ParseResetToken(tokenString string) (int64, error) {
	var claims resetClaims
	if err := s.parse(tokenString, &claims); err != nil {
		return 0, err
	}
	if claims.UserID <= 0 {
		return 0, errors.New("invalid token")
	}
	return claims.UserID, nil
}

func (s TokenService) parse(tokenString string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return s.Secret, nil
	})
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return errors.New("invalid token")
	}
	return nil
}
