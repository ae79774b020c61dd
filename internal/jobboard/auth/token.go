package auth

import (
	"fmt"
	"time"

	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	sessionTTL = time.Hour * 24
	csrfTTL    = time.Hour

	// purposeCSRF marks anti-forgery tokens so a session token can never
	// double as one.
	purposeCSRF = "csrf"
)

// GenerateToken issues a session JWT carrying the principal's identity
// and role.
func GenerateToken(p Principal, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  p.UserID.String(),
		"role": string(p.Role),
		"exp":  time.Now().Add(sessionTTL).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a session token and reconstructs the Principal.
func ParseToken(tokenString, secret string) (Principal, error) {
	claims, err := validateToken(tokenString, secret)
	if err != nil {
		return Anonymous, err
	}
	if purpose, _ := claims["purpose"].(string); purpose != "" {
		return Anonymous, fmt.Errorf("not a session token")
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return Anonymous, fmt.Errorf("invalid subject claim: %w", err)
	}
	rawRole, _ := claims["role"].(string)
	role, err := models.ParseRole(rawRole)
	if err != nil {
		return Anonymous, fmt.Errorf("invalid role claim: %w", err)
	}
	return Principal{UserID: userID, Role: role}, nil
}

// IssueCSRFToken mints a short-lived anti-forgery token bound to the
// given user.
func IssueCSRFToken(userID uuid.UUID, secret string) (string, error) {
	claims := jwt.MapClaims{
		"sub":     userID.String(),
		"purpose": purposeCSRF,
		"exp":     time.Now().Add(csrfTTL).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateCSRFToken checks the anti-forgery token and its binding to the
// acting user.
func ValidateCSRFToken(tokenString string, userID uuid.UUID, secret string) error {
	claims, err := validateToken(tokenString, secret)
	if err != nil {
		return err
	}
	if purpose, _ := claims["purpose"].(string); purpose != purposeCSRF {
		return fmt.Errorf("not an anti-forgery token")
	}
	if sub, _ := claims["sub"].(string); sub != userID.String() {
		return fmt.Errorf("anti-forgery token bound to a different user")
	}
	return nil
}

// validateToken checks the token signature and returns parsed claims if valid.
func validateToken(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token claims")
}
