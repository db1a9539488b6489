package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"photogroup/models"
)

// Token type values carried in the claims so the two token kinds cannot be
// swapped for each other.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

type Claims struct {
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// GenerateJWTToken issues an access token (15 minutes) and a refresh token
// (7 days) for the given user, both signed with the configured secret.
func GenerateJWTToken(user *models.User, secret string) (string, string, error) {
	accessClaims := &Claims{
		UserID:    user.ID,
		TokenType: TokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	accessToken := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessTokenString, err := accessToken.SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}

	refreshClaims := &Claims{
		UserID:    user.ID,
		TokenType: TokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(7 * 24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	refreshToken := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims)
	refreshTokenString, err := refreshToken.SignedString([]byte(secret))
	if err != nil {
		return "", "", err
	}

	return accessTokenString, refreshTokenString, nil
}

func ParseJWTToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}

// RefreshTokens exchanges a valid refresh token for a fresh token pair. The
// user is re-read so that tokens stop working once the account is deleted.
func RefreshTokens(db *gorm.DB, refreshToken, secret string) (string, string, error) {
	claims, err := ParseJWTToken(refreshToken, secret)
	if err != nil {
		return "", "", err
	}

	// An access token is not accepted here even though it parses.
	if claims.TokenType != TokenTypeRefresh {
		return "", "", errors.New("not a refresh token")
	}

	if time.Until(claims.ExpiresAt.Time) <= 0 {
		return "", "", errors.New("refresh token expired")
	}

	var user models.User
	if err := db.First(&user, claims.UserID).Error; err != nil {
		return "", "", errors.New("user not found")
	}

	return GenerateJWTToken(&user, secret)
}
