package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"leadflow/config"
	"leadflow/models"
)

type Claims struct {
	RepID      uint   `json:"rep_id"`
	LineUserID string `json:"line_user_id"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateJWTToken issues an access token for a sales rep (8 hours expiry,
// one dashboard work day).
func GenerateJWTToken(rep *models.SalesRep) (string, error) {
	claims := &Claims{
		RepID:      rep.ID,
		LineUserID: rep.LineUserID,
		Role:       rep.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(8 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

func ParseJWTToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
