package utils

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"servimatch/config"

	"github.com/golang-jwt/jwt"
)

func secretKey() []byte {
	secret := config.AppConfig.JWTSecret
	if secret == "" {
		secret = os.Getenv("JWT_SECRET")
	}
	return []byte(secret)
}

// GenerateToken creates a signed JWT for an actor. The subject is the
// actor's numeric ID and role is "customer" or "provider".
func GenerateToken(actorID int64, role string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(actorID, 10),
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey())
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	key := secretKey()
	if len(key) == 0 {
		return nil, errors.New("JWT secret is not configured")
	}
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return key, nil
	})
}

// ExtractActorFromToken returns the actor ID and role carried by a valid token.
func ExtractActorFromToken(tokenString string) (int64, string, error) {
	token, err := ValidateToken(tokenString)
	if err != nil {
		return 0, "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, "", errors.New("invalid token")
	}

	var id int64
	switch sub := claims["sub"].(type) {
	case string:
		id, err = strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return 0, "", fmt.Errorf("token 'sub' claim is not numeric: %w", err)
		}
	case float64:
		id = int64(sub)
	default:
		return 0, "", errors.New("token does not contain a valid 'sub' claim")
	}
	if id <= 0 {
		return 0, "", errors.New("token 'sub' claim must be positive")
	}

	role, _ := claims["role"].(string)
	if role == "" {
		return 0, "", errors.New("token does not contain a 'role' claim")
	}
	return id, role, nil
}
