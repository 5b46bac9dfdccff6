package middleware

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// HS256Validator returns a TokenValidator for HMAC-signed tokens. The session
// ID is read from the "session_id" claim, falling back to "sub".
func HS256Validator(secret string) TokenValidator {
	key := []byte(secret)
	return func(tokenString string) (*Claims, error) {
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return nil, fmt.Errorf("parse token: %w", err)
		}

		mc, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			return nil, errors.New("invalid token claims")
		}

		claims := &Claims{}
		claims.SessionID, _ = mc["session_id"].(string)
		if claims.SessionID == "" {
			claims.SessionID, _ = mc["sub"].(string)
		}
		claims.Email, _ = mc["email"].(string)
		if claims.SessionID == "" {
			return nil, errors.New("token has no session")
		}
		if len(claims.SessionID) > maxSessionIDLen {
			return nil, fmt.Errorf("token session exceeds %d characters", maxSessionIDLen)
		}
		return claims, nil
	}
}
