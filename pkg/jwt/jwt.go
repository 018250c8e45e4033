package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims claims estándar más el alcance (scope) del cliente de la API.
type Claims struct {
	jwt.RegisteredClaims
	Scope string `json:"scope,omitempty"` // "invoices:read" | "invoices:write"
}

// Generate firma un token HS256 para subject (usuario o sistema cliente) con el alcance indicado.
func Generate(secret, subject, scope, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
		},
		Scope: scope,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// Parse valida firma, expiración y (si issuer no es vacío) el emisor del token.
func Parse(secret, issuer, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("jwt: claims inválidos")
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("jwt: subject vacío")
	}
	return claims, nil
}
