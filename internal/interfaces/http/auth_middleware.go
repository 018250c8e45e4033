package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/complementos-api/internal/application/dto"
	"github.com/jhoicas/complementos-api/pkg/jwt"
)

// Locals keys para el sujeto y el alcance del token.
const (
	LocalSubject = "subject"
	LocalScope   = "scope"
)

// Alcances aceptados en el claim "scope".
const (
	ScopeRead  = "invoices:read"
	ScopeWrite = "invoices:write"
)

// AuthMiddleware valida el Bearer Token JWT (HS256) y deja subject y scope en c.Locals.
func AuthMiddleware(jwtSecret, issuer string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, issuer, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		c.Locals(LocalSubject, claims.Subject)
		c.Locals(LocalScope, claims.Scope)
		return c.Next()
	}
}

// RequireScope exige que el token tenga alguno de los alcances indicados.
// Debe usarse DESPUÉS de AuthMiddleware. Sin scope en el token → 401; otro scope → 403.
func RequireScope(allowed ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scope := GetScope(c)
		if scope == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_SCOPE", Message: "el token no incluye scope"})
		}
		for _, s := range allowed {
			if s == scope {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "scope insuficiente"})
	}
}

// GetSubject devuelve el sujeto del token (después del middleware de auth).
func GetSubject(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalSubject).(string)
	return s
}

// GetScope devuelve el scope del token (después del middleware de auth).
func GetScope(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalScope).(string)
	return s
}
