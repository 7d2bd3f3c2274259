package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleAnon          = "anon"
	RoleAuthenticated = "authenticated"
	RoleServiceRole   = "service_role"

	// LocalsRole holds the role of the authenticated caller.
	LocalsRole = "service_auth_role"
)

// ServiceAuthConfig configures ServiceAuth.
type ServiceAuthConfig struct {
	// JWTSecret verifies HS256 bearer tokens. When empty, tokens are compared
	// against AnonKey and ServiceRoleKey instead.
	JWTSecret      string
	AnonKey        string
	ServiceRoleKey string
	// ServiceRoleOnly rejects every caller that is not the service role.
	ServiceRoleOnly bool
}

// ServiceAuth authenticates callers of the internal function endpoints.
// Preflight requests pass through so the handlers can answer CORS.
func ServiceAuth(cfg ServiceAuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodOptions {
			return c.Next()
		}

		token := extractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing authorization token"})
		}

		role, err := cfg.resolveRole(token)
		if err != nil {
			log.Warnf("[ServiceAuth] Rejected token for %s: %v", c.Path(), err)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Invalid authorization token"})
		}
		if cfg.ServiceRoleOnly && role != RoleServiceRole {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Service role required"})
		}

		c.Locals(LocalsRole, role)
		return c.Next()
	}
}

func (cfg ServiceAuthConfig) resolveRole(token string) (string, error) {
	if cfg.JWTSecret == "" {
		switch {
		case secureEqual(token, cfg.ServiceRoleKey):
			return RoleServiceRole, nil
		case secureEqual(token, cfg.AnonKey):
			return RoleAnon, nil
		default:
			return "", jwt.ErrTokenUnverifiable
		}
	}

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	role, _ := claims["role"].(string)
	switch role {
	case RoleAnon, RoleAuthenticated, RoleServiceRole:
		return role, nil
	default:
		return "", jwt.ErrTokenInvalidClaims
	}
}

func secureEqual(got, want string) bool {
	if want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return strings.TrimSpace(c.Get("apikey"))
}
