package auth

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/provisioning-service/internal/config"
)

// UnauthorizedMessage is the body callers get for a missing or wrong key.
const UnauthorizedMessage = "Unauthorized - Invalid API Key"

// APIKeyAuth checks the shared secret header on every request it guards.
type APIKeyAuth struct {
	header string
	key    []byte
	hash   string
}

// NewAPIKeyAuth constructs middleware. A configured hash wins over the plaintext key.
func NewAPIKeyAuth(cfg config.AuthConfig) *APIKeyAuth {
	header := cfg.Header
	if header == "" {
		header = "api-key"
	}
	return &APIKeyAuth{header: header, key: []byte(cfg.APIKey), hash: cfg.APIKeyHash}
}

// Handle rejects the request with 401 unless the header carries the key.
func (m *APIKeyAuth) Handle(c *fiber.Ctx) error {
	if !m.valid(c.Get(m.header)) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": UnauthorizedMessage})
	}
	return c.Next()
}

func (m *APIKeyAuth) valid(presented string) bool {
	if presented == "" {
		return false
	}
	if m.hash != "" {
		return CompareSecret(m.hash, presented) == nil
	}
	if len(m.key) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), m.key) == 1
}
