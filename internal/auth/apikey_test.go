package auth

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/provisioning-service/internal/config"
)

func newGuardedApp(cfg config.AuthConfig) (*fiber.App, *int) {
	calls := 0
	app := fiber.New()
	app.Get("/guarded", NewAPIKeyAuth(cfg).Handle, func(c *fiber.Ctx) error {
		calls++
		return c.SendString("ok")
	})
	return app, &calls
}

func TestAPIKeyAuth(t *testing.T) {
	hash, err := HashSecret("hashed-secret", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	cases := []struct {
		name    string
		cfg     config.AuthConfig
		header  string
		value   string
		want    int
		reached bool
	}{
		{"plain match", config.AuthConfig{APIKey: "secret"}, "api-key", "secret", http.StatusOK, true},
		{"plain mismatch", config.AuthConfig{APIKey: "secret"}, "api-key", "secreT", http.StatusUnauthorized, false},
		{"missing header", config.AuthConfig{APIKey: "secret"}, "", "", http.StatusUnauthorized, false},
		{"custom header", config.AuthConfig{APIKey: "secret", Header: "X-Api-Key"}, "X-Api-Key", "secret", http.StatusOK, true},
		{"hash match", config.AuthConfig{APIKeyHash: hash}, "api-key", "hashed-secret", http.StatusOK, true},
		{"hash wins over plain", config.AuthConfig{APIKey: "plain", APIKeyHash: hash}, "api-key", "plain", http.StatusUnauthorized, false},
		{"nothing configured", config.AuthConfig{}, "api-key", "", http.StatusUnauthorized, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app, calls := newGuardedApp(tc.cfg)
			req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
			if tc.header != "" {
				req.Header.Set(tc.header, tc.value)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.StatusCode)
			}
			if (*calls == 1) != tc.reached {
				t.Fatalf("handler reached=%v, want %v", *calls == 1, tc.reached)
			}
			if tc.want == http.StatusUnauthorized {
				body, _ := io.ReadAll(resp.Body)
				if !strings.Contains(string(body), UnauthorizedMessage) {
					t.Fatalf("unexpected body %s", body)
				}
			}
		})
	}
}
