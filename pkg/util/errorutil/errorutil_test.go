package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
)

func TestToDomainError(t *testing.T) {
	cause := errors.New("pool exhausted")
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"domain passthrough", NewConflict("busy", nil), http.StatusConflict, CodeConflict},
		{"wrapped domain", fmt.Errorf("ctx: %w", NewUnavailable("later", cause)), http.StatusServiceUnavailable, CodeUnavailable},
		{"no rows", fmt.Errorf("get run: %w", pgx.ErrNoRows), http.StatusNotFound, CodeNotFound},
		{"fiber error", fiber.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"fiber bad request", fiber.NewError(http.StatusUnprocessableEntity, "bad body"), http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY"},
		{"plain", cause, http.StatusInternalServerError, CodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ToDomainError(tc.err)
			if got.HTTPStatus != tc.status || got.Code != tc.code {
				t.Fatalf("expected %d/%s, got %d/%s", tc.status, tc.code, got.HTTPStatus, got.Code)
			}
		})
	}
}

func TestInternalErrorHidesCause(t *testing.T) {
	err := ToDomainError(errors.New("dial tcp 10.0.0.1:5432"))
	if err.Message != "internal server error" {
		t.Fatalf("cause leaked into message: %q", err.Message)
	}
	if !errors.Is(err, err.Err) {
		t.Fatalf("expected cause to stay in chain")
	}
	if MapError(nil) != nil {
		t.Fatalf("expected nil for nil")
	}
}
