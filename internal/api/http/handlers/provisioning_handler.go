package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/provisioning-service/internal/api/dto"
	"github.com/spec-kit/provisioning-service/internal/observability"
	"github.com/spec-kit/provisioning-service/internal/service"
	"github.com/spec-kit/provisioning-service/internal/validation"
	apperrors "github.com/spec-kit/provisioning-service/pkg/util/errorutil"
)

const (
	msgProvisioned     = "User and Employee created successfully"
	msgProvisionFailed = "Error in create user or employee. Please check logs"
	msgInvalidJSONBody = "Request body must be a JSON object with user and employee"
)

// ProvisioningHandler exposes the user and employee creation operation.
type ProvisioningHandler struct {
	service *service.ProvisioningService
}

// NewProvisioningHandler constructs handler.
func NewProvisioningHandler(provisioningService *service.ProvisioningService) *ProvisioningHandler {
	return &ProvisioningHandler{service: provisioningService}
}

// Provision POST /mso-create-user-employee.
func (h *ProvisioningHandler) Provision(c *fiber.Ctx) error {
	var req dto.ProvisionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(http.StatusBadRequest).JSON(dto.ValidationFailureResponse{
				Success: false,
				Errors:  []string{msgInvalidJSONBody},
			})
		}
	}

	run, err := h.service.Provision(c.UserContext(), observability.RequestIDFromContext(c), req)
	if err == nil {
		return c.JSON(dto.ProvisionResponse{Success: true, Message: msgProvisioned, RunID: run.ID})
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return c.Status(http.StatusBadRequest).JSON(dto.ValidationFailureResponse{Success: false, Errors: verrs})
	}

	resp := dto.FailureResponse{Success: false, Error: msgProvisionFailed}
	if run != nil {
		resp.RunID = run.ID
	}
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) && (domainErr.HTTPStatus == http.StatusConflict || domainErr.HTTPStatus == http.StatusServiceUnavailable) {
		resp.Error = domainErr.Message
		return c.Status(domainErr.HTTPStatus).JSON(resp)
	}
	return c.Status(http.StatusInternalServerError).JSON(resp)
}

// GetRun GET /provisioning-runs/:id.
func (h *ProvisioningHandler) GetRun(c *fiber.Ctx) error {
	run, err := h.service.GetRun(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRunResponse(run)})
}

// Hello GET /hello.
func Hello(c *fiber.Ctx) error {
	return c.SendString("Hello World!")
}
