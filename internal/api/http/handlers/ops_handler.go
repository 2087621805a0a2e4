package handlers

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/parcel-helpdesk/internal/api/dto"
	"github.com/spec-kit/parcel-helpdesk/internal/service"
	apperrors "github.com/spec-kit/parcel-helpdesk/pkg/util"
)

// OpsHandler serves the scheduler hook and the notification self test.
type OpsHandler struct {
	sweep         *service.SweepService
	notifications *service.NotificationService
	cronSecret    string
}

// NewOpsHandler constructs handler. An empty cronSecret leaves the cron
// endpoint open.
func NewOpsHandler(sweep *service.SweepService, notifications *service.NotificationService, cronSecret string) *OpsHandler {
	return &OpsHandler{sweep: sweep, notifications: notifications, cronSecret: cronSecret}
}

// RequireCronSecret guards /cron routes with a bearer token.
func (h *OpsHandler) RequireCronSecret(c *fiber.Ctx) error {
	if h.cronSecret == "" {
		return c.Next()
	}
	token, found := strings.CutPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")
	if !found || subtle.ConstantTimeCompare([]byte(token), []byte(h.cronSecret)) != 1 {
		return apperrors.NewUnauthorized("invalid cron secret")
	}
	return c.Next()
}

// CheckSLA POST|GET /cron/check-sla runs one sweep pass.
func (h *OpsHandler) CheckSLA(c *fiber.Ctx) error {
	result, err := h.sweep.Run(c.UserContext())
	if err != nil {
		return err
	}
	warnings := make([]dto.SweepWarningResponse, 0, len(result.Warnings))
	for _, w := range result.Warnings {
		warnings = append(warnings, dto.SweepWarningResponse{
			TicketID:  w.TicketID,
			TicketNo:  w.TicketNo,
			SLAStatus: w.SLAStatus,
			Remaining: w.Remaining,
		})
	}
	return c.JSON(ok(dto.SweepResponse{
		Scanned:  result.Scanned,
		Warned:   result.Warned,
		Failed:   result.Failed,
		Skipped:  result.Skipped,
		Warnings: warnings,
	}))
}

// LineTest POST /line/test pushes a text message to a department group.
func (h *OpsHandler) LineTest(c *fiber.Ctx) error {
	var req dto.LineTestRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	channel, err := h.notifications.SendTest(c.UserContext(), req.Department, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(ok(fiber.Map{"channel": channel}))
}
