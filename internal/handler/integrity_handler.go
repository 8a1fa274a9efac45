package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vetted-notifier/internal/dto"
	"github.com/noah-isme/vetted-notifier/internal/service"
	"github.com/noah-isme/vetted-notifier/internal/utils"
)

// IntegrityHandler serves the referential integrity report.
type IntegrityHandler struct {
	service service.IntegrityService
	logger  zerolog.Logger
}

// NewIntegrityHandler constructs an integrity handler.
func NewIntegrityHandler(svc service.IntegrityService, logger zerolog.Logger) *IntegrityHandler {
	return &IntegrityHandler{
		service: svc,
		logger:  logger.With().Str("component", "integrity_handler").Logger(),
	}
}

// Register wires integrity routes.
func (h *IntegrityHandler) Register(router fiber.Router) {
	router.Get("", h.report)
}

func (h *IntegrityHandler) report(c *fiber.Ctx) error {
	var filter dto.IntegrityFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	report, err := h.service.Report(c.UserContext(), filter)
	if err != nil {
		if isValidationError(err) {
			return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to build integrity report")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to build integrity report")
	}

	return utils.OK(c, report, "integrity report", fiber.Map{
		"orphan_submissions":     len(report.OrphanSubmissions),
		"unlinked_opportunities": len(report.UnlinkedOpportunities),
	})
}
