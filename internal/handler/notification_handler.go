package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/vetted-notifier/internal/dto"
	"github.com/noah-isme/vetted-notifier/internal/service"
	"github.com/noah-isme/vetted-notifier/internal/utils"
)

// NotificationHandler exposes payload previews, manual notification triggers
// and the delivery log of a submission.
type NotificationHandler struct {
	service     service.NotifyService
	logger      zerolog.Logger
	notifyGuard fiber.Handler
}

// NewNotificationHandler constructs the handler. notifyGuard, when non-nil,
// runs before the notify route only (typically a rate limiter).
func NewNotificationHandler(svc service.NotifyService, notifyGuard fiber.Handler, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service:     svc,
		logger:      logger.With().Str("component", "notification_handler").Logger(),
		notifyGuard: notifyGuard,
	}
}

// Register wires submission notification routes.
func (h *NotificationHandler) Register(router fiber.Router) {
	router.Get("/:id/payload", h.preview)
	if h.notifyGuard != nil {
		router.Post("/:id/notify", h.notifyGuard, h.notify)
	} else {
		router.Post("/:id/notify", h.notify)
	}
	router.Get("/:id/deliveries", h.deliveries)
}

func (h *NotificationHandler) preview(c *fiber.Ctx) error {
	id, ok := submissionIDParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "submission id is required")
	}

	response, err := h.service.Preview(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, response)
	}

	return utils.OK(c, response.Payload, "payload preview", fiber.Map{"warnings": response.Warnings})
}

func (h *NotificationHandler) notify(c *fiber.Ctx) error {
	id, ok := submissionIDParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "submission id is required")
	}

	var req dto.NotifyRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
		}
	}

	response, err := h.service.Notify(c.UserContext(), id, req)
	if err != nil {
		return h.fail(c, err, response)
	}

	requestLogger(h.logger, c).Info().
		Str("submission_id", id).
		Str("delivery_id", response.DeliveryID).
		Bool("force", req.Force).
		Bool("dry_run", req.DryRun).
		Msg("manual notification processed")

	if response.DryRun {
		return utils.SendSuccess(c, "notification preview", response)
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "notification delivered", response)
}

func (h *NotificationHandler) deliveries(c *fiber.Ctx) error {
	id, ok := submissionIDParam(c)
	if !ok {
		return utils.SendError(c, fiber.StatusBadRequest, "submission id is required")
	}

	history, err := h.service.Deliveries(c.UserContext(), id)
	if err != nil {
		return h.fail(c, err, dto.NotifyResponse{})
	}

	return utils.OK(c, history, "delivery history", fiber.Map{"count": len(history)})
}

func (h *NotificationHandler) fail(c *fiber.Ctx, err error, response dto.NotifyResponse) error {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "submission not found")
	case errors.Is(err, service.ErrDuplicateDelivery):
		return utils.SendError(c, fiber.StatusConflict, "submission already notified; retry with force")
	case errors.Is(err, service.ErrInvalidPayload):
		requestLogger(h.logger, c).Error().Err(err).Msg("built payload failed validation")
		return utils.SendError(c, fiber.StatusUnprocessableEntity, "webhook payload invalid")
	case errors.Is(err, service.ErrDeliveryFailed):
		requestLogger(h.logger, c).Warn().Err(err).Str("delivery_id", response.DeliveryID).Msg("webhook delivery failed")
		return utils.Fail(c, fiber.StatusBadGateway, "webhook delivery failed", response)
	case isValidationError(err):
		return utils.Fail(c, fiber.StatusBadRequest, "validation failed", validationDetails(err))
	default:
		requestLogger(h.logger, c).Error().Err(err).Msg("notification request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to process notification")
	}
}
