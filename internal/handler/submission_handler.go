package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/learnhub-api/internal/dto"
	"github.com/noah-isme/learnhub-api/internal/service"
	"github.com/noah-isme/learnhub-api/internal/utils"
	appErrors "github.com/noah-isme/learnhub-api/pkg/errors"
)

// SubmissionHandler manages submission endpoints.
type SubmissionHandler struct {
	service  service.SubmissionService
	activity service.ActivityService
	logger   zerolog.Logger
}

// NewSubmissionHandler builds a submission handler instance. activity may be nil.
func NewSubmissionHandler(service service.SubmissionService, activity service.ActivityService, logger zerolog.Logger) *SubmissionHandler {
	return &SubmissionHandler{
		service:  service,
		activity: activity,
		logger:   logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group. uploadGuards run before the
// upload handler, typically a rate limiter.
func (h *SubmissionHandler) Register(router fiber.Router, uploadGuards ...fiber.Handler) {
	create := append(append([]fiber.Handler{}, uploadGuards...), h.create)

	router.Post("", create...)
	router.Get("", h.list)
	router.Get("/mine", h.listMine)
	router.Get("/:id", h.get)
	router.Put("/:id/review", h.review)
	if h.activity != nil {
		router.Get("/:id/activity", h.history)
	}
}

func (h *SubmissionHandler) create(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return respondError(c, h.logger, appErrors.WithCause(appErrors.ErrMissingArtifact, err), nil)
	}

	var payload dto.SubmissionCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendCodedError(c, fiber.StatusBadRequest, appErrors.ErrValidation.Code, "invalid form data", nil)
	}

	submission, err := h.service.Submit(requestContext(c), principalFromContext(c), payload, file)
	if err != nil {
		return respondError(c, h.logger, err, nil)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "submission created", submission)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	filter, err := parseSubmissionFilter(c)
	if err != nil {
		return respondError(c, h.logger, err, nil)
	}

	submissions, err := h.service.ListForReviewer(requestContext(c), principalFromContext(c), filter)
	if err != nil {
		return respondError(c, h.logger, err, nil)
	}

	return utils.OK(c, submissions, "submissions retrieved", fiber.Map{"count": len(submissions)})
}

func (h *SubmissionHandler) listMine(c *fiber.Ctx) error {
	filter, err := parseSubmissionFilter(c)
	if err != nil {
		return respondError(c, h.logger, err, nil)
	}

	submissions, err := h.service.ListMine(requestContext(c), principalFromContext(c), filter)
	if err != nil {
		return respondError(c, h.logger, err, nil)
	}

	return utils.OK(c, submissions, "submissions retrieved", fiber.Map{"count": len(submissions)})
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	submission, err := h.service.Get(requestContext(c), principalFromContext(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.logger, err, nil)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) review(c *fiber.Ctx) error {
	var payload dto.SubmissionReviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendCodedError(c, fiber.StatusBadRequest, appErrors.ErrValidation.Code, "invalid request body", nil)
	}

	submission, err := h.service.Review(requestContext(c), principalFromContext(c), c.Params("id"), payload)
	if err != nil {
		if errors.Is(err, appErrors.ErrLedger) {
			return respondError(c, h.logger, err, submission)
		}
		return respondError(c, h.logger, err, nil)
	}

	return utils.SendSuccess(c, "submission reviewed", submission)
}

func (h *SubmissionHandler) history(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendCodedError(c, fiber.StatusBadRequest, appErrors.ErrValidation.Code, "invalid limit", nil)
	}

	entries, err := h.activity.ListForSubmission(requestContext(c), principalFromContext(c), c.Params("id"), limit)
	if err != nil {
		return respondError(c, h.logger, err, nil)
	}

	return utils.SendSuccess(c, "submission activity", entries)
}

func parseSubmissionFilter(c *fiber.Ctx) (dto.SubmissionFilter, error) {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return dto.SubmissionFilter{}, appErrors.Clone(appErrors.ErrValidation, "invalid limit")
	}

	return dto.SubmissionFilter{
		Status: optionalQuery(c, "status"),
		Type:   optionalQuery(c, "type"),
		Limit:  limit,
	}, nil
}
