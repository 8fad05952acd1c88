package handlers

import (
	"errors"
	"log"
	"time"

	"postforge/internal/lifecycle"
	"postforge/internal/models"
	"postforge/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// IdeaHandler handles content idea HTTP requests
type IdeaHandler struct {
	ideaService       *services.IdeaService
	guard             *lifecycle.Guard
	generationService *services.GenerationService
	automationService *services.AutomationService
}

// NewIdeaHandler creates a new idea handler
func NewIdeaHandler(
	ideaService *services.IdeaService,
	guard *lifecycle.Guard,
	generationService *services.GenerationService,
	automationService *services.AutomationService,
) *IdeaHandler {
	return &IdeaHandler{
		ideaService:       ideaService,
		guard:             guard,
		generationService: generationService,
		automationService: automationService,
	}
}

// respondError maps lifecycle errors onto HTTP statuses
func respondError(c *fiber.Ctx, err error) error {
	var validationErr *lifecycle.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationErr.Reason,
		})
	}

	var preconditionErr *lifecycle.PreconditionError
	if errors.As(err, &preconditionErr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": preconditionErr.Reason,
		})
	}

	var quotaErr *lifecycle.QuotaExceededError
	if errors.As(err, &quotaErr) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":    quotaErr.Error(),
			"platform": quotaErr.Platform,
			"day":      quotaErr.Day,
		})
	}

	var notFoundErr *lifecycle.NotFoundError
	if errors.As(err, &notFoundErr) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Idea not found",
		})
	}

	var upstreamErr *lifecycle.UpstreamError
	if errors.As(err, &upstreamErr) {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": upstreamErr.Service + " service unavailable",
		})
	}

	log.Printf("❌ [IDEA] Internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

// List returns all ideas, newest first
// GET /api/ideas
func (h *IdeaHandler) List(c *fiber.Ctx) error {
	ideas, err := h.ideaService.List(c.Context())
	if err != nil {
		return respondError(c, err)
	}

	responses := make([]*models.IdeaResponse, 0, len(ideas))
	for i := range ideas {
		responses = append(responses, ideas[i].ToResponse())
	}

	return c.JSON(fiber.Map{
		"ideas": responses,
		"count": len(responses),
	})
}

// Create captures a new idea
// POST /api/ideas
func (h *IdeaHandler) Create(c *fiber.Ctx) error {
	var req models.CreateIdeaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "idea must be at least 3 characters",
		})
	}

	idea, err := h.ideaService.Create(c.Context(), &req)
	if err != nil {
		return respondError(c, err)
	}

	if m := services.GetMetrics(); m != nil {
		m.RecordIdeaCreated()
	}

	log.Printf("✅ [IDEA] Captured idea %s", idea.ID.Hex())
	return c.Status(fiber.StatusCreated).JSON(idea.ToResponse())
}

// Get fetches one idea
// GET /api/ideas/:id
func (h *IdeaHandler) Get(c *fiber.Ctx) error {
	idea, err := h.ideaService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(idea.ToResponse())
}

// Update edits an idea's fields. Status is never changed here.
// PATCH /api/ideas/:id
func (h *IdeaHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateIdeaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid field values",
		})
	}

	patch := h.guard.RequestFieldEdit(req)
	idea, err := h.ideaService.Update(c.Context(), c.Params("id"), patch)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(idea.ToResponse())
}

// Generate produces copy and an image for an idea and moves it to Draft
// POST /api/ideas/:id/generate
func (h *IdeaHandler) Generate(c *fiber.Ctx) error {
	if !h.generationService.Configured() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Content generation is not configured",
		})
	}

	idea, err := h.ideaService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	if err := h.guard.CanGenerate(idea); err != nil {
		return respondError(c, err)
	}

	platforms := h.guard.RegenerationTargets(idea, nil)
	start := time.Now()

	if m := services.GetMetrics(); m != nil {
		m.RecordGenerationRequest("copy")
		m.RecordGenerationRequest("image")
	}

	copySet, err := h.generationService.GeneratePlatformCopy(c.Context(), idea, platforms)
	if err != nil {
		if m := services.GetMetrics(); m != nil {
			m.RecordGenerationError("copy")
		}
		return respondError(c, err)
	}

	image, err := h.generationService.GenerateImage(c.Context(), idea)
	if err != nil {
		if m := services.GetMetrics(); m != nil {
			m.RecordGenerationError("image")
		}
		return respondError(c, err)
	}

	if m := services.GetMetrics(); m != nil {
		m.RecordGenerationLatency(time.Since(start).Seconds())
	}

	bundle := models.GeneratedBundle{Copy: copySet, Image: image}
	patch, err := h.guard.RequestGeneration(idea, bundle, time.Now().UTC())
	if err != nil {
		return respondError(c, err)
	}

	updated, err := h.ideaService.Update(c.Context(), c.Params("id"), patch)
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("✅ [IDEA] Generated content for idea %s", updated.ID.Hex())
	return c.JSON(updated.ToResponse())
}

// RegenerateText regenerates copy for some or all platforms and resets the
// idea to Draft
// POST /api/ideas/:id/regenerate-text
func (h *IdeaHandler) RegenerateText(c *fiber.Ctx) error {
	if !h.generationService.Configured() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Content generation is not configured",
		})
	}

	// Body is optional; an empty body regenerates the idea's own platform set
	var req models.RegenerateTextRequest
	if err := c.BodyParser(&req); err != nil {
		req = models.RegenerateTextRequest{}
	}

	idea, err := h.ideaService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	if err := h.guard.CanGenerate(idea); err != nil {
		return respondError(c, err)
	}

	platforms := h.guard.RegenerationTargets(idea, req.Platforms)

	if m := services.GetMetrics(); m != nil {
		m.RecordGenerationRequest("copy")
	}
	start := time.Now()

	copySet, err := h.generationService.GeneratePlatformCopy(c.Context(), idea, platforms)
	if err != nil {
		if m := services.GetMetrics(); m != nil {
			m.RecordGenerationError("copy")
		}
		return respondError(c, err)
	}

	if m := services.GetMetrics(); m != nil {
		m.RecordGenerationLatency(time.Since(start).Seconds())
	}

	patch := h.guard.RequestRegenerateText(copySet, time.Now().UTC())
	updated, err := h.ideaService.Update(c.Context(), c.Params("id"), patch)
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("✅ [IDEA] Regenerated copy for idea %s", updated.ID.Hex())
	return c.JSON(updated.ToResponse())
}

// RegenerateImage regenerates the post image and resets the idea to Draft
// POST /api/ideas/:id/regenerate-image
func (h *IdeaHandler) RegenerateImage(c *fiber.Ctx) error {
	if !h.generationService.Configured() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Content generation is not configured",
		})
	}

	idea, err := h.ideaService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	if err := h.guard.CanGenerate(idea); err != nil {
		return respondError(c, err)
	}

	if m := services.GetMetrics(); m != nil {
		m.RecordGenerationRequest("image")
	}
	start := time.Now()

	image, err := h.generationService.GenerateImage(c.Context(), idea)
	if err != nil {
		if m := services.GetMetrics(); m != nil {
			m.RecordGenerationError("image")
		}
		return respondError(c, err)
	}

	if m := services.GetMetrics(); m != nil {
		m.RecordGenerationLatency(time.Since(start).Seconds())
	}

	patch := h.guard.RequestRegenerateImage(*image, time.Now().UTC())
	updated, err := h.ideaService.Update(c.Context(), c.Params("id"), patch)
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("✅ [IDEA] Regenerated image for idea %s", updated.ID.Hex())
	return c.JSON(updated.ToResponse())
}

// Approve toggles approval. Approving requires generated content.
// POST /api/ideas/:id/approve
func (h *IdeaHandler) Approve(c *fiber.Ctx) error {
	var req models.ApproveIdeaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "approved is required",
		})
	}

	idea, err := h.ideaService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	patch, err := h.guard.RequestApproval(idea, *req.Approved)
	if err != nil {
		return respondError(c, err)
	}

	updated, err := h.ideaService.Update(c.Context(), c.Params("id"), patch)
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("✅ [IDEA] Approval set to %v for idea %s", *req.Approved, updated.ID.Hex())
	return c.JSON(updated.ToResponse())
}

// Schedule places an approved idea onto the posting calendar, subject to
// per-platform daily frequency limits
// POST /api/ideas/:id/schedule
func (h *IdeaHandler) Schedule(c *fiber.Ctx) error {
	var req models.ScheduleIdeaRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "scheduledAt is required",
		})
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return respondError(c, &lifecycle.ValidationError{Reason: "malformed scheduledAt"})
	}

	idea, err := h.ideaService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	patch, err := h.guard.RequestSchedule(c.Context(), idea, scheduledAt, req.Platforms, req.ScenarioID)
	if err != nil {
		var quotaErr *lifecycle.QuotaExceededError
		if errors.As(err, &quotaErr) {
			if m := services.GetMetrics(); m != nil {
				m.RecordScheduleAdmission("rejected")
			}
			log.Printf("🚫 [SCHEDULE] Frequency limit reached for idea %s (%s on %s)", idea.ID.Hex(), quotaErr.Platform, quotaErr.Day)
		}
		return respondError(c, err)
	}

	if m := services.GetMetrics(); m != nil {
		m.RecordScheduleAdmission("admitted")
	}

	updated, err := h.ideaService.Update(c.Context(), c.Params("id"), patch)
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("✅ [SCHEDULE] Scheduled idea %s for %s", updated.ID.Hex(), scheduledAt.Format(time.RFC3339))

	// Webhook delivery is best effort: the idea stays Scheduled even if the
	// automation scenario cannot be reached right now
	if h.automationService.Configured() {
		if err := h.automationService.Notify(c.Context(), updated); err != nil {
			log.Printf("⚠️ [SCHEDULE] Automation delivery failed for idea %s: %v", updated.ID.Hex(), err)
			if m := services.GetMetrics(); m != nil {
				m.RecordAutomationTrigger("failed")
			}
		} else if m := services.GetMetrics(); m != nil {
			m.RecordAutomationTrigger("delivered")
		}
	}

	return c.JSON(updated.ToResponse())
}

// MarkPosted confirms publication. The body is optional; postedAt defaults
// to the current time.
// POST /api/ideas/:id/mark-posted
func (h *IdeaHandler) MarkPosted(c *fiber.Ctx) error {
	var req models.MarkPostedRequest
	if err := c.BodyParser(&req); err != nil {
		req = models.MarkPostedRequest{}
	}

	if _, err := h.ideaService.Get(c.Context(), c.Params("id")); err != nil {
		return respondError(c, err)
	}

	patch := h.guard.RequestMarkPosted(req.PostedAt, time.Now().UTC())
	updated, err := h.ideaService.Update(c.Context(), c.Params("id"), patch)
	if err != nil {
		return respondError(c, err)
	}

	log.Printf("✅ [IDEA] Marked idea %s as posted", updated.ID.Hex())
	return c.JSON(updated.ToResponse())
}
