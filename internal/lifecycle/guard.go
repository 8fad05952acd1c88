package lifecycle

import (
	"context"
	"strings"
	"time"

	"postforge/internal/models"
)

// Guard is the decision layer consulted before every idea mutation. Each
// method takes the idea's current recorded snapshot plus the action input
// and returns either the typed field patch the action implies or a
// rejection. The guard never persists anything; the caller owns the single
// store write that commits a patch.
type Guard struct {
	admission *AdmissionController
}

// NewGuard creates a guard that delegates schedule quota checks to the
// given admission controller
func NewGuard(admission *AdmissionController) *Guard {
	return &Guard{admission: admission}
}

// CanGenerate reports whether content generation may start for the idea.
// Checked before the generative backend is called so a blank idea never
// costs an upstream request.
func (g *Guard) CanGenerate(idea *models.Idea) error {
	if strings.TrimSpace(idea.Idea) == "" {
		return &ValidationError{Reason: "empty idea"}
	}
	return nil
}

// RequestGeneration validates the idea and turns a full generation pass
// (copy plus image) into a patch. Status is forced to Draft regardless of
// where the idea was.
func (g *Guard) RequestGeneration(idea *models.Idea, bundle models.GeneratedBundle, now time.Time) (models.IdeaPatch, error) {
	if err := g.CanGenerate(idea); err != nil {
		return models.IdeaPatch{}, err
	}

	patch := copySetPatch(bundle.Copy)
	if bundle.Image != nil {
		patch.ImageURL = &bundle.Image.ImageURL
		patch.ImagePrompt = &bundle.Image.Prompt
		patch.LastImageAt = &now
	}
	patch.LastGeneratedAt = &now
	patch.Status = statusPtr(models.StatusDraft)
	return patch, nil
}

// RequestApproval toggles the approval flag. Approval requires that at
// least one platform has a generated body; the resulting status is
// Approved when approving and Draft when revoking.
func (g *Guard) RequestApproval(idea *models.Idea, approved bool) (models.IdeaPatch, error) {
	if !idea.HasGeneratedContent() {
		return models.IdeaPatch{}, &PreconditionError{Reason: "no generated content"}
	}

	status := models.StatusDraft
	if approved {
		status = models.StatusApproved
	}
	return models.IdeaPatch{Approved: &approved, Status: &status}, nil
}

// RequestSchedule gates the Approved -> Scheduled transition. The idea
// must be approved and carry generated content; the platform set defaults
// to the idea's own targets. The quota check is delegated to the admission
// controller; only on its approval is the patch produced, which the
// caller then commits as the single store write.
func (g *Guard) RequestSchedule(ctx context.Context, idea *models.Idea, scheduledAt time.Time, platforms []models.Platform, scenarioID string) (models.IdeaPatch, error) {
	if !idea.Approved {
		return models.IdeaPatch{}, &PreconditionError{Reason: "not approved"}
	}
	if !idea.HasGeneratedContent() {
		return models.IdeaPatch{}, &PreconditionError{Reason: "no generated content"}
	}

	if len(platforms) == 0 {
		platforms = idea.Platforms
	}

	if err := g.admission.Check(ctx, idea, scheduledAt, platforms); err != nil {
		return models.IdeaPatch{}, err
	}

	patch := models.IdeaPatch{
		Status:      statusPtr(models.StatusScheduled),
		ScheduledAt: &scheduledAt,
	}
	if scenarioID != "" {
		patch.AutomationScenarioID = &scenarioID
	}
	return patch, nil
}

// RequestMarkPosted confirms publication. Unconditional from any status;
// postedAt defaults to the call time.
func (g *Guard) RequestMarkPosted(postedAt *time.Time, now time.Time) models.IdeaPatch {
	at := now
	if postedAt != nil {
		at = *postedAt
	}
	return models.IdeaPatch{
		Status:   statusPtr(models.StatusPosted),
		PostedAt: &at,
	}
}

// RequestFieldEdit merges only the fields the caller supplied. Edits are
// legal from any state and never touch status.
func (g *Guard) RequestFieldEdit(req models.UpdateIdeaRequest) models.IdeaPatch {
	return models.IdeaPatch{
		Idea:            req.Idea,
		Notes:           req.Notes,
		BrandVoice:      req.BrandVoice,
		HashtagGuidance: req.HashtagGuidance,
		ImageStyle:      req.ImageStyle,
		FrequencyPerDay: req.FrequencyPerDay,
		Platforms:       req.Platforms,
	}
}

// RegenerationTargets resolves the platform subset for a text
// regeneration: the requested subset when given, otherwise the idea's own
// targets, otherwise every known platform.
func (g *Guard) RegenerationTargets(idea *models.Idea, requested []models.Platform) []models.Platform {
	if len(requested) > 0 {
		return requested
	}
	if len(idea.Platforms) > 0 {
		return idea.Platforms
	}
	return models.DefaultPlatforms
}

// RequestRegenerateText replaces the generated copy for the platforms
// present in the set and resets status to Draft, even from Posted.
// Platforms absent from the set keep their existing copy.
func (g *Guard) RequestRegenerateText(copy models.CopySet, now time.Time) models.IdeaPatch {
	patch := copySetPatch(copy)
	patch.LastGeneratedAt = &now
	patch.Status = statusPtr(models.StatusDraft)
	return patch
}

// RequestRegenerateImage replaces the generated image and resets status to
// Draft, even from Posted.
func (g *Guard) RequestRegenerateImage(image models.GeneratedImage, now time.Time) models.IdeaPatch {
	return models.IdeaPatch{
		ImageURL:    &image.ImageURL,
		ImagePrompt: &image.Prompt,
		LastImageAt: &now,
		Status:      statusPtr(models.StatusDraft),
	}
}

// copySetPatch maps generated copy onto the flat store fields, normalizing
// Instagram hashtags into the "#"-prefixed space-joined representation
func copySetPatch(set models.CopySet) models.IdeaPatch {
	var patch models.IdeaPatch

	if c, ok := set[models.PlatformInstagram]; ok {
		caption := c.Body
		hashtags := models.JoinHashtags(c.Hashtags)
		patch.InstagramCaption = &caption
		patch.InstagramHashtags = &hashtags
	}
	if c, ok := set[models.PlatformFacebook]; ok {
		body := c.Body
		patch.FacebookCopy = &body
	}

	return patch
}

func statusPtr(s models.Status) *models.Status {
	return &s
}
