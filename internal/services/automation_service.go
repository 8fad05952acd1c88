package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"postforge/internal/lifecycle"
	"postforge/internal/models"

	"github.com/google/uuid"
)

// AutomationService delivers scheduled ideas to the external automation
// webhook that performs the actual posting
type AutomationService struct {
	webhookURL string
	httpClient *http.Client
}

// NewAutomationService creates a new automation service
func NewAutomationService(webhookURL string) *AutomationService {
	return &AutomationService{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether a webhook URL is set
func (s *AutomationService) Configured() bool {
	return s.webhookURL != ""
}

// webhookPayload is the wire shape the automation scenario consumes
type webhookPayload struct {
	TriggerID   string                  `json:"triggerId"`
	IdeaID      string                  `json:"ideaId"`
	Idea        string                  `json:"idea"`
	Platforms   []models.Platform       `json:"platforms"`
	Instagram   *instagramPayload       `json:"instagram,omitempty"`
	Facebook    *facebookPayload        `json:"facebook,omitempty"`
	ScheduledAt *time.Time              `json:"scheduledAt,omitempty"`
	ScenarioID  string                  `json:"scenarioId,omitempty"`
}

type instagramPayload struct {
	Caption  string `json:"caption"`
	Hashtags string `json:"hashtags,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type facebookPayload struct {
	Body     string `json:"body"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Notify sends one scheduled idea to the webhook. Each delivery carries a
// fresh trigger id so the scenario can deduplicate retries.
func (s *AutomationService) Notify(ctx context.Context, idea *models.Idea) error {
	payload := buildWebhookPayload(idea)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.webhookURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return &lifecycle.UpstreamError{Service: "automation", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Printf("⚠️ [AUTOMATION] Webhook rejected delivery: status %d, body: %s", resp.StatusCode, string(respBody))
		return &lifecycle.UpstreamError{
			Service: "automation",
			Err:     fmt.Errorf("webhook returned status %d", resp.StatusCode),
		}
	}

	log.Printf("✅ [AUTOMATION] Delivered idea %s (trigger %s)", idea.ID.Hex(), payload.TriggerID)
	return nil
}

// buildWebhookPayload projects the idea into the wire shape
func buildWebhookPayload(idea *models.Idea) webhookPayload {
	platforms := idea.Platforms
	if platforms == nil {
		platforms = []models.Platform{}
	}

	payload := webhookPayload{
		TriggerID:   uuid.New().String(),
		IdeaID:      idea.ID.Hex(),
		Idea:        idea.Idea,
		Platforms:   platforms,
		ScheduledAt: idea.ScheduledAt,
		ScenarioID:  idea.AutomationScenarioID,
	}

	if idea.InstagramCaption != "" {
		payload.Instagram = &instagramPayload{
			Caption:  idea.InstagramCaption,
			Hashtags: idea.InstagramHashtags,
			ImageURL: idea.ImageURL,
		}
	}
	if idea.FacebookCopy != "" {
		payload.Facebook = &facebookPayload{
			Body:     idea.FacebookCopy,
			ImageURL: idea.ImageURL,
		}
	}

	return payload
}
