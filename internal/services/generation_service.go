package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"postforge/internal/lifecycle"
	"postforge/internal/logging"
	"postforge/internal/models"
)

// GenerationService calls an OpenAI-compatible backend for platform copy and
// post images. Unconfigured (no API key) is a valid state; callers gate on
// Configured().
type GenerationService struct {
	baseURL    string
	apiKey     string
	copyModel  string
	imageModel string
	imageSize  string
	httpClient *http.Client
}

// Copy generation system prompt
const copySystemPrompt = `You are a social media copywriter. Given a content idea, write platform-ready copy.

RULES:
- Instagram: an engaging caption plus a list of relevant hashtags (tags without the "#" are fine, they get normalized)
- Facebook: a slightly longer, conversational post body, no hashtags
- Stay faithful to the idea, the brand voice, and any hashtag guidance provided
- Only produce copy for the platforms listed in the request

Return STRICT JSON, no markdown fences, in exactly this shape (omit platforms not requested):
{"Instagram":{"body":"...","hashtags":["..."]},"Facebook":{"body":"..."}}`

// NewGenerationService creates a new generation service
func NewGenerationService(baseURL, apiKey, copyModel, imageModel, imageSize string) *GenerationService {
	return &GenerationService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		copyModel:  copyModel,
		imageModel: imageModel,
		imageSize:  imageSize,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// Configured reports whether the backend can be called
func (s *GenerationService) Configured() bool {
	return s.apiKey != ""
}

// GeneratePlatformCopy produces copy for the requested platforms
func (s *GenerationService) GeneratePlatformCopy(ctx context.Context, idea *models.Idea, platforms []models.Platform) (models.CopySet, error) {
	logger := logging.WithIdea(idea.ID.Hex(), string(idea.Status))
	logger.Info("generating platform copy", "platforms", len(platforms))

	requestBody := map[string]interface{}{
		"model": s.copyModel,
		"messages": []map[string]interface{}{
			{"role": "system", "content": copySystemPrompt},
			{"role": "user", "content": buildCopyPrompt(idea, platforms)},
		},
		"stream":      false,
		"temperature": 0.7,
	}

	reqBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, &lifecycle.UpstreamError{Service: "generation", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️ [GENERATION] Copy API error: %s", string(body))
		return nil, &lifecycle.UpstreamError{
			Service: "generation",
			Err:     fmt.Errorf("API error (status %d)", resp.StatusCode),
		}
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}
	if len(apiResponse.Choices) == 0 {
		return nil, &lifecycle.UpstreamError{
			Service: "generation",
			Err:     fmt.Errorf("no choices in response"),
		}
	}

	copySet, err := parseCopySet(apiResponse.Choices[0].Message.Content)
	if err != nil {
		log.Printf("⚠️ [GENERATION] Failed to parse copy: %v (response length: %d bytes)", err, len(apiResponse.Choices[0].Message.Content))
		return nil, &lifecycle.UpstreamError{Service: "generation", Err: err}
	}

	// Drop anything the model produced outside the requested set
	for platform := range copySet {
		if !containsPlatform(platforms, platform) {
			delete(copySet, platform)
		}
	}

	return copySet, nil
}

// GenerateImage produces one post image for the idea
func (s *GenerationService) GenerateImage(ctx context.Context, idea *models.Idea) (*models.GeneratedImage, error) {
	logger := logging.WithIdea(idea.ID.Hex(), string(idea.Status))
	logger.Info("generating post image")

	prompt := buildImagePrompt(idea)
	requestBody := map[string]interface{}{
		"model":  s.imageModel,
		"prompt": prompt,
		"n":      1,
		"size":   s.imageSize,
	}

	reqBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/images/generations", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, &lifecycle.UpstreamError{Service: "generation", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️ [GENERATION] Image API error: %s", string(body))
		return nil, &lifecycle.UpstreamError{
			Service: "generation",
			Err:     fmt.Errorf("API error (status %d)", resp.StatusCode),
		}
	}

	var apiResponse struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &apiResponse); err != nil {
		return nil, fmt.Errorf("failed to parse API response: %w", err)
	}
	if len(apiResponse.Data) == 0 || apiResponse.Data[0].URL == "" {
		return nil, &lifecycle.UpstreamError{
			Service: "generation",
			Err:     fmt.Errorf("no image in response"),
		}
	}

	return &models.GeneratedImage{
		ImageURL: apiResponse.Data[0].URL,
		Prompt:   prompt,
	}, nil
}

// buildCopyPrompt assembles the user prompt from the idea's fields
func buildCopyPrompt(idea *models.Idea, platforms []models.Platform) string {
	var b strings.Builder

	fmt.Fprintf(&b, "CONTENT IDEA:\n%s\n", idea.Idea)
	if idea.Notes != "" {
		fmt.Fprintf(&b, "\nNOTES:\n%s\n", idea.Notes)
	}
	if idea.BrandVoice != "" {
		fmt.Fprintf(&b, "\nBRAND VOICE:\n%s\n", idea.BrandVoice)
	}
	if idea.HashtagGuidance != "" {
		fmt.Fprintf(&b, "\nHASHTAG GUIDANCE:\n%s\n", idea.HashtagGuidance)
	}

	names := make([]string, 0, len(platforms))
	for _, p := range platforms {
		names = append(names, string(p))
	}
	fmt.Fprintf(&b, "\nPLATFORMS: %s\n", strings.Join(names, ", "))

	return b.String()
}

// buildImagePrompt assembles the image prompt from the idea's fields
func buildImagePrompt(idea *models.Idea) string {
	prompt := "Social media post image for: " + idea.Idea
	if idea.ImageStyle != "" {
		prompt += ". Style: " + idea.ImageStyle
	}
	return prompt
}

// parseCopySet parses the model's JSON output into a copy set, tolerating
// markdown code fences some models wrap around JSON
func parseCopySet(content string) (models.CopySet, error) {
	content = stripCodeFence(content)

	var copySet models.CopySet
	if err := json.Unmarshal([]byte(content), &copySet); err != nil {
		return nil, fmt.Errorf("failed to parse copy: %w", err)
	}
	if len(copySet) == 0 {
		return nil, fmt.Errorf("empty copy set")
	}

	return copySet, nil
}

// stripCodeFence removes a surrounding ```json ... ``` fence if present
func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	return strings.TrimSpace(content)
}

func containsPlatform(platforms []models.Platform, platform models.Platform) bool {
	for _, p := range platforms {
		if p == platform {
			return true
		}
	}
	return false
}
