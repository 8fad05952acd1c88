package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"postforge/internal/lifecycle"
	"postforge/internal/models"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bare json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"plain fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"leading whitespace", "  {\"a\":1}  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.input); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestParseCopySet(t *testing.T) {
	content := "```json\n" + `{"Instagram":{"body":"Caption here","hashtags":["coffee","#beans"]},"Facebook":{"body":"Longer post body."}}` + "\n```"

	copySet, err := parseCopySet(content)
	if err != nil {
		t.Fatalf("Expected parse, got %v", err)
	}

	instagram, ok := copySet[models.PlatformInstagram]
	if !ok || instagram.Body != "Caption here" || len(instagram.Hashtags) != 2 {
		t.Errorf("Unexpected Instagram copy: %+v", instagram)
	}
	facebook, ok := copySet[models.PlatformFacebook]
	if !ok || facebook.Body != "Longer post body." {
		t.Errorf("Unexpected Facebook copy: %+v", facebook)
	}

	if _, err := parseCopySet("not json"); err == nil {
		t.Error("Expected error for non-JSON content")
	}
	if _, err := parseCopySet("{}"); err == nil {
		t.Error("Expected error for an empty copy set")
	}
}

func TestBuildCopyPrompt(t *testing.T) {
	idea := &models.Idea{
		Idea:            "Open mic night announcement",
		Notes:           "Thursday 7pm",
		BrandVoice:      "warm and casual",
		HashtagGuidance: "local music tags",
	}

	prompt := buildCopyPrompt(idea, []models.Platform{models.PlatformInstagram})

	for _, want := range []string{"Open mic night announcement", "Thursday 7pm", "warm and casual", "local music tags", "PLATFORMS: Instagram"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
	if strings.Contains(prompt, "Facebook") {
		t.Error("Prompt must only name the requested platforms")
	}
}

func TestGeneratePlatformCopy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Unexpected auth header %q", got)
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Bad request body: %v", err)
		}
		if req["model"] != "copy-model" {
			t.Errorf("Unexpected model %v", req["model"])
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{
					"content": `{"Instagram":{"body":"Hi","hashtags":["x"]}}`,
				}},
			},
		})
	}))
	defer server.Close()

	svc := NewGenerationService(server.URL, "test-key", "copy-model", "image-model", "1024x1024")
	idea := &models.Idea{Idea: "test idea"}

	copySet, err := svc.GeneratePlatformCopy(context.Background(), idea, []models.Platform{models.PlatformInstagram})
	if err != nil {
		t.Fatalf("Expected copy, got %v", err)
	}
	if copySet[models.PlatformInstagram].Body != "Hi" {
		t.Errorf("Unexpected copy set %+v", copySet)
	}
}

func TestGeneratePlatformCopy_DropsUnrequestedPlatforms(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{
					"content": `{"Instagram":{"body":"Hi"},"Facebook":{"body":"Surplus"}}`,
				}},
			},
		})
	}))
	defer server.Close()

	svc := NewGenerationService(server.URL, "test-key", "copy-model", "image-model", "1024x1024")

	copySet, err := svc.GeneratePlatformCopy(context.Background(), &models.Idea{Idea: "x"}, []models.Platform{models.PlatformInstagram})
	if err != nil {
		t.Fatalf("Expected copy, got %v", err)
	}
	if _, ok := copySet[models.PlatformFacebook]; ok {
		t.Error("Copy for unrequested platforms must be dropped")
	}
}

func TestGeneratePlatformCopy_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	svc := NewGenerationService(server.URL, "test-key", "copy-model", "image-model", "1024x1024")

	_, err := svc.GeneratePlatformCopy(context.Background(), &models.Idea{Idea: "x"}, models.DefaultPlatforms)

	var upstreamErr *lifecycle.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
	if upstreamErr.Service != "generation" {
		t.Errorf("Unexpected service %q", upstreamErr.Service)
	}
}

func TestGenerateImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Bad request body: %v", err)
		}
		if req["size"] != "1024x1024" {
			t.Errorf("Unexpected size %v", req["size"])
		}
		prompt, _ := req["prompt"].(string)
		if !strings.Contains(prompt, "harbor sunrise") || !strings.Contains(prompt, "watercolor") {
			t.Errorf("Prompt missing idea or style: %q", prompt)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"url": "https://img.example/generated.png"},
			},
		})
	}))
	defer server.Close()

	svc := NewGenerationService(server.URL, "test-key", "copy-model", "image-model", "1024x1024")
	idea := &models.Idea{Idea: "harbor sunrise", ImageStyle: "watercolor"}

	image, err := svc.GenerateImage(context.Background(), idea)
	if err != nil {
		t.Fatalf("Expected image, got %v", err)
	}
	if image.ImageURL != "https://img.example/generated.png" {
		t.Errorf("Unexpected image URL %q", image.ImageURL)
	}
	if image.Prompt == "" {
		t.Error("Expected the prompt recorded alongside the image")
	}
}

func TestGenerationServiceConfigured(t *testing.T) {
	if NewGenerationService("https://api.example", "", "m", "i", "s").Configured() {
		t.Error("No API key means unconfigured")
	}
	if !NewGenerationService("https://api.example", "k", "m", "i", "s").Configured() {
		t.Error("API key means configured")
	}
}
