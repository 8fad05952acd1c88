package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the lifecycle stage of a content idea
type Status string

const (
	StatusIdea      Status = "Idea"
	StatusDraft     Status = "Draft"
	StatusApproved  Status = "Approved"
	StatusScheduled Status = "Scheduled"
	StatusPosted    Status = "Posted"
)

// Platform identifies a target social network
type Platform string

const (
	PlatformInstagram Platform = "Instagram"
	PlatformFacebook  Platform = "Facebook"
)

// DefaultPlatforms is used when an idea carries no platform targets of its own
var DefaultPlatforms = []Platform{PlatformInstagram, PlatformFacebook}

// DefaultFrequencyPerDay caps scheduled posts per platform per calendar day
// for ideas that do not carry their own limit
const DefaultFrequencyPerDay = 1

// Idea represents one piece of planned social content, from capture through
// publication. The record store keeps generated content in the flat field
// shape (per-platform caption/copy columns, hashtags as one space-joined
// string); ToResponse projects it into the structured API shape.
type Idea struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	Idea            string     `bson:"idea" json:"idea"`
	Status          Status     `bson:"status" json:"status"`
	Platforms       []Platform `bson:"platforms,omitempty" json:"platforms,omitempty"`
	Notes           string     `bson:"notes,omitempty" json:"notes,omitempty"`
	BrandVoice      string     `bson:"brandVoice,omitempty" json:"brandVoice,omitempty"`
	HashtagGuidance string     `bson:"hashtagGuidance,omitempty" json:"hashtagGuidance,omitempty"`
	ImageStyle      string     `bson:"imageStyle,omitempty" json:"imageStyle,omitempty"`
	FrequencyPerDay int        `bson:"frequencyPerDay,omitempty" json:"frequencyPerDay,omitempty"`

	// Generated content (flat store representation)
	InstagramCaption  string `bson:"instagramCaption,omitempty" json:"instagramCaption,omitempty"`
	InstagramHashtags string `bson:"instagramHashtags,omitempty" json:"instagramHashtags,omitempty"` // space-joined, "#"-prefixed
	FacebookCopy      string `bson:"facebookCopy,omitempty" json:"facebookCopy,omitempty"`
	ImageURL          string `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	ImagePrompt       string `bson:"imagePrompt,omitempty" json:"imagePrompt,omitempty"`

	Approved             bool   `bson:"approved" json:"approved"`
	AutomationScenarioID string `bson:"automationScenarioId,omitempty" json:"automationScenarioId,omitempty"`

	// Timestamps
	CreatedAt       time.Time  `bson:"createdAt" json:"createdAt"`
	LastGeneratedAt *time.Time `bson:"lastGeneratedAt,omitempty" json:"lastGeneratedAt,omitempty"`
	LastImageAt     *time.Time `bson:"lastImageAt,omitempty" json:"lastImageAt,omitempty"`
	ScheduledAt     *time.Time `bson:"scheduledAt,omitempty" json:"scheduledAt,omitempty"`
	PostedAt        *time.Time `bson:"postedAt,omitempty" json:"postedAt,omitempty"`
}

// EffectiveFrequencyPerDay returns the idea's posting cap, defaulting to 1
// when unset. Non-positive values are never persisted, so this only papers
// over the zero value of an absent field.
func (i *Idea) EffectiveFrequencyPerDay() int {
	if i.FrequencyPerDay > 0 {
		return i.FrequencyPerDay
	}
	return DefaultFrequencyPerDay
}

// HasGeneratedContent reports whether at least one platform has a generated
// text body. Approval and scheduling both require this.
func (i *Idea) HasGeneratedContent() bool {
	return i.InstagramCaption != "" || i.FacebookCopy != ""
}

// InstagramContent projects the flat Instagram fields into the structured
// per-platform shape. Returns nil when no caption has been generated.
func (i *Idea) InstagramContent() *PlatformContent {
	if i.InstagramCaption == "" {
		return nil
	}
	return &PlatformContent{
		Body:     i.InstagramCaption,
		Hashtags: SplitHashtags(i.InstagramHashtags),
	}
}

// FacebookContent projects the flat Facebook fields into the structured
// per-platform shape. Returns nil when no copy has been generated.
func (i *Idea) FacebookContent() *PlatformContent {
	if i.FacebookCopy == "" {
		return nil
	}
	return &PlatformContent{Body: i.FacebookCopy}
}

// PlatformContent is one platform's generated text body with optional hashtags
type PlatformContent struct {
	Body     string   `json:"body"`
	Hashtags []string `json:"hashtags,omitempty"`
}

// PlatformCopy is the generative backend's output for one platform
type PlatformCopy struct {
	Body     string   `json:"body"`
	Hashtags []string `json:"hashtags,omitempty"`
}

// CopySet maps platforms to their generated copy
type CopySet map[Platform]PlatformCopy

// GeneratedImage is the generative backend's image output together with the
// prompt that produced it
type GeneratedImage struct {
	ImageURL string `json:"imageUrl"`
	Prompt   string `json:"prompt"`
}

// GeneratedBundle groups the outputs of one full generation pass
type GeneratedBundle struct {
	Copy  CopySet
	Image *GeneratedImage
}

// NormalizeHashtag trims a tag and ensures the "#" prefix. Empty input
// stays empty.
func NormalizeHashtag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	if !strings.HasPrefix(tag, "#") {
		return "#" + tag
	}
	return tag
}

// NormalizeHashtags normalizes every tag and drops blanks
func NormalizeHashtags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := NormalizeHashtag(tag); t != "" {
			normalized = append(normalized, t)
		}
	}
	return normalized
}

// JoinHashtags normalizes tags and joins them into the flat store
// representation ("#one #two")
func JoinHashtags(tags []string) string {
	return strings.Join(NormalizeHashtags(tags), " ")
}

// SplitHashtags splits the flat store representation back into a tag list
func SplitHashtags(joined string) []string {
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	return strings.Fields(joined)
}

// IdeaPatch is a typed partial update for an idea record. Nil members leave
// the corresponding field untouched; the store writes only the members that
// are set. Platforms uses a nil slice as "untouched" (an empty non-nil
// slice clears the set).
type IdeaPatch struct {
	Idea            *string
	Notes           *string
	BrandVoice      *string
	HashtagGuidance *string
	ImageStyle      *string
	FrequencyPerDay *int
	Platforms       []Platform

	InstagramCaption  *string
	InstagramHashtags *string
	FacebookCopy      *string
	ImageURL          *string
	ImagePrompt       *string

	Status   *Status
	Approved *bool

	AutomationScenarioID *string

	LastGeneratedAt *time.Time
	LastImageAt     *time.Time
	ScheduledAt     *time.Time
	PostedAt        *time.Time
}

// IsZero reports whether the patch touches no fields
func (p *IdeaPatch) IsZero() bool {
	return p.Idea == nil && p.Notes == nil && p.BrandVoice == nil &&
		p.HashtagGuidance == nil && p.ImageStyle == nil &&
		p.FrequencyPerDay == nil && p.Platforms == nil &&
		p.InstagramCaption == nil && p.InstagramHashtags == nil &&
		p.FacebookCopy == nil && p.ImageURL == nil && p.ImagePrompt == nil &&
		p.Status == nil && p.Approved == nil &&
		p.AutomationScenarioID == nil &&
		p.LastGeneratedAt == nil && p.LastImageAt == nil &&
		p.ScheduledAt == nil && p.PostedAt == nil
}

// Apply merges the patch into a copy of the idea and returns the result.
// Pure: neither the receiver nor the input is modified.
func (p *IdeaPatch) Apply(idea Idea) Idea {
	if p.Idea != nil {
		idea.Idea = *p.Idea
	}
	if p.Notes != nil {
		idea.Notes = *p.Notes
	}
	if p.BrandVoice != nil {
		idea.BrandVoice = *p.BrandVoice
	}
	if p.HashtagGuidance != nil {
		idea.HashtagGuidance = *p.HashtagGuidance
	}
	if p.ImageStyle != nil {
		idea.ImageStyle = *p.ImageStyle
	}
	if p.FrequencyPerDay != nil {
		idea.FrequencyPerDay = *p.FrequencyPerDay
	}
	if p.Platforms != nil {
		idea.Platforms = append([]Platform(nil), p.Platforms...)
	}
	if p.InstagramCaption != nil {
		idea.InstagramCaption = *p.InstagramCaption
	}
	if p.InstagramHashtags != nil {
		idea.InstagramHashtags = *p.InstagramHashtags
	}
	if p.FacebookCopy != nil {
		idea.FacebookCopy = *p.FacebookCopy
	}
	if p.ImageURL != nil {
		idea.ImageURL = *p.ImageURL
	}
	if p.ImagePrompt != nil {
		idea.ImagePrompt = *p.ImagePrompt
	}
	if p.Status != nil {
		idea.Status = *p.Status
	}
	if p.Approved != nil {
		idea.Approved = *p.Approved
	}
	if p.AutomationScenarioID != nil {
		idea.AutomationScenarioID = *p.AutomationScenarioID
	}
	if p.LastGeneratedAt != nil {
		idea.LastGeneratedAt = p.LastGeneratedAt
	}
	if p.LastImageAt != nil {
		idea.LastImageAt = p.LastImageAt
	}
	if p.ScheduledAt != nil {
		idea.ScheduledAt = p.ScheduledAt
	}
	if p.PostedAt != nil {
		idea.PostedAt = p.PostedAt
	}
	return idea
}

// CreateIdeaRequest represents a request to capture a new idea
type CreateIdeaRequest struct {
	Idea            string     `json:"idea" validate:"required,min=3"`
	Platforms       []Platform `json:"platforms,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	BrandVoice      string     `json:"brandVoice,omitempty"`
	HashtagGuidance string     `json:"hashtagGuidance,omitempty"`
	ImageStyle      string     `json:"imageStyle,omitempty"`
	FrequencyPerDay *int       `json:"frequencyPerDay,omitempty" validate:"omitempty,gt=0"`
}

// UpdateIdeaRequest represents a field edit. Only non-nil members are
// merged; status is never touched by an edit.
type UpdateIdeaRequest struct {
	Idea            *string    `json:"idea,omitempty" validate:"omitempty,min=3"`
	Notes           *string    `json:"notes,omitempty"`
	BrandVoice      *string    `json:"brandVoice,omitempty"`
	HashtagGuidance *string    `json:"hashtagGuidance,omitempty"`
	ImageStyle      *string    `json:"imageStyle,omitempty"`
	FrequencyPerDay *int       `json:"frequencyPerDay,omitempty" validate:"omitempty,gt=0"`
	Platforms       []Platform `json:"platforms,omitempty"`
}

// ApproveIdeaRequest toggles the approval flag
type ApproveIdeaRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

// ScheduleIdeaRequest asks to schedule an approved idea
type ScheduleIdeaRequest struct {
	ScheduledAt string     `json:"scheduledAt" validate:"required"`
	Platforms   []Platform `json:"platforms,omitempty"`
	ScenarioID  string     `json:"scenarioId,omitempty"`
}

// MarkPostedRequest confirms publication; PostedAt defaults to the call time
type MarkPostedRequest struct {
	PostedAt *time.Time `json:"postedAt,omitempty"`
}

// RegenerateTextRequest optionally narrows regeneration to a platform subset
type RegenerateTextRequest struct {
	Platforms []Platform `json:"platforms,omitempty"`
}

// IdeaResponse is the API representation of an idea
type IdeaResponse struct {
	ID                   string           `json:"id"`
	Idea                 string           `json:"idea"`
	Status               Status           `json:"status"`
	Platforms            []Platform       `json:"platforms"`
	Notes                string           `json:"notes,omitempty"`
	BrandVoice           string           `json:"brandVoice,omitempty"`
	HashtagGuidance      string           `json:"hashtagGuidance,omitempty"`
	ImageStyle           string           `json:"imageStyle,omitempty"`
	FrequencyPerDay      int              `json:"frequencyPerDay"`
	Approved             bool             `json:"approved"`
	Instagram            *PlatformContent `json:"instagram,omitempty"`
	Facebook             *PlatformContent `json:"facebook,omitempty"`
	ImageURL             string           `json:"imageUrl,omitempty"`
	ImagePrompt          string           `json:"imagePrompt,omitempty"`
	AutomationScenarioID string           `json:"automationScenarioId,omitempty"`
	CreatedAt            time.Time        `json:"createdAt"`
	LastGeneratedAt      *time.Time       `json:"lastGeneratedAt,omitempty"`
	LastImageAt          *time.Time       `json:"lastImageAt,omitempty"`
	ScheduledAt          *time.Time       `json:"scheduledAt,omitempty"`
	PostedAt             *time.Time       `json:"postedAt,omitempty"`
}

// ToResponse converts an Idea to its API representation
func (i *Idea) ToResponse() *IdeaResponse {
	platforms := i.Platforms
	if platforms == nil {
		platforms = []Platform{}
	}
	return &IdeaResponse{
		ID:                   i.ID.Hex(),
		Idea:                 i.Idea,
		Status:               i.Status,
		Platforms:            platforms,
		Notes:                i.Notes,
		BrandVoice:           i.BrandVoice,
		HashtagGuidance:      i.HashtagGuidance,
		ImageStyle:           i.ImageStyle,
		FrequencyPerDay:      i.EffectiveFrequencyPerDay(),
		Approved:             i.Approved,
		Instagram:            i.InstagramContent(),
		Facebook:             i.FacebookContent(),
		ImageURL:             i.ImageURL,
		ImagePrompt:          i.ImagePrompt,
		AutomationScenarioID: i.AutomationScenarioID,
		CreatedAt:            i.CreatedAt,
		LastGeneratedAt:      i.LastGeneratedAt,
		LastImageAt:          i.LastImageAt,
		ScheduledAt:          i.ScheduledAt,
		PostedAt:             i.PostedAt,
	}
}
