package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"postforge/internal/database"
	"postforge/internal/lifecycle"
	"postforge/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IdeaService owns the content idea collection
type IdeaService struct {
	mongoDB *database.MongoDB
}

// NewIdeaService creates a new idea service
func NewIdeaService(mongoDB *database.MongoDB) *IdeaService {
	return &IdeaService{mongoDB: mongoDB}
}

// collection returns the ideas collection
func (s *IdeaService) collection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionIdeas)
}

// EnsureIndexes creates the indexes needed for idea queries
func (s *IdeaService) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			// Admission counting scans scheduled ideas by day window
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "scheduledAt", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "platforms", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "createdAt", Value: -1}},
		},
	}

	_, err := s.collection().Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create idea indexes: %w", err)
	}

	log.Println("✅ Idea indexes ensured")
	return nil
}

// Create captures a new idea. Every idea starts in the Idea stage.
func (s *IdeaService) Create(ctx context.Context, req *models.CreateIdeaRequest) (*models.Idea, error) {
	idea := &models.Idea{
		ID:              primitive.NewObjectID(),
		Idea:            req.Idea,
		Status:          models.StatusIdea,
		Platforms:       req.Platforms,
		Notes:           req.Notes,
		BrandVoice:      req.BrandVoice,
		HashtagGuidance: req.HashtagGuidance,
		ImageStyle:      req.ImageStyle,
		CreatedAt:       time.Now().UTC(),
	}
	if req.FrequencyPerDay != nil {
		if *req.FrequencyPerDay <= 0 {
			return nil, &lifecycle.ValidationError{Reason: "frequencyPerDay must be positive"}
		}
		idea.FrequencyPerDay = *req.FrequencyPerDay
	}

	if _, err := s.collection().InsertOne(ctx, idea); err != nil {
		return nil, fmt.Errorf("failed to insert idea: %w", err)
	}

	return idea, nil
}

// Get fetches one idea by its hex id
func (s *IdeaService) Get(ctx context.Context, id string) (*models.Idea, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, &lifecycle.NotFoundError{ID: id}
	}

	var idea models.Idea
	err = s.collection().FindOne(ctx, bson.M{"_id": objectID}).Decode(&idea)
	if err == mongo.ErrNoDocuments {
		return nil, &lifecycle.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch idea: %w", err)
	}

	return &idea, nil
}

// List returns all ideas, newest first
func (s *IdeaService) List(ctx context.Context) ([]models.Idea, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1})
	cursor, err := s.collection().Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list ideas: %w", err)
	}
	defer cursor.Close(ctx)

	ideas := []models.Idea{}
	if err := cursor.All(ctx, &ideas); err != nil {
		return nil, fmt.Errorf("failed to decode ideas: %w", err)
	}

	return ideas, nil
}

// Update applies a patch to one idea and returns the updated record. A zero
// patch is a plain read.
func (s *IdeaService) Update(ctx context.Context, id string, patch models.IdeaPatch) (*models.Idea, error) {
	if patch.IsZero() {
		return s.Get(ctx, id)
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, &lifecycle.NotFoundError{ID: id}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var idea models.Idea
	err = s.collection().FindOneAndUpdate(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": patchSet(patch)},
		opts,
	).Decode(&idea)
	if err == mongo.ErrNoDocuments {
		return nil, &lifecycle.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update idea: %w", err)
	}

	return &idea, nil
}

// CountScheduled counts ideas already scheduled for the given platform on
// the UTC calendar day containing at. Satisfies lifecycle.ScheduledCounter.
func (s *IdeaService) CountScheduled(ctx context.Context, platform models.Platform, at time.Time) (int64, error) {
	day := at.UTC()
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	filter := bson.M{
		"status":    models.StatusScheduled,
		"platforms": platform,
		"scheduledAt": bson.M{
			"$gte": dayStart,
			"$lt":  dayEnd,
		},
	}

	count, err := s.collection().CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count scheduled ideas: %w", err)
	}

	return count, nil
}

// patchSet converts the non-nil patch members into a $set document
func patchSet(patch models.IdeaPatch) bson.M {
	set := bson.M{}

	if patch.Idea != nil {
		set["idea"] = *patch.Idea
	}
	if patch.Notes != nil {
		set["notes"] = *patch.Notes
	}
	if patch.BrandVoice != nil {
		set["brandVoice"] = *patch.BrandVoice
	}
	if patch.HashtagGuidance != nil {
		set["hashtagGuidance"] = *patch.HashtagGuidance
	}
	if patch.ImageStyle != nil {
		set["imageStyle"] = *patch.ImageStyle
	}
	if patch.FrequencyPerDay != nil {
		set["frequencyPerDay"] = *patch.FrequencyPerDay
	}
	if patch.Platforms != nil {
		set["platforms"] = patch.Platforms
	}
	if patch.InstagramCaption != nil {
		set["instagramCaption"] = *patch.InstagramCaption
	}
	if patch.InstagramHashtags != nil {
		set["instagramHashtags"] = *patch.InstagramHashtags
	}
	if patch.FacebookCopy != nil {
		set["facebookCopy"] = *patch.FacebookCopy
	}
	if patch.ImageURL != nil {
		set["imageUrl"] = *patch.ImageURL
	}
	if patch.ImagePrompt != nil {
		set["imagePrompt"] = *patch.ImagePrompt
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.Approved != nil {
		set["approved"] = *patch.Approved
	}
	if patch.AutomationScenarioID != nil {
		set["automationScenarioId"] = *patch.AutomationScenarioID
	}
	if patch.LastGeneratedAt != nil {
		set["lastGeneratedAt"] = *patch.LastGeneratedAt
	}
	if patch.LastImageAt != nil {
		set["lastImageAt"] = *patch.LastImageAt
	}
	if patch.ScheduledAt != nil {
		set["scheduledAt"] = *patch.ScheduledAt
	}
	if patch.PostedAt != nil {
		set["postedAt"] = *patch.PostedAt
	}

	return set
}
