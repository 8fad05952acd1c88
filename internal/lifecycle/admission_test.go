package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"postforge/internal/models"
)

// fakeCounter serves counts keyed by platform + UTC day
type fakeCounter struct {
	counts map[string]int64
	err    error
	calls  []models.Platform
}

func (f *fakeCounter) CountScheduled(_ context.Context, platform models.Platform, at time.Time) (int64, error) {
	f.calls = append(f.calls, platform)
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[string(platform)+"|"+DayKey(at)], nil
}

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("Failed to parse time %q: %v", value, err)
	}
	return parsed
}

func TestDayKey(t *testing.T) {
	tests := []struct {
		name string
		at   string
		want string
	}{
		{"morning UTC", "2024-05-01T10:00:00Z", "2024-05-01"},
		{"midnight UTC", "2024-05-01T00:00:00Z", "2024-05-01"},
		{"end of day UTC", "2024-05-01T23:59:59Z", "2024-05-01"},
		{"offset crosses into next UTC day", "2024-05-01T23:30:00-02:00", "2024-05-02"},
		{"offset stays on previous UTC day", "2024-05-01T01:30:00+05:00", "2024-04-30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayKey(mustTime(t, tt.at)); got != tt.want {
				t.Errorf("DayKey(%s) = %q, want %q", tt.at, got, tt.want)
			}
		})
	}
}

func TestAdmissionCheck_QuotaReached(t *testing.T) {
	// frequencyPerDay 1 with one existing Scheduled Instagram idea on the day
	store := &fakeCounter{counts: map[string]int64{
		"Instagram|2024-05-01": 1,
	}}
	controller := NewAdmissionController(store)

	idea := &models.Idea{FrequencyPerDay: 1}
	at := mustTime(t, "2024-05-01T10:00:00Z")

	err := controller.Check(context.Background(), idea, at, []models.Platform{models.PlatformInstagram})

	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("Expected QuotaExceededError, got %v", err)
	}
	if quotaErr.Platform != models.PlatformInstagram {
		t.Errorf("Expected platform Instagram, got %s", quotaErr.Platform)
	}
	if quotaErr.Day != "2024-05-01" {
		t.Errorf("Expected day 2024-05-01, got %s", quotaErr.Day)
	}
}

func TestAdmissionCheck_OtherPlatformAdmitted(t *testing.T) {
	// Instagram is full but Facebook has no matches on the same day
	store := &fakeCounter{counts: map[string]int64{
		"Instagram|2024-05-01": 1,
	}}
	controller := NewAdmissionController(store)

	idea := &models.Idea{FrequencyPerDay: 1}
	at := mustTime(t, "2024-05-01T10:00:00Z")

	if err := controller.Check(context.Background(), idea, at, []models.Platform{models.PlatformFacebook}); err != nil {
		t.Errorf("Expected Facebook to be admitted, got %v", err)
	}
}

func TestAdmissionCheck_AllOrNothing(t *testing.T) {
	// One platform over quota rejects the whole multi-platform request
	store := &fakeCounter{counts: map[string]int64{
		"Facebook|2024-05-01": 3,
	}}
	controller := NewAdmissionController(store)

	idea := &models.Idea{FrequencyPerDay: 2}
	at := mustTime(t, "2024-05-01T08:00:00Z")

	err := controller.Check(context.Background(), idea, at, []models.Platform{models.PlatformInstagram, models.PlatformFacebook})

	var quotaErr *QuotaExceededError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("Expected QuotaExceededError, got %v", err)
	}
	if quotaErr.Platform != models.PlatformFacebook {
		t.Errorf("Expected the failing platform to be named, got %s", quotaErr.Platform)
	}
}

func TestAdmissionCheck_FirstFailStopsQuerying(t *testing.T) {
	store := &fakeCounter{counts: map[string]int64{
		"Instagram|2024-05-01": 5,
	}}
	controller := NewAdmissionController(store)

	idea := &models.Idea{FrequencyPerDay: 1}
	at := mustTime(t, "2024-05-01T08:00:00Z")

	err := controller.Check(context.Background(), idea, at, []models.Platform{models.PlatformInstagram, models.PlatformFacebook})
	if err == nil {
		t.Fatal("Expected rejection")
	}
	if len(store.calls) != 1 {
		t.Errorf("Expected the check to stop at the first failing platform, queried %d platforms", len(store.calls))
	}
}

func TestAdmissionCheck_LimitFromRequestingIdea(t *testing.T) {
	// Two existing matches: an idea with frequencyPerDay 3 still fits,
	// one with the default limit of 1 does not
	store := &fakeCounter{counts: map[string]int64{
		"Instagram|2024-05-01": 2,
	}}
	controller := NewAdmissionController(store)
	at := mustTime(t, "2024-05-01T12:00:00Z")
	platforms := []models.Platform{models.PlatformInstagram}

	generous := &models.Idea{FrequencyPerDay: 3}
	if err := controller.Check(context.Background(), generous, at, platforms); err != nil {
		t.Errorf("Expected limit 3 to admit with 2 existing, got %v", err)
	}

	defaulted := &models.Idea{}
	if err := controller.Check(context.Background(), defaulted, at, platforms); err == nil {
		t.Error("Expected the default limit of 1 to reject with 2 existing")
	}
}

func TestAdmissionCheck_EmptyPlatformSetAdmits(t *testing.T) {
	store := &fakeCounter{counts: map[string]int64{}}
	controller := NewAdmissionController(store)

	idea := &models.Idea{}
	at := mustTime(t, "2024-05-01T12:00:00Z")

	if err := controller.Check(context.Background(), idea, at, nil); err != nil {
		t.Errorf("Expected trivial admission for an empty platform set, got %v", err)
	}
	if len(store.calls) != 0 {
		t.Errorf("Expected no store queries, got %d", len(store.calls))
	}
}

func TestAdmissionCheck_StoreErrorPropagates(t *testing.T) {
	store := &fakeCounter{err: errors.New("connection reset")}
	controller := NewAdmissionController(store)

	idea := &models.Idea{}
	at := mustTime(t, "2024-05-01T12:00:00Z")

	err := controller.Check(context.Background(), idea, at, []models.Platform{models.PlatformInstagram})
	if err == nil {
		t.Fatal("Expected error to propagate")
	}
	var quotaErr *QuotaExceededError
	if errors.As(err, &quotaErr) {
		t.Error("A store failure must not be reported as a quota rejection")
	}
}
