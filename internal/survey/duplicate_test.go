package survey

import (
	"errors"
	"testing"
	"time"
)

type stubSource struct {
	completed     bool
	completedErr  error
	byUser        map[string][]*Response
	serviceWide   []*Response
	responsesErr  error
	fetchedUserID []string
}

func (s *stubSource) HasCompleted(userID, serviceID string) (bool, error) {
	return s.completed, s.completedErr
}

func (s *stubSource) FetchPriorResponses(serviceID, userID string) ([]*Response, error) {
	s.fetchedUserID = append(s.fetchedUserID, userID)
	if s.responsesErr != nil {
		return nil, s.responsesErr
	}
	if userID == "" {
		return s.serviceWide, nil
	}
	return s.byUser[userID], nil
}

func at(day int) time.Time {
	return time.Date(2026, 3, day, 10, 0, 0, 0, time.UTC)
}

func TestCheckNoCompletionMarker(t *testing.T) {
	guard := NewDuplicateGuard(&stubSource{})
	got := guard.Check("u1", "42")
	if got.IsDuplicate || got.MostRecent != nil {
		t.Fatalf("Check = %+v, want not duplicate", got)
	}
}

func TestCheckPicksMostRecent(t *testing.T) {
	src := &stubSource{
		completed: true,
		byUser: map[string][]*Response{
			"u1": {
				{ID: "r1", CompletedAt: at(1)},
				{ID: "r3", CompletedAt: at(9)},
				{ID: "r2", CompletedAt: at(5)},
			},
		},
	}
	got := NewDuplicateGuard(src).Check("u1", "42")
	if !got.IsDuplicate {
		t.Fatalf("IsDuplicate = false, want true")
	}
	if got.MostRecent.ID != "r3" {
		t.Fatalf("most recent = %s, want r3", got.MostRecent.ID)
	}
}

func TestCheckTimestampFieldPriority(t *testing.T) {
	// completedAt outranks the legacy fields even when one of them is
	// later; records without completedAt fall through the chain.
	src := &stubSource{
		completed: true,
		byUser: map[string][]*Response{
			"u1": {
				{ID: "legacy", Timestamp: at(20)},
				{ID: "modern", CompletedAt: at(10), CreatedAt: at(25)},
			},
		},
	}
	got := NewDuplicateGuard(src).Check("u1", "42")
	if got.MostRecent.ID != "legacy" {
		t.Fatalf("most recent = %s, want legacy (timestamp 20 vs completedAt 10)", got.MostRecent.ID)
	}
}

func TestCheckServiceWideFallback(t *testing.T) {
	src := &stubSource{
		completed:   true,
		byUser:      map[string][]*Response{},
		serviceWide: []*Response{{ID: "anon", CompletedAt: at(2)}},
	}
	got := NewDuplicateGuard(src).Check("u1", "42")
	if !got.IsDuplicate || got.MostRecent.ID != "anon" {
		t.Fatalf("Check = %+v, want fallback to service-wide response", got)
	}
	if len(src.fetchedUserID) != 2 || src.fetchedUserID[1] != "" {
		t.Fatalf("fetch calls = %v, want user lookup then service-wide", src.fetchedUserID)
	}
}

func TestCheckFailsOpenOnMarkerError(t *testing.T) {
	src := &stubSource{completedErr: errors.New("backend down")}
	got := NewDuplicateGuard(src).Check("u1", "42")
	if got.IsDuplicate {
		t.Fatalf("IsDuplicate = true on lookup error, want fail-open false")
	}
}

func TestCheckFailsOpenOnResponsesError(t *testing.T) {
	src := &stubSource{completed: true, responsesErr: errors.New("backend down")}
	got := NewDuplicateGuard(src).Check("u1", "42")
	if got.IsDuplicate {
		t.Fatalf("IsDuplicate = true on responses error, want fail-open false")
	}
}
