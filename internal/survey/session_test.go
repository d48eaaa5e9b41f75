package survey

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/c1nnmnz/surveyuin-team-sub000/internal/storage"
)

type stubBackend struct {
	service    *ServiceUnit
	serviceErr error

	completed map[string]bool
	responses []*Response

	submitErr  error
	submitted  []*Response
	markedDone []string
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		service:   &ServiceUnit{ID: "42", Name: "Library Service Desk"},
		completed: map[string]bool{},
	}
}

func (b *stubBackend) FetchService(serviceID string) (*ServiceUnit, error) {
	if b.serviceErr != nil {
		return nil, b.serviceErr
	}
	return b.service, nil
}

func (b *stubBackend) FetchPriorResponses(serviceID, userID string) ([]*Response, error) {
	out := []*Response{}
	for _, r := range b.responses {
		if userID == "" || r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (b *stubBackend) SubmitResponse(serviceID string, r *Response) (*Response, error) {
	if b.submitErr != nil {
		return nil, b.submitErr
	}
	b.submitted = append(b.submitted, r)
	return r, nil
}

func (b *stubBackend) MarkCompleted(userID, serviceID string) error {
	b.markedDone = append(b.markedDone, userID+"/"+serviceID)
	b.completed[userID+"/"+serviceID] = true
	return nil
}

func (b *stubBackend) HasCompleted(userID, serviceID string) (bool, error) {
	return b.completed[userID+"/"+serviceID], nil
}

func newTestSession(backend *stubBackend, kv storage.KeyValueStore) *Session {
	s := NewSession(backend, NewProgressService(kv), "u1", "42")
	s.confirmDelay = 0
	s.now = func() time.Time { return time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC) }
	s.idGen = func() string { return "resp00000001" }
	return s
}

func answerAll(t *testing.T, s *Session, value string) {
	t.Helper()
	for _, q := range Catalog {
		v := value
		if q.Category == CategorySurveyIntegrity {
			v = "no"
		}
		if err := s.Answer(q.ID, v); err != nil {
			t.Fatalf("Answer(%s): %v", q.ID, err)
		}
	}
}

func TestSessionFreshSubmission(t *testing.T) {
	backend := newStubBackend()
	kv := storage.NewMemoryKV()
	s := newTestSession(backend, kv)
	ctx := context.Background()

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if s.State() != StateFormActive {
		t.Fatalf("state = %s, want %s", s.State(), StateFormActive)
	}

	answerAll(t, s, "6")
	answered, total, percent := s.Progress()
	if answered != 34 || total != 34 || percent != 100 {
		t.Fatalf("progress = (%d,%d,%d), want (34,34,100)", answered, total, percent)
	}

	resp, err := s.Submit(ctx)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if s.State() != StateSuccess {
		t.Fatalf("state = %s, want %s", s.State(), StateSuccess)
	}
	if resp.ID != "resp00000001" || resp.UserID != "u1" || resp.ServiceID != "42" {
		t.Fatalf("response identity = (%s,%s,%s)", resp.ID, resp.UserID, resp.ServiceID)
	}
	if resp.ServiceName != "Library Service Desk" {
		t.Fatalf("service name = %q", resp.ServiceName)
	}
	if len(resp.Answers) != 34 || resp.Answers[0].QuestionID != "cp1" {
		t.Fatalf("answers not in catalog order: len=%d first=%s", len(resp.Answers), resp.Answers[0].QuestionID)
	}
	if resp.Scores.Overall != 80 || !resp.Scores.IsPerfect {
		t.Fatalf("scores = %+v, want overall 80 and perfect", resp.Scores)
	}
	if len(backend.markedDone) != 1 || backend.markedDone[0] != "u1/42" {
		t.Fatalf("completion markers = %v, want [u1/42]", backend.markedDone)
	}
	if saved := NewProgressService(kv).Load("42"); len(saved) != 0 {
		t.Fatalf("progress after submit = %v, want cleared", saved)
	}
	if got := s.Destination(); got != "/end-survey/42" {
		t.Fatalf("destination = %q, want /end-survey/42", got)
	}
}

func TestSessionServiceLookupDegradesToPlaceholder(t *testing.T) {
	backend := newStubBackend()
	backend.serviceErr = errors.New("not found")
	s := newTestSession(backend, storage.NewMemoryKV())

	if err := s.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if s.State() != StateFormActive {
		t.Fatalf("state = %s, want %s (lookup failure must not block)", s.State(), StateFormActive)
	}
	if !s.Service().Placeholder || s.Service().ID != "42" {
		t.Fatalf("service = %+v, want placeholder for 42", s.Service())
	}
}

func TestSessionDuplicateFlow(t *testing.T) {
	backend := newStubBackend()
	backend.completed["u1/42"] = true
	backend.responses = []*Response{
		{ID: "old", UserID: "u1", ServiceID: "42", CompletedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "new", UserID: "u1", ServiceID: "42", CompletedAt: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)},
	}
	kv := storage.NewMemoryKV()
	_ = NewProgressService(kv).Save("42", map[string]string{"cp1": "3"})

	s := newTestSession(backend, kv)
	ctx := context.Background()
	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if s.State() != StateWarningShown {
		t.Fatalf("state = %s, want %s", s.State(), StateWarningShown)
	}
	if prev := s.PreviousResponse(); prev == nil || prev.ID != "new" {
		t.Fatalf("previous response = %+v, want the latest (new)", prev)
	}

	if err := s.FillAgain(ctx); err != nil {
		t.Fatalf("FillAgain: %v", err)
	}
	if s.State() != StateFormActive {
		t.Fatalf("state = %s, want %s", s.State(), StateFormActive)
	}
	if got := s.Answers(); len(got) != 0 {
		t.Fatalf("answers after fill-again = %v, want empty", got)
	}
	if saved := NewProgressService(kv).Load("42"); len(saved) != 0 {
		t.Fatalf("saved progress after fill-again = %v, want empty", saved)
	}
}

func TestSessionPartialThenResume(t *testing.T) {
	backend := newStubBackend()
	kv := storage.NewMemoryKV()

	first := newTestSession(backend, kv)
	ctx := context.Background()
	if err := first.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for _, q := range Catalog[:10] {
		if err := first.Answer(q.ID, "4"); err != nil {
			t.Fatalf("Answer(%s): %v", q.ID, err)
		}
	}

	// a new session over the same storage stands in for a reopened tab
	second := newTestSession(backend, kv)
	if err := second.Begin(ctx); err != nil {
		t.Fatalf("Begin (resumed): %v", err)
	}
	answered, _, _ := second.Progress()
	if answered != 10 {
		t.Fatalf("resumed answered = %d, want 10", answered)
	}
	for _, q := range Catalog[:10] {
		if second.Answers()[q.ID] != "4" {
			t.Fatalf("resumed answer for %s = %q, want 4", q.ID, second.Answers()[q.ID])
		}
	}
}

func TestSessionSubmitGuardedOnCompleteness(t *testing.T) {
	backend := newStubBackend()
	s := newTestSession(backend, storage.NewMemoryKV())
	ctx := context.Background()
	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := s.Answer("cp1", "5"); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	_, err := s.Submit(ctx)
	if err == nil {
		t.Fatalf("Submit with 1 of 34 answers succeeded, want incomplete error")
	}
	if se, ok := AsServiceError(err); !ok || se.Code != ErrorIncomplete {
		t.Fatalf("error = %v, want code %s", err, ErrorIncomplete)
	}
	if s.State() != StateFormActive {
		t.Fatalf("state = %s, want unchanged %s", s.State(), StateFormActive)
	}
}

func TestSessionSubmitFailureKeepsWork(t *testing.T) {
	backend := newStubBackend()
	backend.submitErr = errors.New("503 from upstream")
	kv := storage.NewMemoryKV()
	s := newTestSession(backend, kv)
	ctx := context.Background()

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	answerAll(t, s, "5")
	if _, err := s.Submit(ctx); err == nil {
		t.Fatalf("Submit succeeded, want backend error")
	}
	if s.State() != StateError {
		t.Fatalf("state = %s, want %s", s.State(), StateError)
	}
	if len(s.Answers()) != 34 {
		t.Fatalf("answers lost on failure: %d remain", len(s.Answers()))
	}
	if saved := NewProgressService(kv).Load("42"); len(saved) != 34 {
		t.Fatalf("saved progress lost on failure: %d remain", len(saved))
	}

	// retry after the backend recovers
	backend.submitErr = nil
	resp, err := s.Submit(ctx)
	if err != nil {
		t.Fatalf("retry Submit: %v", err)
	}
	if s.State() != StateSuccess || resp == nil {
		t.Fatalf("retry state = %s, want %s", s.State(), StateSuccess)
	}
}

func TestSessionReset(t *testing.T) {
	backend := newStubBackend()
	kv := storage.NewMemoryKV()
	s := newTestSession(backend, kv)
	ctx := context.Background()

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	for _, q := range Catalog[:5] {
		if err := s.Answer(q.ID, "2"); err != nil {
			t.Fatalf("Answer(%s): %v", q.ID, err)
		}
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	answered, _, percent := s.Progress()
	if answered != 0 || percent != 0 {
		t.Fatalf("progress after reset = (%d,%d%%), want (0,0%%)", answered, percent)
	}
	if saved := NewProgressService(kv).Load("42"); len(saved) != 0 {
		t.Fatalf("saved progress after reset = %v, want empty", saved)
	}
}

func TestSessionAnswerValidation(t *testing.T) {
	backend := newStubBackend()
	s := newTestSession(backend, storage.NewMemoryKV())
	if err := s.Answer("cp1", "6"); err == nil {
		t.Fatalf("Answer before form_active succeeded, want error")
	}
	if err := s.Begin(context.Background()); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := s.Answer("bogus", "1"); err == nil {
		t.Fatalf("Answer for unknown question succeeded, want error")
	}
	if err := s.Answer("cp1", "7"); err == nil {
		t.Fatalf("Answer with out-of-scale value succeeded, want error")
	}
	if err := s.Answer("si1", "maybe"); err == nil {
		t.Fatalf("Answer with invalid coercion value succeeded, want error")
	}
}
