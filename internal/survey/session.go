package survey

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"
)

// Session states.
const (
	StateLoading        = "loading"
	StateDuplicateCheck = "duplicate_check"
	StateWarningShown   = "warning_shown"
	StateFormActive     = "form_active"
	StateSubmitting     = "submitting"
	StateSuccess        = "success"
	StateError          = "error"
)

// Collaborator is the external response backend a session talks to. It
// extends ResponseSource with the calls the submit path needs. Submit is
// not idempotent upstream; the duplicate guard is the only defense
// against double submission.
type Collaborator interface {
	ResponseSource
	FetchService(serviceID string) (*ServiceUnit, error)
	SubmitResponse(serviceID string, r *Response) (*Response, error)
	MarkCompleted(userID, serviceID string) error
}

// Session drives one survey-taking attempt from entry to completion:
// duplicate check, progress restore, per-answer saves, guarded submit.
// Sessions are single-goroutine by design, mirroring one respondent.
type Session struct {
	machine  *fsm.FSM
	backend  Collaborator
	progress *ProgressService
	guard    *DuplicateGuard
	catalog  []*Question

	serviceID string
	userID    string
	service   *ServiceUnit
	answers   map[string]string
	warning   DuplicateCheck
	submitted *Response
	lastErr   error

	now          func() time.Time
	idGen        func() string
	confirmDelay time.Duration
}

// NewSession builds a session for one (user, service) pair. The catalog
// defaults to the built-in question set.
func NewSession(backend Collaborator, progress *ProgressService, userID, serviceID string) *Session {
	s := &Session{
		backend:      backend,
		progress:     progress,
		guard:        NewDuplicateGuard(backend),
		catalog:      Catalog,
		serviceID:    serviceID,
		userID:       userID,
		answers:      map[string]string{},
		now:          func() time.Time { return time.Now().UTC() },
		idGen:        func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:12] },
		confirmDelay: 1500 * time.Millisecond,
	}
	s.machine = fsm.NewFSM(StateLoading, fsm.Events{
		{Name: "service_loaded", Src: []string{StateLoading}, Dst: StateDuplicateCheck},
		{Name: "duplicate_found", Src: []string{StateDuplicateCheck}, Dst: StateWarningShown},
		{Name: "no_duplicate", Src: []string{StateDuplicateCheck}, Dst: StateFormActive},
		{Name: "fill_again", Src: []string{StateWarningShown}, Dst: StateFormActive},
		{Name: "submit", Src: []string{StateFormActive, StateError}, Dst: StateSubmitting},
		{Name: "succeed", Src: []string{StateSubmitting}, Dst: StateSuccess},
		{Name: "fail", Src: []string{StateSubmitting}, Dst: StateError},
	}, fsm.Callbacks{})
	return s
}

// SetConfirmDelay overrides the post-submit confirmation pause.
func (s *Session) SetConfirmDelay(d time.Duration) { s.confirmDelay = d }

// State returns the current machine state.
func (s *Session) State() string { return s.machine.Current() }

// Service returns the metadata loaded (or degraded to) during Begin.
func (s *Session) Service() *ServiceUnit { return s.service }

// Warning returns the duplicate verdict once Begin has run.
func (s *Session) Warning() DuplicateCheck { return s.warning }

// Err returns the error that moved the session into the error state.
func (s *Session) Err() error { return s.lastErr }

// Begin loads service metadata and runs the duplicate check. The answer
// form only becomes available (form_active) when no duplicate exists;
// otherwise the session parks in warning_shown awaiting the respondent's
// choice.
func (s *Session) Begin(ctx context.Context) error {
	svc, err := s.backend.FetchService(s.serviceID)
	if err != nil || svc == nil {
		// service metadata is display-only; degrade to a placeholder
		// rather than blocking the respondent
		log.Printf("session: service %s lookup failed, using placeholder: %v", s.serviceID, err)
		svc = &ServiceUnit{ID: s.serviceID, Name: "Service unit " + s.serviceID, Placeholder: true}
	}
	s.service = svc
	if err := s.machine.Event(ctx, "service_loaded"); err != nil {
		return err
	}

	s.warning = s.guard.Check(s.userID, s.serviceID)
	if s.warning.IsDuplicate {
		return s.machine.Event(ctx, "duplicate_found")
	}
	if err := s.machine.Event(ctx, "no_duplicate"); err != nil {
		return err
	}
	s.restoreProgress()
	return nil
}

// PreviousResponse hands back the most recent prior response for review.
// Viewing it is terminal for the warning flow; the session stays put.
func (s *Session) PreviousResponse() *Response { return s.warning.MostRecent }

// FillAgain discards the prior attempt's local progress and opens a
// fresh form. Only valid from warning_shown.
func (s *Session) FillAgain(ctx context.Context) error {
	if !s.machine.Is(StateWarningShown) {
		return NewInvalidError("no duplicate warning to dismiss")
	}
	s.answers = map[string]string{}
	_ = s.progress.Clear(s.serviceID)
	if err := s.machine.Event(ctx, "fill_again"); err != nil {
		return err
	}
	s.restoreProgress()
	return nil
}

func (s *Session) restoreProgress() {
	if saved := s.progress.Load(s.serviceID); len(saved) > 0 {
		s.answers = saved
	}
}

// Answer records a selection and persists the full map. Re-selection
// overwrites. Only valid while the form is active.
func (s *Session) Answer(questionID, value string) error {
	if !s.machine.Is(StateFormActive) {
		return NewInvalidError("form is not active")
	}
	q := s.questionByID(questionID)
	if q == nil {
		return NewInvalidError("unknown question: " + questionID)
	}
	if q.OptionByValue(value) == nil {
		return NewInvalidError(fmt.Sprintf("invalid option %q for question %s", value, questionID))
	}
	s.answers[questionID] = value
	// persistence failure only costs resumability, never the in-memory answer
	_ = s.progress.Save(s.serviceID, s.answers)
	return nil
}

// Answers returns a copy of the current in-memory answer map.
func (s *Session) Answers() map[string]string {
	out := make(map[string]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// Progress reports answered count, total count and whole percent.
func (s *Session) Progress() (answered, total, percent int) {
	total = len(s.catalog)
	for _, q := range s.catalog {
		if _, ok := s.answers[q.ID]; ok {
			answered++
		}
	}
	if total > 0 {
		percent = answered * 100 / total
	}
	return answered, total, percent
}

// Reset clears every answer and the saved progress record. Callable any
// time the form is active, independent of the duplicate-warning flow.
func (s *Session) Reset() error {
	if !s.machine.Is(StateFormActive) && !s.machine.Is(StateError) {
		return NewInvalidError("nothing to reset")
	}
	s.answers = map[string]string{}
	return s.progress.Clear(s.serviceID)
}

// Submit scores the full answer set, persists the response, marks the
// completion fact and clears local progress. Incomplete answer sets are
// rejected before any state change. On backend failure the session moves
// to the error state with answers and saved progress intact, so the
// respondent can retry without data loss.
func (s *Session) Submit(ctx context.Context) (*Response, error) {
	if !s.machine.Is(StateFormActive) && !s.machine.Is(StateError) {
		return nil, NewInvalidError("submission is not available in state " + s.State())
	}
	answered, total, _ := s.Progress()
	if answered != total {
		return nil, NewIncompleteError(fmt.Sprintf("answered %d of %d questions", answered, total))
	}
	if err := s.machine.Event(ctx, "submit"); err != nil {
		return nil, err
	}

	resp := s.buildResponse()
	stored, err := s.backend.SubmitResponse(s.serviceID, resp)
	if err != nil {
		s.lastErr = err
		_ = s.machine.Event(ctx, "fail")
		return nil, err
	}
	if stored != nil {
		resp = stored
	}
	if err := s.backend.MarkCompleted(s.userID, s.serviceID); err != nil {
		s.lastErr = err
		_ = s.machine.Event(ctx, "fail")
		return nil, err
	}
	_ = s.progress.Clear(s.serviceID)
	s.submitted = resp
	s.lastErr = nil
	if err := s.machine.Event(ctx, "succeed"); err != nil {
		return nil, err
	}
	s.confirm(ctx)
	return resp, nil
}

func (s *Session) buildResponse() *Response {
	ordered := make([]ResponseAnswer, 0, len(s.catalog))
	for _, q := range s.catalog {
		ordered = append(ordered, ResponseAnswer{QuestionID: q.ID, Answer: s.answers[q.ID]})
	}
	return &Response{
		ID:          s.idGen(),
		UserID:      s.userID,
		ServiceID:   s.serviceID,
		ServiceName: s.service.Name,
		CompletedAt: s.now(),
		Answers:     ordered,
		Scores:      ComputeScores(s.catalog, s.answers),
	}
}

// confirm holds the session briefly so the caller can show the
// confirmation before navigating away.
func (s *Session) confirm(ctx context.Context) {
	if s.confirmDelay <= 0 {
		return
	}
	select {
	case <-time.After(s.confirmDelay):
	case <-ctx.Done():
	}
}

// Destination is the end-of-survey route once submission succeeded.
func (s *Session) Destination() string {
	if !s.machine.Is(StateSuccess) {
		return ""
	}
	return "/end-survey/" + s.serviceID
}

// Submitted returns the stored response after a successful submit.
func (s *Session) Submitted() *Response { return s.submitted }

func (s *Session) questionByID(id string) *Question {
	for _, q := range s.catalog {
		if q.ID == id {
			return q
		}
	}
	return nil
}
