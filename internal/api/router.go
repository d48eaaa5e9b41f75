package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/c1nnmnz/surveyuin-team-sub000/internal/middleware"
	"github.com/c1nnmnz/surveyuin-team-sub000/internal/survey"
)

// Router serves the survey REST API: the service directory, auth, the
// question catalog, prior responses, the duplicate check and submission.
type Router struct {
	store   Store
	backend *LocalBackend
	guard   *survey.DuplicateGuard
	auth    *survey.AuthService

	now   func() time.Time
	idGen func() string
}

func NewRouter(store Store, auth *survey.AuthService) *Router {
	backend := NewLocalBackend(store)
	return &Router{
		store:   store,
		backend: backend,
		guard:   survey.NewDuplicateGuard(backend),
		auth:    auth,
		now:     func() time.Time { return time.Now().UTC() },
		idGen:   func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:12] },
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS)
	r.Use(middleware.WithAuth)

	r.Get("/health", rt.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", rt.handleRegister)
		r.Post("/auth/login", rt.handleLogin)
		r.With(middleware.RequireAuth).Post("/auth/logout", rt.handleLogout)

		r.Get("/services", rt.handleListServices)
		r.Get("/services/{serviceID}", rt.handleGetService)
		r.Get("/services/{serviceID}/questions", rt.handleQuestions)
		r.Get("/services/{serviceID}/responses", rt.handleListResponses)
		r.Get("/services/{serviceID}/duplicate", rt.handleDuplicateCheck)
		r.With(middleware.RequireAuth).Post("/services/{serviceID}/responses", rt.handleSubmit)
		r.Get("/services/{serviceID}/completions", rt.handleGetCompletion)
		r.With(middleware.RequireAuth).Post("/services/{serviceID}/completions", rt.handleMarkCompletion)

		r.Get("/responses/{responseID}", rt.handleGetResponse)
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	if se, ok := survey.AsServiceError(err); ok {
		status := http.StatusInternalServerError
		switch se.Code {
		case survey.ErrorInvalid, survey.ErrorIncomplete:
			status = http.StatusBadRequest
		case survey.ErrorUnauthorized:
			status = http.StatusUnauthorized
		case survey.ErrorForbidden:
			status = http.StatusForbidden
		case survey.ErrorNotFound:
			status = http.StatusNotFound
		case survey.ErrorConflict:
			status = http.StatusConflict
		}
		writeJSON(w, status, map[string]any{"error": se.Message, "code": se.Code})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
}

func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "name": "surveyuin API"})
}

func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, survey.NewInvalidError(err.Error()))
		return
	}
	res, err := rt.auth.Register(req.Email, req.Password, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user_id": res.UserID, "name": res.Name})
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, survey.NewInvalidError(err.Error()))
		return
	}
	res, err := rt.auth.Login(req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": res.Token, "user_id": res.UserID, "name": res.Name})
}

// Logout is the session boundary: saved progress for every service is
// purged so the next login starts clean. Only the KV co-located with
// this process is purged; a remote client keeping progress in its own
// device-local store must purge that store itself on logout.
func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := rt.auth.Logout(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (rt *Router) handleListServices(w http.ResponseWriter, r *http.Request) {
	services, err := rt.store.ListServices()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services})
}

func (rt *Router) handleGetService(w http.ResponseWriter, r *http.Request) {
	su, err := rt.store.GetService(chi.URLParam(r, "serviceID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if su == nil {
		writeError(w, survey.NewNotFoundError("service not found"))
		return
	}
	writeJSON(w, http.StatusOK, su)
}

// handleQuestions returns the fixed catalog with per-category numbering.
func (rt *Router) handleQuestions(w http.ResponseWriter, r *http.Request) {
	type numbered struct {
		Number int `json:"number"`
		*survey.Question
	}
	out := make([]numbered, 0, len(survey.Catalog))
	counters := map[survey.Category]int{}
	for _, q := range survey.Catalog {
		counters[q.Category]++
		out = append(out, numbered{Number: counters[q.Category], Question: q})
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": out, "total": len(out)})
}

func (rt *Router) handleListResponses(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	userID := r.URL.Query().Get("user_id")
	rs, err := rt.backend.FetchPriorResponses(serviceID, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"responses": rs})
}

func (rt *Router) handleDuplicateCheck(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	userID := r.URL.Query().Get("user_id")
	if uid, ok := middleware.UserFromContext(r.Context()); ok {
		userID = uid
	}
	writeJSON(w, http.StatusOK, rt.guard.Check(userID, serviceID))
}

// handleSubmit is the server half of the submission flow: it validates
// completeness, scores the answer set, stores the immutable response and
// records the completion marker.
func (rt *Router) handleSubmit(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	claims, _ := middleware.ClaimsFromContext(r.Context())
	var req struct {
		Answers map[string]string `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, survey.NewInvalidError(err.Error()))
		return
	}
	answered := 0
	for _, q := range survey.Catalog {
		if _, ok := req.Answers[q.ID]; ok {
			answered++
		}
	}
	if answered != len(survey.Catalog) {
		writeError(w, survey.NewIncompleteError("all questions must be answered"))
		return
	}

	serviceName := "Service unit " + serviceID
	if su, err := rt.store.GetService(serviceID); err == nil && su != nil {
		serviceName = su.Name
	}

	ordered := make([]survey.ResponseAnswer, 0, len(survey.Catalog))
	for _, q := range survey.Catalog {
		ordered = append(ordered, survey.ResponseAnswer{QuestionID: q.ID, Answer: req.Answers[q.ID]})
	}
	resp := &survey.Response{
		ID:          rt.idGen(),
		UserID:      claims.UID,
		ServiceID:   serviceID,
		ServiceName: serviceName,
		CompletedAt: rt.now(),
		Answers:     ordered,
		Scores:      survey.ComputeScores(survey.Catalog, req.Answers),
	}
	if err := rt.store.AddResponse(resp); err != nil {
		writeError(w, err)
		return
	}
	if err := rt.store.MarkCompleted(claims.UID, serviceID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (rt *Router) handleGetCompletion(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	userID := r.URL.Query().Get("user_id")
	if uid, ok := middleware.UserFromContext(r.Context()); ok && userID == "" {
		userID = uid
	}
	done, err := rt.store.HasCompleted(userID, serviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"completed": done})
}

func (rt *Router) handleMarkCompletion(w http.ResponseWriter, r *http.Request) {
	serviceID := chi.URLParam(r, "serviceID")
	claims, _ := middleware.ClaimsFromContext(r.Context())
	if err := rt.store.MarkCompleted(claims.UID, serviceID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (rt *Router) handleGetResponse(w http.ResponseWriter, r *http.Request) {
	resp, err := rt.store.GetResponse(chi.URLParam(r, "responseID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if resp == nil {
		writeError(w, survey.NewNotFoundError("response not found"))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
