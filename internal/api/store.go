package api

import (
	"sort"
	"strings"
	"sync"

	"github.com/c1nnmnz/surveyuin-team-sub000/internal/survey"
)

// Store is the persistence contract behind the HTTP API: the service
// directory, completed responses, completion markers and users.
type Store interface {
	AddService(su *survey.ServiceUnit) error
	GetService(id string) (*survey.ServiceUnit, error)
	ListServices() ([]*survey.ServiceUnit, error)

	AddResponse(r *survey.Response) error
	GetResponse(id string) (*survey.Response, error)
	ListResponsesByService(serviceID string) ([]*survey.Response, error)
	ListResponsesByUser(serviceID, userID string) ([]*survey.Response, error)

	MarkCompleted(userID, serviceID string) error
	HasCompleted(userID, serviceID string) (bool, error)

	AddUser(u *survey.User) error
	FindUserByEmail(email string) (*survey.User, error)
}

type memoryStore struct {
	mu           sync.RWMutex
	services     map[string]*survey.ServiceUnit
	responses    []*survey.Response
	responseByID map[string]*survey.Response
	completions  map[string]bool // userID + "\x00" + serviceID
	usersByEmail map[string]*survey.User
}

// NewMemoryStore returns an in-process Store for tests and development.
func NewMemoryStore() Store {
	return newMemoryStore()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		services:     map[string]*survey.ServiceUnit{},
		responses:    []*survey.Response{},
		responseByID: map[string]*survey.Response{},
		completions:  map[string]bool{},
		usersByEmail: map[string]*survey.User{},
	}
}

func completionKey(userID, serviceID string) string {
	return userID + "\x00" + serviceID
}

func (s *memoryStore) AddService(su *survey.ServiceUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.services[su.ID] = su
	return nil
}

func (s *memoryStore) GetService(id string) (*survey.ServiceUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.services[id], nil
}

func (s *memoryStore) ListServices() ([]*survey.ServiceUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*survey.ServiceUnit, 0, len(s.services))
	for _, su := range s.services {
		out = append(out, su)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) AddResponse(r *survey.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, r)
	s.responseByID[r.ID] = r
	return nil
}

func (s *memoryStore) GetResponse(id string) (*survey.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.responseByID[id], nil
}

func (s *memoryStore) ListResponsesByService(serviceID string) ([]*survey.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*survey.Response{}
	for _, r := range s.responses {
		if r.ServiceID == serviceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memoryStore) ListResponsesByUser(serviceID, userID string) ([]*survey.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*survey.Response{}
	for _, r := range s.responses {
		if r.ServiceID == serviceID && r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memoryStore) MarkCompleted(userID, serviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completions[completionKey(userID, serviceID)] = true
	return nil
}

func (s *memoryStore) HasCompleted(userID, serviceID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completions[completionKey(userID, serviceID)], nil
}

func (s *memoryStore) AddUser(u *survey.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usersByEmail[strings.ToLower(u.Email)] = u
	return nil
}

func (s *memoryStore) FindUserByEmail(email string) (*survey.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usersByEmail[strings.ToLower(email)], nil
}

var _ Store = (*memoryStore)(nil)
