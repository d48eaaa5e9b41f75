package api

import "github.com/c1nnmnz/surveyuin-team-sub000/internal/survey"

// LocalBackend adapts a Store to the survey.Collaborator contract, for
// deployments where the response backend runs in-process instead of
// behind the remote REST client.
type LocalBackend struct {
	store Store
}

func NewLocalBackend(store Store) *LocalBackend {
	return &LocalBackend{store: store}
}

func (b *LocalBackend) FetchService(serviceID string) (*survey.ServiceUnit, error) {
	su, err := b.store.GetService(serviceID)
	if err != nil {
		return nil, err
	}
	if su == nil {
		return nil, survey.NewNotFoundError("service not found")
	}
	return su, nil
}

func (b *LocalBackend) FetchPriorResponses(serviceID, userID string) ([]*survey.Response, error) {
	if userID == "" {
		return b.store.ListResponsesByService(serviceID)
	}
	return b.store.ListResponsesByUser(serviceID, userID)
}

func (b *LocalBackend) SubmitResponse(serviceID string, r *survey.Response) (*survey.Response, error) {
	if err := b.store.AddResponse(r); err != nil {
		return nil, err
	}
	return r, nil
}

func (b *LocalBackend) MarkCompleted(userID, serviceID string) error {
	return b.store.MarkCompleted(userID, serviceID)
}

func (b *LocalBackend) HasCompleted(userID, serviceID string) (bool, error) {
	return b.store.HasCompleted(userID, serviceID)
}

var _ survey.Collaborator = (*LocalBackend)(nil)
