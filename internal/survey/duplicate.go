package survey

import "log"

// ResponseSource is what the duplicate guard needs from the response
// backend: a completion fact and the prior responses behind it.
type ResponseSource interface {
	HasCompleted(userID, serviceID string) (bool, error)
	// FetchPriorResponses returns completed responses for a service.
	// An empty userID requests the service-wide list (anonymous or
	// undetermined-identity contexts).
	FetchPriorResponses(serviceID, userID string) ([]*Response, error)
}

// DuplicateCheck is the guard's verdict. When IsDuplicate is set,
// MostRecent holds the latest prior response for review.
type DuplicateCheck struct {
	IsDuplicate bool      `json:"is_duplicate"`
	MostRecent  *Response `json:"most_recent,omitempty"`
}

// DuplicateGuard prevents silent overwriting of a completed survey.
// It must run before the answer form is shown.
type DuplicateGuard struct {
	src ResponseSource
}

func NewDuplicateGuard(src ResponseSource) *DuplicateGuard {
	return &DuplicateGuard{src: src}
}

// Check reports whether userID already completed serviceID's survey.
// Any lookup failure fails open: blocking a legitimate new respondent is
// judged worse than letting a duplicate through.
func (g *DuplicateGuard) Check(userID, serviceID string) DuplicateCheck {
	done, err := g.src.HasCompleted(userID, serviceID)
	if err != nil {
		log.Printf("duplicate guard: completion lookup %s/%s: %v", userID, serviceID, err)
		return DuplicateCheck{}
	}
	if !done {
		return DuplicateCheck{}
	}
	prior, err := g.src.FetchPriorResponses(serviceID, userID)
	if err != nil {
		log.Printf("duplicate guard: prior responses %s/%s: %v", userID, serviceID, err)
		return DuplicateCheck{}
	}
	if len(prior) == 0 && userID != "" {
		// marker present but nothing under this user; fall back to the
		// service-wide list before giving up
		prior, err = g.src.FetchPriorResponses(serviceID, "")
		if err != nil {
			log.Printf("duplicate guard: service-wide responses %s: %v", serviceID, err)
			return DuplicateCheck{}
		}
	}
	latest := mostRecentResponse(prior)
	if latest == nil {
		return DuplicateCheck{}
	}
	return DuplicateCheck{IsDuplicate: true, MostRecent: latest}
}

func mostRecentResponse(rs []*Response) *Response {
	var latest *Response
	for _, r := range rs {
		if r == nil {
			continue
		}
		if latest == nil || r.RecordedAt().After(latest.RecordedAt()) {
			latest = r
		}
	}
	return latest
}
