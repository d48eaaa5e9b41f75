package survey

import "time"

// Category partitions the question catalog for weighted scoring.
// The declaration order is the display/numbering order.
type Category string

const (
	CategoryCorruptionPerception Category = "corruption_perception"
	CategoryServiceQuality       Category = "service_quality"
	CategorySurveyIntegrity      Category = "survey_integrity"
)

// Categories lists all categories in numbering order.
var Categories = []Category{
	CategoryCorruptionPerception,
	CategoryServiceQuality,
	CategorySurveyIntegrity,
}

// Option is one selectable answer for a question. Value is the stable
// string stored in progress records and responses; Score feeds the engine.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Score int    `json:"score"`
}

// Question is a static catalog entry, fixed at build time.
type Question struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Options  []Option `json:"options"`
	Category Category `json:"category"`
}

// OptionByValue returns the option whose Value matches, or nil.
func (q *Question) OptionByValue(value string) *Option {
	for i := range q.Options {
		if q.Options[i].Value == value {
			return &q.Options[i]
		}
	}
	return nil
}

// Scored reports whether the question contributes points at all.
// The coercion question carries zero on both options and is never scored.
func (q *Question) Scored() bool {
	for _, opt := range q.Options {
		if opt.Score > 0 {
			return true
		}
	}
	return false
}

// ServiceUnit is a surveyable university department/office.
type ServiceUnit struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Faculty  string `json:"faculty,omitempty"`
	// Placeholder marks a degraded record built when the directory
	// lookup failed; the survey still runs against it.
	Placeholder bool `json:"placeholder,omitempty"`
}

// ResponseAnswer is one answered question inside a submitted response,
// kept in catalog order.
type ResponseAnswer struct {
	QuestionID string `json:"question_id"`
	Answer     string `json:"answer"`
}

// Scores carries the per-category normalized results of one response.
// All values are integers in [0,100].
type Scores struct {
	CorruptionPerception int  `json:"corruption_perception"`
	ServiceQuality       int  `json:"service_quality"`
	SurveyIntegrity      int  `json:"survey_integrity"`
	Overall              int  `json:"overall"`
	IsPerfect            bool `json:"is_perfect"`
}

// Response is the immutable record of one completed survey instance.
// Besides CompletedAt, the legacy timestamp fields may be set on records
// imported from older deployments; the duplicate guard consults them in
// priority order.
type Response struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	ServiceID   string           `json:"service_id"`
	ServiceName string           `json:"service_name"`
	CompletedAt time.Time        `json:"completed_at"`
	Timestamp   time.Time        `json:"timestamp,omitempty"`
	CreatedAt   time.Time        `json:"created_at,omitempty"`
	Date        time.Time        `json:"date,omitempty"`
	Answers     []ResponseAnswer `json:"answers"`
	Scores      Scores           `json:"scores"`
}

// RecordedAt returns the response's effective completion time: the first
// non-zero of CompletedAt, Timestamp, CreatedAt, Date.
func (r *Response) RecordedAt() time.Time {
	for _, t := range []time.Time{r.CompletedAt, r.Timestamp, r.CreatedAt, r.Date} {
		if !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

// User is a registered respondent.
type User struct {
	ID        string
	Email     string
	Name      string
	PassHash  []byte
	CreatedAt time.Time
}
