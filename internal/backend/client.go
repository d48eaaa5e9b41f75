// Package backend is the HTTP client for a remote deployment of the
// survey REST API. It implements survey.Collaborator so the submission
// coordinator can run against either the in-process store or a remote
// service.
package backend

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/c1nnmnz/surveyuin-team-sub000/internal/survey"
)

// ErrorKind tags client failures so callers can branch on transport
// versus upstream versus decoding problems instead of matching strings.
type ErrorKind string

const (
	NetworkError ErrorKind = "network_error"
	HTTPError    ErrorKind = "http_error"
	UnknownError ErrorKind = "unknown_error"
)

// ClientError is the tagged union for all failures this client returns.
type ClientError struct {
	Kind    ErrorKind
	Status  int // set for HTTPError
	Message string
	Details string
}

func (e *ClientError) Error() string {
	if e.Kind == HTTPError {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SetToken attaches a bearer token to subsequent requests.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) do(method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return &ClientError{Kind: UnknownError, Message: "encode request", Details: err.Error()}
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return &ClientError{Kind: UnknownError, Message: "build request", Details: err.Error()}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	res, err := c.http.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			return &ClientError{Kind: NetworkError, Message: ue.Err.Error()}
		}
		return &ClientError{Kind: NetworkError, Message: err.Error()}
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode >= 400 {
		msg := decodeErrorMessage(res.Body)
		return &ClientError{Kind: HTTPError, Status: res.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return &ClientError{Kind: UnknownError, Message: "decode response", Details: err.Error()}
	}
	return nil
}

func decodeErrorMessage(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err == nil && body.Error != "" {
		return body.Error
	}
	return "request failed"
}

func (c *Client) FetchService(serviceID string) (*survey.ServiceUnit, error) {
	var su survey.ServiceUnit
	if err := c.do(http.MethodGet, "/api/services/"+url.PathEscape(serviceID), nil, &su); err != nil {
		return nil, err
	}
	return &su, nil
}

func (c *Client) FetchPriorResponses(serviceID, userID string) ([]*survey.Response, error) {
	path := "/api/services/" + url.PathEscape(serviceID) + "/responses"
	if userID != "" {
		path += "?user_id=" + url.QueryEscape(userID)
	}
	var out struct {
		Responses []*survey.Response `json:"responses"`
	}
	if err := c.do(http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Responses, nil
}

func (c *Client) SubmitResponse(serviceID string, r *survey.Response) (*survey.Response, error) {
	answers := make(map[string]string, len(r.Answers))
	for _, a := range r.Answers {
		answers[a.QuestionID] = a.Answer
	}
	var stored survey.Response
	err := c.do(http.MethodPost, "/api/services/"+url.PathEscape(serviceID)+"/responses",
		map[string]any{"answers": answers}, &stored)
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

func (c *Client) MarkCompleted(userID, serviceID string) error {
	return c.do(http.MethodPost, "/api/services/"+url.PathEscape(serviceID)+"/completions", map[string]any{}, nil)
}

func (c *Client) HasCompleted(userID, serviceID string) (bool, error) {
	path := "/api/services/" + url.PathEscape(serviceID) + "/completions"
	if userID != "" {
		path += "?user_id=" + url.QueryEscape(userID)
	}
	var out struct {
		Completed bool `json:"completed"`
	}
	if err := c.do(http.MethodGet, path, nil, &out); err != nil {
		return false, err
	}
	return out.Completed, nil
}

var _ survey.Collaborator = (*Client)(nil)
