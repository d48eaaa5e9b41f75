package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/c1nnmnz/surveyuin-team-sub000/internal/api"
	"github.com/c1nnmnz/surveyuin-team-sub000/internal/survey"
)

// SQLiteStore implements api.Store on a sqlite database. Response answer
// lists and score sets are stored as JSON columns; everything the
// duplicate guard filters on is a plain column.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (api.Store, error) {
	return NewSQLiteStore(db)
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		log.Printf("sqlite store: parse time %q: %v", s, err)
		return time.Time{}
	}
	return t
}

func (s *SQLiteStore) AddService(su *survey.ServiceUnit) error {
	_, err := s.db.Exec(
		`INSERT INTO services (id, name, category, faculty) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, category = excluded.category, faculty = excluded.faculty`,
		su.ID, su.Name, su.Category, su.Faculty)
	return err
}

func (s *SQLiteStore) GetService(id string) (*survey.ServiceUnit, error) {
	su := &survey.ServiceUnit{}
	err := s.db.QueryRow(
		`SELECT id, name, COALESCE(category, ''), COALESCE(faculty, '') FROM services WHERE id = ?`, id).
		Scan(&su.ID, &su.Name, &su.Category, &su.Faculty)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return su, nil
}

func (s *SQLiteStore) ListServices() ([]*survey.ServiceUnit, error) {
	rows, err := s.db.Query(
		`SELECT id, name, COALESCE(category, ''), COALESCE(faculty, '') FROM services ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []*survey.ServiceUnit{}
	for rows.Next() {
		su := &survey.ServiceUnit{}
		if err := rows.Scan(&su.ID, &su.Name, &su.Category, &su.Faculty); err != nil {
			return nil, err
		}
		out = append(out, su)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddResponse(r *survey.Response) error {
	answers, err := encodeJSON(r.Answers)
	if err != nil {
		return err
	}
	scores, err := encodeJSON(r.Scores)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO responses (id, user_id, service_id, service_name, completed_at, answers, scores)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.ServiceID, r.ServiceName, r.CompletedAt.Format(time.RFC3339Nano), answers, scores)
	return err
}

func (s *SQLiteStore) scanResponse(row interface{ Scan(...any) error }) (*survey.Response, error) {
	r := &survey.Response{}
	var completedAt, answers, scores string
	if err := row.Scan(&r.ID, &r.UserID, &r.ServiceID, &r.ServiceName, &completedAt, &answers, &scores); err != nil {
		return nil, err
	}
	r.CompletedAt = parseTime(completedAt)
	if err := json.Unmarshal([]byte(answers), &r.Answers); err != nil {
		return nil, fmt.Errorf("decode answers for %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(scores), &r.Scores); err != nil {
		return nil, fmt.Errorf("decode scores for %s: %w", r.ID, err)
	}
	return r, nil
}

const responseColumns = `id, user_id, service_id, service_name, completed_at, answers, scores`

func (s *SQLiteStore) GetResponse(id string) (*survey.Response, error) {
	row := s.db.QueryRow(`SELECT `+responseColumns+` FROM responses WHERE id = ?`, id)
	r, err := s.scanResponse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return r, err
}

func (s *SQLiteStore) listResponses(query string, args ...any) ([]*survey.Response, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := []*survey.Response{}
	for rows.Next() {
		r, err := s.scanResponse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListResponsesByService(serviceID string) ([]*survey.Response, error) {
	return s.listResponses(
		`SELECT `+responseColumns+` FROM responses WHERE service_id = ? ORDER BY completed_at`, serviceID)
}

func (s *SQLiteStore) ListResponsesByUser(serviceID, userID string) ([]*survey.Response, error) {
	return s.listResponses(
		`SELECT `+responseColumns+` FROM responses WHERE service_id = ? AND user_id = ? ORDER BY completed_at`,
		serviceID, userID)
}

func (s *SQLiteStore) MarkCompleted(userID, serviceID string) error {
	_, err := s.db.Exec(
		`INSERT INTO completions (user_id, service_id, completed_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id, service_id) DO UPDATE SET completed_at = excluded.completed_at`,
		userID, serviceID, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) HasCompleted(userID, serviceID string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(1) FROM completions WHERE user_id = ? AND service_id = ?`, userID, serviceID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *SQLiteStore) AddUser(u *survey.User) error {
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, name, pass_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PassHash, u.CreatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) FindUserByEmail(email string) (*survey.User, error) {
	u := &survey.User{}
	var createdAt string
	err := s.db.QueryRow(
		`SELECT id, email, COALESCE(name, ''), pass_hash, created_at FROM users WHERE email = ? COLLATE NOCASE`,
		email).Scan(&u.ID, &u.Email, &u.Name, &u.PassHash, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}

var _ api.Store = (*SQLiteStore)(nil)
