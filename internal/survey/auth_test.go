package survey

import (
	"errors"
	"testing"
	"time"

	"github.com/c1nnmnz/surveyuin-team-sub000/internal/storage"
)

type stubAuthStore struct {
	users map[string]*User
}

func newStubAuthStore() *stubAuthStore {
	return &stubAuthStore{users: map[string]*User{}}
}

func (s *stubAuthStore) FindUserByEmail(email string) (*User, error) {
	return s.users[email], nil
}

func (s *stubAuthStore) AddUser(u *User) error {
	s.users[u.Email] = u
	return nil
}

func fakeSigner(uid, email, name string, ttl time.Duration) (string, error) {
	return "token-" + uid, nil
}

func TestRegisterAndLogin(t *testing.T) {
	store := newStubAuthStore()
	svc := NewAuthService(store, nil, fakeSigner)
	svc.idGen = func(prefix string, n int) string { return prefix + "1234567" }

	res, err := svc.Register("a@kampus.ac.id", "Secret123!", "Aisyah")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.UserID != "u1234567" || res.Token != "token-u1234567" {
		t.Fatalf("register result = %+v", res)
	}

	if _, err := svc.Register("a@kampus.ac.id", "other", "Dup"); err == nil {
		t.Fatalf("second register with same email succeeded, want conflict")
	}

	login, err := svc.Login("a@kampus.ac.id", "Secret123!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if login.Name != "Aisyah" {
		t.Fatalf("login name = %q, want Aisyah", login.Name)
	}

	if _, err := svc.Login("a@kampus.ac.id", "wrong"); err == nil {
		t.Fatalf("login with wrong password succeeded")
	}
	if _, err := svc.Login("nobody@kampus.ac.id", "x"); err == nil {
		t.Fatalf("login for missing user succeeded")
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(newStubAuthStore(), nil, fakeSigner)
	if _, err := svc.Register("", "pw", ""); err == nil {
		t.Fatalf("register without email succeeded")
	}
	if _, err := svc.Register("a@b.c", "  ", ""); err == nil {
		t.Fatalf("register with blank password succeeded")
	}
}

func TestLogoutPurgesProgress(t *testing.T) {
	kv := storage.NewMemoryKV()
	progress := NewProgressService(kv)
	_ = progress.Save("42", map[string]string{"cp1": "3"})
	_ = progress.Save("7", map[string]string{"sq1": "6"})

	svc := NewAuthService(newStubAuthStore(), progress, fakeSigner)
	if err := svc.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if got := progress.Load("42"); len(got) != 0 {
		t.Fatalf("progress for 42 survived logout: %v", got)
	}
	if got := progress.Load("7"); len(got) != 0 {
		t.Fatalf("progress for 7 survived logout: %v", got)
	}
}

type erroringAuthStore struct{}

func (erroringAuthStore) FindUserByEmail(string) (*User, error) {
	return nil, errors.New("db down")
}

func (erroringAuthStore) AddUser(*User) error { return nil }

func TestRegisterStoreErrorPropagates(t *testing.T) {
	svc := NewAuthService(erroringAuthStore{}, nil, fakeSigner)
	if _, err := svc.Register("a@b.c", "pw", ""); err == nil {
		t.Fatalf("register with failing store succeeded")
	}
}
