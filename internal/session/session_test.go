package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/skybi/compliance-console/internal/session"
	"github.com/skybi/compliance-console/internal/session/storage/inmem"
)

type failingStorage struct{}

func (failingStorage) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage unavailable")
}

func (failingStorage) Put(context.Context, string, string) error {
	return errors.New("storage unavailable")
}

func (failingStorage) Delete(context.Context, string) error {
	return errors.New("storage unavailable")
}

func newStore(t *testing.T) (*session.Store, *inmem.Driver) {
	t.Helper()
	driver, err := inmem.New()
	if err != nil {
		t.Fatalf("creating in-memory storage: %v", err)
	}
	return session.NewStore(driver, zerolog.Nop()), driver
}

func TestStoreLifecycle(t *testing.T) {
	store, driver := newStore(t)

	if token, ok := store.Current(); ok {
		t.Fatalf("expected no token, got %q", token)
	}

	if err := store.Set("abc"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	token, ok := store.Current()
	if !ok || token != "abc" {
		t.Fatalf("expected token abc, got %q (present=%v)", token, ok)
	}

	// The token is persisted under the well-known key
	raw, ok, err := driver.Get(context.Background(), session.TokenKey)
	if err != nil || !ok || raw != "abc" {
		t.Fatalf("expected persisted token abc, got %q (present=%v, err=%v)", raw, ok, err)
	}

	if err := store.Set("def"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if token, _ := store.Current(); token != "def" {
		t.Errorf("expected last written token def, got %q", token)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if token, ok := store.Current(); ok {
		t.Fatalf("expected no token after Clear, got %q", token)
	}

	// Clearing twice is fine
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
}

func TestStoreRejectsEmptyToken(t *testing.T) {
	store, _ := newStore(t)
	if err := store.Set(""); !errors.Is(err, session.ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
	if _, ok := store.Current(); ok {
		t.Fatal("expected no token")
	}
}

func TestStoreEmptyPersistedValueIsAbsent(t *testing.T) {
	store, driver := newStore(t)
	if err := driver.Put(context.Background(), session.TokenKey, ""); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if token, ok := store.Current(); ok {
		t.Fatalf("an empty persisted value must not count as a token, got %q", token)
	}
}

func TestStoreCurrentNeverFails(t *testing.T) {
	store := session.NewStore(failingStorage{}, zerolog.Nop())
	if token, ok := store.Current(); ok || token != "" {
		t.Fatalf("expected absent token on storage failure, got %q (present=%v)", token, ok)
	}
	if err := store.Set("abc"); err == nil {
		t.Fatal("expected Set to surface the storage failure")
	}
}
