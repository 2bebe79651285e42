package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TokenKey is the storage key the bearer token is persisted under
const TokenKey = "token"

var storageTimeout = 5 * time.Second

// ErrEmptyToken is returned when an empty token is stored
var ErrEmptyToken = errors.New("the session token must not be empty")

// Store represents the single source of truth for the current bearer token.
// The token is read from the underlying storage on every call so that several processes sharing a storage observe
// each other's logins and logouts.
type Store struct {
	mtx     sync.RWMutex
	storage Storage
	logger  zerolog.Logger
}

// NewStore creates a new session store persisting into the given storage
func NewStore(storage Storage, logger zerolog.Logger) *Store {
	return &Store{
		storage: storage,
		logger:  logger.With().Str("component", "session").Logger(),
	}
}

// Current returns the current token and a boolean indicating whether one is present.
// A failing storage is logged and reported as an absent token.
func (store *Store) Current() (string, bool) {
	store.mtx.RLock()
	defer store.mtx.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	token, ok, err := store.storage.Get(ctx, TokenKey)
	if err != nil {
		store.logger.Warn().Err(err).Msg("could not read the session token")
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Set stores the given token, making subsequent authenticated requests use it
func (store *Store) Set(token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	store.mtx.Lock()
	defer store.mtx.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	return store.storage.Put(ctx, TokenKey, token)
}

// Clear removes the current token
func (store *Store) Clear() error {
	store.mtx.Lock()
	defer store.mtx.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storageTimeout)
	defer cancel()
	return store.storage.Delete(ctx, TokenKey)
}
