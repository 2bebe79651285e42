package session

import "context"

// Storage defines the key/value storage API the session store persists its credential into
type Storage interface {
	// Get retrieves the value of a key and a boolean indicating whether it exists
	Get(ctx context.Context, key string) (string, bool, error)

	// Put sets the value of a key
	Put(ctx context.Context, key, value string) error

	// Delete removes a key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}
