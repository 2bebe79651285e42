package redis

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"
	"github.com/skybi/compliance-console/internal/session"
)

// Driver represents the session storage driver persisting into Redis.
// It allows several console hosts to share a single login.
type Driver struct {
	client *goredis.Client
	prefix string
}

var _ session.Storage = (*Driver)(nil)

// New creates a new Redis session storage driver.
// All keys are namespaced using the given prefix.
func New(client *goredis.Client, prefix string) *Driver {
	return &Driver{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves the value of a key
func (driver *Driver) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := driver.client.Get(ctx, driver.key(key)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

// Put sets the value of a key
func (driver *Driver) Put(ctx context.Context, key, value string) error {
	return driver.client.Set(ctx, driver.key(key), value, 0).Err()
}

// Delete removes a key
func (driver *Driver) Delete(ctx context.Context, key string) error {
	return driver.client.Del(ctx, driver.key(key)).Err()
}

// Close closes the underlying Redis client
func (driver *Driver) Close() error {
	return driver.client.Close()
}

func (driver *Driver) key(key string) string {
	if driver.prefix == "" {
		return key
	}
	return driver.prefix + ":" + key
}
