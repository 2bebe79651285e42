package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/skybi/compliance-console/internal/random"
	"github.com/skybi/compliance-console/internal/user"
)

const generatedPasswordLength = 20

// Bootstrap prepares the storage for a freshly started backend.
// It registers the administrator account if it does not exist yet and seeds the demo rules if configured to.
func (service *Service) Bootstrap(ctx context.Context) error {
	service.init.Do(service.build)

	if err := service.ensureAdmin(ctx); err != nil {
		return fmt.Errorf("could not set up the administrator account: %w", err)
	}
	if service.Config.SeedRules {
		if err := service.seedRules(ctx); err != nil {
			return fmt.Errorf("could not seed the demo rules: %w", err)
		}
	}
	return nil
}

func (service *Service) ensureAdmin(ctx context.Context) error {
	username := service.Config.AdminUsername
	existing, err := service.Storage.Users().GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	password := service.Config.AdminPassword
	generated := password == ""
	if generated {
		password, err = random.String(generatedPasswordLength, random.CharsetPassword)
		if err != nil {
			return err
		}
	}

	hash, err := user.HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := service.Storage.Users().Create(ctx, &user.Create{
		Username:     username,
		PasswordHash: hash,
	}); err != nil && !errors.Is(err, user.ErrUsernameTaken) {
		return err
	}

	event := service.Logger.Info().Str("username", username)
	if generated {
		event = event.Str("password", password)
	}
	event.Msg("created the administrator account")
	return nil
}
