package credstore

import (
	"context"
	"fmt"

	"github.com/fitgoalz/fitgoalz/internal/config"
)

// Open builds the store selected by cfg.CredentialStore, scoped to cfg.Profile.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.CredentialStore {
	case config.StoreMemory:
		return NewMemory(), nil
	case config.StoreFile, "":
		dir, err := cfg.CredentialPath()
		if err != nil {
			return nil, err
		}
		return NewFile(dir, cfg.Profile, cfg.CredentialPassphrase), nil
	case config.StoreRedis:
		return NewRedis(ctx, cfg.RedisURL, cfg.Profile)
	case config.StoreSQLite:
		path, err := cfg.SQLiteFile()
		if err != nil {
			return nil, err
		}
		return NewSQLite(ctx, path, cfg.Profile)
	case config.StorePostgres:
		return NewPostgres(ctx, cfg.DatabaseURL, cfg.Profile)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownStore, cfg.CredentialStore)
	}
}
