package moviecard

import (
	"context"
	"fmt"

	"moviebox/internal/config"
)

// OpenBackend opens the store selected by the [store] config section.
func OpenBackend(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.Store.Backend {
	case config.StoreBackendMongo:
		return OpenMongo(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase)
	case config.StoreBackendPostgres:
		return OpenPostgres(ctx, cfg.Store.PostgresDSN)
	case config.StoreBackendSQLite, "":
		return Open(cfg)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}
