package migrate

import (
	"context"
	"fmt"

	"github.com/saborhub/saborhub-backend/pkg/config"
	"github.com/saborhub/saborhub-backend/pkg/db"
	"github.com/saborhub/saborhub-backend/pkg/db/models"
	"github.com/saborhub/saborhub-backend/pkg/logger"
)

// MaybeRunDev prepares the schema on boot. Postgres runs the embedded goose migrations
// in dev when the auto-migrate flag is set. SQLite always uses GORM AutoMigrate, since
// its driver only maps DATETIME columns back to time.Time.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": client.Dialect()})

	if client.Dialect() == config.DriverSQLite {
		logg.Info(ctx, "auto-migrating sqlite schema")
		if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("auto-migrating sqlite: %w", err)
		}
		return nil
	}

	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running goose migrations on boot")
	if err := Run(ctx, sqlDB, client.Dialect(), EmbeddedDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "goose migrations completed")
	return nil
}
