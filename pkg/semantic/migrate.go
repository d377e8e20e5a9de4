package semantic

import (
	"context"
	"database/sql"
	"embed"

	"github.com/bentman/JARVISv5/pkg/sqlitemigrate"
)

//go:embed migrations
var migrationsFS embed.FS

func applyMigrations(ctx context.Context, db *sql.DB) error {
	return sqlitemigrate.Apply(ctx, db, migrationsFS, "migrations", "semantic")
}
