package persist

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var schemaFiles embed.FS

// migrateLedger brings the ledger tables up to date. A session advisory lock
// serialises engines booting against the same database.
func migrateLedger(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) (int64, error) {
	schema, err := fs.Sub(schemaFiles, "migrations")
	if err != nil {
		return 0, fmt.Errorf("ledger schema: %w", err)
	}
	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return 0, fmt.Errorf("ledger schema lock: %w", err)
	}

	p, err := goose.NewProvider(goose.DialectPostgres, stdlib.OpenDBFromPool(pool), schema,
		goose.WithSessionLocker(locker),
		goose.WithDisableGlobalRegistry(true),
	)
	if err != nil {
		return 0, fmt.Errorf("ledger migrations: %w", err)
	}
	defer p.Close()

	applied, err := p.Up(ctx)
	var partial *goose.PartialError
	if errors.As(err, &partial) {
		applied = partial.Applied
	}
	for _, r := range applied {
		log.Info("ledger migration applied",
			zap.String("file", path.Base(r.Source.Path)),
			zap.Int64("version", r.Source.Version),
			zap.Duration("took", r.Duration),
		)
	}
	if err != nil {
		return 0, fmt.Errorf("apply ledger migrations: %w", err)
	}

	version, err := p.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("read ledger schema version: %w", err)
	}
	return version, nil
}
