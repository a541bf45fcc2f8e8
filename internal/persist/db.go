package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/config"
)

const (
	applicationName = "prisonforge-ledger"
	pingTimeout     = 5 * time.Second
)

// Store is the PostgreSQL database behind the player ledger.
type Store struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// Open connects to cfg.DSN and waits for the server to answer. Connections
// show up as prisonforge-ledger in pg_stat_activity.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*Store, error) {
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database dsn: %w", err)
	}
	pc.ConnConfig.RuntimeParams["application_name"] = applicationName
	if cfg.MaxOpenConns > 0 {
		pc.MaxConns = int32(cfg.MaxOpenConns)
	}
	pc.MinConns = int32(min(cfg.MaxIdleConns, int(pc.MaxConns)))
	pc.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("open ledger pool: %w", err)
	}
	s := &Store{pool: pool, log: log}
	if err := s.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info("ledger database ready",
		zap.String("host", pc.ConnConfig.Host),
		zap.String("database", pc.ConnConfig.Database),
		zap.Int32("max_conns", pc.MaxConns),
	)
	return s, nil
}

// Ping checks that the server answers within pingTimeout.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping ledger database: %w", err)
	}
	return nil
}

// Migrate applies pending ledger migrations and returns the schema version.
func (s *Store) Migrate(ctx context.Context) (int64, error) {
	return migrateLedger(ctx, s.pool, s.log)
}

// Ledger returns a write-behind ledger flushing through this store.
func (s *Store) Ledger() *Ledger { return NewLedger(s.pool, s.log) }

func (s *Store) Close() {
	s.pool.Close()
	s.log.Info("ledger database closed")
}
