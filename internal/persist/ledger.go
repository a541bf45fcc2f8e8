package persist

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/world"
)

// Pool is the part of pgxpool.Pool the ledger needs.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type currencyKey struct {
	actor world.ActorID
	kind  string
}

// Ledger buffers per-player deltas (raw mined blocks, currency earned) and
// writes them in a single transaction per flush. Adding never blocks and
// never fails. Accessed only from the game loop goroutine.
type Ledger struct {
	pool     Pool
	log      *zap.Logger
	raw      map[world.ActorID]int64
	currency map[currencyKey]float64
}

func NewLedger(pool Pool, log *zap.Logger) *Ledger {
	return &Ledger{
		pool:     pool,
		log:      log,
		raw:      make(map[world.ActorID]int64),
		currency: make(map[currencyKey]float64),
	}
}

func (l *Ledger) AddRawBlockCount(actor world.ActorID, delta int64) {
	if delta == 0 {
		return
	}
	l.raw[actor] += delta
}

func (l *Ledger) AddCurrency(actor world.ActorID, kind string, delta float64) {
	if delta == 0 {
		return
	}
	l.currency[currencyKey{actor, kind}] += delta
}

// Pending returns the number of buffered rows.
func (l *Ledger) Pending() int { return len(l.raw) + len(l.currency) }

// Flush writes every buffered delta and returns the number of rows written.
// A failed flush puts the deltas back, merged with anything added since, so
// the next flush retries them.
func (l *Ledger) Flush(ctx context.Context) (int, error) {
	if l.Pending() == 0 {
		return 0, nil
	}
	raw, cur := l.raw, l.currency
	l.raw = make(map[world.ActorID]int64, len(raw))
	l.currency = make(map[currencyKey]float64, len(cur))

	n, err := l.write(ctx, raw, cur)
	if err != nil {
		for a, d := range raw {
			l.raw[a] += d
		}
		for k, d := range cur {
			l.currency[k] += d
		}
		return 0, err
	}
	return n, nil
}

func (l *Ledger) write(ctx context.Context, raw map[world.ActorID]int64, cur map[currencyKey]float64) (int, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("ledger begin: %w", err)
	}
	defer tx.Rollback(ctx)

	actors := make([]world.ActorID, 0, len(raw))
	for a := range raw {
		actors = append(actors, a)
	}
	sort.Slice(actors, func(i, j int) bool { return actors[i] < actors[j] })
	for _, a := range actors {
		if _, err := tx.Exec(ctx,
			`INSERT INTO player_stats (actor_id, raw_blocks) VALUES ($1, $2)
			 ON CONFLICT (actor_id) DO UPDATE
			 SET raw_blocks = player_stats.raw_blocks + EXCLUDED.raw_blocks, updated_at = now()`,
			int64(a), raw[a],
		); err != nil {
			return 0, fmt.Errorf("ledger raw blocks for %d: %w", a, err)
		}
	}

	keys := make([]currencyKey, 0, len(cur))
	for k := range cur {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].actor != keys[j].actor {
			return keys[i].actor < keys[j].actor
		}
		return keys[i].kind < keys[j].kind
	})
	for _, k := range keys {
		if _, err := tx.Exec(ctx,
			`INSERT INTO player_currency (actor_id, kind, amount) VALUES ($1, $2, $3)
			 ON CONFLICT (actor_id, kind) DO UPDATE
			 SET amount = player_currency.amount + EXCLUDED.amount, updated_at = now()`,
			int64(k.actor), k.kind, cur[k],
		); err != nil {
			return 0, fmt.Errorf("ledger currency %s for %d: %w", k.kind, k.actor, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("ledger commit: %w", err)
	}
	l.log.Debug("ledger flushed", zap.Int("stats", len(raw)), zap.Int("currency", len(cur)))
	return len(raw) + len(cur), nil
}
