// Package economy keeps player balances and prices broken blocks.
package economy

import (
	"math"

	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/world"
)

// PriceTable prices material drops.
type PriceTable interface {
	SellPrice(m world.Material) (float64, bool)
}

// Ledger receives every balance change for persistence.
type Ledger interface {
	AddRawBlockCount(actor world.ActorID, delta int64)
	AddCurrency(actor world.ActorID, kind string, delta float64)
}

// Bank holds balances on the in-memory player records and mirrors every
// change into the ledger. Accessed only from the game loop goroutine.
type Bank struct {
	players *world.State
	prices  PriceTable
	ledger  Ledger
	log     *zap.Logger
}

func NewBank(players *world.State, prices PriceTable, ledger Ledger, log *zap.Logger) *Bank {
	return &Bank{players: players, prices: prices, ledger: ledger, log: log}
}

func (b *Bank) SellPrice(m world.Material) (float64, bool) {
	return b.prices.SellPrice(m)
}

// Deposit credits an online player. Non-finite or negative amounts are
// refused.
func (b *Bank) Deposit(actor world.ActorID, kind string, value float64) bool {
	if !validAmount(value) {
		return false
	}
	p := b.players.Get(actor)
	if p == nil || !p.Online {
		return false
	}
	p.Balances[kind] += value
	if b.ledger != nil {
		b.ledger.AddCurrency(actor, kind, value)
	}
	return true
}

// Withdraw debits an online player holding at least value.
func (b *Bank) Withdraw(actor world.ActorID, kind string, value float64) bool {
	if !validAmount(value) {
		return false
	}
	p := b.players.Get(actor)
	if p == nil || !p.Online || p.Balances[kind] < value {
		return false
	}
	p.Balances[kind] -= value
	if b.ledger != nil {
		b.ledger.AddCurrency(actor, kind, -value)
	}
	b.log.Debug("withdraw",
		zap.Uint64("actor", uint64(actor)),
		zap.String("kind", kind),
		zap.Float64("value", value),
	)
	return true
}

// AddRawBlockCount counts blocks mined without selling or collecting.
func (b *Bank) AddRawBlockCount(actor world.ActorID, delta int64) {
	if p := b.players.Get(actor); p != nil {
		p.RawBlocks += delta
	}
	if b.ledger != nil {
		b.ledger.AddRawBlockCount(actor, delta)
	}
}

// AddCurrency records a balance change made outside the bank.
func (b *Bank) AddCurrency(actor world.ActorID, kind string, delta float64) {
	if b.ledger != nil {
		b.ledger.AddCurrency(actor, kind, delta)
	}
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
