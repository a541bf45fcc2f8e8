package ability

import (
	"go.uber.org/zap"

	"github.com/prisonforge/server/internal/world"
)

// Outcome is the result category of one pipeline call.
type Outcome int

const (
	Sold Outcome = iota
	Collected
	Counted
	Ignored
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Sold:
		return "sold"
	case Collected:
		return "collected"
	case Counted:
		return "counted"
	case Ignored:
		return "ignored"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Result reports what the pipeline did with one block.
type Result struct {
	Outcome  Outcome
	Material world.Material // material before the effect
	Value    float64        // currency paid out (Sold only)
	Items    int            // items sold or collected
}

// BreakFunc is told about every block the pipeline breaks.
type BreakFunc func(actor world.ActorID, c world.Coord, was world.Material)

// Pipeline applies the effect to one block: sell, else collect, else count.
type Pipeline struct {
	blocks      Blocks
	materials   Materials
	economy     Economy
	inventory   InventorySink
	ground      GroundSink
	ledger      PersistenceSink
	rewards     *Rewards
	multipliers *Multipliers
	onBreak     BreakFunc
	log         *zap.Logger
}

// Process breaks the block at c on behalf of actor. Exactly one of the
// sell, collect or count paths runs; a collaborator panic is reported as
// Failed and never escapes.
func (p *Pipeline) Process(actor world.ActorID, c world.Coord, s *Settings) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("block pipeline panic",
				zap.Uint64("actor", uint64(actor)),
				zap.Stringer("coord", c),
				zap.Any("panic", r),
			)
			res = Result{Outcome: Failed, Material: res.Material}
		}
	}()

	m := p.blocks.Block(c)
	res.Material = m
	if p.materials.Protected(m) {
		res.Outcome = Ignored
		return res
	}
	if err := p.blocks.SetBlock(c, world.Air); err != nil {
		p.log.Warn("break block failed",
			zap.Uint64("actor", uint64(actor)),
			zap.Stringer("coord", c),
			zap.Error(err),
		)
		res.Outcome = Failed
		return res
	}
	drops := p.materials.Drops(m)
	items := countItems(drops)

	switch {
	case s.AutoSell && p.sell(actor, m, items, s, &res):
	case s.AutoCollect:
		if overflow := p.inventory.TryAddItems(actor, drops); len(overflow) > 0 {
			p.ground.Spill(c, actor, overflow)
		}
		p.rewards.Contribute(actor, Contribution{Items: items, Blocks: 1})
		res.Outcome = Collected
		res.Items = items
	default:
		p.ground.Spill(c, actor, drops)
		p.ledger.AddRawBlockCount(actor, 1)
		p.rewards.Contribute(actor, Contribution{Blocks: 1})
		res.Outcome = Counted
	}

	if p.onBreak != nil {
		p.onBreak(actor, c, m)
	}
	return res
}

// sell pays for the drops instead of dropping them. Returns false, leaving
// res untouched, if the material has no price or the deposit is refused.
func (p *Pipeline) sell(actor world.ActorID, m world.Material, items int, s *Settings, res *Result) bool {
	price, ok := p.economy.SellPrice(m)
	if !ok || items == 0 {
		return false
	}
	value := p.multipliers.Apply(actor, s.RewardKind, price*float64(items))
	if value <= 0 {
		return false
	}
	if !p.economy.Deposit(actor, s.RewardKind, value) {
		p.log.Debug("sell deposit refused, collecting instead",
			zap.Uint64("actor", uint64(actor)),
			zap.String("material", string(m)),
		)
		return false
	}
	p.rewards.Contribute(actor, Contribution{Value: value, Items: items, Blocks: 1})
	res.Outcome = Sold
	res.Value = value
	res.Items = items
	return true
}

func countItems(stacks []world.ItemStack) int {
	n := 0
	for _, st := range stacks {
		n += st.Count
	}
	return n
}
