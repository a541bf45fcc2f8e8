package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for reward formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	// Core helpers first, then formulas that may use them.
	for _, sub := range []string{"core", "reward"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	if !e.Has("calc_reward_multiplier") {
		log.Warn("lua function calc_reward_multiplier not defined, scripted multiplier is 1.0")
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Has reports whether a global Lua function is defined.
func (e *Engine) Has(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// RewardContext is what the multiplier formula sees about one payout.
type RewardContext struct {
	Actor      uint64
	RewardKind string
	RawBlocks  int64
	Balance    float64
	Perms      []string
}

// RewardMultiplier calls the Lua calc_reward_multiplier function. A missing
// function, a script error or a non-numeric result yields 1.0.
func (e *Engine) RewardMultiplier(ctx RewardContext) float64 {
	fn, ok := e.vm.GetGlobal("calc_reward_multiplier").(*lua.LFunction)
	if !ok {
		return 1
	}

	t := e.vm.NewTable()
	t.RawSetString("actor", lua.LNumber(ctx.Actor))
	t.RawSetString("reward_kind", lua.LString(ctx.RewardKind))
	t.RawSetString("raw_blocks", lua.LNumber(ctx.RawBlocks))
	t.RawSetString("balance", lua.LNumber(ctx.Balance))
	perms := e.vm.NewTable()
	for _, p := range ctx.Perms {
		perms.RawSetString(p, lua.LTrue)
	}
	t.RawSetString("perms", perms)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_reward_multiplier error", zap.Error(err))
		return 1
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua calc_reward_multiplier returned non-number", zap.String("type", result.Type().String()))
		return 1
	}
	return float64(n)
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
