package simulation

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/Shopify/go-lua"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

// LuaEffect runs a scripted turn function. The script must define a
// global function
//
//	function turn(state) ... return { deltas = { ["Player 1"] = 3 }, log = "..." } end
//
// state carries turn, max_turns, game_id, players, scores, actions,
// penalties and victory. The returned table may also set strategy,
// critical and winner. A global roll(n) returns a deterministic 1..n
// draw seeded from (rule, game).
type LuaEffect struct {
	state *lua.State
	rule  *domain.Rule
}

// LuaFactory returns an EffectFactory that loads script into a fresh
// interpreter per game.
func LuaFactory(script string) EffectFactory {
	return func(rule *domain.Rule, gameID int) (TurnEffect, error) {
		if rule == nil {
			return nil, fmt.Errorf("simulation: nil rule")
		}
		rng := rand.New(rand.NewSource(seedFor(rule.ID, gameID)))
		l, err := newLuaState(script, rng)
		if err != nil {
			return nil, err
		}
		return &LuaEffect{state: l, rule: rule}, nil
	}
}

// CheckScript loads script once and verifies it defines turn().
func CheckScript(script string) error {
	_, err := newLuaState(script, rand.New(rand.NewSource(1)))
	return err
}

func newLuaState(script string, rng *rand.Rand) (*lua.State, error) {
	l := lua.NewState()
	lua.OpenLibraries(l)

	l.PushGoFunction(func(l *lua.State) int {
		n := lua.CheckInteger(l, 1)
		if n < 1 {
			lua.Errorf(l, "roll: n must be positive, got %d", n)
		}
		l.PushInteger(rng.Intn(n) + 1)
		return 1
	})
	l.SetGlobal("roll")

	if err := lua.DoString(l, script); err != nil {
		return nil, fmt.Errorf("simulation: load lua: %w", err)
	}
	l.Global("turn")
	defer l.Pop(1)
	if !l.IsFunction(-1) {
		return nil, fmt.Errorf("simulation: lua script must define function turn(state)")
	}
	return l, nil
}

// hookEvery is the instruction count between context checks while a
// script runs.
const hookEvery = 1000

// Apply implements TurnEffect. A count hook aborts turn() once ctx is done,
// so a looping script stops with the game watchdog.
func (e *LuaEffect) Apply(ctx context.Context, in TurnInput) (TurnOutcome, error) {
	if err := ctx.Err(); err != nil {
		return TurnOutcome{}, err
	}
	l := e.state
	top := l.Top()
	defer l.SetTop(top)

	lua.SetDebugHook(l, func(l *lua.State, _ lua.Debug) {
		if err := ctx.Err(); err != nil {
			lua.Errorf(l, "turn cancelled: %s", err.Error())
		}
	}, lua.MaskCount, hookEvery)
	defer lua.SetDebugHook(l, nil, 0, 0)

	l.Global("turn")
	e.pushState(in)
	if err := l.ProtectedCall(1, 1, 0); err != nil {
		return TurnOutcome{}, fmt.Errorf("lua turn %d: %w", in.Turn, err)
	}
	if !l.IsTable(-1) {
		return TurnOutcome{}, fmt.Errorf("lua turn %d: turn() must return a table", in.Turn)
	}
	return readOutcome(l, in.Turn)
}

func (e *LuaEffect) pushState(in TurnInput) {
	l := e.state
	l.NewTable()

	l.PushInteger(in.Turn)
	l.SetField(-2, "turn")
	l.PushInteger(in.MaxTurns)
	l.SetField(-2, "max_turns")
	l.PushInteger(in.GameID)
	l.SetField(-2, "game_id")
	l.PushString(e.rule.VictoryCondition)
	l.SetField(-2, "victory")

	pushStrings(l, in.Players)
	l.SetField(-2, "players")
	pushStrings(l, e.rule.ActionRules)
	l.SetField(-2, "actions")
	pushStrings(l, e.rule.PenaltyRules)
	l.SetField(-2, "penalties")

	l.NewTable()
	for _, p := range in.Players {
		l.PushNumber(in.Scores[p])
		l.SetField(-2, p)
	}
	l.SetField(-2, "scores")
}

func pushStrings(l *lua.State, values []string) {
	l.NewTable()
	for i, v := range values {
		l.PushString(v)
		l.RawSetInt(-2, i+1)
	}
}

// readOutcome converts the table at the top of the stack.
func readOutcome(l *lua.State, turn int) (TurnOutcome, error) {
	out := TurnOutcome{Deltas: map[string]float64{}}
	idx := l.AbsIndex(-1)

	l.Field(idx, "deltas")
	if l.IsTable(-1) {
		d := l.AbsIndex(-1)
		l.PushNil()
		for l.Next(d) {
			// ToString on a numeric key would convert it in place and break Next.
			if l.TypeOf(-2) != lua.TypeString {
				l.Pop(2)
				return TurnOutcome{}, fmt.Errorf("lua turn %d: deltas keys must be player labels", turn)
			}
			key, _ := l.ToString(-2)
			v, ok := l.ToNumber(-1)
			if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
				l.Pop(2)
				return TurnOutcome{}, fmt.Errorf("lua turn %d: delta for %s is not a finite number", turn, key)
			}
			out.Deltas[key] = v
			l.Pop(1)
		}
	}
	l.Pop(1)

	out.Log = stringField(l, idx, "log")
	out.Strategy = stringField(l, idx, "strategy")
	out.Critical = stringField(l, idx, "critical")
	out.Winner = stringField(l, idx, "winner")
	return out, nil
}

func stringField(l *lua.State, idx int, name string) string {
	l.Field(idx, name)
	defer l.Pop(1)
	if l.TypeOf(-1) != lua.TypeString {
		return ""
	}
	s, _ := l.ToString(-1)
	return s
}
