// Command simctl plays a rule file offline and prints the balance report.
//
//	simctl -rule rule.yaml -games 10 -players 3 -turns 20
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-boardgame-planner/internal/analysis"
	"github.com/tbourn/go-boardgame-planner/internal/services"
	"github.com/tbourn/go-boardgame-planner/internal/simulation"
	"github.com/tbourn/go-boardgame-planner/internal/sysutil"
)

type options struct {
	rulePath   string
	games      int
	players    int
	turns      int
	effect     string
	scriptPath string
	asJSON     bool
	logLevel   string
}

func main() {
	var o options
	flag.StringVar(&o.rulePath, "rule", "", "rule file (YAML)")
	flag.IntVar(&o.games, "games", 5, "games to play (1-10)")
	flag.IntVar(&o.players, "players", 3, "players per game (2-4)")
	flag.IntVar(&o.turns, "turns", 20, "turn limit per game (5-20)")
	flag.StringVar(&o.effect, "effect", "", "turn effect: heuristic|lua (default $TURN_EFFECT or heuristic)")
	flag.StringVar(&o.scriptPath, "script", "", "lua turn script (default $TURN_SCRIPT_PATH)")
	flag.BoolVar(&o.asJSON, "json", false, "print JSON instead of the styled report")
	flag.StringVar(&o.logLevel, "log-level", "warn", "log level")
	flag.Parse()

	sysutil.SetupLogger(o.logLevel, true, os.Stderr)
	o.effect = sysutil.FirstNonEmpty(o.effect, os.Getenv("TURN_EFFECT"), "heuristic")
	o.scriptPath = sysutil.FirstNonEmpty(o.scriptPath, os.Getenv("TURN_SCRIPT_PATH"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o, os.Stdout); err != nil {
		log.Error().Err(err).Msg("simctl")
		os.Exit(1)
	}
}

func run(ctx context.Context, o options, w io.Writer) error {
	if o.rulePath == "" {
		return fmt.Errorf("-rule is required")
	}
	rule, err := loadRule(o.rulePath)
	if err != nil {
		return err
	}
	req, err := services.NewSimulationRequest(rule.ID, o.games, o.players, o.turns)
	if err != nil {
		return err
	}

	var script string
	if o.scriptPath != "" {
		b, err := os.ReadFile(o.scriptPath)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		script = string(b)
	}
	factory, err := simulation.NewEffectFactory(o.effect, script)
	if err != nil {
		return err
	}

	results, err := simulation.NewRunner(factory).RunBatch(ctx, rule, req)
	if err != nil {
		return err
	}
	report := analysis.Analyze(results, req)

	if o.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(services.SimulationOutcome{History: results, Report: report})
	}
	_, err = fmt.Fprintln(w, render(rule, req, results, report))
	return err
}
