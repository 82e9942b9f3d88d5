package simulation

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// DefaultTarget is the score threshold used when a victory condition
// carries no number.
const DefaultTarget = 30.0

// targetScale turns "first to 3 castles" into a score target of 30.
const targetScale = 10.0

var firstInt = regexp.MustCompile(`\d+`)

// VictoryCheck decides whether accumulated scores end the game.
type VictoryCheck struct {
	// Enabled is false for rules without a usable victory condition;
	// such games always run to the turn limit.
	Enabled bool
	Target  float64
}

// ParseVictory derives a VictoryCheck from free-form victory text.
//
// The target is the first integer in the text multiplied by 10, because
// conditions usually count things ("3 castles") rather than points and
// turn effects award a few points per action. Text that already names
// points is scaled too: "10점을 먼저 얻으면 승리" targets 100, which a short
// game may never reach, and such rules then surface as rarely ending.
// Without a number the target is DefaultTarget; empty text disables the
// check.
func ParseVictory(condition string) VictoryCheck {
	condition = strings.TrimSpace(condition)
	if condition == "" {
		return VictoryCheck{}
	}
	target := DefaultTarget
	if m := firstInt.FindString(condition); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n > 0 {
			target = float64(n) * targetScale
		}
	}
	return VictoryCheck{Enabled: true, Target: target}
}

// Winner returns the unique leader at or above the target, if any.
func (v VictoryCheck) Winner(scores map[string]float64) (string, bool) {
	if !v.Enabled || len(scores) == 0 {
		return "", false
	}
	leader, best, tied := leaderOf(scores)
	if tied || best < v.Target {
		return "", false
	}
	return leader, true
}

// leaderOf returns the top scorer and whether the top score is shared.
func leaderOf(scores map[string]float64) (string, float64, bool) {
	labels := make([]string, 0, len(scores))
	for p := range scores {
		labels = append(labels, p)
	}
	sort.Strings(labels)

	leader, best, tied := "", 0.0, false
	for i, p := range labels {
		s := scores[p]
		switch {
		case i == 0 || s > best:
			leader, best, tied = p, s, false
		case s == best:
			tied = true
		}
	}
	return leader, best, tied
}
