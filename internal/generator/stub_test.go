package generator

import (
	"context"
	"reflect"
	"testing"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

func TestStub_Deterministic(t *testing.T) {
	in := ConceptInput{Theme: "중세 판타지", PlayerCount: "2~4명", AverageWeight: 2.5}
	a, _ := Stub{}.Concept(context.Background(), in)
	b, _ := Stub{}.Concept(context.Background(), in)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("stub output should be deterministic")
	}
	if err := a.validate(); err != nil {
		t.Fatalf("stub concept invalid: %v", err)
	}
}

func TestStub_ReviseConceptFollowsFeedback(t *testing.T) {
	src := concept12()
	cases := []struct {
		feedback string
		want     float64
	}{
		{"좀 더 캐주얼하게", 2.5},
		{"make it more strategic", 4.5},
		{"different art style", 3.5},
	}
	for _, tc := range cases {
		d, err := Stub{}.ReviseConcept(context.Background(), src, tc.feedback)
		if err != nil {
			t.Fatal(err)
		}
		if d.AverageWeight != tc.want {
			t.Errorf("%q: weight %v; want %v", tc.feedback, d.AverageWeight, tc.want)
		}
		if d.Theme != src.Theme || d.PlayerCount != src.PlayerCount {
			t.Errorf("%q: theme/playerCount should carry forward", tc.feedback)
		}
	}

	light := *src
	light.AverageWeight = 1.2
	if d, _ := (Stub{}).ReviseConcept(context.Background(), &light, "casual"); d.AverageWeight != 1 {
		t.Fatalf("weight should clamp at 1, got %v", d.AverageWeight)
	}
}

func TestStub_DraftsAreValidAndSourcesUntouched(t *testing.T) {
	ctx := context.Background()
	c := concept12()

	obj, _ := Stub{}.Objective(ctx, c)
	if err := obj.validate(); err != nil {
		t.Fatal(err)
	}
	comps, _ := Stub{}.Components(ctx, c, &domain.Objective{WinConditionType: "생존형"})
	if err := comps.validate(); err != nil {
		t.Fatal(err)
	}
	rule, _ := Stub{}.Rule(ctx, c, nil)
	if err := rule.validate(); err != nil {
		t.Fatal(err)
	}

	batch := &domain.ComponentBatch{Components: comps.Components}
	revised, _ := Stub{}.ReviseComponents(ctx, batch, "토큰을 더")
	if len(revised.Components) != len(batch.Components)+1 {
		t.Fatalf("revision should append one component")
	}

	src := &domain.Rule{TurnStructure: rule.TurnStructure, ActionRules: rule.ActionRules, PenaltyRules: rule.PenaltyRules}
	before := len(src.ActionRules)
	rr, _ := Stub{}.ReviseRule(ctx, src, "더 빠르게")
	if len(src.ActionRules) != before || len(rr.ActionRules) != before+1 {
		t.Fatalf("source rule must not be mutated")
	}
}
