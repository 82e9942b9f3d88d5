package repo

import (
	"context"
	"testing"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

func TestSeedDemo_LoadsFixedIDs(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	if err := SeedDemo(ctx, db); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}

	c, err := GetConcept(ctx, db, 12)
	if err != nil {
		t.Fatalf("concept 12: %v", err)
	}
	if c.PlanID != 13 {
		t.Fatalf("concept 12 plan = %d; want 13", c.PlanID)
	}
	r, err := GetRule(ctx, db, 23)
	if err != nil {
		t.Fatalf("rule 23: %v", err)
	}
	if r.ConceptID != 12 || r.PlanID != 13 || len(r.ActionRules) != 3 {
		t.Fatalf("unexpected rule 23: %+v", r)
	}
	if _, err := GetObjectiveByConcept(ctx, db, 1001); err != nil {
		t.Fatalf("objective for 1001: %v", err)
	}

	// New rows continue after the seeded IDs.
	p, err := CreatePlan(ctx, db)
	if err != nil {
		t.Fatalf("CreatePlan: %v", err)
	}
	if p.ID <= 2002 {
		t.Fatalf("new plan id %d collides with seeded range", p.ID)
	}
}

func TestSeedDemo_Idempotent(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := SeedDemo(ctx, db); err != nil {
			t.Fatalf("SeedDemo #%d: %v", i+1, err)
		}
	}
	var n int64
	if err := db.Model(&domain.Concept{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("concepts after double seed = %d; want 3", n)
	}
}

func TestSeed_RejectsBadYAML(t *testing.T) {
	db := newRepoDB(t)
	if err := Seed(context.Background(), db, []byte("concepts: [")); err == nil {
		t.Fatalf("expected parse error")
	}
}
