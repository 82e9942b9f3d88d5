package generator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

// fakeModel records prompts and replies with a canned answer.
type fakeModel struct {
	reply   string
	err     error
	prompts []string
	block   bool
}

func (f *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func concept12() *domain.Concept {
	return &domain.Concept{
		ID: 12, PlanID: 13, Version: 1,
		Theme: "SF 생존/전략", PlayerCount: "2~4명", AverageWeight: 3.5,
		IdeaText: "불시착한 생존자들이 기지를 건설한다.", Mechanics: "자원 관리, 기지 건설", Storyline: "제노스-7",
	}
}

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name, in, want string
		wantErr        bool
	}{
		{"fenced", "Sure!\n```json\n{\"a\":1}\n```\nbye", `{"a":1}`, false},
		{"bare fence", "```\n{\"a\":2}\n```", `{"a":2}`, false},
		{"prose around", "here you go: {\"a\":{\"b\":3}} thanks", `{"a":{"b":3}}`, false},
		{"none", "I cannot help with that.", "", true},
	}
	for _, tc := range cases {
		got, err := ExtractJSON(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidOutput) {
				t.Errorf("%s: expected ErrInvalidOutput, got %v", tc.name, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("%s: got %q, %v; want %q", tc.name, got, err, tc.want)
		}
	}
}

func TestLLM_ConceptRendersReferencesAndPinsRequest(t *testing.T) {
	m := &fakeModel{reply: "```json\n" + `{"theme":"other","playerCount":"5명","averageWeight":1,
		"ideaText":"아이디어","mechanics":"덱 빌딩","storyline":"이야기"}` + "\n```"}
	g := NewLLM(m, time.Second)

	d, err := g.Concept(context.Background(), ConceptInput{
		Theme: "SF 생존", PlayerCount: "2~4명", AverageWeight: 3.5, References: "게임 이름: 팬데믹",
	})
	if err != nil {
		t.Fatalf("Concept: %v", err)
	}
	if d.Theme != "SF 생존" || d.PlayerCount != "2~4명" || d.AverageWeight != 3.5 {
		t.Fatalf("request fields should be pinned, got %+v", d)
	}
	if d.IdeaText != "아이디어" {
		t.Fatalf("unexpected ideaText %q", d.IdeaText)
	}
	if len(m.prompts) != 1 || !strings.Contains(m.prompts[0], "게임 이름: 팬데믹") || !strings.Contains(m.prompts[0], "3.5") {
		t.Fatalf("prompt missing request context:\n%s", m.prompts[0])
	}
}

func TestLLM_ReviseConceptCarriesForward(t *testing.T) {
	m := &fakeModel{reply: `{"ideaText":"더 가벼운 버전","mechanics":"세트 컬렉션","storyline":"같은 세계","averageWeight":9}`}
	d, err := NewLLM(m, 0).ReviseConcept(context.Background(), concept12(), "좀 더 캐주얼하게")
	if err != nil {
		t.Fatalf("ReviseConcept: %v", err)
	}
	if d.Theme != "SF 생존/전략" || d.PlayerCount != "2~4명" || d.AverageWeight != 3.5 {
		t.Fatalf("missing or invalid fields should carry forward, got %+v", d)
	}
	if !strings.Contains(m.prompts[0], "좀 더 캐주얼하게") || !strings.Contains(m.prompts[0], `"conceptId": 12`) {
		t.Fatalf("prompt should include source and feedback:\n%s", m.prompts[0])
	}
}

func TestLLM_InvalidOutput(t *testing.T) {
	cases := map[string]string{
		"not json":       "no idea",
		"broken json":    "```json\n{\"turnStructure\": }\n```",
		"missing fields": `{"turnStructure":"1. draw"}`,
	}
	for name, reply := range cases {
		_, err := NewLLM(&fakeModel{reply: reply}, 0).Rule(context.Background(), concept12(), nil)
		if !errors.Is(err, ErrInvalidOutput) {
			t.Errorf("%s: expected ErrInvalidOutput, got %v", name, err)
		}
	}
}

func TestLLM_ModelErrorAndTimeout(t *testing.T) {
	boom := errors.New("quota exceeded")
	if _, err := NewLLM(&fakeModel{err: boom}, 0).Objective(context.Background(), concept12()); !errors.Is(err, boom) {
		t.Fatalf("model error should propagate, got %v", err)
	}

	_, err := NewLLM(&fakeModel{block: true}, 10*time.Millisecond).Objective(context.Background(), concept12())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestLLM_ComponentsAndRules(t *testing.T) {
	obj := &domain.Objective{ConceptID: 12, MainGoal: "부품 3개 수리", WinConditionType: "목표 달성형"}

	m := &fakeModel{reply: `{"components":[{"type":"card","name":"수리 카드","effect":"부품 수리","visualType":"청사진"}]}`}
	cd, err := NewLLM(m, 0).Components(context.Background(), concept12(), obj)
	if err != nil || len(cd.Components) != 1 || cd.Components[0].Name != "수리 카드" {
		t.Fatalf("Components: %+v %v", cd, err)
	}
	if !strings.Contains(m.prompts[0], "부품 3개 수리") {
		t.Fatalf("objective should be rendered into the prompt")
	}

	src := &domain.ComponentBatch{ID: 5, PlanID: 13, Components: cd.Components}
	m2 := &fakeModel{reply: `{"components":[{"type":"token","name":"에너지","effect":"","visualType":""}]}`}
	if rd, err := NewLLM(m2, 0).ReviseComponents(context.Background(), src, "토큰 추가"); err != nil || rd.Components[0].Name != "에너지" {
		t.Fatalf("ReviseComponents: %+v %v", rd, err)
	}

	m3 := &fakeModel{reply: `{"turnStructure":"1. 이동","actionRules":["이동"],"victoryCondition":"보스 처치","penaltyRules":[],"designNote":"빠름"}`}
	rule := &domain.Rule{ID: 23, ConceptID: 12, PlanID: 13, TurnStructure: "old", ActionRules: []string{"old"}}
	if rr, err := NewLLM(m3, 0).ReviseRule(context.Background(), rule, "더 빠르게"); err != nil || rr.VictoryCondition != "보스 처치" {
		t.Fatalf("ReviseRule: %+v %v", rr, err)
	}
	if !strings.Contains(m3.prompts[0], `"ruleId": 23`) {
		t.Fatalf("source rule should be rendered into the prompt")
	}
}

func TestNewGemini_RequiresKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), " ", ""); err == nil {
		t.Fatalf("expected error for empty API key")
	}
}
