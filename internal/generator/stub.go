package generator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/tbourn/go-boardgame-planner/internal/domain"
)

// Stub is a deterministic offline Generator. Output depends only on its
// inputs, which makes it suitable for tests and for running without an
// API key. Feedback mentioning a lighter or heavier game shifts the weight
// by one step.
type Stub struct{}

var (
	lighter = []string{"casual", "light", "simple", "easy", "캐주얼", "가볍", "쉽", "간단"}
	heavier = []string{"strategic", "heavy", "complex", "deep", "전략", "복잡", "어렵", "깊"}
)

// Concept implements Generator.
func (Stub) Concept(_ context.Context, in ConceptInput) (ConceptDraft, error) {
	return ConceptDraft{
		Theme:         in.Theme,
		PlayerCount:   in.PlayerCount,
		AverageWeight: in.AverageWeight,
		IdeaText: fmt.Sprintf("%s 테마의 %s 게임. 플레이어는 자원을 모아 거점을 세우고 먼저 목표 점수에 도달하기 위해 경쟁합니다.",
			in.Theme, in.PlayerCount),
		Mechanics: mechanicsFor(in.AverageWeight),
		Storyline: fmt.Sprintf("%s 세계에서 각 플레이어는 한 세력을 이끌고 마지막 유산을 차지하려 합니다.", in.Theme),
	}, nil
}

// ReviseConcept implements Generator.
func (Stub) ReviseConcept(_ context.Context, src *domain.Concept, feedback string) (ConceptDraft, error) {
	w := src.AverageWeight
	switch {
	case mentions(feedback, lighter):
		w = math.Max(1, w-1)
	case mentions(feedback, heavier):
		w = math.Min(5, w+1)
	}
	return ConceptDraft{
		Theme:         src.Theme,
		PlayerCount:   src.PlayerCount,
		AverageWeight: w,
		IdeaText:      fmt.Sprintf("%s (피드백 반영: %s)", src.IdeaText, feedback),
		Mechanics:     mechanicsFor(w),
		Storyline:     src.Storyline,
	}, nil
}

// Objective implements Generator.
func (Stub) Objective(_ context.Context, c *domain.Concept) (ObjectiveDraft, error) {
	return ObjectiveDraft{
		MainGoal: fmt.Sprintf("%s 세계의 유물 3개를 먼저 모으는 플레이어가 승리합니다.", c.Theme),
		SubGoals: []string{
			"매 턴 거점 1곳당 자원 1개 추가 획득",
			"상대 거점을 점령하면 특수 행동 카드 1장 획득",
		},
		WinConditionType: "목표 달성형",
		DesignNote:       "자원 확보와 견제 사이의 균형을 유도합니다.",
	}, nil
}

// Components implements Generator.
func (Stub) Components(_ context.Context, c *domain.Concept, obj *domain.Objective) (ComponentsDraft, error) {
	goal := "유물"
	if obj != nil && obj.WinConditionType != "" {
		goal = obj.WinConditionType
	}
	return ComponentsDraft{Components: []domain.ComponentItem{
		{Type: "board", Name: c.Theme + " 지도", Effect: "지역과 자원 칸을 표시합니다.", VisualType: "일러스트 지도"},
		{Type: "card", Name: "행동 카드", Effect: "턴마다 한 장을 사용해 추가 행동을 합니다.", VisualType: "테마 일러스트 카드"},
		{Type: "token", Name: goal + " 토큰", Effect: "승리 조건 진행도를 기록합니다.", VisualType: "금속 느낌 토큰"},
		{Type: "piece", Name: "세력 말", Effect: "플레이어의 위치와 거점을 표시합니다.", VisualType: "색상별 미플"},
	}}, nil
}

// ReviseComponents implements Generator.
func (Stub) ReviseComponents(_ context.Context, src *domain.ComponentBatch, feedback string) (ComponentsDraft, error) {
	items := make([]domain.ComponentItem, 0, len(src.Components)+1)
	items = append(items, src.Components...)
	items = append(items, domain.ComponentItem{
		Type:       "card",
		Name:       "보정 카드",
		Effect:     "피드백 반영: " + feedback,
		VisualType: "강조 테두리 카드",
	})
	return ComponentsDraft{Components: items}, nil
}

// Rule implements Generator.
func (Stub) Rule(_ context.Context, c *domain.Concept, _ *domain.Objective) (RuleDraft, error) {
	return RuleDraft{
		TurnStructure: "1. 자원 수집 → 2. 행동 선택 → 3. 충돌 해결 → 4. 턴 종료",
		ActionRules: []string{
			"자원 수집: 거점 1곳당 자원 토큰 1개 획득",
			"건설: 자원 3개를 내고 거점 1곳 건설",
			"견제: 카드 1장을 내어 인접한 상대 거점 1곳 약화",
		},
		VictoryCondition: "유물 3개를 먼저 모으면 즉시 승리",
		PenaltyRules: []string{
			"자원이 0일 때 다음 턴 행동 1회 제한",
		},
		DesignNote: fmt.Sprintf("%s 컨셉에 맞춰 빠른 턴 진행을 목표로 합니다.", c.Theme),
	}, nil
}

// ReviseRule implements Generator.
func (Stub) ReviseRule(_ context.Context, src *domain.Rule, feedback string) (RuleDraft, error) {
	actions := append([]string{}, src.ActionRules...)
	actions = append(actions, "보정 행동: "+feedback)
	penalties := append([]string{}, src.PenaltyRules...)
	return RuleDraft{
		TurnStructure:    src.TurnStructure,
		ActionRules:      actions,
		VictoryCondition: src.VictoryCondition,
		PenaltyRules:     penalties,
		DesignNote:       "피드백 반영: " + feedback,
	}, nil
}

func mechanicsFor(weight float64) string {
	switch {
	case weight < 2:
		return "세트 컬렉션, 핸드 매니지먼트"
	case weight < 3.5:
		return "자원 관리, 카드 드래프트, 지역 점령"
	default:
		return "자원 관리, 엔진 빌딩, 비대칭 능력, 지역 점령"
	}
}

func mentions(text string, words []string) bool {
	text = strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

var _ Generator = Stub{}
var _ Generator = (*LLM)(nil)
