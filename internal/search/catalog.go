package search

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/games.yaml
var defaultCatalog []byte

// Game is one published board game used as design reference.
type Game struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Theme       string   `yaml:"theme"`
	MinPlayers  int      `yaml:"min_players"`
	MaxPlayers  int      `yaml:"max_players"`
	Weight      float64  `yaml:"weight"`
	Mechanics   []string `yaml:"mechanics"`
}

// Text renders the game as the paragraph that is indexed and quoted in
// generation prompts.
func (g Game) Text() string {
	return fmt.Sprintf("게임 이름: %s\n설명: %s\n테마: %s\n플레이 인원: %d~%d명\n난이도: %.2f\n메커니즘: %s",
		g.Name, g.Description, g.Theme, g.MinPlayers, g.MaxPlayers, g.Weight, strings.Join(g.Mechanics, ", "))
}

// DefaultCatalog returns the embedded reference games.
func DefaultCatalog() ([]Game, error) {
	return DecodeCatalog(bytes.NewReader(defaultCatalog))
}

// DecodeCatalog parses a YAML list of games. Entries without a name are
// dropped; player bounds default to 1..99 and weight to 2.0.
func DecodeCatalog(r io.Reader) ([]Game, error) {
	var doc struct {
		Games []Game `yaml:"games"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return normalize(doc.Games), nil
}

// LoadCatalog reads reference games from path: a YAML catalog, or a
// Markdown table (.md) in the column order of MarkdownColumns.
func LoadCatalog(path string) ([]Game, error) {
	if strings.EqualFold(filepath.Ext(path), ".md") {
		return LoadMarkdownCatalog(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCatalog(f)
}

func normalize(games []Game) []Game {
	out := make([]Game, 0, len(games))
	for _, g := range games {
		g.Name = strings.TrimSpace(g.Name)
		if g.Name == "" {
			continue
		}
		if g.MinPlayers <= 0 {
			g.MinPlayers = 1
		}
		if g.MaxPlayers <= 0 {
			g.MaxPlayers = 99
		}
		if g.Weight <= 0 {
			g.Weight = 2.0
		}
		out = append(out, g)
	}
	return out
}
