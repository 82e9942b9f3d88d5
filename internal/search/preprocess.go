package search

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// MarkdownColumns is the expected column order of a Markdown catalog:
//
//	| 이름 | 설명 | 테마 | 최소인원 | 최대인원 | 난이도 | 메커니즘 |
//
// The header row and separator rows are skipped. Mechanics are
// comma-separated inside their cell.
var MarkdownColumns = []string{"이름", "설명", "테마", "최소인원", "최대인원", "난이도", "메커니즘"}

// LoadMarkdownCatalog reads a Markdown table catalog from path.
func LoadMarkdownCatalog(path string) ([]Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseMarkdownCatalog(f)
}

// ParseMarkdownCatalog flattens table rows into Games. Lines outside the
// table are ignored; rows with fewer than two cells are skipped.
// Numeric cells that do not parse fall back to the catalog defaults.
func ParseMarkdownCatalog(r io.Reader) ([]Game, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var games []Game
	header := true
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "|") || !strings.HasSuffix(line, "|") {
			continue
		}
		cells, sep := splitRow(line)
		if sep || len(cells) < 2 {
			continue
		}
		if header && cells[0] == MarkdownColumns[0] {
			header = false
			continue
		}
		games = append(games, rowToGame(cells))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read markdown catalog: %w", err)
	}
	return normalize(games), nil
}

// splitRow returns the trimmed cells of "| a | b |" and whether the row
// is a separator such as "|---|:--:|".
func splitRow(line string) ([]string, bool) {
	raw := strings.Trim(line, "|")
	cols := strings.Split(raw, "|")

	allSep := true
	cells := make([]string, 0, len(cols))
	for _, c := range cols {
		cell := strings.TrimSpace(c)
		cells = append(cells, cell)
		tmp := strings.ReplaceAll(cell, ":", "")
		tmp = strings.ReplaceAll(tmp, "-", "")
		if strings.TrimSpace(tmp) != "" {
			allSep = false
		}
	}
	return cells, allSep
}

func rowToGame(cells []string) Game {
	cell := func(i int) string {
		if i < len(cells) {
			return cells[i]
		}
		return ""
	}
	g := Game{
		Name:        cell(0),
		Description: cell(1),
		Theme:       cell(2),
	}
	g.MinPlayers, _ = strconv.Atoi(cell(3))
	g.MaxPlayers, _ = strconv.Atoi(cell(4))
	g.Weight, _ = strconv.ParseFloat(cell(5), 64)
	for _, m := range strings.Split(cell(6), ",") {
		if m = strings.TrimSpace(m); m != "" {
			g.Mechanics = append(g.Mechanics, m)
		}
	}
	return g
}
