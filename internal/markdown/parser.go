// Package markdown converts Markdown text into an ordered sequence of
// document blocks. Images and tables are emitted as placeholder blocks and
// additionally recorded in side lists keyed by block index, so the writer
// can interleave their multi-step remote calls at the right position.
package markdown

import (
	"regexp"
	"strings"
)

const maxHeadingLevel = 9

// DefaultLanguage is the code-block language tag used when a fence declares
// none.
const DefaultLanguage = "plain_text"

var (
	bulletRe    = regexp.MustCompile(`^[-*+]\s`)
	orderedRe   = regexp.MustCompile(`^\d+\.\s`)
	dividerRe   = regexp.MustCompile(`^[-*_]{3,}$`)
	imageRe     = regexp.MustCompile(`^!\[(.*?)\]\((.*?)\)`)
	alignCellRe = regexp.MustCompile(`^[-:]+$`)

	// One combined scan for inline styles. Bold alternatives come before
	// italic so ** is never consumed as two nested *.
	inlineRe = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__|` + "`(.+?)`" + `|\*(.+?)\*|_(.+?)_|\[(.+?)\]\((.+?)\)`)
)

// Parse converts content into blocks in document order. Blank lines produce
// no block. The returned Document carries the pending image and table lists
// alongside the block sequence.
func Parse(content string) *Document {
	lines := strings.Split(content, "\n")
	doc := &Document{}

	i := 0
	for i < len(lines) {
		line := lines[i]

		// Heading: one or more leading markers, depth capped.
		if strings.HasPrefix(line, "#") {
			level := 0
			for level < len(line) && line[level] == '#' {
				level++
			}
			text := strings.TrimSpace(line[level:])
			if level > maxHeadingLevel {
				level = maxHeadingLevel
			}
			doc.Blocks = append(doc.Blocks, Block{Kind: KindHeading, Level: level, Runs: inlineRuns(text)})
			i++
			continue
		}

		// Fenced code: runs to the closing fence or end of input.
		if strings.HasPrefix(line, "```") {
			language := strings.TrimSpace(line[3:])
			if language == "" {
				language = DefaultLanguage
			}
			var code []string
			i++
			for i < len(lines) && !strings.HasPrefix(lines[i], "```") {
				code = append(code, lines[i])
				i++
			}
			i++ // skip closing fence
			doc.Blocks = append(doc.Blocks, Block{Kind: KindCode, Code: strings.Join(code, "\n"), Language: language})
			continue
		}

		// Table region: lines starting with the column delimiter.
		if trimmed := strings.TrimSpace(line); strings.HasPrefix(trimmed, "|") && strings.Contains(trimmed[1:], "|") {
			grid, consumed := parseTable(lines, i)
			if len(grid) > 0 {
				doc.PendingTables = append(doc.PendingTables, PendingTable{Index: len(doc.Blocks), Grid: grid})
				doc.Blocks = append(doc.Blocks, Block{Kind: KindTable, Table: grid})
				i += consumed
				continue
			}
		}

		// Image reference. Malformed syntax never matches and the line
		// falls through to paragraph handling.
		if m := imageRe.FindStringSubmatch(line); m != nil {
			source := m[2]
			remote := strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
			doc.PendingImages = append(doc.PendingImages, PendingImage{Index: len(doc.Blocks), Source: source, Remote: remote})
			doc.Blocks = append(doc.Blocks, Block{Kind: KindImage, ImageSource: source, ImageRemote: remote})
			i++
			continue
		}

		// Quote: consecutive marker lines merge into one block.
		if strings.HasPrefix(line, ">") {
			var quote []string
			for i < len(lines) && strings.HasPrefix(lines[i], ">") {
				quote = append(quote, strings.TrimSpace(lines[i][1:]))
				i++
			}
			doc.Blocks = append(doc.Blocks, Block{Kind: KindQuote, Runs: inlineRuns(strings.Join(quote, "\n"))})
			continue
		}

		// Unordered list: each line is its own block.
		if bulletRe.MatchString(line) {
			for i < len(lines) && bulletRe.MatchString(lines[i]) {
				item := bulletRe.ReplaceAllString(lines[i], "")
				doc.Blocks = append(doc.Blocks, Block{Kind: KindBullet, Runs: inlineRuns(item)})
				i++
			}
			continue
		}

		// Ordered list: each line is its own block.
		if orderedRe.MatchString(line) {
			for i < len(lines) && orderedRe.MatchString(lines[i]) {
				item := orderedRe.ReplaceAllString(lines[i], "")
				doc.Blocks = append(doc.Blocks, Block{Kind: KindOrdered, Runs: inlineRuns(item)})
				i++
			}
			continue
		}

		// Divider.
		if dividerRe.MatchString(strings.TrimSpace(line)) {
			doc.Blocks = append(doc.Blocks, Block{Kind: KindDivider})
			i++
			continue
		}

		// Paragraph; blank lines are dropped.
		if strings.TrimSpace(line) != "" {
			doc.Blocks = append(doc.Blocks, Block{Kind: KindParagraph, Runs: inlineRuns(line)})
		}
		i++
	}

	return doc
}

// parseTable consumes a table region starting at lines[start] and returns
// the data rows plus the number of lines consumed. The alignment row
// (every cell made of dashes/colons) is dropped.
func parseTable(lines []string, start int) ([][]string, int) {
	var grid [][]string
	i := start

	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "|") {
			break
		}

		cells := splitRow(line)
		if isAlignmentRow(cells) {
			i++
			continue
		}

		grid = append(grid, cells)
		i++
	}

	return grid, i - start
}

// splitRow strips the outer delimiters and returns trimmed cell values.
func splitRow(line string) []string {
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

func isAlignmentRow(cells []string) bool {
	for _, c := range cells {
		if !alignCellRe.MatchString(c) {
			return false
		}
	}
	return len(cells) > 0
}

// inlineRuns splits text into styled runs with a single left-to-right scan.
// Unmatched stretches become plain runs; a run carries at most one style.
func inlineRuns(text string) []TextRun {
	var runs []TextRun
	last := 0

	for _, m := range inlineRe.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			runs = append(runs, TextRun{Content: text[last:m[0]]})
		}

		group := func(n int) (string, bool) {
			if m[2*n] < 0 {
				return "", false
			}
			return text[m[2*n]:m[2*n+1]], true
		}

		switch {
		case matchAny(group, 1, 2):
			s, _ := firstOf(group, 1, 2)
			runs = append(runs, TextRun{Content: s, Bold: true})
		case matchAny(group, 3):
			s, _ := group(3)
			runs = append(runs, TextRun{Content: s, InlineCode: true})
		case matchAny(group, 4, 5):
			s, _ := firstOf(group, 4, 5)
			runs = append(runs, TextRun{Content: s, Italic: true})
		case matchAny(group, 6):
			s, _ := group(6)
			url, _ := group(7)
			runs = append(runs, TextRun{Content: s, LinkURL: url})
		}

		last = m[1]
	}

	if last < len(text) {
		runs = append(runs, TextRun{Content: text[last:]})
	}
	if len(runs) == 0 {
		// Preserves the empty-heading edge case: a single empty run.
		runs = []TextRun{{Content: text}}
	}
	return runs
}

func matchAny(group func(int) (string, bool), ns ...int) bool {
	for _, n := range ns {
		if _, ok := group(n); ok {
			return true
		}
	}
	return false
}

func firstOf(group func(int) (string, bool), ns ...int) (string, bool) {
	for _, n := range ns {
		if s, ok := group(n); ok {
			return s, true
		}
	}
	return "", false
}
