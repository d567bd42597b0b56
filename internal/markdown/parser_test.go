package markdown

import (
	"strings"
	"testing"
)

func TestParse_HeadingDepths(t *testing.T) {
	var b strings.Builder
	for i := 1; i <= 9; i++ {
		b.WriteString(strings.Repeat("#", i) + " Title\n")
	}
	doc := Parse(b.String())

	if len(doc.Blocks) != 9 {
		t.Fatalf("len(blocks) = %d, want 9", len(doc.Blocks))
	}
	for i, blk := range doc.Blocks {
		if blk.Kind != KindHeading {
			t.Errorf("block %d kind = %s, want heading", i, blk.Kind)
		}
		if blk.Level != i+1 {
			t.Errorf("block %d level = %d, want %d", i, blk.Level, i+1)
		}
	}
}

func TestParse_HeadingDepthCapped(t *testing.T) {
	doc := Parse("############ Deep\n")
	if len(doc.Blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1", len(doc.Blocks))
	}
	if doc.Blocks[0].Level != 9 {
		t.Errorf("level = %d, want 9", doc.Blocks[0].Level)
	}
}

func TestParse_EmptyHeading(t *testing.T) {
	doc := Parse("##\n")
	if len(doc.Blocks) != 1 || doc.Blocks[0].Kind != KindHeading {
		t.Fatalf("blocks = %+v, want one heading", doc.Blocks)
	}
	runs := doc.Blocks[0].Runs
	if len(runs) != 1 || runs[0].Content != "" {
		t.Errorf("runs = %+v, want single empty run", runs)
	}
}

func TestParse_CodeBlock(t *testing.T) {
	doc := Parse("```go\nfunc main() {}\n\nreturn\n```\nafter\n")
	if len(doc.Blocks) != 2 {
		t.Fatalf("len(blocks) = %d, want 2", len(doc.Blocks))
	}
	code := doc.Blocks[0]
	if code.Kind != KindCode {
		t.Fatalf("kind = %s, want code", code.Kind)
	}
	if code.Language != "go" {
		t.Errorf("language = %q, want go", code.Language)
	}
	if code.Code != "func main() {}\n\nreturn" {
		t.Errorf("code = %q", code.Code)
	}
}

func TestParse_CodeBlockDefaultLanguage(t *testing.T) {
	doc := Parse("```\nx\n```\n")
	if doc.Blocks[0].Language != DefaultLanguage {
		t.Errorf("language = %q, want %q", doc.Blocks[0].Language, DefaultLanguage)
	}
}

func TestParse_UnclosedCodeFence(t *testing.T) {
	doc := Parse("```sh\necho hi\necho bye\n")
	if len(doc.Blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1", len(doc.Blocks))
	}
	if doc.Blocks[0].Code != "echo hi\necho bye\n" && doc.Blocks[0].Code != "echo hi\necho bye" {
		t.Errorf("code = %q", doc.Blocks[0].Code)
	}
}

func TestParse_TableDropsAlignmentRow(t *testing.T) {
	doc := Parse("| a | b |\n|---|:--:|\n| 1 | 2 |\n")
	if len(doc.Blocks) != 1 || doc.Blocks[0].Kind != KindTable {
		t.Fatalf("blocks = %+v, want one table", doc.Blocks)
	}
	grid := doc.Blocks[0].Table
	if len(grid) != 2 {
		t.Fatalf("rows = %d, want 2 (alignment row dropped)", len(grid))
	}
	if grid[0][0] != "a" || grid[1][1] != "2" {
		t.Errorf("grid = %v", grid)
	}
	if len(doc.PendingTables) != 1 || doc.PendingTables[0].Index != 0 {
		t.Errorf("pending tables = %+v", doc.PendingTables)
	}
}

func TestParse_TableRaggedRows(t *testing.T) {
	doc := Parse("| a | b | c |\n| 1 |\n")
	_, cols := Dimensions(doc.Blocks[0].Table)
	if cols != 3 {
		t.Errorf("cols = %d, want 3 (max cell count)", cols)
	}
}

func TestParse_ImageLocalAndRemote(t *testing.T) {
	doc := Parse("![alt](images/a.png)\n![alt](https://example.com/b.jpg)\n")
	if len(doc.PendingImages) != 2 {
		t.Fatalf("pending images = %+v", doc.PendingImages)
	}
	if doc.PendingImages[0].Remote {
		t.Errorf("local path flagged remote")
	}
	if !doc.PendingImages[1].Remote {
		t.Errorf("https url not flagged remote")
	}
	if doc.PendingImages[1].Index != 1 {
		t.Errorf("index = %d, want 1", doc.PendingImages[1].Index)
	}
}

func TestParse_MalformedImageFallsToParagraph(t *testing.T) {
	doc := Parse("![alt](broken.png\n")
	if len(doc.Blocks) != 1 || doc.Blocks[0].Kind != KindParagraph {
		t.Errorf("blocks = %+v, want one paragraph", doc.Blocks)
	}
	if len(doc.PendingImages) != 0 {
		t.Errorf("pending images = %+v, want none", doc.PendingImages)
	}
}

func TestParse_QuoteMerged(t *testing.T) {
	doc := Parse("> one\n> two\npara\n")
	if len(doc.Blocks) != 2 {
		t.Fatalf("len(blocks) = %d, want 2", len(doc.Blocks))
	}
	q := doc.Blocks[0]
	if q.Kind != KindQuote {
		t.Fatalf("kind = %s, want quote", q.Kind)
	}
	if got := joinRuns(q.Runs); got != "one\ntwo" {
		t.Errorf("quote text = %q, want %q", got, "one\ntwo")
	}
}

func TestParse_ListItemsAreSeparateBlocks(t *testing.T) {
	doc := Parse("- a\n- b\n1. c\n2. d\n")
	kinds := []Kind{KindBullet, KindBullet, KindOrdered, KindOrdered}
	if len(doc.Blocks) != len(kinds) {
		t.Fatalf("len(blocks) = %d, want %d", len(doc.Blocks), len(kinds))
	}
	for i, k := range kinds {
		if doc.Blocks[i].Kind != k {
			t.Errorf("block %d kind = %s, want %s", i, doc.Blocks[i].Kind, k)
		}
	}
}

func TestParse_DividerAndBlankLines(t *testing.T) {
	doc := Parse("a\n\n---\n\nb\n")
	kinds := []Kind{KindParagraph, KindDivider, KindParagraph}
	if len(doc.Blocks) != len(kinds) {
		t.Fatalf("blocks = %+v", doc.Blocks)
	}
	for i, k := range kinds {
		if doc.Blocks[i].Kind != k {
			t.Errorf("block %d kind = %s, want %s", i, doc.Blocks[i].Kind, k)
		}
	}
}

func TestInlineRuns_WholeLineConstructs(t *testing.T) {
	cases := []struct {
		name  string
		input string
		check func(t *testing.T, r TextRun)
	}{
		{"bold", "**bold**", func(t *testing.T, r TextRun) {
			if !r.Bold || r.Content != "bold" {
				t.Errorf("run = %+v", r)
			}
		}},
		{"bold underscore", "__bold__", func(t *testing.T, r TextRun) {
			if !r.Bold || r.Content != "bold" {
				t.Errorf("run = %+v", r)
			}
		}},
		{"code", "`code`", func(t *testing.T, r TextRun) {
			if !r.InlineCode || r.Content != "code" {
				t.Errorf("run = %+v", r)
			}
		}},
		{"italic", "*italic*", func(t *testing.T, r TextRun) {
			if !r.Italic || r.Content != "italic" {
				t.Errorf("run = %+v", r)
			}
		}},
		{"link", "[text](https://example.com)", func(t *testing.T, r TextRun) {
			if r.Content != "text" || r.LinkURL != "https://example.com" {
				t.Errorf("run = %+v", r)
			}
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			runs := inlineRuns(tc.input)
			if len(runs) != 1 {
				t.Fatalf("len(runs) = %d, want 1 (no extra plain runs)", len(runs))
			}
			tc.check(t, runs[0])
		})
	}
}

func TestInlineRuns_MixedLine(t *testing.T) {
	runs := inlineRuns("see **bold** and `code` end")
	want := []TextRun{
		{Content: "see "},
		{Content: "bold", Bold: true},
		{Content: " and "},
		{Content: "code", InlineCode: true},
		{Content: " end"},
	}
	if len(runs) != len(want) {
		t.Fatalf("runs = %+v", runs)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("run %d = %+v, want %+v", i, runs[i], want[i])
		}
	}
}

func TestInlineRuns_BoldBeforeItalic(t *testing.T) {
	runs := inlineRuns("**x**")
	if len(runs) != 1 || !runs[0].Bold || runs[0].Italic {
		t.Errorf("runs = %+v, want single bold run", runs)
	}
}

func TestParse_OrderPreservedAcrossSpecials(t *testing.T) {
	input := "first\n![a](x.png)\nmiddle\n| h |  c |\n| 1 | 2 |\nlast\n"
	doc := Parse(input)

	kinds := []Kind{KindParagraph, KindImage, KindParagraph, KindTable, KindParagraph}
	if len(doc.Blocks) != len(kinds) {
		t.Fatalf("blocks = %+v", doc.Blocks)
	}
	for i, k := range kinds {
		if doc.Blocks[i].Kind != k {
			t.Errorf("block %d kind = %s, want %s", i, doc.Blocks[i].Kind, k)
		}
	}
	if doc.PendingImages[0].Index != 1 {
		t.Errorf("image index = %d, want 1", doc.PendingImages[0].Index)
	}
	if doc.PendingTables[0].Index != 3 {
		t.Errorf("table index = %d, want 3", doc.PendingTables[0].Index)
	}
}

func joinRuns(runs []TextRun) string {
	var b strings.Builder
	for _, r := range runs {
		b.WriteString(r.Content)
	}
	return b.String()
}
