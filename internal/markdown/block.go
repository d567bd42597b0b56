package markdown

// Kind discriminates the block variants produced by Parse.
type Kind int

const (
	KindParagraph Kind = iota
	KindHeading
	KindQuote
	KindBullet
	KindOrdered
	KindDivider
	KindCode
	KindImage
	KindTable
)

// String returns a short name for the block kind.
func (k Kind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindQuote:
		return "quote"
	case KindBullet:
		return "bullet"
	case KindOrdered:
		return "ordered"
	case KindDivider:
		return "divider"
	case KindCode:
		return "code"
	case KindImage:
		return "image"
	case KindTable:
		return "table"
	}
	return "unknown"
}

// TextRun is a span of literal text with at most one style applied.
// Concatenating a block's runs reconstructs the visible line.
type TextRun struct {
	Content    string
	Bold       bool
	Italic     bool
	InlineCode bool
	LinkURL    string
}

// Block is one structural unit of the document, in source order.
// Only the fields relevant to its Kind are populated.
type Block struct {
	Kind Kind

	// Heading depth 1..9 (KindHeading).
	Level int

	// Styled text (paragraph, heading, quote, bullet, ordered).
	Runs []TextRun

	// Verbatim code and its language tag (KindCode).
	Code     string
	Language string

	// Image source reference (KindImage). Remote is true for http(s) URLs;
	// local references are resolved against the source file's directory at
	// write time, not here.
	ImageSource string
	ImageRemote bool

	// Row-major cell grid (KindTable). Rows may have differing widths;
	// writers treat missing cells as empty.
	Table [][]string
}

// PendingImage records an image block that needs upload handling after the
// ordinary blocks around it have been written. Index is the block's position
// in Document.Blocks and is the correlation key for reinsertion.
type PendingImage struct {
	Index  int
	Source string
	Remote bool
}

// PendingTable records a table block that needs container creation and cell
// population after the ordinary blocks around it have been written.
type PendingTable struct {
	Index int
	Grid  [][]string
}

// Document is the result of parsing one Markdown source.
type Document struct {
	Blocks        []Block
	PendingImages []PendingImage
	PendingTables []PendingTable
}

// Dimensions returns the row and column counts of a grid. The column count
// is the maximum cell count across rows.
func Dimensions(grid [][]string) (rows, cols int) {
	rows = len(grid)
	for _, r := range grid {
		if len(r) > cols {
			cols = len(r)
		}
	}
	return rows, cols
}
