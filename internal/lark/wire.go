package lark

import (
	"fmt"
	"strings"

	"github.com/varga/larkpub/internal/markdown"
)

// Vendor block-type codes. Kept here so the parser stays free of wire
// details; heading depth n maps to blockTypeHeadingBase+n.
const (
	blockTypeText        = 2
	blockTypeHeadingBase = 2 // heading1 = 3 ... heading9 = 11
	blockTypeBullet      = 12
	blockTypeOrdered     = 13
	blockTypeCode        = 14
	blockTypeQuote       = 15
	blockTypeDivider     = 22
	blockTypeImage       = 27
	blockTypeTable       = 31
)

// languagePlainText is the vendor code used when a code block's language is
// unknown.
const languagePlainText = 47

// languageCodes maps fence language tags to vendor numeric codes.
var languageCodes = map[string]int{
	"python":     49,
	"javascript": 22,
	"js":         22,
	"typescript": 67,
	"ts":         67,
	"java":       21,
	"go":         18,
	"c":          7,
	"cpp":        9,
	"c++":        9,
	"csharp":     10,
	"c#":         10,
	"ruby":       54,
	"php":        46,
	"swift":      64,
	"kotlin":     27,
	"rust":       55,
	"sql":        61,
	"shell":      58,
	"bash":       58,
	"json":       23,
	"xml":        73,
	"html":       20,
	"css":        11,
	"yaml":       74,
	"markdown":   35,
	"plain_text": 47,
}

type textElement struct {
	TextRun *textRun `json:"text_run,omitempty"`
}

type textRun struct {
	Content string     `json:"content"`
	Style   *textStyle `json:"text_element_style,omitempty"`
}

type textStyle struct {
	Bold       bool      `json:"bold,omitempty"`
	Italic     bool      `json:"italic,omitempty"`
	InlineCode bool      `json:"inline_code,omitempty"`
	Link       *textLink `json:"link,omitempty"`
}

type textLink struct {
	URL string `json:"url"`
}

// wireElements converts parsed runs into vendor text elements.
func wireElements(runs []markdown.TextRun) []textElement {
	els := make([]textElement, 0, len(runs))
	for _, r := range runs {
		tr := &textRun{Content: r.Content}
		switch {
		case r.Bold:
			tr.Style = &textStyle{Bold: true}
		case r.Italic:
			tr.Style = &textStyle{Italic: true}
		case r.InlineCode:
			tr.Style = &textStyle{InlineCode: true}
		case r.LinkURL != "":
			tr.Style = &textStyle{Link: &textLink{URL: r.LinkURL}}
		}
		els = append(els, textElement{TextRun: tr})
	}
	return els
}

// wireBlock converts one parsed block into the vendor's children payload
// entry. The heading body key embeds the depth ("heading3"), which forces a
// dynamic map rather than a fixed struct.
func wireBlock(b markdown.Block) (map[string]any, error) {
	switch b.Kind {
	case markdown.KindParagraph:
		return map[string]any{
			"block_type": blockTypeText,
			"text":       map[string]any{"elements": wireElements(b.Runs)},
		}, nil
	case markdown.KindHeading:
		return map[string]any{
			"block_type": blockTypeHeadingBase + b.Level,
			fmt.Sprintf("heading%d", b.Level): map[string]any{"elements": wireElements(b.Runs)},
		}, nil
	case markdown.KindQuote:
		return map[string]any{
			"block_type": blockTypeQuote,
			"quote":      map[string]any{"elements": wireElements(b.Runs)},
		}, nil
	case markdown.KindBullet:
		return map[string]any{
			"block_type": blockTypeBullet,
			"bullet":     map[string]any{"elements": wireElements(b.Runs)},
		}, nil
	case markdown.KindOrdered:
		return map[string]any{
			"block_type": blockTypeOrdered,
			"ordered":    map[string]any{"elements": wireElements(b.Runs)},
		}, nil
	case markdown.KindCode:
		return map[string]any{
			"block_type": blockTypeCode,
			"code": map[string]any{
				"elements": []textElement{{TextRun: &textRun{Content: b.Code}}},
				"language": languageCode(b.Language),
			},
		}, nil
	case markdown.KindDivider:
		return map[string]any{
			"block_type": blockTypeDivider,
			"divider":    map[string]any{},
		}, nil
	default:
		// Image and table blocks never travel through the ordinary append
		// path; they are created as placeholders by their own operations.
		return nil, fmt.Errorf("lark: block kind %s has no direct wire form", b.Kind)
	}
}

func languageCode(tag string) int {
	if code, ok := languageCodes[strings.ToLower(tag)]; ok {
		return code
	}
	return languagePlainText
}
