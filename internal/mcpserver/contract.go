package mcpserver

// MarkdownContract describes the subset of Markdown that survives the trip
// into a Feishu document, for LLM consumers producing files to publish.
const MarkdownContract = `# larkpub Markdown Contract

Markdown published through larkpub is converted block by block into Feishu
document blocks. Stay within the constructs below; anything else is written
as a plain paragraph.

## Supported blocks

- Headings: ` + "`#`" + ` through ` + "`#########`" + ` (depth is capped at 9).
- Paragraphs: any other non-blank line. Blank lines are dropped.
- Quotes: consecutive ` + "`>`" + ` lines are merged into one quote block.
- Lists: ` + "`- item`" + ` / ` + "`* item`" + ` / ` + "`+ item`" + ` and ` + "`1. item`" + `.
  Every item becomes its own block; nesting is not supported.
- Dividers: a line of three or more ` + "`-`" + `, ` + "`*`" + `, or ` + "`_`" + `.
- Fenced code: ` + "```` ``` ````" + ` with an optional language tag
  (defaults to plain text). An unclosed fence runs to the end of the file.
- Tables: ` + "`|`" + `-delimited rows. The alignment row is dropped; ragged
  rows are padded with empty cells.
- Images: ` + "`![alt](reference)`" + `. http(s) references are downloaded
  and re-uploaded; other references are resolved relative to the source
  file's directory.

## Inline styles

` + "`**bold**`" + `, ` + "`__bold__`" + `, ` + "`*italic*`" + `, ` + "`_italic_`" + `,
` + "``` `code` ```" + `, and ` + "`[text](url)`" + ` links. Styles do not nest;
a span carries exactly one style.

## Rules

1. The file's base name (without extension) becomes the document title.
2. Publishing into a folder with ` + "`check_duplicate`" + ` refuses to create
   a second document with the same title.
3. Local image paths must exist relative to the Markdown file.
`
