// Package publisher drives the publish and update flows: parse the source,
// create or locate the remote document, then write the block sequence while
// interleaving image uploads and table fills in document order.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/varga/larkpub/internal/apperr"
	"github.com/varga/larkpub/internal/checksum"
	"github.com/varga/larkpub/internal/lark"
	"github.com/varga/larkpub/internal/ledger"
	"github.com/varga/larkpub/internal/markdown"
)

// Target selects where a new document is created.
type Target string

const (
	TargetSpace  Target = "space"
	TargetFolder Target = "folder"
	TargetWiki   Target = "wiki"
)

// DocAPI is the subset of the remote client the publisher drives. Defined
// here so tests can substitute a fake.
type DocAPI interface {
	CreateDocument(ctx context.Context, title, folderToken string) (string, string, error)
	CreateWikiDocument(ctx context.Context, title, spaceID, parentNodeToken string) (string, string, error)
	WikiSpaceID(ctx context.Context, nodeToken string) string
	AppendBlocks(ctx context.Context, docID, parentBlockID string, blocks []markdown.Block) error
	ListFolderFiles(ctx context.Context, folderToken string) []lark.FileInfo
	DeleteDocumentContent(ctx context.Context, docID string) error
	CreateImagePlaceholder(ctx context.Context, docID, parentBlockID string) (string, error)
	BindImageToken(ctx context.Context, docID, blockID, fileToken string) error
	CreateTable(ctx context.Context, docID, parentBlockID string, rows, cols int) (string, error)
	FillTable(ctx context.Context, docID, tableBlockID string, grid [][]string) error
	UploadMedia(ctx context.Context, path, parentBlockID string) (string, error)
}

// Verify the real client satisfies DocAPI at compile time.
var _ DocAPI = (*lark.Client)(nil)

// AssetResolver resolves an image reference to a local file path.
type AssetResolver interface {
	Resolve(ctx context.Context, ref, baseDir string) (string, error)
}

// Request describes one publish operation.
type Request struct {
	// Path to the Markdown source file. Its base name (minus extension)
	// becomes the document title.
	Path string

	Target      Target
	FolderToken string

	// Wiki target settings. When WikiSpaceID is empty it is resolved from
	// WikiNodeToken.
	WikiSpaceID   string
	WikiNodeToken string

	// CheckDuplicate skips creation when the folder already holds a file
	// with the same name. Only applies when FolderToken is set.
	CheckDuplicate bool
}

// Result carries the identifiers produced by a publish or update.
type Result struct {
	DocumentID     string
	NodeToken      string
	Title          string
	UploadedImages int
}

// DuplicateError reports that a document with the same title already exists
// in the target folder. It matches apperr.ErrDuplicate via errors.Is.
type DuplicateError struct {
	Token string
	Title string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("publisher: document %q already exists (token %s)", e.Title, e.Token)
}

// Is reports apperr.ErrDuplicate as a match.
func (e *DuplicateError) Is(target error) bool { return target == apperr.ErrDuplicate }

// Publisher orchestrates the publish and update flows.
type Publisher struct {
	client   DocAPI
	resolver AssetResolver
	store    ledger.Store // optional; nil disables the ledger
	logger   *slog.Logger
}

// New creates a Publisher. store may be nil when no ledger is wanted.
func New(client DocAPI, resolver AssetResolver, store ledger.Store, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{client: client, resolver: resolver, store: store, logger: logger}
}

// Publish parses the source file and creates a new remote document at the
// requested target. Failing to create the document (or resolve the wiki
// space) aborts; content-level failures afterwards are best-effort.
func (p *Publisher) Publish(ctx context.Context, req Request) (*Result, error) {
	data, err := os.ReadFile(req.Path)
	if err != nil {
		return nil, fmt.Errorf("publisher: read source: %w", err)
	}
	title := titleOf(req.Path)
	doc := markdown.Parse(string(data))

	if req.CheckDuplicate && req.FolderToken != "" {
		for _, f := range p.client.ListFolderFiles(ctx, req.FolderToken) {
			if f.Name == title {
				return nil, &DuplicateError{Token: f.Token, Title: title}
			}
		}
	}

	var docID, nodeToken string
	switch req.Target {
	case TargetWiki:
		spaceID := req.WikiSpaceID
		if spaceID == "" && req.WikiNodeToken != "" {
			spaceID = p.client.WikiSpaceID(ctx, req.WikiNodeToken)
		}
		if spaceID == "" {
			return nil, fmt.Errorf("publisher: wiki target needs a space id or node token")
		}
		docID, nodeToken, err = p.client.CreateWikiDocument(ctx, title, spaceID, req.WikiNodeToken)
	case TargetFolder:
		docID, _, err = p.client.CreateDocument(ctx, title, req.FolderToken)
	default:
		docID, _, err = p.client.CreateDocument(ctx, title, "")
	}
	if err != nil {
		return nil, fmt.Errorf("publisher: create document: %w", err)
	}

	uploaded := p.writeBlocks(ctx, docID, filepath.Dir(req.Path), doc)

	p.record(req, title, docID, nodeToken, data)

	return &Result{
		DocumentID:     docID,
		NodeToken:      nodeToken,
		Title:          title,
		UploadedImages: uploaded,
	}, nil
}

// Update overwrites the content of an existing document. When docID is
// empty the ledger supplies it from an earlier publish of the same path.
func (p *Publisher) Update(ctx context.Context, docID, path string) (*Result, error) {
	if docID == "" {
		if p.store == nil {
			return nil, fmt.Errorf("publisher: update needs a document id")
		}
		pub, err := p.store.Get(path)
		if err != nil {
			return nil, fmt.Errorf("publisher: no ledger entry for %s: %w", path, err)
		}
		docID = pub.DocumentID
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("publisher: read source: %w", err)
	}
	doc := markdown.Parse(string(data))

	if err := p.client.DeleteDocumentContent(ctx, docID); err != nil {
		p.logger.Warn("publisher: clear existing content failed",
			slog.String("document", docID),
			slog.String("error", err.Error()))
	}

	uploaded := p.writeBlocks(ctx, docID, filepath.Dir(path), doc)

	title := titleOf(path)
	p.refresh(path, title, docID, data)

	return &Result{DocumentID: docID, Title: title, UploadedImages: uploaded}, nil
}

// writeBlocks walks the block sequence in order, batching ordinary blocks
// and flushing the batch whenever an image or table needs its own calls.
// Returns the number of images uploaded. All failures here are best-effort:
// logged, skipped, never aborting the document.
func (p *Publisher) writeBlocks(ctx context.Context, docID, baseDir string, doc *markdown.Document) int {
	images := make(map[int]markdown.PendingImage, len(doc.PendingImages))
	for _, img := range doc.PendingImages {
		images[img.Index] = img
	}
	tables := make(map[int]markdown.PendingTable, len(doc.PendingTables))
	for _, tbl := range doc.PendingTables {
		tables[tbl.Index] = tbl
	}

	uploaded := 0
	var batch []markdown.Block

	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := p.client.AppendBlocks(ctx, docID, docID, batch); err != nil {
			p.logger.Warn("publisher: append batch failed",
				slog.Int("blocks", len(batch)),
				slog.String("error", err.Error()))
		}
		batch = nil
	}

	for i, block := range doc.Blocks {
		if img, ok := images[i]; ok {
			flush()
			uploaded += p.writeImage(ctx, docID, baseDir, img)
			continue
		}
		if tbl, ok := tables[i]; ok {
			flush()
			p.writeTable(ctx, docID, tbl)
			continue
		}
		batch = append(batch, block)
	}
	flush()

	return uploaded
}

// writeImage runs the three-phase image insertion: placeholder, upload,
// bind. Returns 1 on success, 0 when any step was skipped.
func (p *Publisher) writeImage(ctx context.Context, docID, baseDir string, img markdown.PendingImage) int {
	blockID, err := p.client.CreateImagePlaceholder(ctx, docID, docID)
	if err != nil {
		p.logger.Warn("publisher: create image placeholder failed",
			slog.String("source", img.Source),
			slog.String("error", err.Error()))
		return 0
	}

	local, err := p.resolver.Resolve(ctx, img.Source, baseDir)
	if err != nil {
		p.logger.Warn("publisher: resolve image failed",
			slog.String("source", img.Source),
			slog.String("error", err.Error()))
		return 0
	}

	fileToken, err := p.client.UploadMedia(ctx, local, blockID)
	if err != nil {
		p.logger.Warn("publisher: upload image failed",
			slog.String("source", img.Source),
			slog.String("error", err.Error()))
		return 0
	}

	if err := p.client.BindImageToken(ctx, docID, blockID, fileToken); err != nil {
		p.logger.Warn("publisher: bind image token failed",
			slog.String("source", img.Source),
			slog.String("error", err.Error()))
		return 0
	}

	p.logger.Info("publisher: image uploaded", slog.String("source", img.Source))
	return 1
}

func (p *Publisher) writeTable(ctx context.Context, docID string, tbl markdown.PendingTable) {
	rows, cols := markdown.Dimensions(tbl.Grid)
	if rows == 0 || cols == 0 {
		p.logger.Warn("publisher: skipping degenerate table",
			slog.Int("rows", rows), slog.Int("cols", cols))
		return
	}

	tableID, err := p.client.CreateTable(ctx, docID, docID, rows, cols)
	if err != nil {
		p.logger.Warn("publisher: create table failed", slog.String("error", err.Error()))
		return
	}
	if err := p.client.FillTable(ctx, docID, tableID, tbl.Grid); err != nil {
		p.logger.Warn("publisher: fill table failed",
			slog.String("table", tableID),
			slog.String("error", err.Error()))
	}
}

// record stores a fresh publication in the ledger.
func (p *Publisher) record(req Request, title, docID, nodeToken string, data []byte) {
	if p.store == nil {
		return
	}
	target := req.Target
	if target == "" {
		target = TargetSpace
	}
	err := p.store.Record(ledger.Publication{
		Path:       req.Path,
		Title:      title,
		DocumentID: docID,
		NodeToken:  nodeToken,
		Target:     string(target),
		Checksum:   checksum.Sum(data),
	})
	if err != nil {
		p.logger.Warn("publisher: ledger record failed", slog.String("error", err.Error()))
	}
}

// refresh updates the ledger row after an update, preserving the original
// target and node token when the path was published before.
func (p *Publisher) refresh(path, title, docID string, data []byte) {
	if p.store == nil {
		return
	}
	pub := ledger.Publication{
		Path:       path,
		Title:      title,
		DocumentID: docID,
		Target:     string(TargetSpace),
		Checksum:   checksum.Sum(data),
	}
	if prev, err := p.store.Get(path); err == nil {
		pub.Target = prev.Target
		pub.NodeToken = prev.NodeToken
	}
	if err := p.store.Record(pub); err != nil {
		p.logger.Warn("publisher: ledger refresh failed", slog.String("error", err.Error()))
	}
}

// titleOf returns the file's base name without extension.
func titleOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
