package publisher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/varga/larkpub/internal/apperr"
	"github.com/varga/larkpub/internal/lark"
	"github.com/varga/larkpub/internal/ledger"
	"github.com/varga/larkpub/internal/markdown"
	"github.com/varga/larkpub/internal/testutil"
)

// fakeClient records the remote calls in order so tests can assert the
// interleaving.
type fakeClient struct {
	calls []string

	files           []lark.FileInfo
	failCreate      bool
	failPlaceholder bool
	failUpload      bool
	seq             int
}

func (f *fakeClient) CreateDocument(_ context.Context, title, folderToken string) (string, string, error) {
	f.calls = append(f.calls, "create_document")
	if f.failCreate {
		return "", "", errors.New("boom")
	}
	return "doc1", "doc1", nil
}

func (f *fakeClient) CreateWikiDocument(_ context.Context, title, spaceID, parent string) (string, string, error) {
	f.calls = append(f.calls, "create_wiki:"+spaceID)
	return "obj1", "node1", nil
}

func (f *fakeClient) WikiSpaceID(context.Context, string) string {
	f.calls = append(f.calls, "resolve_space")
	return "sp1"
}

func (f *fakeClient) AppendBlocks(_ context.Context, docID, parent string, blocks []markdown.Block) error {
	f.calls = append(f.calls, fmt.Sprintf("append:%d", len(blocks)))
	return nil
}

func (f *fakeClient) ListFolderFiles(context.Context, string) []lark.FileInfo {
	f.calls = append(f.calls, "list_folder")
	return f.files
}

func (f *fakeClient) DeleteDocumentContent(_ context.Context, docID string) error {
	f.calls = append(f.calls, "delete_content:"+docID)
	return nil
}

func (f *fakeClient) CreateImagePlaceholder(_ context.Context, docID, parent string) (string, error) {
	f.calls = append(f.calls, "image_placeholder")
	if f.failPlaceholder {
		return "", errors.New("boom")
	}
	f.seq++
	return fmt.Sprintf("img%d", f.seq), nil
}

func (f *fakeClient) BindImageToken(_ context.Context, docID, blockID, token string) error {
	f.calls = append(f.calls, "bind:"+blockID+":"+token)
	return nil
}

func (f *fakeClient) CreateTable(_ context.Context, docID, parent string, rows, cols int) (string, error) {
	f.calls = append(f.calls, fmt.Sprintf("create_table:%dx%d", rows, cols))
	return "tbl1", nil
}

func (f *fakeClient) FillTable(_ context.Context, docID, tableID string, grid [][]string) error {
	f.calls = append(f.calls, "fill_table:"+tableID)
	return nil
}

func (f *fakeClient) UploadMedia(_ context.Context, path, parent string) (string, error) {
	f.calls = append(f.calls, "upload:"+filepath.Base(path))
	if f.failUpload {
		return "", errors.New("boom")
	}
	return "ft1", nil
}

// fakeResolver returns the reference unchanged, or an error for references
// listed in missing.
type fakeResolver struct {
	missing map[string]bool
}

func (r *fakeResolver) Resolve(_ context.Context, ref, baseDir string) (string, error) {
	if r.missing[ref] {
		return "", errors.New("no such image")
	}
	return ref, nil
}

func writeSource(t *testing.T, content string) string {
	t.Helper()
	return testutil.TestMarkdown(t, "note.md", content)
}

func TestPublish_InterleavedOrder(t *testing.T) {
	src := writeSource(t, "one\ntwo\n![a](pic.png)\nthree\n| h | i |\n| 1 | 2 |\nfour\nfive\n")
	client := &fakeClient{}
	p := New(client, &fakeResolver{}, nil, nil)

	res, err := p.Publish(context.Background(), Request{Path: src})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.DocumentID != "doc1" || res.UploadedImages != 1 {
		t.Errorf("result = %+v", res)
	}

	want := []string{
		"create_document",
		"append:2", // one, two
		"image_placeholder",
		"upload:pic.png",
		"bind:img1:ft1",
		"append:1", // three
		"create_table:2x2",
		"fill_table:tbl1",
		"append:2", // four, five
	}
	if len(client.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", client.calls, want)
	}
	for i := range want {
		if client.calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, client.calls[i], want[i])
		}
	}
}

func TestPublish_DuplicateOutcome(t *testing.T) {
	src := writeSource(t, "hello\n")
	client := &fakeClient{files: []lark.FileInfo{{Token: "tok9", Name: "note"}}}
	p := New(client, &fakeResolver{}, nil, nil)

	_, err := p.Publish(context.Background(), Request{
		Path:           src,
		Target:         TargetFolder,
		FolderToken:    "fld1",
		CheckDuplicate: true,
	})
	if !errors.Is(err, apperr.ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	var dup *DuplicateError
	if !errors.As(err, &dup) || dup.Token != "tok9" {
		t.Errorf("dup = %+v", dup)
	}
	for _, call := range client.calls {
		if call == "create_document" {
			t.Error("document created despite duplicate")
		}
	}
}

func TestPublish_NoDuplicateCheckWithoutFolder(t *testing.T) {
	src := writeSource(t, "hello\n")
	client := &fakeClient{files: []lark.FileInfo{{Token: "tok9", Name: "note"}}}
	p := New(client, &fakeResolver{}, nil, nil)

	if _, err := p.Publish(context.Background(), Request{Path: src, CheckDuplicate: true}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	for _, call := range client.calls {
		if call == "list_folder" {
			t.Error("folder listed without a folder token")
		}
	}
}

func TestPublish_WikiResolvesSpaceFromNode(t *testing.T) {
	src := writeSource(t, "hello\n")
	client := &fakeClient{}
	p := New(client, &fakeResolver{}, nil, nil)

	res, err := p.Publish(context.Background(), Request{
		Path:          src,
		Target:        TargetWiki,
		WikiNodeToken: "node7",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.NodeToken != "node1" {
		t.Errorf("node token = %q", res.NodeToken)
	}
	if client.calls[0] != "resolve_space" || client.calls[1] != "create_wiki:sp1" {
		t.Errorf("calls = %v", client.calls)
	}
}

func TestPublish_WikiWithoutSpaceFails(t *testing.T) {
	src := writeSource(t, "hello\n")
	p := New(&fakeClient{}, &fakeResolver{}, nil, nil)

	if _, err := p.Publish(context.Background(), Request{Path: src, Target: TargetWiki}); err == nil {
		t.Fatal("expected error when wiki target has no space or node")
	}
}

func TestPublish_CreateFailureAborts(t *testing.T) {
	src := writeSource(t, "hello\n")
	client := &fakeClient{failCreate: true}
	p := New(client, &fakeResolver{}, nil, nil)

	if _, err := p.Publish(context.Background(), Request{Path: src}); err == nil {
		t.Fatal("expected error when document creation fails")
	}
	for _, call := range client.calls {
		if call == "append:1" {
			t.Error("content written without a document")
		}
	}
}

func TestPublish_ImageFailureSkipsButContinues(t *testing.T) {
	src := writeSource(t, "before\n![a](gone.png)\nafter\n")
	client := &fakeClient{}
	p := New(client, &fakeResolver{missing: map[string]bool{"gone.png": true}}, nil, nil)

	res, err := p.Publish(context.Background(), Request{Path: src})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.UploadedImages != 0 {
		t.Errorf("uploaded = %d, want 0", res.UploadedImages)
	}

	// The trailing paragraph must still be appended after the failed image.
	last := client.calls[len(client.calls)-1]
	if last != "append:1" {
		t.Errorf("calls = %v, want trailing append", client.calls)
	}
}

func TestPublish_DegenerateTableSkipped(t *testing.T) {
	src := writeSource(t, "para\n")
	client := &fakeClient{}
	p := New(client, &fakeResolver{}, nil, nil)

	// Degenerate grids can't come out of the parser, so drive writeBlocks
	// directly.
	doc := &markdown.Document{
		Blocks:        []markdown.Block{{Kind: markdown.KindTable}},
		PendingTables: []markdown.PendingTable{{Index: 0, Grid: nil}},
	}
	p.writeBlocks(context.Background(), "doc1", filepath.Dir(src), doc)

	for _, call := range client.calls {
		if call == "create_table:0x0" {
			t.Errorf("degenerate table created: %v", client.calls)
		}
	}
}

func TestUpdate_DeletesThenWrites(t *testing.T) {
	src := writeSource(t, "fresh\n")
	client := &fakeClient{}
	p := New(client, &fakeResolver{}, nil, nil)

	res, err := p.Update(context.Background(), "docX", src)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.DocumentID != "docX" {
		t.Errorf("doc id = %q", res.DocumentID)
	}

	want := []string{"delete_content:docX", "append:1"}
	if len(client.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", client.calls, want)
	}
	for i := range want {
		if client.calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, client.calls[i], want[i])
		}
	}
}

func TestUpdate_DocIDFromLedger(t *testing.T) {
	src := writeSource(t, "fresh\n")
	db := testutil.TestLedger(t)
	if err := db.Record(ledger.Publication{Path: src, DocumentID: "docL"}); err != nil {
		t.Fatal(err)
	}

	client := &fakeClient{}
	p := New(client, &fakeResolver{}, db, nil)

	res, err := p.Update(context.Background(), "", src)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if res.DocumentID != "docL" {
		t.Errorf("doc id = %q, want docL", res.DocumentID)
	}
}

func TestUpdate_NoLedgerEntry(t *testing.T) {
	src := writeSource(t, "fresh\n")
	p := New(&fakeClient{}, &fakeResolver{}, testutil.TestLedger(t), nil)

	if _, err := p.Update(context.Background(), "", src); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPublish_RecordsLedger(t *testing.T) {
	src := writeSource(t, "hello\n")
	db := testutil.TestLedger(t)
	p := New(&fakeClient{}, &fakeResolver{}, db, nil)

	if _, err := p.Publish(context.Background(), Request{Path: src, Target: TargetFolder, FolderToken: "f1"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	pub, err := db.Get(src)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if pub.DocumentID != "doc1" || pub.Target != "folder" || pub.Checksum == "" {
		t.Errorf("pub = %+v", pub)
	}
}
