package lark

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/varga/larkpub/internal/markdown"
)

// appendBatchSize is the vendor's per-request cap on children.
const appendBatchSize = 50

// listPageSize is the drive listing page size.
const listPageSize = 200

// CreateDocument creates an empty docx document, optionally inside a
// folder, and returns its id. The document id doubles as the root block id.
func (c *Client) CreateDocument(ctx context.Context, title, folderToken string) (docID, rootBlockID string, err error) {
	body := map[string]any{"title": title}
	if folderToken != "" {
		body["folder_token"] = folderToken
	}

	var data struct {
		Document struct {
			DocumentID string `json:"document_id"`
		} `json:"document"`
	}
	if err := c.do(ctx, http.MethodPost, "/docx/v1/documents", nil, body, &data); err != nil {
		return "", "", fmt.Errorf("lark: create document: %w", err)
	}
	return data.Document.DocumentID, data.Document.DocumentID, nil
}

// DocumentRootBlockID fetches the root block id of an existing document.
func (c *Client) DocumentRootBlockID(ctx context.Context, docID string) (string, error) {
	var data struct {
		Document struct {
			DocumentID string `json:"document_id"`
		} `json:"document"`
	}
	if err := c.do(ctx, http.MethodGet, "/docx/v1/documents/"+docID, nil, nil, &data); err != nil {
		return "", fmt.Errorf("lark: get document: %w", err)
	}
	return data.Document.DocumentID, nil
}

// AppendBlocks appends blocks as children of parentBlockID, splitting into
// requests of at most 50. A failed chunk aborts the remaining chunks but
// does not roll back chunks already applied; callers must tolerate partial
// application.
func (c *Client) AppendBlocks(ctx context.Context, docID, parentBlockID string, blocks []markdown.Block) error {
	if len(blocks) == 0 {
		return nil
	}

	children := make([]map[string]any, 0, len(blocks))
	for _, b := range blocks {
		wb, err := wireBlock(b)
		if err != nil {
			return err
		}
		children = append(children, wb)
	}

	path := fmt.Sprintf("/docx/v1/documents/%s/blocks/%s/children", docID, parentBlockID)
	for start := 0; start < len(children); start += appendBatchSize {
		end := start + appendBatchSize
		if end > len(children) {
			end = len(children)
		}
		body := map[string]any{"children": children[start:end]}
		if err := c.do(ctx, http.MethodPost, path, nil, body, nil); err != nil {
			return fmt.Errorf("lark: append blocks %d..%d: %w", start, end, err)
		}
	}
	return nil
}

// FileInfo describes one entry in a drive folder listing.
type FileInfo struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Type  string `json:"type"`
	URL   string `json:"url"`
}

// ListFolderFiles lists the files under a drive folder. API-level failures
// yield an empty result, not an error.
func (c *Client) ListFolderFiles(ctx context.Context, folderToken string) []FileInfo {
	q := url.Values{
		"folder_token": {folderToken},
		"page_size":    {strconv.Itoa(listPageSize)},
	}
	var data struct {
		Files []FileInfo `json:"files"`
	}
	if err := c.do(ctx, http.MethodGet, "/drive/v1/files", q, nil, &data); err != nil {
		c.logger.Warn("lark: list folder failed",
			slog.String("folder", folderToken),
			slog.String("error", err.Error()))
		return nil
	}
	return data.Files
}

// DeleteDocumentContent removes every child block of a document except its
// root, for update-in-place. Individual delete failures are best-effort and
// not surfaced.
func (c *Client) DeleteDocumentContent(ctx context.Context, docID string) error {
	var data struct {
		Items []struct {
			BlockID string `json:"block_id"`
		} `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/docx/v1/documents/"+docID+"/blocks", nil, nil, &data); err != nil {
		return fmt.Errorf("lark: list blocks: %w", err)
	}

	for _, item := range data.Items {
		if item.BlockID == "" || item.BlockID == docID {
			continue
		}
		path := fmt.Sprintf("/docx/v1/documents/%s/blocks/%s", docID, item.BlockID)
		if err := c.do(ctx, http.MethodDelete, path, nil, nil, nil); err != nil {
			c.logger.Warn("lark: delete block failed",
				slog.String("block", item.BlockID),
				slog.String("error", err.Error()))
		}
	}
	return nil
}
