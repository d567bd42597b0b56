package lark

import (
	"context"
	"fmt"
	"net/http"
)

// CreateImagePlaceholder creates an empty image block under parentBlockID
// and returns its block id. The placeholder is later bound to an uploaded
// asset; the upload requires a known block identity first, hence the two
// phases.
func (c *Client) CreateImagePlaceholder(ctx context.Context, docID, parentBlockID string) (string, error) {
	body := map[string]any{
		"children": []map[string]any{
			{
				"block_type": blockTypeImage,
				"image":      map[string]any{},
			},
		},
	}

	var data struct {
		Children []struct {
			BlockID string `json:"block_id"`
		} `json:"children"`
	}
	path := fmt.Sprintf("/docx/v1/documents/%s/blocks/%s/children", docID, parentBlockID)
	if err := c.do(ctx, http.MethodPost, path, nil, body, &data); err != nil {
		return "", fmt.Errorf("lark: create image placeholder: %w", err)
	}
	if len(data.Children) == 0 {
		return "", fmt.Errorf("lark: create image placeholder: empty children in response")
	}
	return data.Children[0].BlockID, nil
}

// BindImageToken attaches an uploaded asset token to an image placeholder.
func (c *Client) BindImageToken(ctx context.Context, docID, blockID, fileToken string) error {
	body := map[string]any{
		"replace_image": map[string]any{"token": fileToken},
	}
	path := fmt.Sprintf("/docx/v1/documents/%s/blocks/%s", docID, blockID)
	if err := c.do(ctx, http.MethodPatch, path, nil, body, nil); err != nil {
		return fmt.Errorf("lark: bind image token: %w", err)
	}
	return nil
}
