package lark

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CreateWikiDocument creates a docx node directly inside a wiki space and
// returns the object token (used for writing content) and the node token
// (used for access links).
func (c *Client) CreateWikiDocument(ctx context.Context, title, spaceID, parentNodeToken string) (objToken, nodeToken string, err error) {
	body := map[string]any{
		"obj_type":  "docx",
		"node_type": "origin",
		"title":     title,
	}
	if parentNodeToken != "" {
		body["parent_node_token"] = parentNodeToken
	}

	var data struct {
		Node struct {
			ObjToken  string `json:"obj_token"`
			NodeToken string `json:"node_token"`
		} `json:"node"`
	}
	path := fmt.Sprintf("/wiki/v2/spaces/%s/nodes", spaceID)
	if err := c.do(ctx, http.MethodPost, path, nil, body, &data); err != nil {
		return "", "", fmt.Errorf("lark: create wiki document: %w", err)
	}
	return data.Node.ObjToken, data.Node.NodeToken, nil
}

// WikiSpaceID resolves a wiki node token to the id of its owning space.
// Returns empty on any failure.
func (c *Client) WikiSpaceID(ctx context.Context, nodeToken string) string {
	q := url.Values{"token": {nodeToken}}
	var data struct {
		Node struct {
			SpaceID string `json:"space_id"`
		} `json:"node"`
	}
	if err := c.do(ctx, http.MethodGet, "/wiki/v2/spaces/get_node", q, nil, &data); err != nil {
		return ""
	}
	return data.Node.SpaceID
}
