package lark

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

// CreateTable creates an empty table block of the given dimensions under
// parentBlockID and returns the table block id for later cell population.
func (c *Client) CreateTable(ctx context.Context, docID, parentBlockID string, rows, cols int) (string, error) {
	body := map[string]any{
		"children": []map[string]any{
			{
				"block_type": blockTypeTable,
				"table": map[string]any{
					"property": map[string]any{
						"row_size":    rows,
						"column_size": cols,
					},
				},
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
		return "", fmt.Errorf("lark: create table: %w", err)
	}
	if len(data.Children) == 0 {
		return "", fmt.Errorf("lark: create table: empty children in response")
	}
	return data.Children[0].BlockID, nil
}

// Cell identifies one table cell container.
type Cell struct {
	BlockID string `json:"block_id"`
}

// blockChildren lists the direct children of a block.
func (c *Client) blockChildren(ctx context.Context, docID, blockID string) ([]Cell, error) {
	var data struct {
		Items []Cell `json:"items"`
	}
	path := fmt.Sprintf("/docx/v1/documents/%s/blocks/%s/children", docID, blockID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Items, nil
}

// TableCells enumerates a table's cell containers in row-major order using
// the two-level layout (table -> rows -> cells). Deployments where the
// table's children are the cells themselves should use the flat enumeration
// inside FillTable instead.
func (c *Client) TableCells(ctx context.Context, docID, tableBlockID string) ([]Cell, error) {
	rows, err := c.blockChildren(ctx, docID, tableBlockID)
	if err != nil {
		return nil, fmt.Errorf("lark: list table rows: %w", err)
	}

	var cells []Cell
	for _, row := range rows {
		rowCells, err := c.blockChildren(ctx, docID, row.BlockID)
		if err != nil {
			c.logger.Warn("lark: list row cells failed",
				slog.String("row", row.BlockID),
				slog.String("error", err.Error()))
			continue
		}
		cells = append(cells, rowCells...)
	}
	return cells, nil
}

// FillTableCell writes text into a cell by appending a paragraph block.
func (c *Client) FillTableCell(ctx context.Context, docID, cellBlockID, content string) error {
	body := map[string]any{
		"children": []map[string]any{
			{
				"block_type": blockTypeText,
				"text": map[string]any{
					"elements": []textElement{{TextRun: &textRun{Content: content}}},
				},
			},
		},
	}
	path := fmt.Sprintf("/docx/v1/documents/%s/blocks/%s/children", docID, cellBlockID)
	if err := c.do(ctx, http.MethodPost, path, nil, body, nil); err != nil {
		return fmt.Errorf("lark: fill cell: %w", err)
	}
	return nil
}

// FillTable populates a freshly created table from a row-major grid. The
// remote side materializes table structure asynchronously, so a fixed settle
// pause precedes the single cell fetch. Cells beyond the table's dimensions
// and empty grid values are skipped; a failed cell is logged and the rest
// continue. A short pause between fills keeps under the rate limit.
func (c *Client) FillTable(ctx context.Context, docID, tableBlockID string, grid [][]string) error {
	sleep(ctx, c.tableSettleDelay)

	cells, err := c.blockChildren(ctx, docID, tableBlockID)
	if err != nil {
		return fmt.Errorf("lark: list table cells: %w", err)
	}

	rows := len(grid)
	cols := 0
	for _, r := range grid {
		if len(r) > cols {
			cols = len(r)
		}
	}

	for rowIdx := 0; rowIdx < rows; rowIdx++ {
		for colIdx := 0; colIdx < cols; colIdx++ {
			cellIdx := rowIdx*cols + colIdx
			if cellIdx >= len(cells) {
				return nil
			}
			if colIdx >= len(grid[rowIdx]) {
				continue
			}
			content := grid[rowIdx][colIdx]
			if content == "" {
				continue
			}
			if err := c.FillTableCell(ctx, docID, cells[cellIdx].BlockID, content); err != nil {
				c.logger.Warn("lark: fill cell failed",
					slog.Int("row", rowIdx),
					slog.Int("col", colIdx),
					slog.String("error", err.Error()))
			}
			sleep(ctx, c.cellFillDelay)
		}
	}
	return nil
}
