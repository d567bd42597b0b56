package lark

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// mediaUploadPath is the drive endpoint for whole-file media uploads.
const mediaUploadPath = "/drive/v1/medias/upload_all"

// UploadMedia uploads a local file as a docx image asset bound to the given
// parent block and returns the asset's file token. The content type is
// inferred from the filename.
func (c *Client) UploadMedia(ctx context.Context, path, parentBlockID string) (string, error) {
	if parentBlockID == "" {
		return "", fmt.Errorf("lark: upload media: parent block id is required")
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("lark: open media: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("lark: stat media: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	name := filepath.Base(path)
	fields := map[string]string{
		"file_name":   name,
		"parent_type": "docx_image",
		"parent_node": parentBlockID,
		"size":        strconv.FormatInt(info.Size(), 10),
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return "", fmt.Errorf("lark: build upload form: %w", err)
		}
	}

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	hdr.Set("Content-Type", contentType)
	part, err := w.CreatePart(hdr)
	if err != nil {
		return "", fmt.Errorf("lark: build upload form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("lark: read media: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("lark: finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+mediaUploadPath, &buf)
	if err != nil {
		return "", fmt.Errorf("lark: build upload request: %w", err)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("lark: acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("lark: upload media: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("lark: upload media: HTTP %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", fmt.Errorf("lark: decode upload response: %w", err)
	}
	if env.Code != 0 {
		return "", &APIError{Code: env.Code, Msg: env.Msg}
	}

	var data struct {
		FileToken string `json:"file_token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return "", fmt.Errorf("lark: decode upload data: %w", err)
	}
	if strings.TrimSpace(data.FileToken) == "" {
		return "", fmt.Errorf("lark: upload media: empty file token in response")
	}
	return data.FileToken, nil
}
