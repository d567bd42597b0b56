// Package mcpserver provides an MCP (Model Context Protocol) server that
// exposes larkpub's publish operations for LLM integration via stdio
// transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/varga/larkpub/internal/ledger"
	"github.com/varga/larkpub/internal/publisher"
)

// Publishing is the slice of the publisher the tools need; tests substitute
// a fake.
type Publishing interface {
	Publish(ctx context.Context, req publisher.Request) (*publisher.Result, error)
	Update(ctx context.Context, docID, path string) (*publisher.Result, error)
}

// Defaults are the configured target defaults applied when a tool call
// omits them.
type Defaults struct {
	FolderToken   string
	WikiSpaceID   string
	WikiNodeToken string
}

// Server wraps the MCP server with larkpub tools.
type Server struct {
	mcp      *server.MCPServer
	pub      Publishing
	store    ledger.Store
	defaults Defaults
}

// New creates an MCP server with all larkpub tools registered.
func New(pub Publishing, store ledger.Store, defaults Defaults) *Server {
	s := &Server{pub: pub, store: store, defaults: defaults}

	s.mcp = server.NewMCPServer(
		"larkpub",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("publish_markdown",
		mcp.WithDescription("Publish a local Markdown file as a new Feishu document. "+
			"Content should follow the larkpub Markdown contract; read it first via "+
			"the get_markdown_contract tool or the larkpub://markdown-contract resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the Markdown file")),
		mcp.WithString("target", mcp.Description("Destination: space (default), folder, or wiki")),
		mcp.WithString("folder_token", mcp.Description("Folder token (target=folder); falls back to the configured default")),
		mcp.WithString("wiki_node_token", mcp.Description("Wiki parent node token (target=wiki); falls back to the configured default")),
		mcp.WithBoolean("check_duplicate", mcp.Description("Skip creation when the folder already holds a document with the same title (default true)")),
	), s.publishMarkdown)

	s.mcp.AddTool(mcp.NewTool("update_document",
		mcp.WithDescription("Overwrite an existing Feishu document with a Markdown file's content."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the Markdown file")),
		mcp.WithString("document_id", mcp.Description("Document id; when omitted, the publication ledger entry for the path supplies it")),
	), s.updateDocument)

	s.mcp.AddTool(mcp.NewTool("list_publications",
		mcp.WithDescription("List documents previously published from this machine."),
	), s.listPublications)

	s.mcp.AddTool(mcp.NewTool("get_markdown_contract",
		mcp.WithDescription("Returns the larkpub Markdown contract. Call this before "+
			"writing Markdown meant for publishing."),
	), s.getMarkdownContract)

	s.mcp.AddResource(
		mcp.NewResource("larkpub://markdown-contract", "Markdown Contract",
			mcp.WithResourceDescription("The subset of Markdown that survives conversion into Feishu blocks."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type publishOutcome struct {
	DocumentID     string `json:"document_id,omitempty"`
	NodeToken      string `json:"node_token,omitempty"`
	Title          string `json:"title,omitempty"`
	UploadedImages int    `json:"uploaded_images"`
	Duplicate      bool   `json:"duplicate,omitempty"`
	ExistingToken  string `json:"existing_token,omitempty"`
}

func (s *Server) publishMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	target := publisher.Target(req.GetString("target", string(publisher.TargetSpace)))
	switch target {
	case publisher.TargetSpace, publisher.TargetFolder, publisher.TargetWiki:
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown target: %s", target)), nil
	}

	folderToken := req.GetString("folder_token", s.defaults.FolderToken)
	wikiNode := req.GetString("wiki_node_token", s.defaults.WikiNodeToken)

	res, err := s.pub.Publish(ctx, publisher.Request{
		Path:           path,
		Target:         target,
		FolderToken:    folderToken,
		WikiSpaceID:    s.defaults.WikiSpaceID,
		WikiNodeToken:  wikiNode,
		CheckDuplicate: req.GetBool("check_duplicate", true),
	})

	var dup *publisher.DuplicateError
	if errors.As(err, &dup) {
		out, _ := json.Marshal(publishOutcome{Duplicate: true, Title: dup.Title, ExistingToken: dup.Token})
		return mcp.NewToolResultText(string(out)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.Marshal(publishOutcome{
		DocumentID:     res.DocumentID,
		NodeToken:      res.NodeToken,
		Title:          res.Title,
		UploadedImages: res.UploadedImages,
	})
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) updateDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	docID := req.GetString("document_id", "")

	res, err := s.pub.Update(ctx, docID, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, _ := json.Marshal(publishOutcome{
		DocumentID:     res.DocumentID,
		Title:          res.Title,
		UploadedImages: res.UploadedImages,
	})
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) listPublications(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pubs, err := s.store.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(pubs) == 0 {
		return mcp.NewToolResultText("no publications recorded"), nil
	}
	out, _ := json.MarshalIndent(pubs, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getMarkdownContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(MarkdownContract), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "larkpub://markdown-contract",
			MIMEType: "text/markdown",
			Text:     MarkdownContract,
		},
	}, nil
}
