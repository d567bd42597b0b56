// Package internal wires configuration into the publish pipeline and hosts
// the command entry points.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/varga/larkpub/internal/assets"
	"github.com/varga/larkpub/internal/lark"
	"github.com/varga/larkpub/internal/ledger"
	"github.com/varga/larkpub/internal/mcpserver"
	"github.com/varga/larkpub/internal/publisher"
)

// App holds the wired services behind the CLI commands.
type App struct {
	cfg    *Config
	logger *slog.Logger
	client publisher.DocAPI
	db     *ledger.DB
	pub    *publisher.Publisher
}

// NewApp builds the application from options. The returned App must be
// closed after use.
func NewApp(opts ...Option) (*App, error) {
	a := &App{}
	for _, opt := range opts {
		opt(a)
	}
	if a.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := a.cfg

	// Structured JSON logs on stderr; stdout stays free for command output
	// and the MCP transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	a.logger = logger

	if a.client == nil {
		a.client = lark.NewClient(lark.StaticToken(cfg.Feishu.AccessToken),
			lark.WithBaseURL(cfg.Feishu.BaseURL),
			lark.WithLogger(logger))
	}

	resolver, err := assets.NewResolver(cfg.Assets.CacheDir, assets.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("init asset resolver: %w", err)
	}

	db, err := ledger.Open(cfg.Ledger.Path)
	if err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}
	a.db = db

	a.pub = publisher.New(a.client, resolver, db, logger)
	return a, nil
}

// Close releases the ledger connection.
func (a *App) Close() error {
	return a.db.Close()
}

// request applies configured target defaults to one publish invocation.
func (a *App) request(path string, target publisher.Target, folderToken, wikiNode string, checkDuplicate bool) publisher.Request {
	if folderToken == "" {
		folderToken = a.cfg.Target.FolderToken
	}
	if wikiNode == "" {
		wikiNode = a.cfg.Target.WikiNodeToken
	}
	return publisher.Request{
		Path:           path,
		Target:         target,
		FolderToken:    folderToken,
		WikiSpaceID:    a.cfg.Target.WikiSpaceID,
		WikiNodeToken:  wikiNode,
		CheckDuplicate: checkDuplicate,
	}
}

// Publish creates a new remote document from path and reports the outcome
// on out. A duplicate is reported as a normal outcome, not a failure.
func (a *App) Publish(ctx context.Context, out io.Writer, path string, target publisher.Target, folderToken, wikiNode string, checkDuplicate bool) error {
	res, err := a.pub.Publish(ctx, a.request(path, target, folderToken, wikiNode, checkDuplicate))

	var dup *publisher.DuplicateError
	if errors.As(err, &dup) {
		fmt.Fprintf(out, "skipped: %q already exists (token %s)\n", dup.Title, dup.Token)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "created document %s", res.DocumentID)
	if res.NodeToken != "" {
		fmt.Fprintf(out, " (wiki node %s)", res.NodeToken)
	}
	fmt.Fprintf(out, ", images uploaded: %d\n", res.UploadedImages)
	return nil
}

// Update overwrites an existing document's content. With an empty docID the
// ledger entry for path supplies it.
func (a *App) Update(ctx context.Context, out io.Writer, docID, path string) error {
	res, err := a.pub.Update(ctx, docID, path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "updated document %s, images uploaded: %d\n", res.DocumentID, res.UploadedImages)
	return nil
}

// Watch republishes path on every change until interrupted.
func (a *App) Watch(ctx context.Context, path string, target publisher.Target, folderToken, wikiNode string) error {
	req := a.request(path, target, folderToken, wikiNode, false)

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(watchCtx)

	g.Go(func() error {
		return a.pub.Watch(gCtx, req)
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			a.logger.Info("received shutdown signal", slog.String("signal", sig.String()))
			cancel()
		case <-gCtx.Done():
		}
		return nil
	})

	return g.Wait()
}

// List prints the recorded publications, most recent first.
func (a *App) List(out io.Writer) error {
	pubs, err := a.db.List()
	if err != nil {
		return err
	}
	if len(pubs) == 0 {
		fmt.Fprintln(out, "no publications recorded")
		return nil
	}
	for _, p := range pubs {
		fmt.Fprintf(out, "%s  %-10s %-28s %s\n",
			p.PublishedAt.Format("2006-01-02 15:04"), p.Target, p.DocumentID, p.Path)
	}
	return nil
}

// ServeMCP exposes the publish tools over stdio.
func (a *App) ServeMCP() error {
	srv := mcpserver.New(a.pub, a.db, mcpserver.Defaults{
		FolderToken:   a.cfg.Target.FolderToken,
		WikiSpaceID:   a.cfg.Target.WikiSpaceID,
		WikiNodeToken: a.cfg.Target.WikiNodeToken,
	})
	a.logger.Info("mcp server starting on stdio")
	return srv.ServeStdio()
}
