// Command vlypick attaches element pickers to browser pages and exposes them
// to hosts over HTTP, websocket and MCP.
//
// Usage:
//
//	vlypick -url https://app.example                  # pick on one page, print selections
//	vlypick -url https://app.example -remote ws://... # attach to a running Chrome
//	vlypick -config vlypick.yaml -listen :8088        # serve configured pages
//	vlypick -db vlypick.db -listen :8088              # pages from picker_pages, reloaded on change
//	vlypick -config vlypick.yaml -mcp-stdio           # MCP over stdio
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	_ "modernc.org/sqlite"

	"github.com/hazyhaar/vlypick/dbopen"
	"github.com/hazyhaar/vlypick/idgen"
	"github.com/hazyhaar/vlypick/picker"
	"github.com/hazyhaar/vlypick/watch"
)

var version = "dev"

type options struct {
	configPath string
	url        string
	remote     string
	dbPath     string
	listen     string
	mcpStdio   bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to vlypick.yaml config file")
	flag.StringVar(&o.url, "url", "", "open a single URL and start picking")
	flag.StringVar(&o.remote, "remote", "", "DevTools websocket URL of a running Chrome")
	flag.StringVar(&o.dbPath, "db", "", "SQLite database holding the picker_pages table")
	flag.StringVar(&o.listen, "listen", "", "HTTP control address, e.g. :8088")
	flag.BoolVar(&o.mcpStdio, "mcp-stdio", false, "serve MCP tools over stdin/stdout")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, logger, o)
	stop()
	switch {
	case errors.Is(err, errUsage):
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	case err != nil:
		logger.Error("vlypick: fatal", "error", err)
		os.Exit(1)
	}
}

const usage = "usage: vlypick -url <url> | -config <file> | -db <file> [-listen addr] [-mcp-stdio]"

var errUsage = errors.New("no page source given")

func run(ctx context.Context, logger *slog.Logger, o options) error {
	if o.configPath == "" && o.url == "" && o.dbPath == "" {
		return errUsage
	}

	cfg := &picker.Config{}
	if o.configPath != "" {
		loaded, err := picker.LoadConfigFile(o.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if o.remote != "" {
		cfg.Browser.Remote = o.remote
	}
	if o.url != "" && o.dbPath == "" {
		cfg.Pages = append(cfg.Pages, picker.PageConfig{ID: idgen.Page(), URL: o.url})
	}
	if o.mcpStdio {
		// stdout carries the MCP stream
		cfg.Channels = removeStdout(cfg.Channels)
		if len(cfg.Channels) == 0 {
			cfg.Channels = []picker.ChannelConfig{{Type: "websocket"}}
		}
	}

	cfg.ApplyDefaults()
	filePages := slices.Clone(cfg.Pages)

	var (
		db   *sql.DB
		opts = []picker.Option{picker.WithLogger(logger)}
	)
	if o.dbPath != "" {
		var err error
		if db, err = openDB(ctx, o.dbPath, o.url, cfg); err != nil {
			return err
		}
		defer db.Close()
	}

	svc := picker.New(cfg, opts...)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer svc.Stop()

	if db != nil {
		w := watch.New(db, watch.Options{
			Interval: 2 * time.Second,
			Debounce: 500 * time.Millisecond,
			Detector: watch.Query(picker.PagesVersion),
			Logger:   logger,
		})
		go w.Run(ctx, func(ctx context.Context) error {
			pages, err := picker.LoadPages(ctx, db)
			if err != nil {
				return err
			}
			return svc.SyncPages(ctx, append(slices.Clone(filePages), pages...))
		})
	}

	if o.url != "" {
		for _, s := range svc.Registry().List() {
			if s.URL() == o.url {
				if err := s.SetSelectionMode(ctx, true); err != nil {
					logger.Warn("vlypick: enable picking", "error", err)
				}
			}
		}
	}

	mcpSrv := mcp.NewServer(&mcp.Implementation{Name: "vlypick", Version: version}, nil)
	picker.RegisterMCP(mcpSrv, svc.Registry())

	errc := make(chan error, 2)
	if o.listen != "" {
		srv := &http.Server{
			Addr:              o.listen,
			Handler:           routes(svc.Registry(), mcpSrv, logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("vlypick: listening", "addr", o.listen)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errc <- fmt.Errorf("http: %w", err)
			}
		}()
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutCtx)
		}()
	}
	if o.mcpStdio {
		go func() {
			if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
				errc <- fmt.Errorf("mcp: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		return err
	}
}

func routes(reg *picker.Registry, mcpSrv *mcp.Server, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpSrv }, nil))
	r.Mount("/", picker.NewHandler(reg, logger))
	return r
}

// openDB opens the SQLite store, records url as an active page when set and
// merges the active pages into cfg.
func openDB(ctx context.Context, path, url string, cfg *picker.Config) (*sql.DB, error) {
	db, err := dbopen.Open(path,
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(picker.PagesSchema),
	)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if url != "" {
		if err := savePage(ctx, db, url); err != nil {
			db.Close()
			return nil, err
		}
	}
	pages, err := picker.LoadPages(ctx, db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load pages: %w", err)
	}
	cfg.Pages = append(cfg.Pages, pages...)
	return db, nil
}

// savePage reuses the ID already stored for url so repeated runs do not
// pile up rows.
func savePage(ctx context.Context, db *sql.DB, url string) error {
	id, err := picker.PageIDForURL(ctx, db, url)
	if err != nil {
		return err
	}
	if id == "" {
		id = idgen.Page()
	}
	return picker.SavePage(ctx, db, picker.PageConfig{ID: id, URL: url})
}

func removeStdout(chs []picker.ChannelConfig) []picker.ChannelConfig {
	out := chs[:0]
	for _, ch := range chs {
		if ch.Type != "stdout" {
			out = append(out, ch)
		}
	}
	return out
}
