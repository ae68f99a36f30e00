package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/vlypick/picker"
)

func TestRemoveStdout(t *testing.T) {
	in := []picker.ChannelConfig{{Type: "stdout"}, {Type: "webhook", URL: "http://x"}, {Type: "stdout"}}
	out := removeStdout(in)
	if len(out) != 1 || out[0].Type != "webhook" {
		t.Errorf("removeStdout: got %+v", out)
	}
}

func TestRoutesServeHealth(t *testing.T) {
	srv := mcp.NewServer(&mcp.Implementation{Name: "vlypick", Version: "test"}, nil)
	h := routes(picker.NewRegistry(), srv, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("/health: got %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pages/nope/selection?timeout=1ms", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown page: got %d, want 404", rec.Code)
	}
}

func TestRunWithoutSourceIsUsageError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := run(context.Background(), logger, options{})
	if !errors.Is(err, errUsage) {
		t.Errorf("err: got %v, want errUsage", err)
	}
}
