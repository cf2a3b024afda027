package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), "http://localhost/files", []byte("link-secret"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func TestFileStoreSignedURLServesObject(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := Key("abc", "csv")
	if key != "exports/abc.csv" {
		t.Fatalf("unexpected key %q", key)
	}
	if err := store.Put(ctx, key, []byte("id,amount\n1,2.00\n"), "text/csv"); err != nil {
		t.Fatalf("put: %v", err)
	}
	link, err := store.SignedURL(ctx, key, LinkTTL)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if !strings.HasPrefix(link, "http://localhost/files/") {
		t.Fatalf("unexpected link %q", link)
	}

	req := httptest.NewRequest(http.MethodGet, strings.TrimPrefix(link, "http://localhost"), nil)
	resp := httptest.NewRecorder()
	store.Handler().ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "id,amount\n1,2.00\n" {
		t.Fatalf("unexpected body %q", body)
	}
	if resp.Header().Get("Content-Type") != "text/csv" {
		t.Fatalf("unexpected content type %q", resp.Header().Get("Content-Type"))
	}
}

func TestFileStoreExpiredLinkRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := Key("old", "pdf")
	if err := store.Put(ctx, key, []byte("%PDF"), "application/pdf"); err != nil {
		t.Fatalf("put: %v", err)
	}
	link, err := store.SignedURL(ctx, key, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	req := httptest.NewRequest(http.MethodGet, strings.TrimPrefix(link, "http://localhost"), nil)
	resp := httptest.NewRecorder()
	store.Handler().ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestFileStoreTamperedTokenRejected(t *testing.T) {
	store := newTestStore(t)
	req := httptest.NewRequest(http.MethodGet, "/files/not-a-token", nil)
	resp := httptest.NewRecorder()
	store.Handler().ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}

func TestFileStoreSignMissingObject(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.SignedURL(context.Background(), Key("missing", "csv"), LinkTTL); !errors.Is(err, ErrObjectNotFound) {
		t.Fatalf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store := newTestStore(t)
	path, err := store.pathFor("../../etc/passwd")
	if err != nil {
		t.Fatalf("path: %v", err)
	}
	if !strings.HasPrefix(path, store.root) {
		t.Fatalf("key escaped root: %s", path)
	}
}
