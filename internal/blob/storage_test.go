package blob

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ymori/salesdesk/internal/errs"
)

func TestUploadDownloadDelete(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	ctx := context.Background()

	url, err := storage.Upload(ctx, "threads/t1/shot.png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.HasPrefix(url, "file://") {
		t.Fatalf("expected file URL, got %q", url)
	}

	data, err := storage.Download(ctx, "threads/t1/shot.png")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("unexpected object contents: %q", data)
	}

	if err := storage.Delete(ctx, "threads/t1/shot.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := storage.Download(ctx, "threads/t1/shot.png"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestDownloadMissing(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}

	if _, err := storage.Download(context.Background(), "nope.png"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPathValidation(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage: %v", err)
	}
	ctx := context.Background()

	if _, err := storage.Upload(ctx, "", []byte("x")); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty path, got %v", err)
	}

	// Traversal segments collapse inside the root rather than escaping it.
	url, err := storage.Upload(ctx, "../escaped.png", []byte("x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !strings.Contains(url, "escaped.png") || strings.Contains(url, "..") {
		t.Fatalf("unexpected resolved URL %q", url)
	}
}
