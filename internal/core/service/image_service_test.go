package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/inkwell/blog/internal/core/domain"
	"github.com/inkwell/blog/internal/core/ports"
)

func upload(name, declared string, data []byte) ports.ImageUpload {
	return ports.ImageUpload{Filename: name, ContentType: declared, Size: int64(len(data)), Body: bytes.NewReader(data)}
}

func TestImageService_Save_SniffedType(t *testing.T) {
	store := newMemImageStore()
	svc := NewImageService(store, 0, nopLog)

	name, err := svc.Save(context.Background(), upload("photo.bin", "application/octet-stream", pngHeader))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasSuffix(name, ".png") || len(name) != 36+len(".png") {
		t.Fatalf("unexpected name %q", name)
	}
	if !bytes.Equal(store.files[name], pngHeader) {
		t.Fatalf("stored bytes differ")
	}
}

func TestImageService_Save_SVG(t *testing.T) {
	svc := NewImageService(newMemImageStore(), 0, nopLog)
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="1" height="1"></svg>`)

	name, err := svc.Save(context.Background(), upload("logo.svg", "image/svg+xml", svg))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasSuffix(name, ".svg") {
		t.Fatalf("unexpected name %q", name)
	}
}

func TestImageService_Save_RejectsNonImage(t *testing.T) {
	store := newMemImageStore()
	svc := NewImageService(store, 0, nopLog)

	cases := []ports.ImageUpload{
		upload("notes.txt", "text/plain", []byte("hello world")),
		upload("fake.png", "text/plain", []byte("hello world")),
		upload("fake.txt", "image/png", []byte("hello world")),
		upload("empty.png", "image/png", nil),
	}
	for i, up := range cases {
		if _, err := svc.Save(context.Background(), up); !domain.IsValidation(err) {
			t.Fatalf("case %d: expected ValidationError, got %v", i, err)
		}
	}
	if len(store.files) != 0 {
		t.Fatalf("rejected uploads must not be stored")
	}
}

func TestImageService_Save_DeclaredAndExtensionFallback(t *testing.T) {
	svc := NewImageService(newMemImageStore(), 0, nopLog)

	// Unsniffable bytes are accepted only when header and extension agree
	// on an allowed image type.
	name, err := svc.Save(context.Background(), upload("scan.heic", "image/heic", []byte("opaque-bytes")))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasSuffix(name, ".heic") {
		t.Fatalf("unexpected name %q", name)
	}
}

func TestImageService_Save_TooLarge(t *testing.T) {
	store := newMemImageStore()
	svc := NewImageService(store, 8, nopLog)

	if _, err := svc.Save(context.Background(), upload("a.png", "image/png", pngHeader)); !errors.Is(err, domain.ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge, got %v", err)
	}

	lying := ports.ImageUpload{Filename: "a.png", Size: 4, Body: bytes.NewReader(pngHeader)}
	if _, err := svc.Save(context.Background(), lying); !errors.Is(err, domain.ErrImageTooLarge) {
		t.Fatalf("expected ErrImageTooLarge when declared size lies, got %v", err)
	}
	if len(store.files) != 0 {
		t.Fatalf("oversized uploads must not be stored")
	}
}

func TestImageService_OpenAndRemove(t *testing.T) {
	store := newMemImageStore()
	svc := NewImageService(store, 0, nopLog)
	store.files["abc.png"] = pngHeader

	rc, _, err := svc.Open(context.Background(), "abc.png")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b, _ := io.ReadAll(rc)
	_ = rc.Close()
	if !bytes.Equal(b, pngHeader) {
		t.Fatalf("unexpected content")
	}

	for _, bad := range []string{"../etc/passwd", ".env", "a/b.png", ""} {
		if _, _, err := svc.Open(context.Background(), bad); !errors.Is(err, domain.ErrImageNotFound) {
			t.Fatalf("%q: expected ErrImageNotFound, got %v", bad, err)
		}
	}

	if err := svc.Remove(context.Background(), "https://cdn.example.com/abc.png"); err != nil {
		t.Fatalf("remove absolute url: %v", err)
	}
	if _, ok := store.files["abc.png"]; !ok {
		t.Fatalf("absolute URL removal must not touch the store")
	}
	if err := svc.Remove(context.Background(), "abc.png"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, ok := store.files["abc.png"]; ok {
		t.Fatalf("expected image removed")
	}
}
