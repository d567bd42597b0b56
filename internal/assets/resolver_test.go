package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(t.TempDir())
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

func TestResolve_LocalRelative(t *testing.T) {
	baseDir := t.TempDir()
	imgPath := filepath.Join(baseDir, "pic.png")
	if err := os.WriteFile(imgPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := newTestResolver(t)
	got, err := r.Resolve(context.Background(), "pic.png", baseDir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got != imgPath {
		t.Errorf("path = %q, want %q", got, imgPath)
	}
}

func TestResolve_LocalMissing(t *testing.T) {
	r := newTestResolver(t)
	if _, err := r.Resolve(context.Background(), "nope.png", t.TempDir()); err == nil {
		t.Fatal("expected error for missing local image")
	}
}

func TestResolve_RemoteCachedOnce(t *testing.T) {
	fetches := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		if ua := r.Header.Get("User-Agent"); !strings.HasPrefix(ua, "Mozilla/5.0") {
			t.Errorf("user agent = %q", ua)
		}
		_, _ = w.Write([]byte("image-bytes"))
	}))
	t.Cleanup(srv.Close)

	r := newTestResolver(t)
	url := srv.URL + "/img/photo.png"

	first, err := r.Resolve(context.Background(), url, "")
	if err != nil {
		t.Fatalf("first Resolve: %v", err)
	}
	second, err := r.Resolve(context.Background(), url, "")
	if err != nil {
		t.Fatalf("second Resolve: %v", err)
	}

	if fetches != 1 {
		t.Errorf("fetches = %d, want 1 (cache hit on second resolve)", fetches)
	}
	if first != second {
		t.Errorf("paths differ: %q vs %q", first, second)
	}
	data, err := os.ReadFile(first)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("cached bytes = %q", data)
	}
}

func TestResolve_RemoteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	r := newTestResolver(t)
	if _, err := r.Resolve(context.Background(), srv.URL+"/x.png", ""); err == nil {
		t.Fatal("expected error for 404 download")
	}
}

func TestInferExt(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://example.com/a/b.PNG", ".png"},
		{"https://example.com/a/b.jpeg", ".jpeg"},
		{"https://example.com/pic", ".jpg"},
		{"https://example.com/pic.bin", ".jpg"},
		{"https://mmbiz.qpic.cn/mmbiz_png/abc?wx_fmt=png", ".png"},
		{"https://mmbiz.qpic.cn/abc?wx_fmt=webp&from=app", ".webp"},
		{"https://mmbiz.qpic.cn/abc?wx_fmt=mystery", ".jpg"},
	}
	for _, tc := range cases {
		if got := inferExt(tc.url); got != tc.want {
			t.Errorf("inferExt(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestCacheFilename_StablePerURL(t *testing.T) {
	a := cacheFilename("https://example.com/one.png")
	b := cacheFilename("https://example.com/one.png")
	c := cacheFilename("https://example.com/two.png")
	if a != b {
		t.Errorf("same url produced different names: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("different urls produced same name: %q", a)
	}
	if !strings.HasPrefix(a, "img_") || !strings.HasSuffix(a, ".png") {
		t.Errorf("name = %q", a)
	}
}
