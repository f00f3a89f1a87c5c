package router

import (
	"net/http"
	"testing"
	"testing/fstest"
)

func staticContext(file string) *Context {
	c := NewContext(nil, nil, "conn-1")
	c.PathParams = map[string]any{"file": file}
	return c
}

func TestStaticFSServesKnownTypes(t *testing.T) {
	fsys := fstest.MapFS{
		"style.css": {Data: []byte("body { margin: 0 }")},
		"app.bin":   {Data: []byte{0x01, 0x02}},
	}
	h := StaticFS(fsys, "file")

	resp, err := h(staticContext("style.css"))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.Status)
	}
	if resp.ContentType != "text/css; charset=utf-8" {
		t.Errorf("content type = %q, want text/css", resp.ContentType)
	}
	if string(resp.Body) != "body { margin: 0 }" {
		t.Errorf("body = %q, want the file contents", resp.Body)
	}

	resp, err = h(staticContext("app.bin"))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resp.ContentType != "application/octet-stream" {
		t.Errorf("content type = %q, want octet-stream for unknown extension", resp.ContentType)
	}
}

func TestStaticFSMissingFile(t *testing.T) {
	h := StaticFS(fstest.MapFS{}, "file")

	resp, err := h(staticContext("nope.css"))
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.Status)
	}
}

func TestStaticFSRejectsEscapes(t *testing.T) {
	fsys := fstest.MapFS{"secret.txt": {Data: []byte("x")}}
	h := StaticFS(fsys, "file")

	for _, name := range []string{"..", "../secret.txt", "."} {
		resp, err := h(staticContext(name))
		if err != nil {
			t.Fatalf("handler error for %q: %v", name, err)
		}
		if resp.Status != http.StatusNotFound {
			t.Errorf("status for %q = %d, want 404", name, resp.Status)
		}
	}
}
