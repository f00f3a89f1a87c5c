package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestSwaggerDocumentListsRoutes(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/swagger.json")
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	for _, want := range []string{`"/rooms"`, `"/rooms/{id}"`, `"/rooms/{id}/messages"`, `"Hopper Test API"`} {
		if !strings.Contains(body, want) {
			t.Errorf("document does not contain %s", want)
		}
	}
}

func TestDocsPageServed(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/docs")
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(body, "swagger.json") {
		t.Error("docs page does not reference the document endpoint")
	}
}

func TestMetricsExposition(t *testing.T) {
	// Generate at least one counted request first.
	resp := getURL(t, testEnv.BaseURL()+"/healthz")
	resp.Body.Close()

	resp = getURL(t, testEnv.BaseURL()+"/metrics")
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !strings.Contains(body, "hopper_requests_total") {
		t.Errorf("exposition does not contain the request counter:\n%s", truncate(body, 400))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
