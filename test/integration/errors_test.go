package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestUnknownPathReturnsNotFoundEnvelope(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/nope")
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if got := errorType(t, body); got != "not_found" {
		t.Errorf("error.type = %q, want %q", got, "not_found")
	}
}

func TestWrongMethodReturnsAllowHeader(t *testing.T) {
	roomID := createTestRoom(t, "methods")

	req, err := http.NewRequest(http.MethodPut, testEnv.BaseURL()+"/rooms/"+roomID, nil)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
	allow := resp.Header.Get("Allow")
	if !strings.Contains(allow, http.MethodGet) || !strings.Contains(allow, http.MethodDelete) {
		t.Errorf("Allow = %q, want GET and DELETE listed", allow)
	}
	if got := errorType(t, body); got != "method_not_allowed" {
		t.Errorf("error.type = %q, want %q", got, "method_not_allowed")
	}
}

func TestValidationFailureNamesFields(t *testing.T) {
	// Missing required "name" field.
	resp := postJSON(t, testEnv.BaseURL()+"/rooms", map[string]any{"topic": "no name"})
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
	if got := errorType(t, body); got != "validation_error" {
		t.Errorf("error.type = %q, want %q", got, "validation_error")
	}
	if !strings.Contains(body, `"name"`) {
		t.Errorf("body %q does not name the failing field", body)
	}
}

func TestQueryCoercionFailureRejected(t *testing.T) {
	roomID := createTestRoom(t, "badquery")

	resp := getURL(t, testEnv.BaseURL()+"/rooms/"+roomID+"/messages?after=abc")
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
	if !strings.Contains(body, `"after"`) {
		t.Errorf("body %q does not name the failing parameter", body)
	}
}

func TestQueryConstraintViolationRejected(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/rooms?limit=0")
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
	if got := errorType(t, body); got != "validation_error" {
		t.Errorf("error.type = %q, want %q", got, "validation_error")
	}
}

func TestMalformedBodyRejected(t *testing.T) {
	resp, err := http.Post(testEnv.BaseURL()+"/rooms", "application/json",
		strings.NewReader("{not json"))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", resp.StatusCode)
	}
	if !strings.Contains(body, "not valid JSON") {
		t.Errorf("body %q does not explain the parse failure", body)
	}
}

func TestMessageToUnknownRoom(t *testing.T) {
	resp := postJSON(t, testEnv.BaseURL()+"/rooms/room_missing/messages",
		map[string]any{"body": "hello?"})
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if got := errorType(t, body); got != "not_found" {
		t.Errorf("error.type = %q, want %q", got, "not_found")
	}
}
