package wire

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
)

func reader(raw string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(raw))
}

// ---------------------------------------------------------------------------
// TestReadRequest
// ---------------------------------------------------------------------------

func TestReadRequest(t *testing.T) {
	raw := "GET /users/7?verbose=1&x=a%20b HTTP/1.1\r\n" +
		"Host: localhost\r\n" +
		"X-Trace: one\r\n" +
		"X-Trace: two\r\n" +
		"\r\n"

	req, err := ReadRequest(reader(raw), DefaultLimits())
	if err != nil {
		t.Fatalf("ReadRequest() failed: %v", err)
	}

	if req.Method != "GET" {
		t.Errorf("Method = %q, want GET", req.Method)
	}
	if req.Path != "/users/7" {
		t.Errorf("Path = %q, want /users/7", req.Path)
	}
	if got := req.Query.Get("verbose"); got != "1" {
		t.Errorf("Query[verbose] = %q, want 1", got)
	}
	if got := req.Query.Get("x"); got != "a b" {
		t.Errorf("Query[x] = %q, want %q", got, "a b")
	}
	if req.Proto != "HTTP/1.1" {
		t.Errorf("Proto = %q, want HTTP/1.1", req.Proto)
	}
	if got := req.Header.Get("host"); got != "localhost" {
		t.Errorf("Header[host] = %q, want localhost", got)
	}
	if got := req.Header.Get("X-Trace"); got != "one, two" {
		t.Errorf("repeated header = %q, want joined %q", got, "one, two")
	}
	if req.Body != nil {
		t.Errorf("Body = %q, want none", req.Body)
	}
}

func TestReadRequestBody(t *testing.T) {
	raw := "POST /echo HTTP/1.1\r\n" +
		"Content-Type: application/json\r\n" +
		"Content-Length: 14\r\n" +
		"\r\n" +
		`{"hi":"there"}` + "trailing bytes stay unread"

	br := reader(raw)
	req, err := ReadRequest(br, DefaultLimits())
	if err != nil {
		t.Fatalf("ReadRequest() failed: %v", err)
	}
	if got := string(req.Body); got != `{"hi":"there"}` {
		t.Errorf("Body = %q, want the 14 declared bytes", got)
	}
	// Only the declared length is consumed.
	rest, _ := io.ReadAll(br)
	if string(rest) != "trailing bytes stay unread" {
		t.Errorf("unread remainder = %q, want untouched trailing bytes", rest)
	}
}

func TestReadRequestMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty request line", raw: "\r\n\r\n"},
		{name: "two-token request line", raw: "GET /path\r\n\r\n"},
		{name: "unsupported protocol", raw: "GET / HTTP/2.0\r\n\r\n"},
		{name: "relative target", raw: "GET path HTTP/1.1\r\n\r\n"},
		{name: "header without colon", raw: "GET / HTTP/1.1\r\nBadHeader\r\n\r\n"},
		{name: "space in header name", raw: "GET / HTTP/1.1\r\nBad Header: x\r\n\r\n"},
		{name: "truncated head", raw: "GET / HTTP/1.1\r\nHost: x"},
		{name: "negative content length", raw: "POST / HTTP/1.1\r\nContent-Length: -1\r\n\r\n"},
		{name: "textual content length", raw: "POST / HTTP/1.1\r\nContent-Length: ten\r\n\r\n"},
		{name: "chunked transfer encoding", raw: "POST / HTTP/1.1\r\nTransfer-Encoding: chunked\r\n\r\n"},
		{name: "body shorter than declared", raw: "POST / HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRequest(reader(tt.raw), DefaultLimits())
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("ReadRequest() error = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestReadRequestCleanEOF(t *testing.T) {
	_, err := ReadRequest(reader(""), DefaultLimits())
	if err != io.EOF {
		t.Errorf("ReadRequest() on closed connection = %v, want io.EOF", err)
	}
}

func TestReadRequestHeaderLimit(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxHeaderBytes = 48

	raw := "GET /a-path-much-longer-than-the-configured-head-budget HTTP/1.1\r\n\r\n"
	_, err := ReadRequest(reader(raw), limits)
	if !errors.Is(err, ErrHeaderTooLarge) {
		t.Errorf("ReadRequest() error = %v, want ErrHeaderTooLarge", err)
	}
}

func TestReadRequestBodyLimit(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxBodyBytes = 8

	raw := "POST / HTTP/1.1\r\nContent-Length: 9\r\n\r\nwaytoobig"
	_, err := ReadRequest(reader(raw), limits)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Errorf("ReadRequest() error = %v, want ErrBodyTooLarge", err)
	}
}

// ---------------------------------------------------------------------------
// TestWantsKeepAlive
// ---------------------------------------------------------------------------

func TestWantsKeepAlive(t *testing.T) {
	tests := []struct {
		name       string
		proto      string
		connection string
		want       bool
	}{
		{name: "1.1 default", proto: "HTTP/1.1", connection: "", want: true},
		{name: "1.1 explicit close", proto: "HTTP/1.1", connection: "close", want: false},
		{name: "1.1 close among tokens", proto: "HTTP/1.1", connection: "foo, Close", want: false},
		{name: "1.0 default", proto: "HTTP/1.0", connection: "", want: false},
		{name: "1.0 explicit keep-alive", proto: "HTTP/1.0", connection: "keep-alive", want: true},
		{name: "1.0 mixed case", proto: "HTTP/1.0", connection: "Keep-Alive", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &Request{Proto: tt.proto, Header: Header{}}
			if tt.connection != "" {
				req.Header.Set("Connection", tt.connection)
			}
			if got := req.WantsKeepAlive(); got != tt.want {
				t.Errorf("WantsKeepAlive() = %v, want %v", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestReadRequestKeepAliveSequence
// ---------------------------------------------------------------------------

func TestReadRequestKeepAliveSequence(t *testing.T) {
	raw := "GET /first HTTP/1.1\r\n\r\n" +
		"GET /second HTTP/1.1\r\n\r\n"
	br := reader(raw)

	first, err := ReadRequest(br, DefaultLimits())
	if err != nil {
		t.Fatalf("first ReadRequest() failed: %v", err)
	}
	second, err := ReadRequest(br, DefaultLimits())
	if err != nil {
		t.Fatalf("second ReadRequest() failed: %v", err)
	}
	if first.Path != "/first" || second.Path != "/second" {
		t.Errorf("paths = %q, %q; want /first, /second", first.Path, second.Path)
	}
	if _, err := ReadRequest(br, DefaultLimits()); err != io.EOF {
		t.Errorf("third ReadRequest() = %v, want io.EOF", err)
	}
}
