package wire

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"sort"
)

// Response is a fully-buffered HTTP response ready for serialization.
// Streaming responses never pass through here; they go out via SSEWriter or
// the WebSocket framer.
type Response struct {
	Status int
	Header Header
	Body   []byte
}

// WriteResponse serializes resp as an HTTP/1.1 response in a single write.
// Content-Length is always derived from the body; callers control
// connection reuse through the Connection header on resp.
func WriteResponse(w io.Writer, resp *Response) error {
	var buf bytes.Buffer

	text := http.StatusText(resp.Status)
	if text == "" {
		text = "Status"
	}
	fmt.Fprintf(&buf, "HTTP/1.1 %d %s\r\n", resp.Status, text)

	keys := make([]string, 0, len(resp.Header))
	for k := range resp.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&buf, "%s: %s\r\n", textproto.CanonicalMIMEHeaderKey(k), resp.Header[k])
	}

	if bodyAllowed(resp.Status) {
		fmt.Fprintf(&buf, "Content-Length: %d\r\n\r\n", len(resp.Body))
		buf.Write(resp.Body)
	} else {
		// 1xx/204/304 must not carry Content-Length or a body.
		buf.WriteString("\r\n")
	}

	_, err := w.Write(buf.Bytes())
	return err
}

// bodyAllowed reports whether a status code carries a response body.
func bodyAllowed(status int) bool {
	if status >= 100 && status < 200 {
		return false
	}
	return status != http.StatusNoContent && status != http.StatusNotModified
}
