package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// Errors reported by ReadRequest. The server maps them onto the protocol
// error taxonomy: ErrMalformed and unsupported framing become a synthetic
// 400, the limit errors become 431 and 413. All of them close the
// connection afterwards.
var (
	ErrMalformed      = errors.New("malformed request head")
	ErrHeaderTooLarge = errors.New("request head exceeds size limit")
	ErrBodyTooLarge   = errors.New("request body exceeds size limit")
)

// Limits bounds how much a single request may read before it is rejected.
type Limits struct {
	// MaxHeaderBytes caps the request line plus the whole header block.
	MaxHeaderBytes int
	// MaxBodyBytes caps the declared Content-Length.
	MaxBodyBytes int64
	// MaxFramePayloadBytes caps a single WebSocket frame payload.
	MaxFramePayloadBytes int64
}

// DefaultLimits returns the limits used when the server config leaves them
// unset.
func DefaultLimits() Limits {
	return Limits{
		MaxHeaderBytes:       64 * 1024,
		MaxBodyBytes:         10 * 1024 * 1024, // 10MB
		MaxFramePayloadBytes: 1024 * 1024,
	}
}

// Request is one parsed HTTP request head plus its fully-read body.
type Request struct {
	Method string
	// Target is the raw request target as sent ("/users/7?verbose=1").
	Target string
	// Path is the decoded path portion of the target.
	Path string
	// Query holds the parsed query string.
	Query url.Values
	// Proto is "HTTP/1.0" or "HTTP/1.1".
	Proto  string
	Header Header
	Body   []byte
}

// ReadRequest parses one request head and body off the buffered reader.
// It returns io.EOF untouched when the connection closes cleanly between
// requests, so keep-alive loops can tell a finished peer from a broken one.
func ReadRequest(br *bufio.Reader, limits Limits) (*Request, error) {
	budget := limits.MaxHeaderBytes

	line, err := readHeadLine(br, &budget)
	if err != nil {
		return nil, err
	}

	req, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	req.Header = make(Header)
	for {
		line, err := readHeadLine(br, &budget)
		if err != nil {
			if err == io.EOF {
				// Peer closed mid-head.
				return nil, ErrMalformed
			}
			return nil, err
		}
		if line == "" {
			break
		}
		name, value, err := parseHeaderLine(line)
		if err != nil {
			return nil, err
		}
		req.Header.add(name, value)
	}

	if err := readBody(br, req, limits); err != nil {
		return nil, err
	}
	return req, nil
}

// readHeadLine reads one CRLF-terminated line, tolerating a bare LF, and
// charges the consumed bytes against the shared head budget.
func readHeadLine(br *bufio.Reader, budget *int) (string, error) {
	var sb strings.Builder
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && sb.Len() == 0 {
				return "", io.EOF
			}
			if err == io.EOF {
				return "", ErrMalformed
			}
			return "", err
		}
		*budget--
		if *budget < 0 {
			return "", ErrHeaderTooLarge
		}
		if b == '\n' {
			return strings.TrimSuffix(sb.String(), "\r"), nil
		}
		sb.WriteByte(b)
	}
}

func parseRequestLine(line string) (*Request, error) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return nil, ErrMalformed
	}
	method, target, proto := parts[0], parts[1], parts[2]
	if method == "" || target == "" || !strings.HasPrefix(target, "/") {
		return nil, ErrMalformed
	}
	if proto != "HTTP/1.1" && proto != "HTTP/1.0" {
		return nil, ErrMalformed
	}

	u, err := url.ParseRequestURI(target)
	if err != nil {
		return nil, ErrMalformed
	}
	return &Request{
		Method: method,
		Target: target,
		Path:   u.Path,
		Query:  u.Query(),
		Proto:  proto,
	}, nil
}

func parseHeaderLine(line string) (name, value string, err error) {
	idx := strings.IndexByte(line, ':')
	if idx <= 0 {
		return "", "", ErrMalformed
	}
	name = line[:idx]
	// No whitespace inside or after the field name (no obs-fold support).
	if strings.ContainsAny(name, " \t") {
		return "", "", ErrMalformed
	}
	value = strings.Trim(line[idx+1:], " \t")
	return name, value, nil
}

func readBody(br *bufio.Reader, req *Request, limits Limits) error {
	// Chunked bodies are out of scope for this parser; reject rather than
	// misread the framing.
	if te := req.Header.Get("Transfer-Encoding"); te != "" {
		return ErrMalformed
	}

	raw := req.Header.Get("Content-Length")
	if raw == "" {
		return nil
	}
	length, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || length < 0 {
		return ErrMalformed
	}
	if limits.MaxBodyBytes > 0 && length > limits.MaxBodyBytes {
		return ErrBodyTooLarge
	}
	if length == 0 {
		return nil
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(br, body); err != nil {
		return fmt.Errorf("reading request body: %w", ErrMalformed)
	}
	req.Body = body
	return nil
}

// WantsKeepAlive reports whether the request asks for the connection to
// stay open after the response: HTTP/1.1 defaults to keep-alive unless the
// peer sends "Connection: close"; HTTP/1.0 requires an explicit
// "Connection: keep-alive".
func (r *Request) WantsKeepAlive() bool {
	conn := r.Header.Get("Connection")
	if r.Proto == "HTTP/1.0" {
		return containsToken(conn, "keep-alive")
	}
	return !containsToken(conn, "close")
}
