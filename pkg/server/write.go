package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rhuss/hopper/pkg/router"
	"github.com/rhuss/hopper/pkg/wire"
)

// writeResponse serializes one buffered response and reports whether the
// connection can take another request. route may be nil for responses that
// never resolved to one (resolution errors, preflights, read rejections).
func (d *dispatch) writeResponse(route *router.Route, resp *router.Response, keepAlive bool) bool {
	if d.srv.cors != nil {
		d.srv.cors.Decorate(resp)
	}

	status := resp.Status
	if status == 0 {
		status = http.StatusOK
	}

	body := resp.Body
	if body == nil && resp.Payload != nil {
		encoded, err := json.Marshal(resp.Payload)
		if err != nil {
			d.logger.Error("response payload not serializable",
				slog.String("error", err.Error()))
			status = http.StatusInternalServerError
			encoded, _ = json.Marshal(&router.ErrorEnvelope{
				Error: router.NewServerError("internal server error"),
			})
		}
		body = encoded
	}

	out := &wire.Response{Status: status, Header: make(wire.Header), Body: body}
	for k, v := range resp.Header {
		out.Header.Set(k, v)
	}
	if len(body) > 0 && !out.Header.Has("Content-Type") {
		out.Header.Set("Content-Type", contentTypeFor(route, resp))
	}
	if keepAlive {
		out.Header.Set("Connection", "keep-alive")
	} else {
		out.Header.Set("Connection", "close")
	}

	if d.srv.config.WriteTimeout > 0 {
		_ = d.conn.SetWriteDeadline(time.Now().Add(d.srv.config.WriteTimeout))
		defer func() { _ = d.conn.SetWriteDeadline(time.Time{}) }()
	}
	if err := wire.WriteResponse(d.bw, out); err != nil {
		return false
	}
	if err := d.bw.Flush(); err != nil {
		return false
	}
	return keepAlive
}

// contentTypeFor picks the response content type: the response's own
// override first, then the route's declared type, then the JSON default.
func contentTypeFor(route *router.Route, resp *router.Response) string {
	if resp.ContentType != "" {
		return resp.ContentType
	}
	if route != nil && route.ContentType != "" {
		return route.ContentType
	}
	return "application/json"
}

// writeError serializes an error envelope for a request that never reached
// or never finished the chain. allow carries the Allow header value for
// 405 responses; empty omits it.
func (d *dispatch) writeError(status int, apiErr *router.APIError, keepAlive bool, allow string) bool {
	resp := router.Error(status, apiErr)
	if allow != "" {
		resp.SetHeader("Allow", allow)
	}
	return d.writeResponse(nil, resp, keepAlive)
}
