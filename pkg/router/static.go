package router

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// contentTypes maps file extensions for the static handler. Anything not
// listed is served as an opaque byte stream.
var contentTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".json": "application/json",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".ico":  "image/x-icon",
	".txt":  "text/plain; charset=utf-8",
}

// StaticFS returns a handler serving files from fsys. The file name comes
// from the named path capture, so the route is registered as e.g.
// GET /static/{file} with validation bypassed. Names are cleaned before the
// lookup; anything escaping the root or naming a directory is a 404.
func StaticFS(fsys fs.FS, param string) Handler {
	return func(c *Context) (*Response, error) {
		name, _ := c.PathParams[param].(string)
		name = path.Clean(name)
		if name == "." || name == ".." || strings.HasPrefix(name, "../") {
			return Error(http.StatusNotFound, NewNotFoundError("no such file")), nil
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return Error(http.StatusNotFound, NewNotFoundError("no such file")), nil
		}

		ct := contentTypes[path.Ext(name)]
		if ct == "" {
			ct = "application/octet-stream"
		}
		return Bytes(http.StatusOK, ct, data), nil
	}
}
