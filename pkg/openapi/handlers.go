package openapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rhuss/hopper/pkg/router"
)

// swaggerUIPage serves the interactive documentation, loading Swagger UI
// from a CDN and pointing it at the document endpoint.
const swaggerUIPage = `<!DOCTYPE html>
<html>
<head>
    <title>Swagger UI</title>
    <link rel="stylesheet" type="text/css" href="https://cdnjs.cloudflare.com/ajax/libs/swagger-ui/5.20.0/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://cdnjs.cloudflare.com/ajax/libs/swagger-ui/5.20.0/swagger-ui-bundle.js"></script>
    <script>
        const ui = SwaggerUIBundle({
            url: '/swagger.json',
            dom_id: '#swagger-ui',
        });
    </script>
</body>
</html>
`

// DocumentHandler serializes the document once and serves it as
// application/json. Registration is finished before serving starts, so the
// document never changes afterwards.
func DocumentHandler(doc *Document) (router.Handler, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling OpenAPI document: %w", err)
	}
	return func(c *router.Context) (*router.Response, error) {
		return router.Bytes(http.StatusOK, "application/json", raw), nil
	}, nil
}

// UIHandler serves the Swagger UI page.
func UIHandler() router.Handler {
	return func(c *router.Context) (*router.Response, error) {
		return router.HTML(http.StatusOK, swaggerUIPage), nil
	}
}
