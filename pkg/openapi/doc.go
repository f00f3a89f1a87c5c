// Package openapi generates an OpenAPI 3.0 document from the route table
// and serves it together with an interactive documentation page. The
// generator reads only what registration already declared: route patterns,
// parameter specs, body schemas, and response declarations.
package openapi
