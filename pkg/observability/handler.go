package observability

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/rhuss/hopper/pkg/router"
)

// MetricsHandler returns the handler serving the Prometheus text
// exposition from the default registry. The server cannot mount
// promhttp.Handler because it does not speak net/http, so the handler
// encodes the gathered families itself.
func MetricsHandler() router.Handler {
	format := expfmt.NewFormat(expfmt.TypeTextPlain)
	return func(c *router.Context) (*router.Response, error) {
		families, err := prometheus.DefaultGatherer.Gather()
		if err != nil {
			return nil, fmt.Errorf("gathering metrics: %w", err)
		}

		var buf bytes.Buffer
		enc := expfmt.NewEncoder(&buf, format)
		for _, mf := range families {
			if err := enc.Encode(mf); err != nil {
				return nil, fmt.Errorf("encoding metric family %q: %w", mf.GetName(), err)
			}
		}
		return router.Bytes(http.StatusOK, string(format), buf.Bytes()), nil
	}
}
