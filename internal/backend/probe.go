package backend

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// ProbeResult is the outcome of one health check.
type ProbeResult struct {
	URL     string        `json:"url"`
	Status  int           `json:"status,omitempty"`
	Latency time.Duration `json:"latency"`
	Err     string        `json:"error,omitempty"`
}

// OK reports whether the endpoint answered with 2xx.
func (r ProbeResult) OK() bool {
	return r.Err == "" && r.Status >= 200 && r.Status <= 299
}

// Probe issues a GET against base+path.
func Probe(ctx context.Context, hc *http.Client, base, path string) ProbeResult {
	if hc == nil {
		hc = http.DefaultClient
	}
	url := strings.TrimRight(base, "/") + path
	res := ProbeResult{URL: url}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		res.Err = err.Error()
		return res
	}

	start := time.Now()
	resp, err := hc.Do(req)
	res.Latency = time.Since(start)
	if err != nil {
		res.Err = err.Error()
		return res
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	res.Status = resp.StatusCode
	return res
}

// ProbeAll checks every base concurrently. Results keep the order of bases.
func ProbeAll(ctx context.Context, hc *http.Client, bases []string, path string) []ProbeResult {
	results := make([]ProbeResult, len(bases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, base := range bases {
		i, base := i, base
		g.Go(func() error {
			results[i] = Probe(gctx, hc, base, path)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
