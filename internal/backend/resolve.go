package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// configKeys are the fields of the indirection document that may carry the
// backend address, in lookup order.
var configKeys = []string{"API_URL", "api_url", "backendUrl"}

// ResolveBaseURL fetches the indirection document at configURL and returns
// the backend base address it names, without a trailing "/api".
func ResolveBaseURL(ctx context.Context, hc *http.Client, configURL string) (string, error) {
	if hc == nil {
		hc = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, configURL, nil)
	if err != nil {
		return "", fmt.Errorf("config endpoint: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("config endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("config endpoint: status %d", resp.StatusCode)
	}

	var doc map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&doc); err != nil {
		return "", fmt.Errorf("config endpoint: parsing: %w", err)
	}
	for _, k := range configKeys {
		if s, ok := doc[k].(string); ok && strings.TrimSpace(s) != "" {
			return TrimAPISuffix(s), nil
		}
	}
	return "", fmt.Errorf("config endpoint: no backend address in document")
}

// TrimAPISuffix removes trailing slashes and a final "/api" segment.
func TrimAPISuffix(raw string) string {
	s := strings.TrimRight(strings.TrimSpace(raw), "/")
	s = strings.TrimSuffix(s, "/api")
	return strings.TrimRight(s, "/")
}
