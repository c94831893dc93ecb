package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/soyeahso/somc/internal/domain"
	"github.com/soyeahso/somc/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(base string) *Client {
	return NewClient(Options{BaseURL: base, Timeout: 5 * time.Second}, logging.New(nil, "silent"))
}

func TestSubmit_Success(t *testing.T) {
	var (
		gotPath string
		gotBody domain.AnalysisRequest
		gotCT   string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotCT = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"status":"Plan created"}`))
	}))
	defer srv.Close()

	body, err := testClient(srv.URL+"/").Submit(context.Background(), domain.AnalysisRequest{
		SessionID:   "session_1",
		Description: "Bouw van 500 woningen",
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"Plan created"}`, string(body))
	assert.Equal(t, "/api/input_task", gotPath)
	assert.Equal(t, "application/json", gotCT)
	assert.Equal(t, "session_1", gotBody.SessionID)
	assert.Equal(t, "Bouw van 500 woningen", gotBody.Description)
}

func TestSubmit_ExactlyOneRequestOnFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream down`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Submit(context.Background(), domain.AnalysisRequest{SessionID: "s"})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusBadGateway, te.Status)
	assert.Equal(t, "upstream down", te.Body)
	assert.True(t, te.Temporary())
	assert.Contains(t, te.Error(), "status 502")
}

func TestSubmit_ErrorBodyTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, strings.Repeat("x", maxErrorBody*2))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Submit(context.Background(), domain.AnalysisRequest{})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Len(t, te.Body, maxErrorBody)
	assert.False(t, te.Temporary())
}

func TestSubmit_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := testClient(base).Submit(context.Background(), domain.AnalysisRequest{})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.Status)
	assert.True(t, te.Temporary())
	assert.False(t, te.Timeout())
}

func TestSubmit_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := testClient(srv.URL).Submit(ctx, domain.AnalysisRequest{})
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Timeout())
}

func TestTransportError_Temporary(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{0, true},
		{429, true},
		{500, true},
		{503, true},
		{400, false},
		{401, false},
		{404, false},
	}
	for _, tt := range tests {
		te := &TransportError{Status: tt.status}
		assert.Equal(t, tt.want, te.Temporary(), "status %d", tt.status)
	}
}

func TestResolveBaseURL(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
		err  bool
	}{
		{"frontend server", `{"API_URL":"http://backend:8000/api","ENABLE_AUTH":"false"}`, "http://backend:8000", false},
		{"lowercase key", `{"api_url":"https://b.example.org/"}`, "https://b.example.org", false},
		{"camel key", `{"backendUrl":"http://x:1/api/"}`, "http://x:1", false},
		{"missing", `{"ENABLE_AUTH":"false"}`, "", true},
		{"not json", `nope`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, tt.doc)
			}))
			defer srv.Close()

			got, err := ResolveBaseURL(context.Background(), nil, srv.URL+"/config")
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveBaseURL_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	_, err := ResolveBaseURL(context.Background(), nil, srv.URL)
	assert.ErrorContains(t, err, "status 404")
}

func TestTrimAPISuffix(t *testing.T) {
	assert.Equal(t, "http://h:8000", TrimAPISuffix(" http://h:8000/api/ "))
	assert.Equal(t, "http://h:8000", TrimAPISuffix("http://h:8000"))
	assert.Equal(t, "http://h:8000/apis", TrimAPISuffix("http://h:8000/apis"))
}

func TestProbeAll(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"status":"healthy"}`)
	}))
	defer healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer broken.Close()

	gone := httptest.NewServer(http.NotFoundHandler())
	goneURL := gone.URL
	gone.Close()

	results := ProbeAll(context.Background(), nil, []string{healthy.URL, broken.URL, goneURL}, "/health")
	require.Len(t, results, 3)

	assert.True(t, results[0].OK())
	assert.Equal(t, healthy.URL+"/health", results[0].URL)

	assert.False(t, results[1].OK())
	assert.Equal(t, http.StatusServiceUnavailable, results[1].Status)

	assert.False(t, results[2].OK())
	assert.NotEmpty(t, results[2].Err)
}

func TestClientHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, HealthPath: "/healthz"}, logging.New(nil, "silent"))
	res := c.Health(context.Background())
	assert.True(t, res.OK())
	assert.Equal(t, srv.URL, c.BaseURL())
}
