package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"
)

// TestNewClient tests client construction with various options.
func TestNewClient(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := NewClient("https://api.example.com", "test-key")

		if c.baseURL != "https://api.example.com" {
			t.Errorf("baseURL = %q, want %q", c.baseURL, "https://api.example.com")
		}
		if c.apiKey != "test-key" {
			t.Errorf("apiKey = %q, want %q", c.apiKey, "test-key")
		}
		if c.httpClient.Timeout != 30*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 30*time.Second)
		}
		if c.maxBodyBytes != DefaultMaxBodyBytes {
			t.Errorf("maxBodyBytes = %d, want %d", c.maxBodyBytes, DefaultMaxBodyBytes)
		}
		if c.logger == nil {
			t.Error("logger should not be nil")
		}
	})

	t.Run("with timeout option", func(t *testing.T) {
		c := NewClient("https://api.example.com", "", WithTimeout(5*time.Second))
		if c.httpClient.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, 5*time.Second)
		}
	})

	t.Run("with logger option", func(t *testing.T) {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
		c := NewClient("https://api.example.com", "", WithLogger(logger))
		if c.logger != logger {
			t.Error("logger not set correctly")
		}
	})

	t.Run("with custom HTTP client", func(t *testing.T) {
		customClient := &http.Client{Timeout: 10 * time.Second}
		c := NewClient("https://api.example.com", "", WithHTTPClient(customClient))
		if c.httpClient != customClient {
			t.Error("custom HTTP client not set")
		}
	})
}

func TestGet(t *testing.T) {
	var gotPath, gotQuery, gotAuth, gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret", WithUserAgent("test-agent"))
	body, err := c.Get(context.Background(), "/charts/tps", url.Values{"format": {"json"}})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if string(body) != `{"ok":true}` {
		t.Errorf("body = %s", body)
	}
	if gotPath != "/charts/tps" {
		t.Errorf("path = %q", gotPath)
	}
	if gotQuery != "format=json" {
		t.Errorf("query = %q", gotQuery)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotUA != "test-agent" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestGet_APIError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	c := NewClient(server.URL, "")
	_, err := c.Get(context.Background(), "/ticker", nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("StatusCode = %d", apiErr.StatusCode)
	}
	if string(apiErr.Body) != "upstream down" {
		t.Errorf("Body = %q", apiErr.Body)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry)", calls)
	}
}

func TestGet_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := NewClient(server.URL, "")
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Get(ctx, "/slow", nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want deadline exceeded", err)
	}
}

func TestGet_MaxBodyBytes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer server.Close()

	c := NewClient(server.URL, "", WithMaxBodyBytes(10))
	body, err := c.Get(context.Background(), "/", nil)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(body) != 10 {
		t.Errorf("len(body) = %d, want 10", len(body))
	}
}

func TestGraphQL(t *testing.T) {
	tests := []struct {
		name     string
		response string
		wantData string
		wantErr  string
	}{
		{
			name:     "data",
			response: `{"data":{"bitcoin":{"blocks":[]}}}`,
			wantData: `{"bitcoin":{"blocks":[]}}`,
		},
		{
			name:     "null data",
			response: `{"data":null}`,
		},
		{
			name:     "missing data",
			response: `{}`,
		},
		{
			name:     "errors with data",
			response: `{"data":{"bitcoin":null},"errors":[{"message":"limit exceeded"},{"message":"bad key"}]}`,
			wantErr:  "graphql errors: limit exceeded; bad key",
		},
		{
			name:     "not json",
			response: `<html>`,
			wantErr:  "unmarshal graphql envelope",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotKey string
			var gotReq GraphQLRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				if ct := r.Header.Get("Content-Type"); ct != "application/json" {
					t.Errorf("Content-Type = %q", ct)
				}
				gotKey = r.Header.Get("X-API-KEY")
				raw, _ := io.ReadAll(r.Body)
				json.Unmarshal(raw, &gotReq)
				w.Write([]byte(tt.response))
			}))
			defer server.Close()

			c := NewClient(server.URL, "key-1", WithAPIKeyHeader("X-API-KEY"))
			data, err := c.GraphQL(context.Background(), "", GraphQLRequest{
				Query:     "query { x }",
				Variables: map[string]any{"limit": 20},
			})

			if gotKey != "key-1" {
				t.Errorf("X-API-KEY = %q", gotKey)
			}
			if gotReq.Query != "query { x }" {
				t.Errorf("query = %q", gotReq.Query)
			}

			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GraphQL() error = %v", err)
			}
			if string(data) != tt.wantData {
				t.Errorf("data = %s, want %s", data, tt.wantData)
			}
		})
	}
}

func TestGraphQLErrors_As(t *testing.T) {
	var err error = GraphQLErrors{{Message: "boom"}}
	var gqlErr GraphQLErrors
	if !errors.As(err, &gqlErr) {
		t.Fatal("errors.As failed")
	}
	if len(gqlErr) != 1 || gqlErr[0].Message != "boom" {
		t.Errorf("got %+v", gqlErr)
	}
}
