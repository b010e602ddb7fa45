package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestFetchExtractsText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head>
			<script>var tracked = true;</script>
			<style>body { color: red; }</style>
		</head><body>
			<h1>Weather Report</h1>
			<p>Sunny   with a chance
			of rain.</p>
			<noscript>Enable JavaScript</noscript>
		</body></html>`)
	}))
	defer srv.Close()

	fetch := NewFetchTool()
	out, err := fetch.Execute(context.Background(), &Input{Args: map[string]any{"url": srv.URL}})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !out.Success {
		t.Fatalf("Execute() failed: %s", out.Error)
	}

	if !strings.Contains(out.Output, "Weather Report Sunny with a chance of rain.") {
		t.Errorf("output %q missing collapsed page text", out.Output)
	}
	for _, leaked := range []string{"tracked", "color: red", "Enable JavaScript"} {
		if strings.Contains(out.Output, leaked) {
			t.Errorf("output leaked stripped content %q", leaked)
		}
	}
}

func TestFetchTruncatesLongPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", strings.Repeat("word ", 2000))
	}))
	defer srv.Close()

	fetch := NewFetchTool()
	out, err := fetch.Execute(context.Background(), &Input{Args: map[string]any{"url": srv.URL}})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !strings.HasSuffix(out.Output, "...") {
		t.Error("long page output is not marked as truncated")
	}
	if len(out.Output) > fetchMaxChars+len(srv.URL)+64 {
		t.Errorf("output length %d exceeds the truncation bound", len(out.Output))
	}
}

func TestFetchTruncatesOnRuneBoundary(t *testing.T) {
	// 2000 three-byte runes; a byte-based cut would split the last one.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", strings.Repeat("€", 2000))
	}))
	defer srv.Close()

	fetch := NewFetchTool()
	out, err := fetch.Execute(context.Background(), &Input{Args: map[string]any{"url": srv.URL}})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !out.Success {
		t.Fatalf("Execute() failed: %s", out.Error)
	}
	if !utf8.ValidString(out.Output) {
		t.Error("truncated output is not valid UTF-8")
	}
	if !strings.HasSuffix(out.Output, "...") {
		t.Error("long page output is not marked as truncated")
	}
}

func TestFetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	fetch := NewFetchTool()
	out, err := fetch.Execute(context.Background(), &Input{Args: map[string]any{"url": srv.URL}})
	if err != nil {
		t.Fatalf("Execute() returned a hard error: %v", err)
	}
	if out.Success {
		t.Fatal("Execute() succeeded on a 500 response")
	}
	if !strings.Contains(out.Error, "500") {
		t.Errorf("error %q does not mention the status code", out.Error)
	}
}

func TestFetchUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	fetch := NewFetchTool()
	out, err := fetch.Execute(context.Background(), &Input{Args: map[string]any{"url": url}})
	if err != nil {
		t.Fatalf("Execute() returned a hard error: %v", err)
	}
	if out.Success || out.Error == "" {
		t.Error("unreachable host must produce a descriptive tool error")
	}
}

func TestFetchValidate(t *testing.T) {
	fetch := NewFetchTool()

	tests := []struct {
		name    string
		args    map[string]any
		wantErr bool
	}{
		{"valid https", map[string]any{"url": "https://example.com/page"}, false},
		{"valid http", map[string]any{"url": "http://example.com"}, false},
		{"missing url", map[string]any{}, true},
		{"blank url", map[string]any{"url": "  "}, true},
		{"file scheme", map[string]any{"url": "file:///etc/passwd"}, true},
		{"no scheme", map[string]any{"url": "example.com/page"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fetch.Validate(&Input{Args: tt.args})
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%v) = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
		})
	}
}
