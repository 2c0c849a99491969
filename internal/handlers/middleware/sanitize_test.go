package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{
			name:     "plain text untouched",
			in:       "Remnant",
			expected: "Remnant",
		},
		{
			name:     "markup characters escaped",
			in:       `<b>"bold"</b>`,
			expected: "&lt;b&gt;&quot;bold&quot;&lt;&#x2F;b&gt;",
		},
		{
			name:     "quotes and slashes escaped",
			in:       `it's a/b`,
			expected: "it&#x27;s a&#x2F;b",
		},
		{
			name:     "script tag neutralized",
			in:       `<script>alert("xss")</script>`,
			expected: "&lt;script&gt;alert(&quot;xss&quot;)&lt;&#x2F;script&gt;",
		},
		{
			name:     "empty string",
			in:       "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeString(tt.in)

			require.Equal(t, tt.expected, got)
			require.NotContains(t, strings.ToLower(got), "<script", "no executable script tag may survive")
		})
	}
}

func TestMiddleware_SanitizeBody(t *testing.T) {
	// Handler that echoes the body it received
	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		_, _ = w.Write(body)
	})

	srv := httptest.NewServer(SanitizeBody(echo))
	defer srv.Close()

	t.Run("json strings sanitized recursively", func(t *testing.T) {
		payload := `{
			"name": "<script>alert(1)</script>",
			"nested": {"bio": "likes <b>go</b>"},
			"tags": ["a<b", 42, true],
			"count": 7
		}`

		resp, err := http.Post(srv.URL+"/test", "application/json", strings.NewReader(payload))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		var got struct {
			Name   string `json:"name"`
			Nested struct {
				Bio string `json:"bio"`
			} `json:"nested"`
			Tags  []any `json:"tags"`
			Count int   `json:"count"`
		}
		require.NoError(t, json.Unmarshal(body, &got))

		require.Equal(t, "&lt;script&gt;alert(1)&lt;&#x2F;script&gt;", got.Name)
		require.Equal(t, "likes &lt;b&gt;go&lt;&#x2F;b&gt;", got.Nested.Bio)
		require.Equal(t, "a&lt;b", got.Tags[0], "strings inside arrays are sanitized")
		require.Equal(t, float64(42), got.Tags[1], "numbers pass through")
		require.Equal(t, true, got.Tags[2], "booleans pass through")
		require.Equal(t, 7, got.Count)
	})

	t.Run("large integers survive exactly", func(t *testing.T) {
		payload := `{"name":"ok","n":9007199254740993}`

		resp, err := http.Post(srv.URL+"/test", "application/json", strings.NewReader(payload))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Contains(t, string(body), "9007199254740993", "integers above 2^53 must not round-trip through float64")
	})

	t.Run("form values sanitized", func(t *testing.T) {
		form := url.Values{"name": {`<script>alert(1)</script>`}, "plain": {"value"}}

		resp, err := http.Post(srv.URL+"/test", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		got, err := url.ParseQuery(string(body))
		require.NoError(t, err)
		require.Equal(t, "&lt;script&gt;alert(1)&lt;&#x2F;script&gt;", got.Get("name"))
		require.Equal(t, "value", got.Get("plain"))
	})

	t.Run("invalid json passes through", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/test", "application/json", strings.NewReader("not-json"))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, "not-json", string(body), "handlers report their own decode errors")
	})

	t.Run("other content types untouched", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/test", "text/plain", strings.NewReader("<script>raw</script>"))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.Equal(t, "<script>raw</script>", string(body))
	})

	t.Run("content type with charset handled", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/test", "application/json; charset=utf-8", strings.NewReader(`{"v":"<x>"}`))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		defer resp.Body.Close() // nolint:errcheck

		require.JSONEq(t, `{"v":"&lt;x&gt;"}`, string(body))
	})
}
