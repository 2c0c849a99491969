package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// scriptRe matches whole <script>...</script> blocks, case insensitive,
// across newlines
var scriptRe = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)

// escaper neutralizes the characters that would let a stored value
// break out into markup when echoed back
var escaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// SanitizeBody rewrites JSON and urlencoded request bodies so that every
// string value, however deeply nested, is HTML-entity escaped and stripped
// of script blocks before any handler sees it. Other content types pass
// through untouched; so do unparseable bodies, which handlers reject with
// their own decode errors.
func SanitizeBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch mediaType(r) {
		case "application/json":
			sanitizeJSONBody(r)
		case "application/x-www-form-urlencoded":
			sanitizeFormBody(r)
		}

		next.ServeHTTP(w, r)
	})
}

// SanitizeString escapes markup characters, then strips any script block
// that survived. Escaping comes first so a value that is nothing but a
// script tag still stores as a harmless escaped string instead of vanishing.
func SanitizeString(s string) string {
	return scriptRe.ReplaceAllString(escaper.Replace(s), "")
}

func mediaType(r *http.Request) string {
	ct := r.Header.Get("Content-Type")
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.TrimSpace(strings.ToLower(ct))
}

func sanitizeJSONBody(r *http.Request) {
	if r.Body == nil {
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		// Propagate the read error (body limit included) to the handler
		r.Body = &errReader{err: err}
		return
	}
	_ = r.Body.Close()

	if len(bytes.TrimSpace(raw)) == 0 {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		return
	}

	// UseNumber keeps numeric literals intact: round-tripping through
	// float64 would corrupt integers beyond 2^53
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		return
	}

	clean, err := json.Marshal(sanitizeValue(value))
	if err != nil {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		return
	}

	r.Body = io.NopCloser(bytes.NewReader(clean))
	r.ContentLength = int64(len(clean))
}

func sanitizeFormBody(r *http.Request) {
	if r.Body == nil {
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		r.Body = &errReader{err: err}
		return
	}
	_ = r.Body.Close()

	values, err := url.ParseQuery(string(raw))
	if err != nil {
		r.Body = io.NopCloser(bytes.NewReader(raw))
		return
	}

	clean := url.Values{}
	for key, vals := range values {
		for _, v := range vals {
			clean.Add(key, SanitizeString(v))
		}
	}

	encoded := []byte(clean.Encode())
	r.Body = io.NopCloser(bytes.NewReader(encoded))
	r.ContentLength = int64(len(encoded))
}

// sanitizeValue walks decoded JSON: strings get cleaned, containers are
// walked recursively, everything else passes through unchanged
func sanitizeValue(value any) any {
	switch v := value.(type) {
	case string:
		return SanitizeString(v)
	case []any:
		for i := range v {
			v[i] = sanitizeValue(v[i])
		}
		return v
	case map[string]any:
		for key := range v {
			v[key] = sanitizeValue(v[key])
		}
		return v
	default:
		return v
	}
}

type errReader struct {
	err error
}

func (e *errReader) Read([]byte) (int, error) { return 0, e.err }
func (e *errReader) Close() error             { return nil }
