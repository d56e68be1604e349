package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"pt1/backend/app/services"

	"github.com/rs/zerolog"
)

const maxDetailValue = 80

// Field subsets recorded per route. Anything not listed never reaches the
// audit trail.
var (
	registerFields = []string{"client_id", "hostname", "username"}
	resultFields   = []string{"command_id", "status", "result_type"}
	defaultFields  = []string{"client_id", "stable_id", "command_id", "limit"}
)

// Routes whose first path segment carries a client id or a command id.
var (
	commandIDRoutes = map[string]bool{
		"upload_files":  true,
		"download_file": true,
		"get_result":    true,
		"list_files":    true,
	}
	clientIDRoutes = map[string]bool{
		"client_registry":  true,
		"terminate_client": true,
		"agent_transcript": true,
	}
)

// History records every API call as a terminal entry in the command ledger,
// attributed to the best client identity it can resolve.
type History struct {
	Commands *services.CommandService
	Log      zerolog.Logger
}

func (h *History) Record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := h.readBody(r)

		var bodyFields map[string]any
		if len(body) > 0 {
			_ = json.Unmarshal(body, &bodyFields)
		}

		sw := &statusWriter{ResponseWriter: w, status: 200}

		defer func() {
			if rec := recover(); rec != nil {
				h.Log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panic")
				h.append(r, bodyFields, http.StatusInternalServerError)
				panic(rec)
			}
		}()

		next.ServeHTTP(sw, r)

		// empty polls would flood the trail
		if r.URL.Path == "/next_command" && sw.status == http.StatusOK {
			return
		}
		h.append(r, bodyFields, sw.status)
	})
}

// readBody materializes JSON request bodies so both the audit trail and the
// handler can consume them. Non-UTF-8 bytes are treated as latin-1 and
// re-encoded so the replayed body is always valid UTF-8. Anything that is not
// a JSON write (multipart uploads, raw attachments) streams through untouched.
func (h *History) readBody(r *http.Request) []byte {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return nil
	}
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return nil
	}
	if r.Body == nil {
		return nil
	}
	raw, err := io.ReadAll(r.Body)
	r.Body.Close()
	if err != nil {
		r.Body = io.NopCloser(bytes.NewReader(nil))
		return nil
	}
	if !utf8.Valid(raw) {
		var b strings.Builder
		b.Grow(len(raw))
		for _, c := range raw {
			b.WriteRune(rune(c))
		}
		raw = []byte(b.String())
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	r.ContentLength = int64(len(raw))
	return raw
}

func (h *History) append(r *http.Request, bodyFields map[string]any, status int) {
	identity := h.resolveIdentity(r, bodyFields)
	label := "client_api " + r.Method + " " + r.URL.Path
	detail := buildDetail(r, bodyFields)
	h.Commands.LogClientCall(identity, label, status, detail)
}

// resolveIdentity picks the client to attribute the call to: a client id in
// the path, then a command id (path or body) resolved through the ledger,
// then client_id/stable_id from query or body, then "unknown".
func (h *History) resolveIdentity(r *http.Request, bodyFields map[string]any) string {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) >= 2 {
		switch {
		case clientIDRoutes[parts[0]]:
			return parts[1]
		case commandIDRoutes[parts[0]]:
			if owner, ok := h.Commands.OwnerOf(parts[1]); ok {
				return owner
			}
		}
	}

	if id := stringField(bodyFields, "command_id"); id != "" {
		if owner, ok := h.Commands.OwnerOf(id); ok {
			return owner
		}
	}

	for _, key := range []string{"client_id", "stable_id"} {
		if v := r.URL.Query().Get(key); v != "" {
			return v
		}
		if v := stringField(bodyFields, key); v != "" {
			return v
		}
	}
	return "unknown"
}

func buildDetail(r *http.Request, bodyFields map[string]any) string {
	fields := defaultFields
	switch r.URL.Path {
	case "/register_client":
		fields = registerFields
	case "/submit_result":
		fields = resultFields
	}

	var pairs []string
	for _, key := range fields {
		v := r.URL.Query().Get(key)
		if v == "" {
			v = stringField(bodyFields, key)
		}
		if v == "" {
			continue
		}
		pairs = append(pairs, key+"="+truncateValue(v))
	}
	return strings.Join(pairs, "&")
}

func truncateValue(v string) string {
	if utf8.RuneCountInString(v) <= maxDetailValue {
		return v
	}
	runes := []rune(v)
	return string(runes[:maxDetailValue]) + "..."
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
