package httpapi

import (
	"bytes"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	requestBodyAttribute          = "http.request.body"
	requestBodyTruncatedAttribute = "http.request.body.truncated"
)

// CaptureRequestBody copies up to maxBytes of a request body onto the active
// span. The handler still sees the full body.
func CaptureRequestBody(maxBytes int, next http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = 8192
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span := trace.SpanFromContext(r.Context())
		if r.Body == nil || r.Body == http.NoBody || !span.IsRecording() {
			next.ServeHTTP(w, r)
			return
		}

		head, err := io.ReadAll(io.LimitReader(r.Body, int64(maxBytes)+1))
		if err != nil {
			span.SetAttributes(attribute.String(requestBodyAttribute+".error", err.Error()))
		}
		truncated := len(head) > maxBytes
		captured := head
		if truncated {
			captured = head[:maxBytes]
		}
		span.SetAttributes(
			attribute.String(requestBodyAttribute, string(captured)),
			attribute.Bool(requestBodyTruncatedAttribute, truncated),
		)

		r.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
		next.ServeHTTP(w, r)
	})
}
