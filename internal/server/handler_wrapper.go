// Provides middleware for standardizing HTTP handlers.

package server

import (
	"bytes"
	"context"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"

	"github.com/maruel/ksid"
	"github.com/stagehand/stagehand/internal/server/dto"
	"github.com/stagehand/stagehand/internal/server/handlers"
	"github.com/stagehand/stagehand/internal/server/ratelimit"
	"github.com/stagehand/stagehand/internal/server/reqctx"
	"github.com/stagehand/stagehand/internal/storage/history"
)

// isMutating returns true for HTTP methods that modify state.
func isMutating(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch || method == http.MethodDelete
}

// commitIfMutating records the data files after a mutating request.
//
// It always attempts the commit regardless of handler outcome. When no files
// changed, Commit is a no-op.
func commitIfMutating(ctx context.Context, r *http.Request, svc *handlers.Services, s *reqctx.Session) {
	if svc.History == nil || !isMutating(r.Method) {
		return
	}
	author := history.Author{Name: s.Name}
	msg := fmt.Sprintf("%s %s", r.Method, r.URL.Path)
	if err := svc.History.Commit(ctx, author, msg, svc.DataFiles); err != nil {
		slog.ErrorContext(ctx, "Failed to commit data changes", "err", err)
	}
}

// checkRateLimit consumes a token of the request's tier. Returns whether the
// request should proceed; otherwise the 429 was written.
func checkRateLimit(ctx context.Context, w http.ResponseWriter, r *http.Request, limits *ratelimit.Config) bool {
	res := ratelimit.Check(w, limits.Match(r.Method, r.URL.Path), reqctx.ClientIP(ctx))
	if res.Allowed {
		return true
	}
	slog.WarnContext(ctx, "Rate limited", "ip", reqctx.ClientIP(ctx), "path", r.URL.Path)
	writeError(w, dto.RateLimitExceeded(int(res.RetryAfter.Seconds())))
	return false
}

// readAndDecodeBody reads the request body with size limit and decodes JSON into input.
// Returns false if an error occurred and was written to the response.
func readAndDecodeBody[In any](ctx context.Context, w http.ResponseWriter, r *http.Request, input *In, cfg *handlers.Config) bool {
	if cfg != nil && cfg.MaxRequestBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxRequestBodyBytes)
	}

	body, err := io.ReadAll(r.Body)
	if err2 := r.Body.Close(); err == nil {
		err = err2
	}
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, dto.PayloadTooLarge(maxBytesErr.Limit))
			return false
		}
		slog.ErrorContext(ctx, "Failed to read request body", "err", err)
		writeError(w, dto.BadRequest("Failed to read request body."))
		return false
	}

	if len(bytes.TrimSpace(body)) > 0 {
		d := json.NewDecoder(bytes.NewReader(body))
		d.DisallowUnknownFields()
		if err := d.Decode(input); err != nil {
			slog.WarnContext(ctx, "Failed to decode request body", "err", err)
			writeError(w, dto.BadRequest("Invalid request body."))
			return false
		}
	}
	return true
}

// decodeRequest fills and validates the request. Returns false if an error
// was written to the response.
func decodeRequest[In any, PtrIn interface {
	*In
	dto.Validatable
}](ctx context.Context, w http.ResponseWriter, r *http.Request, cfg *handlers.Config) (PtrIn, bool) {
	input := new(In)
	if !readAndDecodeBody(ctx, w, r, input, cfg) {
		return nil, false
	}

	populatePathParams(r, input)
	populateQueryParams(r, input)

	if err := PtrIn(input).Validate(); err != nil {
		handleValidationError(ctx, w, err)
		return nil, false
	}
	return PtrIn(input), true
}

// Wrap wraps a handler function to work as an http.Handler.
// The function must have signature: func(context.Context, *In) (*Out, error)
// where In can be unmarshalled from JSON and Out is a struct.
// Path parameters can be extracted by tagging struct fields with `path:"name"`
// and query parameters with `query:"name"`.
// *In must implement dto.Validatable.
//
// Example:
//
//	type IDRequest struct {
//	    ID string `path:"id"`
//	}
//
//	func (h *SongHandler) GetSong(ctx context.Context, req *IDRequest) (*Response, error)
func Wrap[In any, PtrIn interface {
	*In
	dto.Validatable
}, Out any](fn func(context.Context, PtrIn) (*Out, error), cfg *Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if !checkRateLimit(ctx, w, r, cfg.Limits) {
			return
		}
		input, ok := decodeRequest[In, PtrIn](ctx, w, r, &cfg.Handlers)
		if !ok {
			return
		}
		output, err := fn(ctx, input)
		writeJSONResponse(ctx, w, output, err)
	})
}

// WrapAuth wraps a handler that requires the performer's session.
// The function must have signature: func(context.Context, *reqctx.Session, *In) (*Out, error)
// Data files are committed to the history after mutating requests.
func WrapAuth[In any, PtrIn interface {
	*In
	dto.Validatable
}, Out any](fn func(context.Context, *reqctx.Session, PtrIn) (*Out, error), svc *handlers.Services, cfg *Config) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		s := reqctx.SessionFrom(ctx)
		if s == nil {
			writeError(w, dto.Unauthorized("Authentication required."))
			return
		}
		if !checkRateLimit(ctx, w, r, cfg.Limits) {
			return
		}
		input, ok := decodeRequest[In, PtrIn](ctx, w, r, &cfg.Handlers)
		if !ok {
			return
		}
		output, err := fn(ctx, s, input)
		commitIfMutating(ctx, r, svc, s)
		writeJSONResponse(ctx, w, output, err)
	})
}

// populatePathParams extracts path parameters from the request and populates
// struct fields tagged with `path:"paramName"`.
func populatePathParams(r *http.Request, input any) {
	elem, ok := structElem(input)
	if !ok {
		return
	}
	setTagged(elem, "path", r.PathValue)
}

// populateQueryParams extracts query parameters from the request and populates
// struct fields tagged with `query:"paramName"`.
func populateQueryParams(r *http.Request, input any) {
	elem, ok := structElem(input)
	if !ok {
		return
	}
	query := r.URL.Query()
	setTagged(elem, "query", query.Get)
}

func structElem(input any) (reflect.Value, bool) {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Pointer {
		return reflect.Value{}, false
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	return elem, true
}

// setTagged sets the fields tagged with key from lookup, descending into
// embedded structs. Values that don't parse are left at their zero value.
func setTagged(elem reflect.Value, key string, lookup func(string) string) {
	typ := elem.Type()
	ksidType := reflect.TypeFor[ksid.ID]()
	for i := range typ.NumField() {
		field := typ.Field(i)
		fieldVal := elem.Field(i)
		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			setTagged(fieldVal, key, lookup)
			continue
		}
		tag := field.Tag.Get(key)
		if tag == "" {
			continue
		}
		paramValue := lookup(tag)
		if paramValue == "" {
			continue
		}

		switch {
		case field.Type == ksidType:
			if id, err := ksid.Parse(paramValue); err == nil {
				fieldVal.Set(reflect.ValueOf(id))
			}
		case field.Type.Kind() == reflect.String:
			fieldVal.SetString(paramValue)
		case field.Type.Kind() == reflect.Int:
			if intVal, err := strconv.Atoi(paramValue); err == nil {
				fieldVal.SetInt(int64(intVal))
			}
		case field.Type.Kind() == reflect.Bool:
			if b, err := strconv.ParseBool(paramValue); err == nil {
				fieldVal.SetBool(b)
			}
		default:
			// Try to use encoding.TextUnmarshaler interface for custom types
			if fieldVal.CanAddr() {
				if unmarshaler, ok := fieldVal.Addr().Interface().(encoding.TextUnmarshaler); ok {
					_ = unmarshaler.UnmarshalText([]byte(paramValue))
				}
			}
		}
	}
}

// handleValidationError handles a validation error from a request's Validate method.
func handleValidationError(ctx context.Context, w http.ResponseWriter, err error) {
	var ewsErr dto.ErrorWithStatus
	if !errors.As(err, &ewsErr) {
		ewsErr = dto.BadRequest(err.Error())
	}
	slog.WarnContext(ctx, "Validation error", "err", err, "statusCode", ewsErr.StatusCode(), "code", ewsErr.Code())
	writeError(w, ewsErr)
}

// writeJSONResponse writes a JSON response or error response.
func writeJSONResponse[Out any](ctx context.Context, w http.ResponseWriter, output *Out, err error) {
	if err != nil {
		var ewsErr dto.ErrorWithStatus
		if !errors.As(err, &ewsErr) {
			ewsErr = dto.Internal("Internal server error.").Wrap(err)
		}
		if ewsErr.StatusCode() >= http.StatusInternalServerError {
			slog.ErrorContext(ctx, "Handler error", "err", err, "statusCode", ewsErr.StatusCode(), "code", ewsErr.Code())
		} else {
			slog.InfoContext(ctx, "Handler error", "err", err, "statusCode", ewsErr.StatusCode(), "code", ewsErr.Code())
		}
		writeError(w, ewsErr)
		return
	}

	if cs, ok := any(output).(dto.CookieSetter); ok {
		for _, c := range cs.ResponseCookies() {
			http.SetCookie(w, c)
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(output); err != nil {
		slog.ErrorContext(ctx, "Failed to encode response", "err", err)
	}
}

// writeError writes an error response as JSON.
func writeError(w http.ResponseWriter, e dto.ErrorWithStatus) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode())
	if err := json.NewEncoder(w).Encode(dto.Body(e)); err != nil {
		slog.Error("Failed to encode error response", "err", err)
	}
}
