package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vidtube/backend/internal/access"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/media"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	vb "github.com/vidtube/backend/internal/viewbuilder"
)

const maxJSONBody = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationError is a client input problem reported verbatim with a 400.
type validationError struct {
	msg string
}

func (e validationError) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return validationError{msg: fmt.Sprintf(format, args...)}
}

func respond(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload := models.NewAPIResponse(status, data, message)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

// respondError maps err onto a status code and writes the failure envelope.
func respondError(ctx context.Context, w http.ResponseWriter, err error) {
	status, message := classify(err)
	logger := logging.FromContext(ctx)
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "error", err)
	default:
		logger.Warn("request returned client error", "status", status, "error", err)
	}
	respond(ctx, w, status, nil, message)
}

func classify(err error) (int, string) {
	var verr validationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.msg
	case errors.Is(err, media.ErrInvalidFile):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid user credentials"
	case errors.Is(err, auth.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, auth.ErrRefreshTokenExpired):
		return http.StatusUnauthorized, "unauthorized request"
	case errors.Is(err, access.ErrForbidden):
		return http.StatusForbidden, "you do not own this resource"
	case errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound, "resource not found"
	case errors.Is(err, repositories.ErrConflict):
		return http.StatusConflict, "resource already exists"
	case errors.Is(err, repositories.ErrConstraint):
		return http.StatusBadRequest, "request violates a data constraint"
	case errors.Is(err, media.ErrStorage):
		return http.StatusBadGateway, "media storage unavailable"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// decodeJSON reads a JSON body into dst and validates its struct tags.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return invalid("invalid request body")
	}
	return validateStruct(dst)
}

func validateStruct(dst any) error {
	err := validate.Struct(dst)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := jsonName(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, name+" is required")
		case "email":
			msgs = append(msgs, name+" must be a valid email address")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters long", name, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters long", name, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", name, fe.Tag()))
		}
	}
	return validationError{msg: strings.Join(msgs, "; ")}
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// pathID returns a required path segment.
func pathID(r *http.Request, name string) (string, error) {
	id := strings.TrimSpace(r.PathValue(name))
	if id == "" {
		return "", invalid("%s is required", name)
	}
	return id, nil
}

// pageRequest reads page and limit query parameters; missing or malformed
// values fall back to the defaults.
func pageRequest(r *http.Request) vb.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return vb.PageRequest{Page: page, Limit: limit}.Normalize()
}

func viewerID(ctx context.Context) string {
	identity, _ := auth.IdentityFromContext(ctx)
	return identity.UserID
}

// loadOwned fetches the resource named by the path parameter and checks the
// caller owns it. On failure the response has already been written.
func loadOwned[T access.Owned](w http.ResponseWriter, r *http.Request, param string, find func(context.Context, string) (T, error)) (T, bool) {
	ctx := r.Context()
	var zero T

	identity, err := auth.RequireIdentity(ctx)
	if err != nil {
		respondError(ctx, w, err)
		return zero, false
	}
	id, err := pathID(r, param)
	if err != nil {
		respondError(ctx, w, err)
		return zero, false
	}

	resource, err := find(ctx, id)
	if err != nil {
		respondError(ctx, w, err)
		return zero, false
	}
	if err := access.Authorize(identity.UserID, resource); err != nil {
		respondError(ctx, w, err)
		return zero, false
	}
	return resource, true
}
