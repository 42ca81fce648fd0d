package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/slapshotlabs/rinkside/internal/api/authz"
)

// ErrorBody is the JSON failure envelope: a human-readable summary, the
// underlying cause, and an optional machine code.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

func WriteError(w http.ResponseWriter, status int, summary, details string) {
	_ = WriteJSON(w, status, ErrorBody{Error: summary, Details: details})
}

// RequireRole gates a JSON endpoint on the caller's role and writes the
// denial response itself when access fails. The three denial shapes stay
// distinct: 401 unauthenticated, 403 "no role assigned" for mis-provisioned
// accounts, 403 "insufficient permissions" for the wrong role.
func RequireRole(w http.ResponseWriter, r *http.Request, allowed ...authz.Role) bool {
	logger := log.Ctx(r.Context())
	user := authz.UserFromContext(r.Context())
	if err := authz.RequireRole(r.Context(), allowed...); err != nil {
		switch {
		case errors.Is(err, authz.ErrUnauthenticated):
			logger.Warn().Str("path", r.URL.Path).Msg("Access denied: unauthenticated")
			WriteError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
		case errors.Is(err, authz.ErrNoRole):
			logEvent := logger.Warn().Str("path", r.URL.Path)
			if user != nil {
				logEvent = logEvent.Str("user_id", user.ID)
			}
			logEvent.Msg("Access denied: no role assigned")
			WriteError(w, http.StatusForbidden, "no role assigned", "this account has no role assignment; contact an administrator")
		case errors.Is(err, authz.ErrForbidden):
			logEvent := logger.Warn().Str("path", r.URL.Path)
			if user != nil {
				logEvent = logEvent.Str("user_id", user.ID).Str("role", user.Role.String())
			}
			logEvent.Msg("Access denied: insufficient permissions")
			WriteError(w, http.StatusForbidden, "insufficient permissions", "this account's role does not permit this action")
		default:
			logger.Error().Err(err).Str("path", r.URL.Path).Msg("Access denied: error")
			WriteError(w, http.StatusInternalServerError, "failed to authorize request", "")
		}
		return false
	}
	return true
}
