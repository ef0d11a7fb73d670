package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"kids_math/internal/api/middleware"
	"kids_math/internal/common"
)

// currentUser returns the authenticated user id or writes a 401.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
	}
	return userID, ok
}

// intQuery parses an optional integer query parameter; ok is false when the
// value is present but malformed, in which case a 400 has been written.
func intQuery(w http.ResponseWriter, r *http.Request, name string) (value *int, ok bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid "+name+": must be an integer")
		return nil, false
	}
	return &n, true
}

// decodeJSON reads the request body into T, writing a 400 when it is malformed.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return v, false
	}
	return v, true
}
