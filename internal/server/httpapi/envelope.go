package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/keuthlie/internal/common"
)

// Wire error codes.
const (
	CodeOK                 = 0
	CodeInvalidCredentials = -1
	CodePasswordTooShort   = -2
	CodeUsernameTaken      = -3
	CodeEmailTaken         = -4
	CodeMalformedInput     = -5
	CodeServiceNotAllowed  = -6
	CodeInvalidToken       = -7
	CodeInternal           = -99
)

type successEnvelope struct {
	Error   int `json:"error"`
	Payload any `json:"payload"`
}

type errorEnvelope struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

type apiError struct {
	status  int
	code    int
	message string
}

var errorTable = []struct {
	err error
	apiError
}{
	{common.ErrInvalidCredentials, apiError{http.StatusForbidden, CodeInvalidCredentials, "Invalid e-mail or password!"}},
	{common.ErrPasswordTooShort, apiError{http.StatusForbidden, CodePasswordTooShort, "Password too short!"}},
	{common.ErrUsernameTaken, apiError{http.StatusForbidden, CodeUsernameTaken, "Username already in use!"}},
	{common.ErrEmailInUse, apiError{http.StatusForbidden, CodeEmailTaken, "E-mail already in use!"}},
	{common.ErrMalformedInput, apiError{http.StatusBadRequest, CodeMalformedInput, "Invalid data provided!"}},
	{common.ErrServiceNotAllowed, apiError{http.StatusForbidden, CodeServiceNotAllowed, "Disallowed service selected!"}},
	{common.ErrInvalidToken, apiError{http.StatusUnauthorized, CodeInvalidToken, "Invalid token!"}},
}

var internalError = apiError{http.StatusInternalServerError, CodeInternal, "Internal error, please report this with details."}

func classify(err error) apiError {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.apiError
		}
	}
	return internalError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, payload any) {
	writeJSON(w, http.StatusOK, successEnvelope{Error: CodeOK, Payload: payload})
}

func writeError(w http.ResponseWriter, err error) {
	e := classify(err)
	writeJSON(w, e.status, errorEnvelope{Error: e.code, Message: e.message})
}
