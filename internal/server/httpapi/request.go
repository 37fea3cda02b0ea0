package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dmitrijs2005/keuthlie/internal/common"
	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 64 << 10

var validate = validator.New(validator.WithRequiredStructEnabled())

// Password fields are pointers: required then only rejects a missing or null
// value, and an empty password reaches the length check of the flow.
type registerRequest struct {
	Email    string  `json:"email" validate:"required"`
	Username string  `json:"username" validate:"required"`
	Password *string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string  `json:"email" validate:"required"`
	Password *string `json:"password" validate:"required"`
	Service  string  `json:"service" validate:"required"`
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type changePasswordRequest struct {
	Token       string  `json:"token" validate:"required"`
	Password    *string `json:"password" validate:"required"`
	NewPassword *string `json:"newPassword" validate:"required"`
}

// decode reads exactly one JSON object into dst and validates it. Unknown
// fields, non-string values, trailing data and missing fields are all
// reported as common.ErrMalformedInput.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMalformedInput, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: trailing data", common.ErrMalformedInput)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMalformedInput, err)
	}
	return nil
}
