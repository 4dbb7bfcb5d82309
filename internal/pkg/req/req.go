/*
Package req provides JSON request binding for the ops API.

Bodies are size-capped, must be declared as JSON, may not carry unknown fields and may not
contain trailing data after the first JSON value.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"roomchat/internal/pkg/errs"
)

// MaxJSONBodyBytes caps the size of any JSON request body (64 KB).
const MaxJSONBodyBytes int64 = 64 << 10

// BindJSON decodes the JSON body of r into dst.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}
