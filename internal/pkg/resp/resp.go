/*
Package resp provides helpers for sending the ops API's JSON envelope.

Every response carries a business code (0 for success, an errs code otherwise), a message and
optional data, so operators and scripts can branch on the code instead of parsing text.
*/
package resp

import (
	"bytes"
	"encoding/json"
	"net/http"

	"roomchat/internal/pkg/errs"
	"roomchat/internal/pkg/logx"
)

// JSONResponse defines the standardized JSON response envelope.
type JSONResponse struct {
	// Code is the business status code (0 for success, see errs package otherwise).
	Code int `json:"code"`

	// Message is the human-readable status or error line.
	Message string `json:"message"`

	// Data is the optional response payload.
	Data any `json:"data,omitempty"`
}

// RespondJSON encodes payload and writes it with the given status.
// Chat text routinely contains '<' and '>', so HTML escaping is disabled.
func RespondJSON(w http.ResponseWriter, r *http.Request, httpStatus int, payload any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(payload); err != nil {
		logx.Error(err, "Error encoding JSON response", "http_status", httpStatus, "path", r.URL.Path)
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(httpStatus)

	if _, err := w.Write(buf.Bytes()); err != nil {
		logx.Warn("Failed to write JSON response", "path", r.URL.Path, "error", err.Error())
	}
}

// RespondSuccess sends a 200 response wrapping data.
func RespondSuccess(w http.ResponseWriter, r *http.Request, data any) {
	RespondJSON(w, r, http.StatusOK, JSONResponse{Code: 0, Message: "success", Data: data})
}

// RespondError sends the status and message of customErr; nil is treated as ErrUnknown.
func RespondError(w http.ResponseWriter, r *http.Request, customErr *errs.CustomError) {
	if customErr == nil {
		customErr = errs.NewError(errs.ErrUnknown)
	}

	status := customErr.Status
	if status == 0 {
		status = http.StatusOK
	}

	RespondJSON(w, r, status, JSONResponse{Code: customErr.Code, Message: customErr.Message})
}
