package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// RespondWithError writes {"message": message}.
func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Message: message})
}

// RespondWithErrorDetail writes {"message": message, "error": detail}.
func RespondWithErrorDetail(w http.ResponseWriter, code int, message string, detail error) {
	resp := ErrorResponse{Message: message}
	if detail != nil {
		resp.Error = detail.Error()
	}
	RespondWithJSON(w, code, resp)
}

// RespondWithJSON writes payload as the response body. A payload that cannot be
// encoded turns into a bare 500.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// DecodeJSON decodes the request body into dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
