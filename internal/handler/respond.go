package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pivotapp/pivot/internal/httperr"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON parses the request body into dst, rejecting unknown fields
// and trailing garbage so malformed bodies fail as validation errors.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		return httperr.BadRequest("invalid request body")
	}

	return nil
}
