package helpers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Validator is implemented by request DTOs that can check their own fields.
// Validate returns one message per problem; empty means the DTO is fine.
type Validator interface {
	Validate() []string
}

// DecodeAndValidate decodes the JSON request body into dest, rejecting unknown
// fields, and runs dest's Validate when it implements Validator. A body that
// does not decode answers 400 bad_request; field problems answer 400
// validation_error. It reports whether the handler should continue.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	v, ok := dest.(Validator)
	if !ok {
		return true
	}
	if problems := v.Validate(); len(problems) > 0 {
		WriteJSONError(w, http.StatusBadRequest, ErrCodeValidation, strings.Join(problems, "; "))
		return false
	}
	return true
}
