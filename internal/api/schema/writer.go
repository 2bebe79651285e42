// Package schema provides the unified response and request body handling of the backend API.
package schema

import (
	"encoding/json"
	"net/http"
)

// Writer helps writing unified API responses
type Writer struct {
	InternalErrorHook func(err error)
}

// WriteJSONCode writes the JSON representation of value to the given response writer using the given HTTP status code
func (writer *Writer) WriteJSONCode(rw http.ResponseWriter, code int, value any) {
	val, err := json.Marshal(value)
	if err != nil {
		writer.WriteInternalError(rw, err)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	rw.Write(val)
}

// WriteJSON writes the JSON representation of value to the given response writer.
// This method sends 200 OK as the HTTP status code; use WriteJSONCode to use a different one.
func (writer *Writer) WriteJSON(rw http.ResponseWriter, value any) {
	writer.WriteJSONCode(rw, http.StatusOK, value)
}

// WriteDetail sends an error response carrying a plain message
func (writer *Writer) WriteDetail(rw http.ResponseWriter, code int, detail string) {
	writer.WriteJSONCode(rw, code, &ErrorResponse{Detail: detail})
}

// WriteIssues sends an error response carrying a list of validation issues
func (writer *Writer) WriteIssues(rw http.ResponseWriter, code int, issues ...*Issue) {
	if issues == nil {
		issues = []*Issue{}
	}
	writer.WriteJSONCode(rw, code, &ErrorResponse{Detail: issues})
}

// WriteInternalError processes an internal server error and writes it to the response
func (writer *Writer) WriteInternalError(rw http.ResponseWriter, err error) {
	if writer.InternalErrorHook != nil {
		writer.InternalErrorHook(err)
	}
	val, _ := json.Marshal(&ErrorResponse{Detail: DetailInternal})
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusInternalServerError)
	rw.Write(val)
}
