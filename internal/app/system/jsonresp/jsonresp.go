// internal/app/system/jsonresp/jsonresp.go
package jsonresp

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response shape the dashboard client expects:
//
//	{ "status":"success", "message":"…", "data":{…} }
//	{ "status":"error", "code":"conflict", "message":"…" }
type Envelope struct {
	Status   string `json:"status"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message,omitempty"`
	Data     any    `json:"data,omitempty"`
	Warnings any    `json:"warnings,omitempty"`
}

// Codes used outside the workflow error kinds.
const (
	CodeUnauthenticated = "unauthenticated"
	CodeForbidden       = "forbidden"
	CodeBadRequest      = "bad_request"
	CodeRateLimited     = "rate_limited"
	CodeInternal        = "internal"
)

func write(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// OK writes a 200 success envelope.
func OK(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusOK, Envelope{Status: "success", Message: message, Data: data})
}

// Created writes a 201 success envelope.
func Created(w http.ResponseWriter, message string, data any) {
	write(w, http.StatusCreated, Envelope{Status: "success", Message: message, Data: data})
}

// WithWarnings writes a success envelope that also reports non-fatal issues,
// such as related ids dropped by the relation filter.
func WithWarnings(w http.ResponseWriter, status int, message string, data, warnings any) {
	write(w, status, Envelope{Status: "success", Message: message, Data: data, Warnings: warnings})
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, status int, code, message string) {
	write(w, status, Envelope{Status: "error", Code: code, Message: message})
}
