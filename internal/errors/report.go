package errors

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/orbitlang/orbit-backend/internal/ast"
)

// Report is the canonical structured error type for the Orbit backend.
// Every phase error constructor returns a *Report, wrapped as an error
// via WrapReport (spec §6.4).
type Report struct {
	Schema  string         `json:"schema"`         // Always "orbit.error/v1"
	Code    string         `json:"code"`           // Error code (DEP001, RES002, ...)
	Phase   string         `json:"phase"`          // "dependency", "extract", "resolve", ...
	Message string         `json:"message"`        // Human-readable message
	Pos     *ast.Pos       `json:"pos,omitempty"`  // Source location (optional)
	Data    map[string]any `json:"data,omitempty"` // Structured data
}

// ReportError wraps a Report as an error so structured reports survive
// errors.As() unwrapping.
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown error"
	}
	if e.Rep.Pos != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Rep.Code, e.Rep.Message, e.Rep.Pos)
	}
	return fmt.Sprintf("%s: %s", e.Rep.Code, e.Rep.Message)
}

// AsReport attempts to extract a Report from an error chain.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// WrapReport wraps a Report as an error. Phase constructors return
// errors.WrapReport(New...(...)) so the report survives the call stack.
func WrapReport(r *Report) error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// ToJSON converts a Report to deterministic JSON.
func (r *Report) ToJSON(compact bool) (string, error) {
	var data []byte
	var err error
	if compact {
		data, err = json.Marshal(r)
	} else {
		data, err = json.MarshalIndent(r, "", "  ")
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// New builds a Report for one of the phase-prefixed codes in
// ErrorRegistry, filling Phase from the registry.
func New(code, message string, pos *ast.Pos, data map[string]any) *Report {
	phase := "unknown"
	if info, ok := GetErrorInfo(code); ok {
		phase = info.Phase
	}
	return &Report{
		Schema:  "orbit.error/v1",
		Code:    code,
		Phase:   phase,
		Message: message,
		Pos:     pos,
		Data:    data,
	}
}
