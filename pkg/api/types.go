package api

import (
	"encoding/json"

	"github.com/dd0wney/cluso-settingstext/pkg/report"
)

// SelectAllRequest asks for every selectable parameter of a workflow
type SelectAllRequest struct {
	Workflow json.RawMessage `json:"workflow"`
	Exclude  string          `json:"exclude,omitempty"`
}

// SelectAllResponse carries the selection, both as entries and as the
// JSON string the host widget stores
type SelectAllResponse struct {
	Entries   []report.Entry `json:"entries"`
	Selection string         `json:"selection"`
	Count     int            `json:"count"`
}

// ModesResponse lists the accepted report modes
type ModesResponse struct {
	Modes   []report.Mode `json:"modes"`
	Default report.Mode   `json:"default"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
