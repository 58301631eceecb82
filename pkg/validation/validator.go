package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// MaxSelectionEntries bounds one report request
	MaxSelectionEntries = 10000
	// MaxParamLength bounds a parameter name
	MaxParamLength = 256
)

func init() {
	validate = validator.New()
}

// SelectionEntry is one requested (node, parameter) pair after decoding
type SelectionEntry struct {
	ID    string `json:"id" validate:"required,max=128"`
	Param string `json:"param" validate:"required,max=256"`
	Title string `json:"title" validate:"max=512"`
}

// ReportRequest is the body of a report call. Selection may be a JSON
// array or a string holding one.
type ReportRequest struct {
	Selection json.RawMessage `json:"selection" validate:"required"`
	Prompt    json.RawMessage `json:"prompt" validate:"required"`
	Workflow  json.RawMessage `json:"workflow"`
	Mode      string          `json:"mode" validate:"omitempty,oneof=grouped raw raw-yaml table markdown"`
}

// ResolveRequest is the body of a single-parameter resolve call
type ResolveRequest struct {
	Prompt   json.RawMessage `json:"prompt" validate:"required"`
	Workflow json.RawMessage `json:"workflow"`
	Node     string          `json:"node" validate:"required,max=128"`
	Param    string          `json:"param" validate:"required,max=256"`
}

// ValidateSelectionEntry validates one decoded selection entry
func ValidateSelectionEntry(entry *SelectionEntry) error {
	if entry == nil {
		return errors.New("selection entry cannot be nil")
	}
	if err := validate.Struct(entry); err != nil {
		return formatValidationError(err)
	}
	if strings.TrimSpace(entry.Param) == "" {
		return errors.New("Param: field is blank")
	}
	return nil
}

// ValidateReportRequest validates a report request body
func ValidateReportRequest(req *ReportRequest) error {
	if req == nil {
		return errors.New("report request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	if isNull(req.Selection) {
		return errors.New("Selection: field is required")
	}
	if isNull(req.Prompt) {
		return errors.New("Prompt: field is required")
	}
	return nil
}

// ValidateResolveRequest validates a resolve request body
func ValidateResolveRequest(req *ResolveRequest) error {
	if req == nil {
		return errors.New("resolve request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	if isNull(req.Prompt) {
		return errors.New("Prompt: field is required")
	}
	return nil
}

// ValidateSelectionSize validates the number of entries in one request
func ValidateSelectionSize(size int) error {
	if size > MaxSelectionEntries {
		return fmt.Errorf("selection must not exceed %d entries, got %d", MaxSelectionEntries, size)
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%s: field is required", field)
		case "max":
			return fmt.Errorf("%s: must not exceed %s", field, param)
		case "oneof":
			return fmt.Errorf("%s: must be one of [%s]", field, param)
		default:
			return fmt.Errorf("%s: validation failed (%s)", field, e.Tag())
		}
	}

	return err
}
