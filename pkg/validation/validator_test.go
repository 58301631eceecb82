package validation

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateSelectionEntry(t *testing.T) {
	tests := []struct {
		name    string
		entry   *SelectionEntry
		wantErr string
	}{
		{"valid", &SelectionEntry{ID: "5", Param: "seed", Title: "KSampler"}, ""},
		{"title optional", &SelectionEntry{ID: "5", Param: "seed"}, ""},
		{"missing id", &SelectionEntry{Param: "seed"}, "ID: field is required"},
		{"missing param", &SelectionEntry{ID: "5"}, "Param: field is required"},
		{"blank param", &SelectionEntry{ID: "5", Param: "  "}, "Param: field is blank"},
		{"param too long", &SelectionEntry{ID: "5", Param: strings.Repeat("p", 257)}, "Param: must not exceed 256"},
		{"nil", nil, "cannot be nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSelectionEntry(tt.entry)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateReportRequest(t *testing.T) {
	sel := json.RawMessage(`[{"id": 1, "param": "seed"}]`)
	prompt := json.RawMessage(`{}`)

	tests := []struct {
		name    string
		req     *ReportRequest
		wantErr bool
	}{
		{"valid", &ReportRequest{Selection: sel, Prompt: prompt}, false},
		{"valid with mode", &ReportRequest{Selection: sel, Prompt: prompt, Mode: "markdown"}, false},
		{"unknown mode", &ReportRequest{Selection: sel, Prompt: prompt, Mode: "html"}, true},
		{"missing selection", &ReportRequest{Prompt: prompt}, true},
		{"null prompt", &ReportRequest{Selection: sel, Prompt: json.RawMessage("null")}, true},
		{"nil", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateReportRequest(tt.req)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateReportRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateResolveRequest(t *testing.T) {
	ok := &ResolveRequest{Prompt: json.RawMessage(`{}`), Node: "3", Param: "seed"}
	if err := ValidateResolveRequest(ok); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateResolveRequest(&ResolveRequest{Prompt: json.RawMessage(`{}`), Param: "seed"}); err == nil {
		t.Error("missing node accepted")
	}
}

func TestValidateSelectionSize(t *testing.T) {
	if err := ValidateSelectionSize(MaxSelectionEntries); err != nil {
		t.Errorf("limit rejected: %v", err)
	}
	if err := ValidateSelectionSize(MaxSelectionEntries + 1); err == nil {
		t.Error("oversized selection accepted")
	}
}

func TestConfigValidator(t *testing.T) {
	type section struct {
		Listen string `validate:"required"`
	}

	cv := NewConfigValidator("server").
		Required("listen", "").
		OneOf("mode", "html", []string{"grouped", "raw"}).
		MinDuration("debounce", time.Millisecond, 10*time.Millisecond).
		When(false, func(cv *ConfigValidator) { cv.Required("never", "") }).
		HostPort("http", "localhost").
		HostPort("unset", "").
		SocketURL("nng", "udp://x").
		Struct(section{})

	if got := len(cv.Errors()); got != 6 {
		t.Fatalf("collected %d errors, want 6: %v", got, cv.Errors())
	}

	var fe *FieldError
	if !errors.As(cv.Errors()[0], &fe) || fe.Field != "listen" {
		t.Errorf("first failure = %#v", cv.Errors()[0])
	}
	err := cv.Validate()
	if err == nil || !strings.Contains(err.Error(), "server.listen") || !strings.Contains(err.Error(), "server.mode") {
		t.Errorf("joined error = %v", err)
	}

	clean := NewConfigValidator("ok").
		Required("a", "x").
		OneOf("b", "raw", []string{"raw"}).
		HostPort("c", ":8080").
		SocketURL("d", "ipc:///tmp/s.ipc")
	if err := clean.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
