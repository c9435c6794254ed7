package view

import (
	"encoding/json"
	"time"

	"github.com/fatih/color"
)

type ValidateView interface {
	Render(result ValidateResult)
}

type ValidateResult struct {
	FileCount int
	Errors    []ValidateFileError
}

type ValidateFileError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

func (r ValidateResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// Human view implementation.

type validateHumanView struct {
	*HumanView
}

func (v *validateHumanView) Render(result ValidateResult) {
	if result.HasErrors() {
		for _, e := range result.Errors {
			v.Println(color.RedString("Error!"), e.File+":", e.Message)
		}
		return
	}

	v.Printf("%s %d design files, no errors found.\n", color.GreenString("Valid!"), result.FileCount)
}

// JSON view implementation.

type validateJSONView struct {
	*JSONView
}

type validateJSONResult struct {
	Type      string              `json:"type"`
	Status    string              `json:"status"`
	Timestamp time.Time           `json:"timestamp"`
	Files     int                 `json:"files"`
	Errors    []ValidateFileError `json:"errors,omitempty"`
}

func (v *validateJSONView) Render(result ValidateResult) {
	out := validateJSONResult{
		Type:      "validate",
		Timestamp: time.Now(),
		Files:     result.FileCount,
	}

	if result.HasErrors() {
		out.Status = "error"
		out.Errors = result.Errors
	} else {
		out.Status = "success"
	}

	if data, err := json.Marshal(out); err == nil {
		v.Println(string(data))
	}
}

func NewValidateView(v Viewer) ValidateView {
	switch vt := v.(type) {
	case *HumanView:
		return &validateHumanView{HumanView: vt}
	case *JSONView:
		return &validateJSONView{JSONView: vt}
	default:
		panic("unknown view type")
	}
}
