package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// EngineType selects the browser automation engine for a job
type EngineType string

const (
	EngineChromedp EngineType = "chromedp"
	EngineAgent    EngineType = "agent"
)

// Valid returns true for a known engine type
func (e EngineType) Valid() bool {
	return e == EngineChromedp || e == EngineAgent
}

var validate = validator.New()

// ContactInfo holds optional submitter contact details
type ContactInfo struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty"`
}

// FormRequest describes a form to fill and submit
type FormRequest struct {
	TargetURL          string       `json:"target_url" validate:"required,url"`
	Platform           string       `json:"platform,omitempty"`
	FormType           string       `json:"form_type,omitempty"`
	Priority           string       `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	Subject            string       `json:"subject" validate:"required,min=3,max=200"`
	Description        string       `json:"description" validate:"required,min=10"`
	ReferenceURLs      []string     `json:"reference_urls,omitempty" validate:"omitempty,dive,url"`
	AdditionalComments string       `json:"additional_comments,omitempty"`
	UploadedFiles      []string     `json:"uploaded_files,omitempty"`
	ContactInfo        *ContactInfo `json:"contact_info,omitempty"`

	RequireHumanApproval *bool      `json:"require_human_approval,omitempty"`
	BrowserEngine        EngineType `json:"browser_engine,omitempty"`
	Headless             *bool      `json:"headless,omitempty"`
}

// Validate checks the request and applies defaults for omitted fields
func (r *FormRequest) Validate() error {
	if r.BrowserEngine == "" {
		r.BrowserEngine = EngineChromedp
	}
	if !r.BrowserEngine.Valid() {
		return fmt.Errorf("unknown browser engine: %s", r.BrowserEngine)
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid form request: %w", err)
	}
	return nil
}

// RequiresApproval reports whether the job must pause at the approval gate.
// Defaults to true when the field is omitted.
func (r *FormRequest) RequiresApproval() bool {
	if r.RequireHumanApproval == nil {
		return true
	}
	return *r.RequireHumanApproval
}

