package models

import (
	"testing"
)

func TestFormRequestValidate(t *testing.T) {
	request := &FormRequest{
		TargetURL:   "https://support.example.com/tickets/new",
		Subject:     "Billing question",
		Description: "The last invoice includes a line item I do not recognize.",
	}

	if err := request.Validate(); err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}

	// Engine defaults applied during validation
	if request.BrowserEngine != EngineChromedp {
		t.Errorf("Expected chromedp default, got: %s", request.BrowserEngine)
	}
}

func TestFormRequestValidateFailures(t *testing.T) {
	tests := []struct {
		name    string
		request *FormRequest
	}{
		{
			name: "missing target url",
			request: &FormRequest{
				Subject:     "Subject here",
				Description: "A long enough description of the problem.",
			},
		},
		{
			name: "malformed target url",
			request: &FormRequest{
				TargetURL:   "not-a-url",
				Subject:     "Subject here",
				Description: "A long enough description of the problem.",
			},
		},
		{
			name: "short description",
			request: &FormRequest{
				TargetURL:   "https://example.com/form",
				Subject:     "Subject here",
				Description: "short",
			},
		},
		{
			name: "bad contact email",
			request: &FormRequest{
				TargetURL:   "https://example.com/form",
				Subject:     "Subject here",
				Description: "A long enough description of the problem.",
				ContactInfo: &ContactInfo{Email: "not-an-email"},
			},
		},
		{
			name: "unknown engine",
			request: &FormRequest{
				TargetURL:     "https://example.com/form",
				Subject:       "Subject here",
				Description:   "A long enough description of the problem.",
				BrowserEngine: EngineType("selenium"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.request.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestFormRequestDefaults(t *testing.T) {
	request := &FormRequest{}

	if !request.RequiresApproval() {
		t.Error("Expected approval required by default")
	}

	f := false
	request.RequireHumanApproval = &f

	if request.RequiresApproval() {
		t.Error("Expected approval disabled when explicitly false")
	}
}
