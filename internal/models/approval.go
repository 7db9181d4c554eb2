package models

import (
	"time"
)

// ApprovalDecision is a human reviewer's verdict on a pending job
type ApprovalDecision struct {
	Approved  bool   `json:"approved"`
	Reason    string `json:"reason,omitempty"`
	DecidedBy string `json:"approved_by,omitempty"`
}

// FormPreview is the snapshot a reviewer sees before deciding
type FormPreview struct {
	JobID               string            `json:"job_id"`
	TargetURL           string            `json:"target_url"`
	PageTitle           string            `json:"page_title,omitempty"`
	FormFieldsDetected  map[string]string `json:"form_fields_detected,omitempty"`
	Subject             string            `json:"subject"`
	Description         string            `json:"description"`
	ReferenceURLs       []string          `json:"reference_urls,omitempty"`
	AdditionalComments  string            `json:"additional_comments,omitempty"`
	ContactName         string            `json:"contact_name,omitempty"`
	ContactEmail        string            `json:"contact_email,omitempty"`
	ContactPhone        string            `json:"contact_phone,omitempty"`
	ScreenshotAvailable bool              `json:"screenshot_available"`
	CapturedAt          time.Time         `json:"captured_at"`
}

// NewFormPreview builds a preview from a request, leaving page level fields
// for the engine to fill in after inspection.
func NewFormPreview(jobID string, request *FormRequest) *FormPreview {
	preview := &FormPreview{
		JobID:              jobID,
		TargetURL:          request.TargetURL,
		Subject:            request.Subject,
		Description:        request.Description,
		ReferenceURLs:      request.ReferenceURLs,
		AdditionalComments: request.AdditionalComments,
		CapturedAt:         time.Now(),
	}
	if request.ContactInfo != nil {
		preview.ContactName = request.ContactInfo.Name
		preview.ContactEmail = request.ContactInfo.Email
		preview.ContactPhone = request.ContactInfo.Phone
	}
	return preview
}

// PendingApproval is a gate awaiting a decision
type PendingApproval struct {
	JobID       string       `json:"job_id"`
	Preview     *FormPreview `json:"preview,omitempty"`
	RequestedAt time.Time    `json:"requested_at"`
}

// ApprovalStats summarizes gate outcomes since startup
type ApprovalStats struct {
	Pending                int     `json:"pending"`
	Approved               int     `json:"approved"`
	Rejected               int     `json:"rejected"`
	ApprovalRatePercentage float64 `json:"approval_rate_percentage"`
}
