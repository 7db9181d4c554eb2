package engines

import (
	"testing"

	"github.com/ternarybob/probo/internal/models"
)

const sampleFormHTML = `
<html>
<head><title>Support Portal</title></head>
<body>
<form action="/tickets" method="post">
  <input type="hidden" name="csrf_token" value="abc">
  <input type="text" name="subject" id="subject">
  <textarea name="description"></textarea>
  <input type="email" name="contact_email">
  <input type="tel" name="contact_phone">
  <input name="reporter_name" id="reporter_name">
  <select name="priority">
    <option value="low">Low</option>
    <option value="high">High</option>
  </select>
  <input type="file" name="attachment">
  <button type="submit">Submit</button>
</form>
</body>
</html>`

func TestDetectFormFields(t *testing.T) {
	fields, err := detectFormFields(sampleFormHTML)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := map[string]string{
		"subject":       "text",
		"description":   "textarea",
		"contact_email": "email",
		"contact_phone": "tel",
		"reporter_name": "text",
		"priority":      "select",
		"attachment":    "file",
	}

	for name, fieldType := range want {
		if got, ok := fields[name]; !ok {
			t.Errorf("Expected field %q detected", name)
		} else if got != fieldType {
			t.Errorf("Field %q: expected type %s, got: %s", name, fieldType, got)
		}
	}

	// Hidden and submit controls are not fillable
	if _, ok := fields["csrf_token"]; ok {
		t.Error("Expected hidden field excluded")
	}
}

func TestDetectFormFieldsEmptyPage(t *testing.T) {
	fields, err := detectFormFields("<html><body><p>No form here</p></body></html>")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("Expected no fields, got: %d", len(fields))
	}
}

func TestHeuristicMapping(t *testing.T) {
	request := &models.FormRequest{
		TargetURL:          "https://support.example.com/tickets/new",
		Subject:            "Account locked out",
		Description:        "Cannot log in since this morning.",
		Priority:           "high",
		ReferenceURLs:      []string{"https://status.example.com/incident/42"},
		AdditionalComments: "Happens on two machines.",
		ContactInfo: &models.ContactInfo{
			Name:  "Sam Doe",
			Email: "sam@example.com",
			Phone: "+1 555 0100",
		},
	}

	fields, err := detectFormFields(sampleFormHTML)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	mapping := heuristicMapping(request, fields)

	if mapping["subject"] != "Account locked out" {
		t.Errorf("Expected subject mapped, got: %q", mapping["subject"])
	}
	if mapping["contact_email"] != "sam@example.com" {
		t.Errorf("Expected email mapped, got: %q", mapping["contact_email"])
	}
	if mapping["contact_phone"] != "+1 555 0100" {
		t.Errorf("Expected phone mapped, got: %q", mapping["contact_phone"])
	}
	if mapping["reporter_name"] != "Sam Doe" {
		t.Errorf("Expected name mapped, got: %q", mapping["reporter_name"])
	}
	if mapping["priority"] != "high" {
		t.Errorf("Expected priority mapped, got: %q", mapping["priority"])
	}

	// Description carries reference URLs for forms without a URL field
	description := mapping["description"]
	if description == "" {
		t.Fatal("Expected description mapped")
	}
	if !containsAny(description, "https://status.example.com/incident/42") {
		t.Error("Expected reference URL appended to description")
	}
}

func TestHeuristicMappingSkipsMissingData(t *testing.T) {
	request := &models.FormRequest{
		TargetURL:   "https://support.example.com/tickets/new",
		Subject:     "Subject only",
		Description: "A description long enough to be valid here.",
	}

	fields := map[string]string{
		"subject":       "text",
		"contact_email": "email",
	}

	mapping := heuristicMapping(request, fields)
	if _, ok := mapping["contact_email"]; ok {
		t.Error("Expected no email mapping without contact info")
	}
	if mapping["subject"] != "Subject only" {
		t.Errorf("Expected subject mapped, got: %q", mapping["subject"])
	}
}

func TestParseMappingResponse(t *testing.T) {
	fields := map[string]string{"subject": "text", "description": "textarea"}

	reply := "Here is the mapping:\n{\"subject\": \"Account locked out\", \"description\": \"Details\", \"bogus\": \"x\"}"
	mapping, err := parseMappingResponse(reply, fields)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if mapping["subject"] != "Account locked out" {
		t.Errorf("Expected subject preserved, got: %q", mapping["subject"])
	}
	if _, ok := mapping["bogus"]; ok {
		t.Error("Expected keys outside detected fields dropped")
	}

	if _, err := parseMappingResponse("no json here", fields); err == nil {
		t.Error("Expected error for reply without JSON")
	}
}
