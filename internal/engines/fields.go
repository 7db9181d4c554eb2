package engines

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/probo/internal/models"
)

// detectFormFields extracts named form controls from rendered markup.
// Keys are the control's name (or id when unnamed), values its input type.
func detectFormFields(html string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	doc.Find("input, textarea, select").Each(func(_ int, sel *goquery.Selection) {
		name, _ := sel.Attr("name")
		if name == "" {
			name, _ = sel.Attr("id")
		}
		if name == "" {
			return
		}

		fieldType := goquery.NodeName(sel)
		if fieldType == "input" {
			if t, ok := sel.Attr("type"); ok && t != "" {
				fieldType = t
			} else {
				fieldType = "text"
			}
		}
		if fieldType == "hidden" || fieldType == "submit" || fieldType == "button" {
			return
		}
		fields[name] = fieldType
	})

	return fields, nil
}

// pageDigest converts page markup to markdown for compact model prompting
func pageDigest(html, baseURL string) string {
	converter := md.NewConverter(baseURL, true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return ""
	}
	if len(markdown) > 4000 {
		markdown = markdown[:4000]
	}
	return markdown
}

// heuristicMapping assigns request values to detected fields by keyword
// matching on field names. Deterministic, used directly by the chromedp
// engine and as the agent engine's fallback.
func heuristicMapping(request *models.FormRequest, fields map[string]string) map[string]string {
	mapping := make(map[string]string)

	for field, fieldType := range fields {
		key := strings.ToLower(field)
		switch {
		case fieldType == "email" || containsAny(key, "email", "e-mail", "mail"):
			if request.ContactInfo != nil && request.ContactInfo.Email != "" {
				mapping[field] = request.ContactInfo.Email
			}
		case fieldType == "tel" || containsAny(key, "phone", "tel", "mobile"):
			if request.ContactInfo != nil && request.ContactInfo.Phone != "" {
				mapping[field] = request.ContactInfo.Phone
			}
		case containsAny(key, "subject", "title", "summary"):
			mapping[field] = request.Subject
		case fieldType == "textarea" || containsAny(key, "description", "message", "body", "details", "issue"):
			mapping[field] = buildDescription(request)
		case containsAny(key, "comment", "note", "additional"):
			if request.AdditionalComments != "" {
				mapping[field] = request.AdditionalComments
			}
		case containsAny(key, "name", "fullname", "full_name"):
			if request.ContactInfo != nil && request.ContactInfo.Name != "" {
				mapping[field] = request.ContactInfo.Name
			}
		case fieldType == "url" || containsAny(key, "url", "link", "website"):
			if len(request.ReferenceURLs) > 0 {
				mapping[field] = request.ReferenceURLs[0]
			}
		case containsAny(key, "priority", "severity", "urgency"):
			if request.Priority != "" {
				mapping[field] = request.Priority
			}
		}
	}

	return mapping
}

// buildDescription appends reference URLs to the request description so they
// survive forms without a dedicated URL field.
func buildDescription(request *models.FormRequest) string {
	var b strings.Builder
	b.WriteString(request.Description)
	if len(request.ReferenceURLs) > 0 {
		b.WriteString("\n\nReference URLs:\n")
		for _, url := range request.ReferenceURLs {
			b.WriteString("- ")
			b.WriteString(url)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
