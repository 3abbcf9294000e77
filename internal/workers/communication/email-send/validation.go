package emailsend

import "estate-admin/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"to", "subject", "sentBy"},
		Properties: map[string]validation.Property{
			"to": {
				Type:        "string",
				Description: "Recipient email address",
				Format:      "email",
				MaxLength:   validation.IntPtr(254),
			},
			"subject": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
				MaxLength: validation.IntPtr(500),
			},
			"html": {
				Type:        "string",
				Description: "HTML body; at least one of html or text is required",
			},
			"text": {
				Type:        "string",
				Description: "Plain-text body",
			},
			"sentBy": {
				Type:        "string",
				Description: "Admin user the email is sent on behalf of",
				Pattern:     validation.StringPtr(validation.UUIDPattern),
			},
		},
		AdditionalProperties: true,
	}
}
