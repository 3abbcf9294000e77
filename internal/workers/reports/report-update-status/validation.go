package reportupdatestatus

import "estate-admin/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"reportId", "status", "reviewerId"},
		Properties: map[string]validation.Property{
			"reportId": {
				Type:      "string",
				MinLength: validation.IntPtr(1),
				MaxLength: validation.IntPtr(64),
			},
			"status": {
				Type: "string",
				Enum: []string{"new", "investigating", "resolved", "dismissed"},
			},
			"adminNotes": {
				Type:      "string",
				MaxLength: validation.IntPtr(2000),
			},
			"reviewerId": {
				Type:    "string",
				Pattern: validation.StringPtr(validation.UUIDPattern),
			},
		},
		AdditionalProperties: true,
	}
}
