package verificationdecide

import "estate-admin/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"verificationId", "decision", "reviewerId"},
		Properties: map[string]validation.Property{
			"verificationId": {
				Type:        "string",
				Description: "Verification request to decide",
				MinLength:   validation.IntPtr(1),
				MaxLength:   validation.IntPtr(64),
			},
			"decision": {
				Type:        "string",
				Description: "Outcome of the review",
				Enum:        []string{"approved", "rejected"},
			},
			"reviewNotes": {
				Type:        "string",
				Description: "Reviewer notes; required when rejecting",
				MaxLength:   validation.IntPtr(2000),
			},
			"reviewerId": {
				Type:        "string",
				Description: "Admin users.id recorded as reviewer",
				Pattern:     validation.StringPtr(validation.UUIDPattern),
			},
		},
		AdditionalProperties: true,
	}
}

func GetOutputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"verificationId":     {Type: "string"},
			"verificationStatus": {Type: "string", Enum: []string{"approved", "rejected"}},
			"entityType":         {Type: "string", Enum: []string{"agent", "property"}},
			"entityId":           {Type: "string"},
			"entityStatus":       {Type: "string", Enum: []string{"verified", "rejected"}},
			"notificationSent":   {Type: "boolean"},
			"notificationError":  {Type: "string"},
			"decisionReplayed":   {Type: "boolean"},
		},
		AdditionalProperties: false,
	}
}
