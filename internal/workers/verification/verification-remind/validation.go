package verificationremind

import "estate-admin/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type: "object",
		Properties: map[string]validation.Property{
			"olderThanHours": {
				Type:        "integer",
				Description: "Remind owners of requests pending longer than this",
				Minimum:     validation.FloatPtr(1),
				Maximum:     validation.FloatPtr(24 * 90),
			},
		},
		AdditionalProperties: true,
	}
}
