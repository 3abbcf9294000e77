package leadcreate

import "estate-admin/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"agentId", "name", "createdBy"},
		Properties: map[string]validation.Property{
			"agentId":    {Type: "string", MinLength: validation.IntPtr(1), MaxLength: validation.IntPtr(64)},
			"propertyId": {Type: "string", MinLength: validation.IntPtr(1), MaxLength: validation.IntPtr(64)},
			"name":       {Type: "string", MinLength: validation.IntPtr(1), MaxLength: validation.IntPtr(200)},
			"email":      {Type: "string", Format: "email", MaxLength: validation.IntPtr(254)},
			"phone":      {Type: "string", MaxLength: validation.IntPtr(32)},
			"status": {
				Type: "string",
				Enum: []string{"new", "contacted", "qualified", "viewing_scheduled", "negotiating",
					"offer_made", "under_contract", "closed_won", "closed_lost"},
			},
			"priority":  {Type: "string", Enum: []string{"low", "medium", "high", "urgent"}},
			"leadScore": {Type: "integer", Minimum: validation.FloatPtr(0), Maximum: validation.FloatPtr(100)},
			"source":    {Type: "string", MaxLength: validation.IntPtr(64)},
			"createdBy": {Type: "string", Pattern: validation.StringPtr(validation.UUIDPattern)},
		},
		AdditionalProperties: true,
	}
}
