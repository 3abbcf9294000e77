package leadupdatestatus

import "estate-admin/internal/common/validation"

func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{"leadId", "status", "updatedBy"},
		Properties: map[string]validation.Property{
			"leadId": {Type: "string", MinLength: validation.IntPtr(1), MaxLength: validation.IntPtr(64)},
			"status": {
				Type: "string",
				Enum: []string{"new", "contacted", "qualified", "viewing_scheduled", "negotiating",
					"offer_made", "under_contract", "closed_won", "closed_lost"},
			},
			"updatedBy": {Type: "string", Pattern: validation.StringPtr(validation.UUIDPattern)},
		},
		AdditionalProperties: true,
	}
}
