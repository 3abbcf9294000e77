// cmd/estate-admin/registry.go
package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"estate-admin/internal/common/errors"
	"estate-admin/internal/common/validation"
	"estate-admin/pkg/registry"

	es "estate-admin/internal/workers/communication/email-send"
	lc "estate-admin/internal/workers/crm/lead-create"
	lus "estate-admin/internal/workers/crm/lead-update-status"
	rus "estate-admin/internal/workers/reports/report-update-status"
	vd "estate-admin/internal/workers/verification/verification-decide"
	vr "estate-admin/internal/workers/verification/verification-remind"
)

const defaultRegistryPath = "configs/activity-registry.json"

func newRegistryCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Maintain the activity registry consumed by process modellers",
	}
	cmd.PersistentFlags().StringVar(&path, "path", defaultRegistryPath, "path to the registry file")

	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Write the registry from the compiled job workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := buildRegistry(time.Now())
			if err != nil {
				return err
			}
			if err := registry.Save(reg, path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d activities to %s\n", len(reg.Activities), path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the registry file and report drift from the compiled workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			onDisk, err := registry.LoadRegistry(path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := onDisk.Validate(); err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}

			want, err := buildRegistry(time.Now())
			if err != nil {
				return err
			}
			missing, stale := onDisk.Drift(want)
			if len(missing) > 0 || len(stale) > 0 {
				return fmt.Errorf("registry is out of date: missing [%s], stale [%s]; run `estate-admin registry generate`",
					strings.Join(missing, ", "), strings.Join(stale, ", "))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(onDisk.Activities))
			return nil
		},
	})
	return cmd
}

// technicalErrors can fail any activity; the broker retries them.
var technicalErrors = []errors.ErrorCode{
	errors.ErrCodeDatabaseQueryFailed,
	errors.ErrCodeDatabaseUpdateFailed,
	errors.ErrCodeTimeout,
}

func buildRegistry(now time.Time) (*registry.ActivityRegistry, error) {
	type entry struct {
		id, name, description, category, taskType string
		schema                                    validation.JSONSchema
		timeout                                   time.Duration
		outputs                                   []string
		businessErrors                            []errors.ErrorCode
	}

	entries := []entry{
		{
			id: vd.ConfigKey, name: "Apply Verification Decision", category: "verification", taskType: vd.TaskType,
			description: "Approves or rejects a verification request, updates the agent or property and emails the owner.",
			schema:      vd.GetInputSchema(), timeout: vd.DefaultConfig().Timeout,
			outputs: []string{"verificationId", "verificationStatus", "entityType", "entityId", "entityStatus",
				"notificationSent", "notificationError", "decisionReplayed"},
			businessErrors: []errors.ErrorCode{errors.ErrCodeValidationFailed, errors.ErrCodeNotFound,
				errors.ErrCodeInvalidTransition, errors.ErrCodeEntityMissing},
		},
		{
			id: vr.ConfigKey, name: "Send Verification Reminders", category: "verification", taskType: vr.TaskType,
			description: "Emails owners whose verification requests have been pending past the threshold.",
			schema:      vr.GetInputSchema(), timeout: vr.DefaultConfig().Timeout,
			outputs:        []string{"remindersChecked", "remindersSent", "remindersFailed"},
			businessErrors: []errors.ErrorCode{errors.ErrCodeValidationFailed},
		},
		{
			id: rus.ConfigKey, name: "Update Report Status", category: "moderation", taskType: rus.TaskType,
			description: "Moves a user report through new, investigating, resolved and dismissed.",
			schema:      rus.GetInputSchema(), timeout: rus.DefaultConfig().Timeout,
			outputs: []string{"reportId", "reportStatus", "reviewedBy", "reviewedAt"},
			businessErrors: []errors.ErrorCode{errors.ErrCodeValidationFailed, errors.ErrCodeNotFound,
				errors.ErrCodeInvalidTransition},
		},
		{
			id: lc.ConfigKey, name: "Create Lead", category: "crm", taskType: lc.TaskType,
			description: "Records a buyer enquiry as a lead owned by an agent.",
			schema:      lc.GetInputSchema(), timeout: lc.DefaultConfig().Timeout,
			outputs:        []string{"leadId", "leadStatus", "leadPriority", "leadScore"},
			businessErrors: []errors.ErrorCode{errors.ErrCodeValidationFailed, errors.ErrCodeNotFound},
		},
		{
			id: lus.ConfigKey, name: "Update Lead Status", category: "crm", taskType: lus.TaskType,
			description: "Moves a lead through the sales pipeline and stamps closed_at on close.",
			schema:      lus.GetInputSchema(), timeout: lus.DefaultConfig().Timeout,
			outputs: []string{"leadId", "leadStatus", "leadClosed", "leadClosedAt"},
			businessErrors: []errors.ErrorCode{errors.ErrCodeValidationFailed, errors.ErrCodeNotFound,
				errors.ErrCodeInvalidTransition},
		},
		{
			id: es.ConfigKey, name: "Send Email", category: "communication", taskType: es.TaskType,
			description: "Sends an email through the configured provider and records it in the activity log.",
			schema:      es.GetInputSchema(), timeout: es.DefaultConfig().Timeout,
			outputs:        []string{"emailSent", "messageId", "provider", "sentAt"},
			businessErrors: []errors.ErrorCode{errors.ErrCodeValidationFailed, errors.ErrCodeNotificationSendFailed},
		},
	}

	reg := &registry.ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: now.UTC().Format(time.RFC3339),
	}
	for _, e := range entries {
		schema, err := schemaMap(e.schema)
		if err != nil {
			return nil, fmt.Errorf("%s input schema: %w", e.id, err)
		}

		codes := bpmnCodes(append(append([]errors.ErrorCode{}, e.businessErrors...), technicalErrors...))
		retries := 0
		for _, c := range technicalErrors {
			if n := errors.GetRetryCount(c); n > retries {
				retries = n
			}
		}

		reg.Upsert(registry.Activity{
			ID:          e.id,
			DisplayName: e.name,
			Description: e.description,
			Category:    e.category,
			TaskType:    e.taskType,
			InputSchema: schema,
			Outputs:     e.outputs,
			ErrorCodes:  codes,
			Timeout:     e.timeout.String(),
			Retries:     retries,
		})
	}
	return reg, reg.Validate()
}

func schemaMap(s validation.JSONSchema) (map[string]interface{}, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func bpmnCodes(codes []errors.ErrorCode) []string {
	seen := map[string]bool{}
	var out []string
	for _, c := range codes {
		code, ok := errors.BPMNErrorMapping[c]
		if !ok {
			code = string(c)
		}
		if !seen[code] {
			seen[code] = true
			out = append(out, code)
		}
	}
	sort.Strings(out)
	return out
}
