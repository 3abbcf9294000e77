package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
database:
  postgres:
    host: db.internal
    database: estate
    user: admin
  redis:
    address: cache.internal:6379
notifications:
  email:
    enabled: false
workers:
  lead-create:
    enabled: false
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "estate-admin", cfg.App.Name)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "admin-activity", cfg.Database.Elasticsearch.ActivityIndex)
	assert.False(t, cfg.Database.Elasticsearch.Enabled())

	assert.Equal(t, DecisionModeTransactional, cfg.Workflow.DecisionMode)
	assert.True(t, cfg.Workflow.StrictTransitions, "strict transitions default on")
	assert.Equal(t, 72*time.Hour, cfg.Workflow.ReminderAfter())

	worker := cfg.Workers["lead-create"]
	assert.False(t, worker.Enabled)
	assert.Equal(t, 5, worker.MaxJobsActive)
	assert.Equal(t, 30000, worker.Timeout)
	assert.Equal(t, 3, worker.MaxRetries)
}

func TestLoadFromFile_WorkflowOverrides(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalYAML+"workflow:\n  decision_mode: sequential\n  strict_transitions: false\n  reminder_after_hours: 24\n"))
	require.NoError(t, err)
	assert.Equal(t, DecisionModeSequential, cfg.Workflow.DecisionMode)
	assert.False(t, cfg.Workflow.StrictTransitions)
	assert.Equal(t, 24*time.Hour, cfg.Workflow.ReminderAfter())
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("ESTATE_TEST_DB_PASSWORD", "s3cret")

	cfg, err := LoadFromFile(writeConfig(t, `
database:
  postgres:
    host: db.internal
    database: estate
    user: admin
    password: ${ESTATE_TEST_DB_PASSWORD}
  redis:
    address: cache.internal:6379
notifications:
  email:
    enabled: false
`))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
}

func TestLoadFromFile_UnsetPlaceholderFallsBack(t *testing.T) {
	t.Setenv("ESTATE_TEST_UNSET_INDEX", "")
	t.Setenv("DB_PASSWORD", "from-env")

	cfg, err := LoadFromFile(writeConfig(t, minimalYAML+`
tracing:
  jaeger_endpoint: ${ESTATE_TEST_UNSET_INDEX}
`))
	require.NoError(t, err)
	assert.Empty(t, cfg.Tracing.JaegerEndpoint)
	assert.Equal(t, "from-env", cfg.Database.Postgres.Password)
}

func TestLoadFromFile_Validation(t *testing.T) {
	tests := []struct {
		name   string
		yaml   string
		errMsg string
	}{
		{
			name:   "missing postgres host",
			yaml:   "database:\n  redis:\n    address: x:6379\n",
			errMsg: "database.postgres.host is required",
		},
		{
			name:   "bad decision mode",
			yaml:   minimalYAML + "workflow:\n  decision_mode: eventually\n",
			errMsg: "workflow.decision_mode",
		},
		{
			name:   "camunda without broker",
			yaml:   minimalYAML + "camunda:\n  enabled: true\n",
			errMsg: "camunda.broker_address is required",
		},
		{
			name: "smtp without host",
			yaml: `
database:
  postgres: {host: h, database: d, user: u}
  redis: {address: "r:6379"}
notifications:
  email: {enabled: true, provider: smtp, from_email: a@b.co}
`,
			errMsg: "integrations.smtp.host is required",
		},
		{
			name: "ses without region",
			yaml: `
database:
  postgres: {host: h, database: d, user: u}
  redis: {address: "r:6379"}
notifications:
  email: {enabled: true, provider: ses, from_email: a@b.co}
`,
			errMsg: "integrations.aws.region is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestWorkerLookups(t *testing.T) {
	cfg := &Config{Workers: map[string]WorkerConfig{
		"email-send": {Enabled: false, MaxJobsActive: 2, Timeout: 1000},
	}}

	assert.False(t, IsWorkerEnabled(cfg, "email-send"))
	assert.True(t, IsWorkerEnabled(cfg, "lead-create"))
	assert.Equal(t, 2, GetWorkerConfig(cfg, "email-send").MaxJobsActive)
	assert.Equal(t, 5, GetWorkerConfig(cfg, "lead-create").MaxJobsActive)
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
}
