package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activity(id, taskType string) Activity {
	return Activity{ID: id, DisplayName: id, Category: "crm", TaskType: taskType}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "activity-registry.json")
	reg := &ActivityRegistry{Version: "1.0.0"}
	reg.Upsert(activity("lead-create", "lead.record.create"))

	require.NoError(t, Save(reg, path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, reg.Activities, loaded.Activities)
}

func TestUpsertReplacesAndSorts(t *testing.T) {
	reg := &ActivityRegistry{}
	reg.Upsert(activity("verification-decide", "verification.decision.apply"))
	reg.Upsert(activity("email-send", "email.send"))

	updated := activity("email-send", "email.send")
	updated.Retries = 3
	reg.Upsert(updated)

	require.Len(t, reg.Activities, 2)
	assert.Equal(t, "email-send", reg.Activities[0].ID)
	assert.Equal(t, 3, reg.Activities[0].Retries)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		reg    *ActivityRegistry
		errMsg string
	}{
		{name: "empty", reg: &ActivityRegistry{}, errMsg: "no activities"},
		{
			name: "duplicate id",
			reg: &ActivityRegistry{Activities: []Activity{
				activity("a", "a.run"), activity("a", "b.run"),
			}},
			errMsg: "duplicate activity ID",
		},
		{
			name: "duplicate task type",
			reg: &ActivityRegistry{Activities: []Activity{
				activity("a", "x.run"), activity("b", "x.run"),
			}},
			errMsg: "registered twice",
		},
		{
			name:   "missing category",
			reg:    &ActivityRegistry{Activities: []Activity{{ID: "a", DisplayName: "A", TaskType: "a.run"}}},
			errMsg: "Category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorContains(t, tt.reg.Validate(), tt.errMsg)
		})
	}

	ok := &ActivityRegistry{Activities: []Activity{activity("a", "a.run")}}
	assert.NoError(t, ok.Validate())
}

func TestDrift(t *testing.T) {
	onDisk := &ActivityRegistry{Activities: []Activity{activity("old", "old.task"), activity("keep", "keep.task")}}
	want := &ActivityRegistry{Activities: []Activity{activity("keep", "keep.task"), activity("new", "new.task")}}

	missing, stale := onDisk.Drift(want)
	assert.Equal(t, []string{"new.task"}, missing)
	assert.Equal(t, []string{"old.task"}, stale)
}
