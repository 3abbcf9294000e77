package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"estate-admin/internal/common/config"
	"estate-admin/internal/common/logger"
	"estate-admin/pkg/registry"

	vd "estate-admin/internal/workers/verification/verification-decide"
)

func TestRetryWithBackoff(t *testing.T) {
	log := zaptest.NewLogger(t)

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(func() error {
			calls++
			if calls < 3 {
				return fmt.Errorf("connection refused")
			}
			return nil
		}, 5, time.Millisecond, log, "test dial")
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up", func(t *testing.T) {
		calls := 0
		err := retryWithBackoff(func() error {
			calls++
			return fmt.Errorf("no route to host")
		}, 3, time.Millisecond, log, "test dial")
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Contains(t, err.Error(), "test dial failed after 3 attempts")
		assert.Contains(t, err.Error(), "no route to host")
	})
}

func TestConnectRedis(t *testing.T) {
	newTestApp := func(addr string) *app {
		cfg := &config.Config{}
		cfg.Database.Redis.Address = addr
		zl := zaptest.NewLogger(t)
		return &app{cfg: cfg, zap: zl, log: logger.NewZapAdapter(zl)}
	}

	t.Run("registers client for shutdown", func(t *testing.T) {
		mr := miniredis.RunT(t)
		a := newTestApp(mr.Addr())

		require.NoError(t, a.connectRedis(context.Background(), 1))
		require.NotNil(t, a.redis)
		assert.Len(t, a.closers, 1)
		a.Close()
	})

	t.Run("unreachable server leaves no client behind", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()
		a := newTestApp(addr)

		err := a.connectRedis(context.Background(), 2)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Redis connection failed after 2 attempts")
		assert.Nil(t, a.redis)
		assert.Empty(t, a.closers)
	})
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "migrate", "remind", "registry"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestBuildRegistry(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	reg, err := buildRegistry(now)
	require.NoError(t, err)

	assert.Len(t, reg.Activities, 6)
	assert.Equal(t, "2026-10-01T12:00:00Z", reg.LastUpdated)

	decide, ok := reg.Find(vd.TaskType)
	require.True(t, ok)
	assert.Equal(t, "verification", decide.Category)
	assert.Equal(t, "30s", decide.Timeout)
	assert.Equal(t, 3, decide.Retries)
	assert.Contains(t, decide.ErrorCodes, "INVALID_TRANSITION")
	assert.Contains(t, decide.ErrorCodes, "TIMEOUT_ERROR")
	assert.Equal(t, []interface{}{"verificationId", "decision", "reviewerId"}, decide.InputSchema["required"])
}

func TestRegistryCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "activity-registry.json")

	run := func(args ...string) (string, error) {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetArgs(args)
		err := root.Execute()
		return out.String(), err
	}

	out, err := run("registry", "generate", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote 6 activities")

	out, err = run("registry", "validate", "--path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 6 activities")

	reg, err := registry.LoadRegistry(path)
	require.NoError(t, err)
	reg.Activities = reg.Activities[1:]
	reg.Upsert(registry.Activity{ID: "legacy", DisplayName: "Legacy", Category: "crm", TaskType: "legacy.task"})
	require.NoError(t, registry.Save(reg, path))

	_, err = run("registry", "validate", "--path", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stale [legacy.task]")
}

func TestMigrateList(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"migrate", "--list"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "0001_init")
}
