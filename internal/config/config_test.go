package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutEnvFile(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("TIMEZONE", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, StoreDriverFile, cfg.Store.Driver)
	assert.Equal(t, "America/Bogota", cfg.App.Timezone.String())
	assert.Equal(t, 5*time.Second, cfg.Store.LockTimeout)
	assert.Equal(t, 4, cfg.Shift.MonthlyQuota)
	assert.Equal(t, "2024-01-01", cfg.Shift.Epoch.String())
	assert.Equal(t, 240*time.Hour, cfg.Backup.Interval)
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("SHIFTCLOCK_TEST_MARKER=1\nMANAGER_ONLY_SLOTS=07:00, 09:30\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("SHIFTCLOCK_TEST_MARKER")
		os.Unsetenv("MANAGER_ONLY_SLOTS")
	})

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"07:00", "09:30"}, cfg.Shift.ManagerOnlySlots)
}

func TestLoad_CollectsParseErrors(t *testing.T) {
	t.Setenv("APP_PORT", "eighty")
	t.Setenv("STORE_LOCK_TIMEOUT", "soon")

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "APP_PORT")
	assert.ErrorContains(t, err, "STORE_LOCK_TIMEOUT")
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		App:    AppConfig{Port: 8080},
		Store:  StoreConfig{Driver: "mongo", LockTimeout: time.Second},
		Shift:  ShiftConfig{ManagerOnlySlots: []string{"25:00"}},
		Backup: BackupConfig{Keep: 0, Interval: time.Hour},
	}
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "STORE_DRIVER")
	assert.ErrorContains(t, err, "MANAGER_ONLY_SLOTS")
	assert.ErrorContains(t, err, "BACKUP_KEEP")
}

func TestLoadRotationFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotation.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
epoch: 2024-01-01
patterns:
  luis: ["07:00", "12:00", "17:00"]
  ana: ["06:00", "14:00"]
`), 0o644))

	rf, err := LoadRotationFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", rf.EpochOr(ShiftConfig{}.Epoch).String())

	entries := rf.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "ana", entries[0].EmployeeID)
	assert.Equal(t, []string{"06:00", "14:00"}, entries[0].Slots)
}

func TestLoadRotationFile_BadEpoch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotation.yaml")
	require.NoError(t, os.WriteFile(path, []byte("epoch: someday\npatterns: {}\n"), 0o644))

	_, err := LoadRotationFile(path)
	assert.Error(t, err)
}
