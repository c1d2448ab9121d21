package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/event"
	"github.com/roach88/rolo/internal/model"
	"github.com/roach88/rolo/internal/store"
	"github.com/roach88/rolo/internal/testutil"
)

// seedDatabase creates a SQLite file with a small committed log and
// returns its path.
func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rolo.db")

	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	builder := event.NewBuilder("device-test",
		event.WithIDGenerator(testutil.NewSequenceIDs()),
		event.WithNow(testutil.NewClock().Now),
	)

	events := []event.Event{
		builder.Build(event.TypeOrganizationCreated, "", model.Object{
			"id":   model.String("org-1"),
			"name": model.String("Globex"),
		}),
		builder.Build(event.TypeAccountCreated, "", model.Object{
			"id":             model.String("acct-1"),
			"organizationId": model.String("org-1"),
			"name":           model.String("Globex West"),
			"status":         model.String("active"),
		}),
		builder.Build(event.TypeContactCreated, "", model.Object{
			"id":   model.String("cont-1"),
			"name": model.String("Hank Scorpio"),
		}),
	}
	require.NoError(t, st.AppendEvents(context.Background(), events))
	return path
}

// execute runs the CLI with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_RejectsInvalidFormat(t *testing.T) {
	_, err := execute(t, "--format", "xml", "log", "--db", "ignored.db")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestLogCommand_Text(t *testing.T) {
	db := seedDatabase(t)

	out, err := execute(t, "log", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "organization.created")
	assert.Contains(t, out, "account.created")
	assert.Contains(t, out, "3 event(s)")
}

func TestLogCommand_JSON(t *testing.T) {
	db := seedDatabase(t)

	out, err := execute(t, "log", "--db", db, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   []struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "ev-0001", resp.Data[0].ID)
	assert.Equal(t, "organization.created", resp.Data[0].Type)
}

func TestLogCommand_Limit(t *testing.T) {
	db := seedDatabase(t)

	out, err := execute(t, "log", "--db", db, "--limit", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "1 event(s)")
	assert.NotContains(t, out, "contact.created")
}

func TestReplayCommand_ReportsCountsAndFingerprint(t *testing.T) {
	db := seedDatabase(t)

	out, err := execute(t, "replay", "--db", db, "--check")
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed 3 event(s)")
	assert.Contains(t, out, "organizations: 1")
	assert.Contains(t, out, "accounts:      1")
	assert.Contains(t, out, "Fingerprint: ")
	assert.Contains(t, out, "Repeat fold agreed")
}

func TestReplayCommand_MissingDatabase(t *testing.T) {
	_, err := execute(t, "replay", "--db", filepath.Join(t.TempDir(), "missing", "no.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSnapshotThenVerify(t *testing.T) {
	db := seedDatabase(t)

	out, err := execute(t, "snapshot", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Snapshot ")

	out, err = execute(t, "verify", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Snapshot agrees with full replay")
}

func TestVerifyCommand_NoSnapshot(t *testing.T) {
	db := seedDatabase(t)

	out, err := execute(t, "verify", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No snapshot to verify")
}

// documentWithNothing is a snapshot body that cannot match a non-empty
// log.
func documentWithNothing() document.Document {
	return document.New()
}

func TestVerifyCommand_DetectsDivergedSnapshot(t *testing.T) {
	db := seedDatabase(t)

	// Write a snapshot claiming coverage through a far-future timestamp,
	// so trailing events are empty and the stale document survives.
	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.WriteSnapshot(context.Background(), documentWithNothing(), "2099-01-01T00:00:00.000000000Z")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, err = execute(t, "verify", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestSnapshotCommand_Prune(t *testing.T) {
	db := seedDatabase(t)

	_, err := execute(t, "snapshot", "--db", db)
	require.NoError(t, err)
	out, err := execute(t, "snapshot", "--db", db, "--prune", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Pruned 1 old snapshot(s)")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rolo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"database: /tmp/crm.db\ndevice_id: laptop\nsnapshot_every: 50\nstrict: true\n",
	), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/crm.db", cfg.Database)
	assert.Equal(t, "laptop", cfg.DeviceID)
	assert.Equal(t, 50, cfg.SnapshotEvery)
	assert.True(t, cfg.Strict)
}

func TestLoadConfig_UnknownKeyRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rolo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("databse: typo.db\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestLoadConfig_NegativeCadenceRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rolo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("snapshot_every: -1\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "snapshot_every")
}
