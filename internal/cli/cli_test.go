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

	"github.com/kingrea/fieldcheck/internal/config"
)

const validRecord = `username: ada
email: ada@example.com
password: hunter22
confirm: hunter22
age: 30
`

const shortPassword = `username: ada
email: ada@example.com
password: short
confirm: short
`

// project initializes a project in a temp dir, writes the given records
// into it and makes it the working directory.
func project(t *testing.T, records map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	_, err := config.Init(dir)
	require.NoError(t, err)
	for name, content := range records {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	t.Chdir(dir)
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidateValidRecord(t *testing.T) {
	project(t, map[string]string{"user.yaml": validRecord})

	out, err := execute(t, "validate", "user.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "username")
	assert.Contains(t, out, "(5 fields, 0 invalid, 0 pending)")
}

func TestValidateInvalidRecord(t *testing.T) {
	project(t, map[string]string{"user.yaml": shortPassword})

	out, err := execute(t, "validate", "user.yaml", "--latency", "2ms")
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, out, "min: true")
	assert.Contains(t, out, "(5 fields, 1 invalid, 0 pending)")
}

func TestValidateJSONFromRecordFlag(t *testing.T) {
	project(t, map[string]string{"user.yaml": shortPassword})

	out, err := execute(t, "validate", "--record", "user.yaml", "-o", "json")
	require.ErrorIs(t, err, ErrInvalid)

	var doc struct {
		Valid  bool `json:"valid"`
		Errors int  `json:"errors"`
		Fields []struct {
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.False(t, doc.Valid)
	assert.Equal(t, 1, doc.Errors)
	require.Len(t, doc.Fields, 5)
	assert.Equal(t, "password", doc.Fields[2].Name)
	assert.Equal(t, "invalid", doc.Fields[2].Status)
	// age is optional and absent, so its plan aborts without failing.
	assert.Equal(t, "valid", doc.Fields[4].Status)
}

func TestValidateCollectAll(t *testing.T) {
	project(t, map[string]string{"user.yaml": "username: ab\nemail: nope\npassword: hunter22\nconfirm: hunter23\n"})

	out, err := execute(t, "validate", "user.yaml", "--collect-all")
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, out, "range: min")
	assert.Contains(t, out, "duplicate: true")
	assert.Contains(t, out, "(5 fields, 3 invalid, 0 pending)")
}

func TestValidateMissingSchema(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := execute(t, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema.yaml")
}

func TestPlan(t *testing.T) {
	project(t, nil)

	out, err := execute(t, "plan")
	require.NoError(t, err)
	assert.Contains(t, out, "required -> type -> min")
	assert.Contains(t, out, "required -> duplicate")
	assert.Contains(t, out, "RE-VALIDATED BY")
}

func TestChecks(t *testing.T) {
	project(t, nil)

	out, err := execute(t, "checks", "--builtin")
	require.NoError(t, err)
	assert.Contains(t, out, "duplicate")
	assert.Contains(t, out, "patterns: digits, email, number, url")
}

func TestTraceReportsPlainFailureAndEnds(t *testing.T) {
	project(t, map[string]string{"user.yaml": shortPassword})

	out, err := execute(t, "trace", "password", "user.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "check min failed: true")
	assert.Contains(t, out, "completed")
}

func TestTraceAbortsAbsentOptionalField(t *testing.T) {
	project(t, map[string]string{"user.yaml": shortPassword})

	out, err := execute(t, "trace", "age", "user.yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "aborted")
}

func TestTraceFatalFailure(t *testing.T) {
	project(t, map[string]string{"user.yaml": "username: 42\n"})

	out, err := execute(t, "trace", "username", "user.yaml", "-o", "json")
	require.NoError(t, err)
	var doc struct {
		Field  string `json:"field"`
		Events []struct {
			Event string `json:"event"`
			Check string `json:"check"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.NotEmpty(t, doc.Events)
	last := doc.Events[len(doc.Events)-1]
	assert.Equal(t, "error", last.Event)
	assert.Equal(t, "type", last.Check)
}

func TestTraceUnknownField(t *testing.T) {
	project(t, nil)
	_, err := execute(t, "trace", "nope")
	require.Error(t, err)
}

func TestInit(t *testing.T) {
	t.Chdir(t.TempDir())

	out, err := execute(t, "init", "proj")
	require.NoError(t, err)
	assert.Contains(t, out, "Created proj/"+config.FileName)
	assert.FileExists(t, filepath.Join("proj", config.SchemaFileName))

	out, err = execute(t, "init", "proj")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to do")
}

func TestVersion(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fieldcheck v"+Version)
}

func TestBadOutputFlag(t *testing.T) {
	project(t, nil)
	_, err := execute(t, "plan", "-o", "xml")
	require.Error(t, err)
}
