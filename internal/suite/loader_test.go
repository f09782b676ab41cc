package suite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseSuiteYAML = `
suite_name: base
tests:
  - id: has_rows
    factor: clean
    requirement: table_discovery
    target_type: table
    query_template: "SELECT COUNT(*) FROM {schema_q}.{table_q}"
`

const childSuiteYAML = `
suite_name: child
extends: [base]
tests:
  - id: null_check
    factor: clean
    requirement: null_rate
    target_type: column
    query_template: "SELECT 1"
`

func TestLoadBytes_RegistersValidSuite(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.LoadBytes([]byte(baseSuiteYAML), "base.yaml"))
	assert.Equal(t, []string{"base"}, r.Names())
}

func TestLoadBytes_MissingSuiteNameIsError(t *testing.T) {
	r := NewRegistry()
	err := r.LoadBytes([]byte("tests:\n  - id: x\n    factor: clean\n    requirement: y\n    target_type: table\n    query: SELECT 1\n"), "bad.yaml")
	assert.Error(t, err)
}

func TestLoadBytes_NoTestsAndNoExtendsIsError(t *testing.T) {
	r := NewRegistry()
	err := r.LoadBytes([]byte("suite_name: empty\n"), "empty.yaml")
	assert.Error(t, err)
}

func TestLoadBytes_TestMissingBothQueryFormsIsError(t *testing.T) {
	r := NewRegistry()
	doc := "suite_name: bad\ntests:\n  - id: x\n    factor: clean\n    requirement: y\n    target_type: table\n"
	assert.Error(t, r.LoadBytes([]byte(doc), "bad.yaml"))
}

func TestLoadBytes_TestWithBothQueryFormsIsError(t *testing.T) {
	r := NewRegistry()
	doc := "suite_name: bad\ntests:\n  - id: x\n    factor: clean\n    requirement: y\n    target_type: table\n    query: SELECT 1\n    query_template: SELECT 1\n"
	assert.Error(t, r.LoadBytes([]byte(doc), "bad.yaml"))
}

func TestLoadBytes_InvalidTargetTypeIsError(t *testing.T) {
	r := NewRegistry()
	doc := "suite_name: bad\ntests:\n  - id: x\n    factor: clean\n    requirement: y\n    target_type: nonsense\n    query: SELECT 1\n"
	assert.Error(t, r.LoadBytes([]byte(doc), "bad.yaml"))
}

func TestResolve_ExtendsPrependsParentTests(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.LoadBytes([]byte(baseSuiteYAML), "base.yaml"))
	require.NoError(t, r.LoadBytes([]byte(childSuiteYAML), "child.yaml"))

	tests, err := r.Resolve("child")
	require.NoError(t, err)
	require.Len(t, tests, 2)
	assert.Equal(t, "has_rows", tests[0].ID)
	assert.Equal(t, "null_check", tests[1].ID)
}

func TestResolve_UnknownSuiteIsError(t *testing.T) {
	r := NewRegistry()
	_, err := r.Resolve("nonexistent")
	assert.Error(t, err)
	var unknown *ErrUnknownSuite
	assert.ErrorAs(t, err, &unknown)
}

func TestResolve_DetectsExtendsCycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.LoadBytes([]byte("suite_name: a\nextends: [b]\ntests:\n  - id: x\n    factor: clean\n    requirement: y\n    target_type: table\n    query: SELECT 1\n"), "a.yaml"))
	require.NoError(t, r.LoadBytes([]byte("suite_name: b\nextends: [a]\ntests:\n  - id: y\n    factor: clean\n    requirement: z\n    target_type: table\n    query: SELECT 1\n"), "b.yaml"))

	_, err := r.Resolve("a")
	assert.Error(t, err)
	var cycle *ErrCycle
	assert.ErrorAs(t, err, &cycle)
}

func TestRegister_AppendsToExistingSuiteAcrossFiles(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.LoadBytes([]byte(baseSuiteYAML), "base1.yaml"))
	more := "suite_name: base\ntests:\n  - id: extra\n    factor: clean\n    requirement: duplicate_rate\n    target_type: table\n    query: SELECT 1\n"
	require.NoError(t, r.LoadBytes([]byte(more), "base2.yaml"))

	tests, err := r.Resolve("base")
	require.NoError(t, err)
	assert.Len(t, tests, 2)
}

func TestNames_SortedAlphabetically(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.LoadBytes([]byte(childSuiteYAML), "child.yaml"))
	require.NoError(t, r.LoadBytes([]byte(baseSuiteYAML), "base.yaml"))
	assert.Equal(t, []string{"base", "child"}, r.Names())
}

func TestLoadDir_MissingDirectoryIsNotAnError(t *testing.T) {
	r := NewRegistry()
	assert.NoError(t, r.LoadDir("/path/does/not/exist"))
	assert.Empty(t, r.Names())
}
