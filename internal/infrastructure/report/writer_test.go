package report

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/rela/internal/application"
	"github.com/felixgeelhaar/rela/internal/domain"
)

func sampleResolution() application.ResolveResult {
	res := domain.Resolution{
		ScriptPath: "/work/project/src/thing/other.py",
		RootDir:    "/work/project/src",
		TopDir:     "/work/project/src/thing",
		Package:    "thing",
		InitFile:   "/work/project/src/thing/__init__.py",
	}
	return application.ResolveResult{
		Context:    domain.NewInvocationContext(res, domain.ModeMain),
		TopLevel:   res.TopLevel(),
		SearchPath: []string{"/work/project/src"},
		Command:    []string{"python3", "-m", "thing.other", "two words"},
		Env:        map[string]string{"RELA_MODULE": "thing.other", "RELA_PACKAGE": "thing"},
	}
}

func TestWriteResolutionText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Writer{}.WriteResolution(&buf, sampleResolution(), application.OutputText))

	out := buf.String()
	assert.Contains(t, out, "thing.other")
	assert.Contains(t, out, "/work/project/src")
	assert.Contains(t, out, "Search path:")
	assert.Contains(t, out, "python3 -m thing.other 'two words'")
	assert.Contains(t, out, "RELA_MODULE=thing.other")
}

func TestWriteResolutionJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Writer{}.WriteResolution(&buf, sampleResolution(), application.OutputJSON))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "thing.other", got["module"])
	assert.Equal(t, "thing", got["package"])
	assert.Equal(t, "main", got["mode"])
	top, ok := got["top_level"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "thing", top["name"])
}

func TestWritePathText(t *testing.T) {
	var buf bytes.Buffer
	res := application.PathResult{Path: "/lib", Inserted: true, Released: true, Entries: []string{"/lib", "/src"}}
	require.NoError(t, Writer{}.WritePath(&buf, res, application.OutputText))
	assert.Contains(t, buf.String(), "/lib (inserted, released)")
	assert.Contains(t, buf.String(), "1  /src")
}

func TestWriteSelectionText(t *testing.T) {
	var buf bytes.Buffer
	res := application.TestResult{
		Module: "test_thing",
		Selections: []domain.Selection{{
			Class:    domain.TestClass{Name: "TestThing"},
			Kept:     []domain.TestMethod{{Name: "test_b", Line: 20}},
			Removed:  []domain.TestMethod{{Name: "test_a", Line: 14}},
			Filtered: true,
			Missing:  []string{"test_z"},
		}},
		Targets: []string{"test_thing.TestThing.test_b"},
	}
	require.NoError(t, Writer{}.WriteSelection(&buf, res, application.OutputText))

	out := buf.String()
	assert.Contains(t, out, "TestThing.test_b")
	assert.Contains(t, out, "removed")
	assert.Contains(t, out, "no such test on TestThing: test_z")
	assert.Contains(t, out, "Targets: test_thing.TestThing.test_b")
}

func TestUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Writer{}.WritePath(&buf, application.PathResult{}, "xml"))
	assert.Error(t, Writer{}.WriteSelection(&buf, application.TestResult{}, "xml"))
	assert.Error(t, Writer{}.WriteResolution(&buf, sampleResolution(), "xml"))
}

func TestShellJoin(t *testing.T) {
	assert.Equal(t, "python3 -m pkg.mod", ShellJoin([]string{"python3", "-m", "pkg.mod"}))
	assert.Equal(t, "echo 'a b' ''", ShellJoin([]string{"echo", "a b", ""}))
}

func TestColorDisabledForBuffers(t *testing.T) {
	assert.False(t, colorEnabled(&bytes.Buffer{}))
}
