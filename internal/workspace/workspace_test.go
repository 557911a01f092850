package workspace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharederrors "github.com/vsecure-io/vsecure/pkg/shared/errors"
)

func newWorkspace(t *testing.T, files map[string]string) *Workspace {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	ws, err := New(root)
	require.NoError(t, err)
	return ws
}

func TestSplice(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		start, end int
		text       string
		want       string
	}{
		{name: "first line", content: "a\nb\nc\n", start: 0, end: 1, text: "x\n", want: "x\nb\nc\n"},
		{name: "middle line", content: "a\nb\nc\n", start: 1, end: 2, text: "x\n", want: "a\nx\nc\n"},
		{name: "last line without newline", content: "a\nb", start: 1, end: 2, text: "x\n", want: "a\nx\n"},
		{name: "whole document", content: "a\nb\nc\n", start: 0, end: 4, text: "z\n", want: "z\n"},
		{name: "crlf line", content: "a\r\nb\r\n", start: 0, end: 1, text: "x\n", want: "x\nb\r\n"},
		{name: "range past end is clamped", content: "a\n", start: 5, end: 6, text: "x\n", want: "a\nx\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Splice(tt.content, tt.start, tt.end, tt.text))
		})
	}
}

func TestLineCount(t *testing.T) {
	ws := newWorkspace(t, map[string]string{
		"three.js": "a\nb\nc",
		"nl.js":    "a\nb\n",
		"empty.js": "",
	})

	for name, want := range map[string]int{"three.js": 3, "nl.js": 3, "empty.js": 1} {
		got, err := ws.LineCount(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}

	_, err := ws.LineCount("missing.js")
	assert.True(t, errors.Is(err, sharederrors.ErrIO))
}

func TestReadLine(t *testing.T) {
	ws := newWorkspace(t, map[string]string{"src/app.js": "one\r\ntwo\nthree"})

	got, err := ws.ReadLine("src/app.js", 1)
	require.NoError(t, err)
	assert.Equal(t, "one", got)

	got, err = ws.ReadLine("src/app.js", 3)
	require.NoError(t, err)
	assert.Equal(t, "three", got)

	_, err = ws.ReadLine("src/app.js", 4)
	assert.Error(t, err)
	_, err = ws.ReadLine("src/app.js", 0)
	assert.Error(t, err)
}

func TestResolveAndRelative(t *testing.T) {
	ws := newWorkspace(t, nil)

	_, err := ws.Resolve("../outside.js")
	assert.Error(t, err)

	abs, err := ws.Resolve("lib/a.js")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ws.Root(), "lib", "a.js"), abs)
	assert.Equal(t, "lib/a.js", ws.Relative(abs))
	assert.Equal(t, "lib/a.js", ws.Relative("lib/a.js"))
	assert.Equal(t, "lib/a.js", ws.Relative("./lib/a.js"))
	assert.Equal(t, "lib/a.js", ws.Relative("lib/x/../a.js"))
	assert.Equal(t, "../outside.js", ws.Relative("../outside.js"))
}

func TestReplaceLines(t *testing.T) {
	ws := newWorkspace(t, map[string]string{"a.js": "1\n2\n3\n"})

	require.NoError(t, ws.ReplaceLines("a.js", 1, 2, "two\n"))

	data, err := os.ReadFile(filepath.Join(ws.Root(), "a.js"))
	require.NoError(t, err)
	assert.Equal(t, "1\ntwo\n3\n", string(data))

	err = ws.ReplaceLines("missing.js", 0, 1, "x\n")
	assert.True(t, errors.Is(err, sharederrors.ErrIO))
}
