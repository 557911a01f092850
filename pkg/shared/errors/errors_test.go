package errors

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFixErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "kind with file and line",
			err:  NewFixError(ErrNoFixAvailable, "a.js", 3, nil),
			want: "no fix available: a.js:3",
		},
		{
			name: "kind with file only",
			err:  NewFixError(ErrStaleFinding, "b.js", 0, nil),
			want: "stale finding: b.js",
		},
		{
			name: "io with cause",
			err:  NewIOError("c.js", fs.ErrNotExist),
			want: "io error: c.js: file does not exist",
		},
		{
			name: "analysis unavailable",
			err:  NewAnalysisUnavailableError("server returned %d", 502),
			want: "analysis unavailable: server returned 502",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestFixErrorUnwrap(t *testing.T) {
	err := NewIOError("c.js", fs.ErrPermission)

	assert.True(t, errors.Is(err, ErrIO))
	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.False(t, errors.Is(err, ErrStaleFinding))
	assert.Equal(t, ErrIO, Kind(err))
	assert.Nil(t, Kind(errors.New("other")))
}
