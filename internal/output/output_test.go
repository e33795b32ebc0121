package output

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/atotto/clipboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listing = "Monday 2024-01-08\n08:30-18:30\n"

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Writer{W: &buf}.Deliver(context.Background(), listing))
	assert.Equal(t, listing, buf.String())
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gaps.txt")
	require.NoError(t, File{Path: path}.Deliver(context.Background(), listing))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, listing, string(got))
}

func TestFile_MissingDirectory(t *testing.T) {
	err := File{Path: filepath.Join(t.TempDir(), "nope", "gaps.txt")}.Deliver(context.Background(), listing)
	assert.Error(t, err)
}

func TestMulti_StopsAtFirstFailure(t *testing.T) {
	var first, last bytes.Buffer
	boom := errors.New("boom")
	sinks := Multi{
		Writer{W: &first},
		failing{err: boom},
		Writer{W: &last},
	}

	err := sinks.Deliver(context.Background(), listing)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, listing, first.String())
	assert.Empty(t, last.String())
}

type failing struct{ err error }

func (f failing) Deliver(context.Context, string) error { return f.err }

func TestClipboard(t *testing.T) {
	if clipboard.Unsupported {
		t.Skip("no clipboard utility available")
	}
	var got string
	s := Clipboard{write: func(v string) error { got = v; return nil }}
	require.NoError(t, s.Deliver(context.Background(), listing))
	assert.Equal(t, listing, got)
}
