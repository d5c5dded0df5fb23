package emit_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/szl-sub000/emit"
)

func TestFileEmitterWritesTabSeparatedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	e, err := emit.OpenFile(path)
	require.NoError(t, err)

	e.Begin(emit.KindEmit, 2)
	e.PutString("alice")
	e.PutInt(30)
	e.End(emit.KindEmit, 2)

	e.Begin(emit.KindEmit, 2)
	e.PutString("bob")
	e.PutInt(25)
	e.End(emit.KindEmit, 2)

	require.NoError(t, e.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice\t30\nbob\t25\n", string(data))
}

func TestFileEmitterAppendsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")

	e1, err := emit.OpenFile(path)
	require.NoError(t, err)
	emit.EmitInt(e1, 1)
	require.NoError(t, e1.Close())

	e2, err := emit.OpenFile(path)
	require.NoError(t, err)
	emit.EmitInt(e2, 2)
	require.NoError(t, e2.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", string(data))
}

func TestNonEmitBracketsDoNotFlushALine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	e, err := emit.OpenFile(path)
	require.NoError(t, err)

	e.Begin(emit.KindTuple, 1)
	e.PutInt(7)
	e.End(emit.KindTuple, 1)
	require.NoError(t, e.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, string(data))
}
