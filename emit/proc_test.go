package emit_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/szl-sub000/emit"
)

func TestProcEmitterPipesLinesToSubprocessStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.txt")
	e, err := emit.OpenProc(fmt.Sprintf("cat > %s", path))
	require.NoError(t, err)

	e.Begin(emit.KindEmit, 1)
	e.PutString("hello")
	e.End(emit.KindEmit, 1)

	require.NoError(t, e.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}
