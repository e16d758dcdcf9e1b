package hasher

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	data := []byte("converted image bytes")
	sum := Sum(data)
	assert.Len(t, sum, 16)
	assert.Equal(t, sum, Sum(data))
	assert.NotEqual(t, sum, Sum([]byte("other bytes")))

	// xxHash64 of the empty input.
	assert.Equal(t, "ef46db3751d8e999", Sum(nil))

	fromReader, err := sumReader(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, sum, fromReader)

	path := filepath.Join(t.TempDir(), "f.bin")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	fromFile, err := SumFile(path)
	require.NoError(t, err)
	assert.Equal(t, sum, fromFile)
}

func TestShort(t *testing.T) {
	assert.Equal(t, "ef46db37", Short("ef46db3751d8e999"))
	assert.Equal(t, "abc", Short("abc"))
}
