package hasher

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sha256("hello\n")
const helloDigest = "5891b5b522d5df086d0ff0b110fbd9d21bb4fc7163af34d08286a2e846f6be03"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestSum(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hello.txt", "hello\n")

	digest, err := Sum(path)
	require.NoError(t, err)
	assert.Equal(t, helloDigest, digest)
	assert.True(t, IsDigest(digest))
}

func TestSum_LargerThanBlock(t *testing.T) {
	dir := t.TempDir()
	big := strings.Repeat("x", BlockSize*3+17)
	a := writeFile(t, dir, "a", big)
	b := writeFile(t, dir, "b", big)

	da, err := Sum(a)
	require.NoError(t, err)
	db, err := Sum(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)
}

func TestSum_MissingFile(t *testing.T) {
	_, err := Sum(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestPool_Hash(t *testing.T) {
	path := writeFile(t, t.TempDir(), "hello.txt", "hello\n")

	digest, err := New(1).Hash(path)
	require.NoError(t, err)
	assert.Equal(t, helloDigest, digest)

	_, err = New(1).Hash(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestHashAll_ResultsKeyedByPath(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	want := map[string]string{}
	for i := 0; i < 40; i++ {
		content := fmt.Sprintf("content-%d", i)
		p := writeFile(t, dir, fmt.Sprintf("f%02d", i), content)
		paths = append(paths, p)
		d, err := Sum(p)
		require.NoError(t, err)
		want[p] = d
	}
	missing := filepath.Join(dir, "gone")
	paths = append(paths, missing)

	pool := New(4)
	got := pool.HashAll(paths)

	require.Len(t, got, len(paths))
	for p, d := range want {
		assert.True(t, got[p].OK(), p)
		assert.Equal(t, d, got[p].Digest, p)
	}
	assert.False(t, got[missing].OK())
	assert.Error(t, got[missing].Err)
	assert.Empty(t, got[missing].Digest)
}

func TestHashAll_DuplicatePathsHashedOnce(t *testing.T) {
	p := writeFile(t, t.TempDir(), "hello.txt", "hello\n")

	got := New(2).HashAll([]string{p, p, p})
	require.Len(t, got, 1)
	assert.Equal(t, helloDigest, got[p].Digest)
}

func TestHashAll_Empty(t *testing.T) {
	assert.Empty(t, New(0).HashAll(nil))
}

func TestNew_DefaultWorkers(t *testing.T) {
	assert.Greater(t, New(0).Workers(), 0)
	assert.Equal(t, 3, New(3).Workers())
}

func TestIsDigest(t *testing.T) {
	assert.True(t, IsDigest(helloDigest))
	assert.False(t, IsDigest("SKIPPED_FOR_SPEED"))
	assert.False(t, IsDigest(strings.ToUpper(helloDigest)))
	assert.False(t, IsDigest(""))
}
