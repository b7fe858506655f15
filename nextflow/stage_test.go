package nextflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, content string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestStage(t *testing.T) {
	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "nf-workdir")

	write(t, filepath.Join(src, "main.nf"), "workflow {}")
	write(t, filepath.Join(src, "latch.config"), "process {}")
	write(t, filepath.Join(src, "assets", "adapters.fas"), ">a")
	write(t, filepath.Join(src, ".nextflow", "history"), "x")
	write(t, filepath.Join(src, "work", "ab", "cd"), "x")
	write(t, filepath.Join(src, "modules", "results", "out.txt"), "nested")
	write(t, filepath.Join(src, "miniconda", "bin", "conda"), "x")
	write(t, filepath.Join(src, "nextflow"), "binary")
	require.NoError(t, os.Symlink(filepath.Join(src, "main.nf"), filepath.Join(src, "entry.nf")))
	require.NoError(t, os.Symlink(filepath.Join(src, "gone"), filepath.Join(src, "dangling")))

	require.NoError(t, Stage(src, dst))

	for _, name := range []string{"main.nf", "latch.config", "assets/adapters.fas", "modules"} {
		_, err := os.Stat(filepath.Join(dst, name))
		assert.NoError(t, err, name)
	}
	for _, name := range []string{".nextflow", "work", "modules/results", "miniconda", "nextflow", "dangling"} {
		_, err := os.Lstat(filepath.Join(dst, name))
		assert.True(t, os.IsNotExist(err), name)
	}

	info, err := os.Lstat(filepath.Join(dst, "entry.nf"))
	require.NoError(t, err)
	assert.Zero(t, info.Mode()&os.ModeSymlink)
	b, err := os.ReadFile(filepath.Join(dst, "entry.nf"))
	require.NoError(t, err)
	assert.Equal(t, "workflow {}", string(b))
}

func TestStageMerges(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	write(t, filepath.Join(src, "main.nf"), "new")
	write(t, filepath.Join(dst, "main.nf"), "old")
	write(t, filepath.Join(dst, "keep.txt"), "keep")

	require.NoError(t, Stage(src, dst))

	b, err := os.ReadFile(filepath.Join(dst, "main.nf"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(b))
	_, err = os.Stat(filepath.Join(dst, "keep.txt"))
	assert.NoError(t, err)
}

func TestStageSourceErrors(t *testing.T) {
	dir := t.TempDir()
	assert.Error(t, Stage(filepath.Join(dir, "missing"), t.TempDir()))

	file := filepath.Join(dir, "file")
	write(t, file, "x")
	assert.Error(t, Stage(file, t.TempDir()))
}
