package nextflow

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"
)

// StageDenylist holds base names never copied into the work dir, at any depth
var StageDenylist = []string{
	"latch",
	".latch",
	"nextflow",
	".nextflow",
	"work",
	"results",
	"miniconda",
	"anaconda3",
	"mambaforge",
}

func denied(name string) bool {
	for _, d := range StageDenylist {
		if name == d {
			return true
		}
	}
	return false
}

// Stage copies src into dst, merging into dst if it exists.
// Symlinks are followed and dangling ones skipped.
func Stage(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("failed to stat staging source %s: %w", src, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("staging source %s is not a directory", src)
	}

	opt := copy.Options{
		Skip: func(_ os.FileInfo, path, _ string) (bool, error) {
			return denied(filepath.Base(path)), nil
		},
		OnSymlink: func(path string) copy.SymlinkAction {
			if _, err := os.Stat(path); err != nil {
				return copy.Skip
			}
			return copy.Deep
		},
		OnDirExists: func(_, _ string) copy.DirExistsAction {
			return copy.Merge
		},
	}
	if err := copy.Copy(src, dst, opt); err != nil {
		return fmt.Errorf("failed to stage %s into %s: %w", src, dst, err)
	}
	return nil
}
