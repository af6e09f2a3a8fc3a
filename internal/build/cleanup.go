package build

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mmr-tortoise/ykit-build/internal/project"
)

// gitHooksDir is relative to the project root.
var gitHooksDir = filepath.Join(".git", "hooks")

// ClearGitHooks truncates every regular file under dir/.git/hooks to zero
// length. Files keep their names and permissions, so git still finds them
// but they do nothing. Subdirectories are left alone.
//
// Returns the names of the cleared files, or nil if the hooks directory does
// not exist.
func ClearGitHooks(dir string) ([]string, error) {
	// A .git file (worktree or submodule checkout) keeps its hooks in the
	// main repository, which this build does not own. A symlinked .git
	// directory is followed.
	gitInfo, err := os.Stat(filepath.Join(dir, ".git"))
	if err != nil || !gitInfo.IsDir() {
		return nil, nil
	}

	hooks := filepath.Join(dir, gitHooksDir)
	info, err := os.Stat(hooks)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to inspect %s: %w", hooks, err)
	}
	if !info.IsDir() {
		return nil, nil
	}

	entries, err := os.ReadDir(hooks)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", hooks, err)
	}

	cleared := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		// O_TRUNC on an existing file keeps its mode bits.
		f, err := os.OpenFile(filepath.Join(hooks, entry.Name()), os.O_WRONLY|os.O_TRUNC, 0)
		if err != nil {
			return cleared, fmt.Errorf("failed to clear git hook %s: %w", entry.Name(), err)
		}
		if err := f.Close(); err != nil {
			return cleared, fmt.Errorf("failed to clear git hook %s: %w", entry.Name(), err)
		}
		cleared = append(cleared, entry.Name())
	}
	return cleared, nil
}

// ClearDependencies removes dir/node_modules recursively. A missing
// directory is not an error.
func ClearDependencies(dir string) error {
	if err := os.RemoveAll(filepath.Join(dir, project.DependencyDir)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", project.DependencyDir, err)
	}
	return nil
}
