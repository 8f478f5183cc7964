package memory

import (
	"os"
	"path/filepath"

	"github.com/phaezer/mcp-local-project-memory/pkg/errors"
)

/*
Config resolves the on-disk layout for a project's memory storage. All paths
derive deterministically from the project root, so two instances pointed at
the same root always agree on where records live.
*/
type Config struct {
	ProjectRoot string
}

/*
NewConfig returns a Config rooted at the given directory. An empty root falls
back to the current working directory.
*/
func NewConfig(projectRoot string) *Config {
	if projectRoot == "" {
		projectRoot, _ = os.Getwd()
	}

	return &Config{ProjectRoot: projectRoot}
}

/*
MemoriesDir is the directory holding one markdown file per memory record.
*/
func (c *Config) MemoriesDir() string {
	return filepath.Join(c.ProjectRoot, ".ai", "context", "memories")
}

/*
InstructionsFile is the path of the static usage-instructions document.
*/
func (c *Config) InstructionsFile() string {
	return filepath.Join(c.ProjectRoot, ".ai", "context", "memory-instructions.md")
}

/*
EnsureDirectories creates the memories directory and the instructions file's
parent directory if they are missing. It is idempotent and never fails when
the paths already exist.
*/
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.MemoriesDir(), 0755); err != nil {
		return errors.ErrStorageFailure.WithMessagef("failed to create memories directory: %v", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.InstructionsFile()), 0755); err != nil {
		return errors.ErrStorageFailure.WithMessagef("failed to create instructions directory: %v", err)
	}

	return nil
}
