// Package memory implements a file-backed store for project memories. Each
// memory is one markdown file with a frontmatter metadata block, written under
// the project's .ai/context/memories directory. The store keeps no state
// between calls – every operation re-reads whatever is on disk, so external
// edits to the files are picked up immediately.
package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cohesivestack/valgo"
	"github.com/google/uuid"

	"github.com/phaezer/mcp-local-project-memory/pkg/errors"
)

/*
Store performs the memory record operations against the directory layout
resolved by its Config. It is safe to create one per call or share one –
there is no in-process state beyond the resolved paths.
*/
type Store struct {
	config *Config
}

/*
NewStore returns a Store operating on the given Config.
*/
func NewStore(config *Config) *Store {
	return &Store{config: config}
}

/*
StoreResult reports the outcome of storing a new memory.
*/
type StoreResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	FilePath string `json:"file_path"`
	Title    string `json:"title"`
}

/*
RetrieveResult carries a memory's full content, or the not-found error.
*/
type RetrieveResult struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename,omitempty"`
	Content  string `json:"content,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	Error    string `json:"error,omitempty"`
}

/*
Entry is one record in a listing: filename plus the metadata extracted from
its frontmatter.
*/
type Entry struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Tags     string `json:"tags"`
	Path     string `json:"path"`
}

/*
ListResult holds the (possibly filtered) record listing.
*/
type ListResult struct {
	Success  bool    `json:"success"`
	Count    int     `json:"count"`
	Memories []Entry `json:"memories"`
}

/*
Match is one search hit. Search does not report positions or snippets, only
which records matched.
*/
type Match struct {
	Filename string `json:"filename"`
	Title    string `json:"title"`
	Path     string `json:"path"`
}

/*
SearchResult holds the matches for a query.
*/
type SearchResult struct {
	Success bool    `json:"success"`
	Query   string  `json:"query"`
	Count   int     `json:"count"`
	Matches []Match `json:"matches"`
}

/*
UpdateResult reports the outcome of replacing a memory's body.
*/
type UpdateResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Filename string `json:"filename,omitempty"`
	FilePath string `json:"file_path,omitempty"`
	Error    string `json:"error,omitempty"`
}

/*
DeleteResult reports the outcome of removing a memory.
*/
type DeleteResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Filename string `json:"filename,omitempty"`
	Error    string `json:"error,omitempty"`
}

/*
InstructionsResult carries the usage-instructions document.
*/
type InstructionsResult struct {
	Success      bool   `json:"success"`
	Instructions string `json:"instructions"`
	FilePath     string `json:"file_path"`
}

// recordPath joins a caller-supplied filename onto the memories directory and
// rejects anything that would resolve outside of it.
func (s *Store) recordPath(filename string) (string, error) {
	dir := filepath.Clean(s.config.MemoriesDir())
	path := filepath.Join(dir, filename)

	if filepath.Dir(path) != dir {
		return "", errors.ErrInvalidFilename.WithMessagef("filename escapes the memories directory: %s", filename)
	}

	return path, nil
}

/*
Store writes a new memory record. The filename is the current timestamp plus
the slugified title; when that name is already taken (same title stored twice
within one second) a short random token is appended so the earlier record is
never overwritten.
*/
func (s *Store) Store(title, content, tags string) (*StoreResult, error) {
	if v := valgo.Is(valgo.String(title, "title").Not().Blank()); !v.Valid() {
		return nil, errors.ErrInvalidParams.WithMessagef("invalid title: %v", v.Error())
	}

	if err := s.config.EnsureDirectories(); err != nil {
		return nil, err
	}

	now := time.Now()
	base := fmt.Sprintf("%s-%s", now.Format("20060102-150405"), Slugify(title))

	path := filepath.Join(s.config.MemoriesDir(), base+".md")
	if _, err := os.Stat(path); err == nil {
		path = filepath.Join(s.config.MemoriesDir(), fmt.Sprintf("%s-%s.md", base, uuid.NewString()[:8]))
	}

	fm := Frontmatter{
		Title:   title,
		Created: now.Format(time.RFC3339),
		Tags:    tags,
	}

	if err := os.WriteFile(path, []byte(fm.Encode()+content+"\n"), 0644); err != nil {
		log.Error("failed to write memory", "path", path, "error", err)
		return nil, errors.ErrStorageFailure.WithMessagef("failed to write memory: %v", err)
	}

	return &StoreResult{
		Success:  true,
		Message:  "Memory stored successfully",
		FilePath: path,
		Title:    title,
	}, nil
}

/*
Retrieve returns the full content of a memory by filename. A missing file is
a structured not-found result, not an error, so callers can branch on the
success flag.
*/
func (s *Store) Retrieve(filename string) (*RetrieveResult, error) {
	path, err := s.recordPath(filename)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &RetrieveResult{
				Success: false,
				Error:   fmt.Sprintf("Memory not found: %s", filename),
			}, nil
		}
		log.Error("failed to read memory", "path", path, "error", err)
		return nil, errors.ErrStorageFailure.WithMessagef("failed to read memory: %v", err)
	}

	return &RetrieveResult{
		Success:  true,
		Filename: filename,
		Content:  string(data),
		FilePath: path,
	}, nil
}

/*
List enumerates all memory records in filename order, which is creation order
because filenames start with a sortable timestamp. A non-empty tagFilter
keeps only records whose raw tags text contains it, case-insensitively.
*/
func (s *Store) List(tagFilter string) (*ListResult, error) {
	if err := s.config.EnsureDirectories(); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(s.config.MemoriesDir())
	if err != nil {
		log.Error("failed to read memories directory", "error", err)
		return nil, errors.ErrStorageFailure.WithMessagef("failed to read memories directory: %v", err)
	}

	memories := []Entry{}

	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".md") {
			continue
		}

		path := filepath.Join(s.config.MemoriesDir(), de.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("failed to read memory", "path", path, "error", err)
			return nil, errors.ErrStorageFailure.WithMessagef("failed to read memory: %v", err)
		}

		title, tags := de.Name(), ""
		if fm, ok := ParseFrontmatter(string(data)); ok {
			if fm.Title != "" {
				title = fm.Title
			}
			tags = fm.Tags
		}

		if tagFilter != "" && !strings.Contains(strings.ToLower(tags), strings.ToLower(tagFilter)) {
			continue
		}

		memories = append(memories, Entry{
			Filename: de.Name(),
			Title:    title,
			Tags:     tags,
			Path:     path,
		})
	}

	return &ListResult{
		Success:  true,
		Count:    len(memories),
		Memories: memories,
	}, nil
}

/*
Search scans every record's full content, frontmatter included, for the query
as a case-insensitive substring.
*/
func (s *Store) Search(query string) (*SearchResult, error) {
	if err := s.config.EnsureDirectories(); err != nil {
		return nil, err
	}

	dirEntries, err := os.ReadDir(s.config.MemoriesDir())
	if err != nil {
		log.Error("failed to read memories directory", "error", err)
		return nil, errors.ErrStorageFailure.WithMessagef("failed to read memories directory: %v", err)
	}

	matches := []Match{}
	needle := strings.ToLower(query)

	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".md") {
			continue
		}

		path := filepath.Join(s.config.MemoriesDir(), de.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Error("failed to read memory", "path", path, "error", err)
			return nil, errors.ErrStorageFailure.WithMessagef("failed to read memory: %v", err)
		}

		if !strings.Contains(strings.ToLower(string(data)), needle) {
			continue
		}

		title := de.Name()
		if fm, ok := ParseFrontmatter(string(data)); ok && fm.Title != "" {
			title = fm.Title
		}

		matches = append(matches, Match{
			Filename: de.Name(),
			Title:    title,
			Path:     path,
		})
	}

	return &SearchResult{
		Success: true,
		Query:   query,
		Count:   len(matches),
		Matches: matches,
	}, nil
}

/*
Update replaces a memory's body while keeping its metadata block byte-for-byte
intact. The created timestamp and tags can never change through this path. A
record without a metadata block is replaced wholesale, no block is introduced.
*/
func (s *Store) Update(filename, content string) (*UpdateResult, error) {
	path, err := s.recordPath(filename)
	if err != nil {
		return nil, err
	}

	existing, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &UpdateResult{
				Success: false,
				Error:   fmt.Sprintf("Memory not found: %s", filename),
			}, nil
		}
		log.Error("failed to read memory", "path", path, "error", err)
		return nil, errors.ErrStorageFailure.WithMessagef("failed to read memory: %v", err)
	}

	updated := content
	if block, ok := RawBlock(string(existing)); ok {
		updated = block + "\n\n" + content
	}

	if err := os.WriteFile(path, []byte(updated), 0644); err != nil {
		log.Error("failed to write memory", "path", path, "error", err)
		return nil, errors.ErrStorageFailure.WithMessagef("failed to write memory: %v", err)
	}

	return &UpdateResult{
		Success:  true,
		Message:  "Memory updated successfully",
		Filename: filename,
		FilePath: path,
	}, nil
}

/*
Delete removes a memory file. There is no soft delete – the record is gone.
*/
func (s *Store) Delete(filename string) (*DeleteResult, error) {
	path, err := s.recordPath(filename)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return &DeleteResult{
				Success: false,
				Error:   fmt.Sprintf("Memory not found: %s", filename),
			}, nil
		}
		log.Error("failed to stat memory", "path", path, "error", err)
		return nil, errors.ErrStorageFailure.WithMessagef("failed to stat memory: %v", err)
	}

	if err := os.Remove(path); err != nil {
		log.Error("failed to delete memory", "path", path, "error", err)
		return nil, errors.ErrStorageFailure.WithMessagef("failed to delete memory: %v", err)
	}

	return &DeleteResult{
		Success:  true,
		Message:  "Memory deleted successfully",
		Filename: filename,
	}, nil
}

/*
Instructions returns the usage-instructions document, writing the default one
on first access. An existing file is never rewritten, so external edits to it
survive.
*/
func (s *Store) Instructions() (*InstructionsResult, error) {
	if err := s.config.EnsureDirectories(); err != nil {
		return nil, err
	}

	path := s.config.InstructionsFile()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(defaultInstructions), 0644); err != nil {
			log.Error("failed to write instructions", "path", path, "error", err)
			return nil, errors.ErrStorageFailure.WithMessagef("failed to write instructions: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Error("failed to read instructions", "path", path, "error", err)
		return nil, errors.ErrStorageFailure.WithMessagef("failed to read instructions: %v", err)
	}

	return &InstructionsResult{
		Success:      true,
		Instructions: string(data),
		FilePath:     path,
	}, nil
}

const defaultInstructions = `# Memory System Instructions

## Overview
This memory system stores project-specific context and knowledge as markdown files.

## Usage Guidelines

### Storing Memories
- Use descriptive titles that summarize the content
- Add relevant tags for categorization
- Include context that would be helpful for future reference

### Retrieving Information
- List all memories to see what's available
- Search for specific terms or concepts
- Retrieve full memory content when needed

### Best Practices
- Keep memories focused on a single topic
- Update memories when information changes
- Use tags consistently for easier filtering
- Delete outdated or irrelevant memories

## Memory Structure
Memories are stored in ` + "`.ai/context/memories/`" + ` with timestamps and titles.
Each memory includes frontmatter with metadata (title, tags, creation date).
`
