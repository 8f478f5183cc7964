package memory

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/phaezer/mcp-local-project-memory/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	root, err := os.MkdirTemp("", "memory-test-*")
	if err != nil {
		t.Fatalf("failed to create temp root: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(root) })

	return NewStore(NewConfig(root))
}

func TestConfigPaths(t *testing.T) {
	Convey("Given a config rooted at a project directory", t, func() {
		cfg := NewConfig("/tmp/project")

		Convey("It should derive the memories directory", func() {
			So(cfg.MemoriesDir(), ShouldEqual, filepath.Join("/tmp/project", ".ai", "context", "memories"))
		})

		Convey("It should derive the instructions file path", func() {
			So(cfg.InstructionsFile(), ShouldEqual, filepath.Join("/tmp/project", ".ai", "context", "memory-instructions.md"))
		})
	})

	Convey("Given an empty project root", t, func() {
		cfg := NewConfig("")

		Convey("It should fall back to the working directory", func() {
			wd, _ := os.Getwd()
			So(cfg.ProjectRoot, ShouldEqual, wd)
		})
	})
}

func TestEnsureDirectories(t *testing.T) {
	Convey("Given a fresh project root", t, func() {
		root, err := os.MkdirTemp("", "memory-test-*")
		So(err, ShouldBeNil)
		defer os.RemoveAll(root)

		cfg := NewConfig(root)

		Convey("When ensuring directories", func() {
			So(cfg.EnsureDirectories(), ShouldBeNil)

			Convey("The memories directory should exist", func() {
				info, err := os.Stat(cfg.MemoriesDir())
				So(err, ShouldBeNil)
				So(info.IsDir(), ShouldBeTrue)
			})

			Convey("The instructions file itself should not be created", func() {
				_, err := os.Stat(cfg.InstructionsFile())
				So(os.IsNotExist(err), ShouldBeTrue)
			})

			Convey("Ensuring again should be a no-op", func() {
				So(cfg.EnsureDirectories(), ShouldBeNil)
			})
		})
	})
}

func TestStoreAndRetrieve(t *testing.T) {
	Convey("Given a store", t, func() {
		store := newTestStore(t)

		Convey("When storing a memory", func() {
			result, err := store.Store("API Design Notes", "Use REST.", "api,design")
			So(err, ShouldBeNil)
			So(result.Success, ShouldBeTrue)
			So(result.Title, ShouldEqual, "API Design Notes")

			filename := filepath.Base(result.FilePath)

			Convey("The filename should be timestamp plus slug", func() {
				pattern := regexp.MustCompile(`^\d{8}-\d{6}-api-design-notes\.md$`)
				So(pattern.MatchString(filename), ShouldBeTrue)
			})

			Convey("The file should begin with the frontmatter title line", func() {
				data, err := os.ReadFile(result.FilePath)
				So(err, ShouldBeNil)
				So(strings.HasPrefix(string(data), "---\ntitle: API Design Notes\n"), ShouldBeTrue)
				So(string(data), ShouldContainSubstring, "Use REST.")
				So(string(data), ShouldContainSubstring, "tags: api,design\n")
			})

			Convey("Retrieve with the returned filename should yield the content", func() {
				got, err := store.Retrieve(filename)
				So(err, ShouldBeNil)
				So(got.Success, ShouldBeTrue)
				So(got.Content, ShouldContainSubstring, "Use REST.")
				So(got.Content, ShouldContainSubstring, "title: API Design Notes")
				So(got.FilePath, ShouldEqual, result.FilePath)
			})
		})

		Convey("When storing the same title twice within one second", func() {
			first, err := store.Store("duplicate", "one", "")
			So(err, ShouldBeNil)
			second, err := store.Store("duplicate", "two", "")
			So(err, ShouldBeNil)

			Convey("The second write should get a disambiguated filename", func() {
				So(second.FilePath, ShouldNotEqual, first.FilePath)

				data, err := os.ReadFile(first.FilePath)
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, "one")
			})
		})

		Convey("When storing with a blank title", func() {
			_, err := store.Store("   ", "body", "")

			Convey("It should be rejected as invalid params", func() {
				So(err, ShouldNotBeNil)
				rpcErr, ok := err.(*errors.RpcError)
				So(ok, ShouldBeTrue)
				So(rpcErr.Code, ShouldEqual, errors.ErrInvalidParams.Code)
			})
		})

		Convey("When retrieving a filename that was never written", func() {
			got, err := store.Retrieve("20250101-000000-nothing.md")
			So(err, ShouldBeNil)

			Convey("It should fail with not-found and no content", func() {
				So(got.Success, ShouldBeFalse)
				So(got.Error, ShouldEqual, "Memory not found: 20250101-000000-nothing.md")
				So(got.Content, ShouldEqual, "")
			})
		})

		Convey("When retrieving a filename that escapes the directory", func() {
			_, err := store.Retrieve("../../secrets.md")

			Convey("It should be rejected with the invalid-filename kind", func() {
				So(err, ShouldNotBeNil)
				rpcErr, ok := err.(*errors.RpcError)
				So(ok, ShouldBeTrue)
				So(rpcErr.Code, ShouldEqual, errors.ErrInvalidFilename.Code)
			})
		})
	})
}

func TestList(t *testing.T) {
	Convey("Given a store", t, func() {
		store := newTestStore(t)

		Convey("Listing an empty directory should return zero records", func() {
			result, err := store.List("")
			So(err, ShouldBeNil)
			So(result.Success, ShouldBeTrue)
			So(result.Count, ShouldEqual, 0)
			So(result.Memories, ShouldBeEmpty)
		})

		Convey("When several memories are stored", func() {
			for _, title := range []string{"alpha", "beta", "gamma"} {
				_, err := store.Store(title, "body of "+title, "")
				So(err, ShouldBeNil)
			}

			result, err := store.List("")
			So(err, ShouldBeNil)

			Convey("All of them should be listed in filename order", func() {
				So(result.Count, ShouldEqual, 3)
				So(len(result.Memories), ShouldEqual, 3)

				names := []string{}
				for _, m := range result.Memories {
					names = append(names, m.Filename)
				}
				sorted := append([]string{}, names...)
				sort.Strings(sorted)
				So(names, ShouldResemble, sorted)
			})

			Convey("Each entry should carry the frontmatter title", func() {
				titles := map[string]bool{}
				for _, m := range result.Memories {
					titles[m.Title] = true
				}
				So(titles["alpha"], ShouldBeTrue)
				So(titles["beta"], ShouldBeTrue)
				So(titles["gamma"], ShouldBeTrue)
			})
		})

		Convey("When filtering by tag substring", func() {
			_, err := store.Store("imaging", "bones", "X-ray")
			So(err, ShouldBeNil)
			_, err = store.Store("storage", "postgres", "database")
			So(err, ShouldBeNil)
			_, err = store.Store("untagged", "nothing", "")
			So(err, ShouldBeNil)

			Convey("The filter should match case-insensitively", func() {
				result, err := store.List("x")
				So(err, ShouldBeNil)
				So(result.Count, ShouldEqual, 1)
				So(result.Memories[0].Tags, ShouldEqual, "X-ray")
			})

			Convey("The filter is a raw substring, not token membership", func() {
				result, err := store.List("abas")
				So(err, ShouldBeNil)
				So(result.Count, ShouldEqual, 1)
				So(result.Memories[0].Tags, ShouldEqual, "database")
			})

			Convey("A non-matching filter should return nothing", func() {
				result, err := store.List("kubernetes")
				So(err, ShouldBeNil)
				So(result.Count, ShouldEqual, 0)
			})
		})

		Convey("A record without frontmatter should fall back to its filename", func() {
			So(store.config.EnsureDirectories(), ShouldBeNil)
			path := filepath.Join(store.config.MemoriesDir(), "handwritten.md")
			So(os.WriteFile(path, []byte("no metadata here\n"), 0644), ShouldBeNil)

			result, err := store.List("")
			So(err, ShouldBeNil)
			So(result.Count, ShouldEqual, 1)
			So(result.Memories[0].Title, ShouldEqual, "handwritten.md")
			So(result.Memories[0].Tags, ShouldEqual, "")
		})
	})
}

func TestSearch(t *testing.T) {
	Convey("Given a store with a few memories", t, func() {
		store := newTestStore(t)

		_, err := store.Store("deployment", "We deploy with Kubernetes.", "infra")
		So(err, ShouldBeNil)
		_, err = store.Store("testing", "Unit tests use goconvey.", "quality")
		So(err, ShouldBeNil)

		Convey("Search should match body text case-insensitively", func() {
			result, err := store.Search("KUBERNETES")
			So(err, ShouldBeNil)
			So(result.Success, ShouldBeTrue)
			So(result.Query, ShouldEqual, "KUBERNETES")
			So(result.Count, ShouldEqual, 1)
			So(result.Matches[0].Title, ShouldEqual, "deployment")
		})

		Convey("Search should also match inside the frontmatter", func() {
			result, err := store.Search("quality")
			So(err, ShouldBeNil)
			So(result.Count, ShouldEqual, 1)
			So(result.Matches[0].Title, ShouldEqual, "testing")
		})

		Convey("Search with no hits should return an empty match list", func() {
			result, err := store.Search("terraform")
			So(err, ShouldBeNil)
			So(result.Count, ShouldEqual, 0)
			So(result.Matches, ShouldBeEmpty)
		})
	})
}

func TestUpdate(t *testing.T) {
	Convey("Given a stored memory", t, func() {
		store := newTestStore(t)

		stored, err := store.Store("notes", "original body", "keep,me")
		So(err, ShouldBeNil)
		filename := filepath.Base(stored.FilePath)

		original, err := os.ReadFile(stored.FilePath)
		So(err, ShouldBeNil)
		originalBlock, ok := RawBlock(string(original))
		So(ok, ShouldBeTrue)

		Convey("When updating its body", func() {
			result, err := store.Update(filename, "replacement body")
			So(err, ShouldBeNil)
			So(result.Success, ShouldBeTrue)
			So(result.Message, ShouldEqual, "Memory updated successfully")

			data, err := os.ReadFile(stored.FilePath)
			So(err, ShouldBeNil)

			Convey("The metadata block should be preserved verbatim", func() {
				block, ok := RawBlock(string(data))
				So(ok, ShouldBeTrue)
				So(block, ShouldEqual, originalBlock)
			})

			Convey("The body should be fully replaced", func() {
				So(string(data), ShouldContainSubstring, "replacement body")
				So(string(data), ShouldNotContainSubstring, "original body")
			})

			Convey("Created and tags should be unchanged", func() {
				fm, ok := ParseFrontmatter(string(data))
				So(ok, ShouldBeTrue)
				origFm, _ := ParseFrontmatter(string(original))
				So(fm.Created, ShouldEqual, origFm.Created)
				So(fm.Tags, ShouldEqual, "keep,me")
			})
		})

		Convey("When updating a record that has no metadata block", func() {
			So(store.config.EnsureDirectories(), ShouldBeNil)
			path := filepath.Join(store.config.MemoriesDir(), "bare.md")
			So(os.WriteFile(path, []byte("old plain body\n"), 0644), ShouldBeNil)

			result, err := store.Update("bare.md", "new plain body")
			So(err, ShouldBeNil)
			So(result.Success, ShouldBeTrue)

			Convey("No metadata should be introduced", func() {
				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "new plain body")
			})
		})

		Convey("When updating a nonexistent memory", func() {
			result, err := store.Update("20250101-000000-missing.md", "body")
			So(err, ShouldBeNil)

			Convey("It should fail with not-found", func() {
				So(result.Success, ShouldBeFalse)
				So(result.Error, ShouldEqual, "Memory not found: 20250101-000000-missing.md")
			})
		})
	})
}

func TestDelete(t *testing.T) {
	Convey("Given a stored memory", t, func() {
		store := newTestStore(t)

		stored, err := store.Store("disposable", "delete me", "")
		So(err, ShouldBeNil)
		filename := filepath.Base(stored.FilePath)

		Convey("When deleting it", func() {
			result, err := store.Delete(filename)
			So(err, ShouldBeNil)
			So(result.Success, ShouldBeTrue)
			So(result.Message, ShouldEqual, "Memory deleted successfully")

			Convey("A subsequent retrieve should fail with not-found", func() {
				got, err := store.Retrieve(filename)
				So(err, ShouldBeNil)
				So(got.Success, ShouldBeFalse)
			})

			Convey("Deleting it again should also fail with not-found", func() {
				again, err := store.Delete(filename)
				So(err, ShouldBeNil)
				So(again.Success, ShouldBeFalse)
				So(again.Error, ShouldEqual, "Memory not found: "+filename)
			})
		})

		Convey("Deleting a filename that escapes the directory should be rejected", func() {
			_, err := store.Delete("../escape.md")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestInstructions(t *testing.T) {
	Convey("Given a fresh store", t, func() {
		store := newTestStore(t)

		Convey("The first call should create the default document", func() {
			result, err := store.Instructions()
			So(err, ShouldBeNil)
			So(result.Success, ShouldBeTrue)
			So(result.Instructions, ShouldContainSubstring, "# Memory System Instructions")
			So(result.FilePath, ShouldEqual, store.config.InstructionsFile())

			Convey("External edits should survive a second call", func() {
				custom := "# Team conventions\n\nAlways tag memories.\n"
				So(os.WriteFile(store.config.InstructionsFile(), []byte(custom), 0644), ShouldBeNil)

				again, err := store.Instructions()
				So(err, ShouldBeNil)
				So(again.Instructions, ShouldEqual, custom)
			})
		})
	})
}
