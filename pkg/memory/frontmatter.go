package memory

import (
	"fmt"
	"strings"
)

const delimiter = "---"

/*
Frontmatter is the metadata block at the top of a record file. Values are kept
as the raw text after the key, so whatever the caller stored round-trips
unchanged.
*/
type Frontmatter struct {
	Title   string
	Created string
	Tags    string
}

/*
Encode renders the frontmatter block, closing delimiter and separating blank
line included.
*/
func (fm Frontmatter) Encode() string {
	builder := &strings.Builder{}

	builder.WriteString(delimiter + "\n")
	fmt.Fprintf(builder, "title: %s\n", fm.Title)
	fmt.Fprintf(builder, "created: %s\n", fm.Created)
	fmt.Fprintf(builder, "tags: %s\n", fm.Tags)
	builder.WriteString(delimiter + "\n\n")

	return builder.String()
}

/*
ParseFrontmatter scans the metadata block of a record's content. It is a
tolerant line scanner: it stops at the closing delimiter, unknown keys are
skipped, and missing keys stay empty. A file that does not open with a
delimiter line has no metadata and reports ok false.
*/
func ParseFrontmatter(content string) (fm Frontmatter, ok bool) {
	lines := strings.Split(content, "\n")

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != delimiter {
		return Frontmatter{}, false
	}

	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == delimiter {
			return fm, true
		}

		switch {
		case strings.HasPrefix(line, "title:"):
			fm.Title = strings.TrimSpace(strings.TrimPrefix(line, "title:"))
		case strings.HasPrefix(line, "created:"):
			fm.Created = strings.TrimSpace(strings.TrimPrefix(line, "created:"))
		case strings.HasPrefix(line, "tags:"):
			fm.Tags = strings.TrimSpace(strings.TrimPrefix(line, "tags:"))
		}
	}

	// Opening delimiter without a closing one is treated as no metadata.
	return Frontmatter{}, false
}

/*
RawBlock returns the verbatim metadata block of a record's content, closing
delimiter line included. Update relies on this so that a rewrite never alters
the original metadata bytes.
*/
func RawBlock(content string) (block string, ok bool) {
	lines := strings.Split(content, "\n")

	if len(lines) == 0 || strings.TrimSpace(lines[0]) != delimiter {
		return "", false
	}

	for i, line := range lines[1:] {
		if strings.TrimSpace(line) == delimiter {
			return strings.Join(lines[:i+2], "\n"), true
		}
	}

	return "", false
}

/*
Slugify converts a title into its filename form: alphanumerics, spaces,
hyphens and underscores survive, everything else vanishes, then the result is
trimmed, internal spaces become hyphens, and the whole thing is lowercased.
*/
func Slugify(title string) string {
	builder := &strings.Builder{}

	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			builder.WriteRune(r)
		}
	}

	slug := strings.TrimSpace(builder.String())
	slug = strings.ReplaceAll(slug, " ", "-")

	return strings.ToLower(slug)
}
