// Package catalog loads companies and announcement documents from a data
// directory into the announcement index.
//
// The expected layout is a companies.yml manifest at the root plus markdown
// renditions under markdown/<TICKER>/. Each markdown file may carry a YAML
// front matter block with the announcement metadata; anything the front
// matter omits is derived from the file path.
package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ausiq/corpuschat/internal/announce"
)

// DefaultMaxFileSize is the maximum document size to load (1 MB).
const DefaultMaxFileSize int64 = 1 << 20

// frontMatter is the metadata block at the top of an announcement file.
type frontMatter struct {
	Key            string   `yaml:"key"`
	Ticker         string   `yaml:"ticker"`
	PublishedAt    string   `yaml:"published_at"`
	Types          []string `yaml:"types"`
	PriceSensitive bool     `yaml:"price_sensitive"`
	URL            string   `yaml:"url"`
}

// manifest is the companies.yml file at the data-directory root.
type manifest struct {
	Companies []announce.Company `yaml:"companies"`
}

// Stats summarizes one load run.
type Stats struct {
	Companies     int
	Announcements int
	Skipped       int
}

// Loader populates the announcement index from a data directory.
type Loader struct {
	store       *announce.Store
	MaxFileSize int64
}

func NewLoader(store *announce.Store) *Loader {
	return &Loader{store: store, MaxFileSize: DefaultMaxFileSize}
}

// Load reads the manifest and every markdown document under root and
// upserts them into the index. Unparseable files are skipped and counted,
// not fatal.
func (l *Loader) Load(ctx context.Context, root string) (Stats, error) {
	var stats Stats

	companies, err := l.loadManifest(ctx, filepath.Join(root, "companies.yml"))
	if err != nil {
		return stats, err
	}
	stats.Companies = companies

	docRoot := filepath.Join(root, "markdown")
	if _, err := os.Stat(docRoot); err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("catalog: stat %s: %w", docRoot, err)
	}

	err = filepath.WalkDir(docRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > l.MaxFileSize {
			log.Printf("catalog: skipping oversized file %s", path)
			stats.Skipped++
			return nil
		}

		ann, err := l.parseDocument(root, path)
		if err != nil {
			log.Printf("catalog: skipping %s: %v", path, err)
			stats.Skipped++
			return nil
		}

		if err := l.store.SaveAnnouncement(ctx, ann); err != nil {
			return fmt.Errorf("save %s: %w", ann.Key, err)
		}
		stats.Announcements++
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("catalog: %w", err)
	}
	return stats, nil
}

// loadManifest upserts the companies.yml entries. A missing manifest is not
// an error so a document-only directory can still be loaded.
func (l *Loader) loadManifest(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("catalog: read manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return 0, fmt.Errorf("catalog: parse manifest: %w", err)
	}

	for _, c := range m.Companies {
		c.Ticker = strings.ToUpper(strings.TrimSpace(c.Ticker))
		if c.Ticker == "" {
			continue
		}
		if err := l.store.SaveCompany(ctx, c); err != nil {
			return 0, fmt.Errorf("catalog: save company %s: %w", c.Ticker, err)
		}
	}
	return len(m.Companies), nil
}

// parseDocument builds an announcement from one markdown file. Metadata
// missing from the front matter falls back to the file path: the ticker is
// the parent directory and the published date is a leading YYYY-MM-DD
// filename prefix.
func (l *Loader) parseDocument(root, path string) (announce.Announcement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return announce.Announcement{}, err
	}

	fm, body, err := splitFrontMatter(string(data))
	if err != nil {
		return announce.Announcement{}, err
	}

	relPath, err := filepath.Rel(root, path)
	if err != nil {
		return announce.Announcement{}, err
	}
	relPath = filepath.ToSlash(relPath)

	ann := announce.Announcement{
		Key:            fm.Key,
		Ticker:         strings.ToUpper(fm.Ticker),
		Types:          strings.Join(fm.Types, ", "),
		PriceSensitive: fm.PriceSensitive,
		Markdown:       true,
		URL:            fm.URL,
		Content:        body,
	}
	if ann.Key == "" {
		ann.Key = relPath
	}
	if ann.Ticker == "" {
		ann.Ticker = strings.ToUpper(filepath.Base(filepath.Dir(path)))
	}

	if fm.PublishedAt != "" {
		ann.PublishedAt, err = parseDate(fm.PublishedAt)
		if err != nil {
			return announce.Announcement{}, fmt.Errorf("published_at: %w", err)
		}
	} else if ts, ok := dateFromName(filepath.Base(path)); ok {
		ann.PublishedAt = ts
	} else {
		return announce.Announcement{}, fmt.Errorf("no published date in front matter or filename")
	}

	return ann, nil
}

// splitFrontMatter separates a leading YAML block delimited by "---" lines
// from the document body. A document without front matter is returned whole.
func splitFrontMatter(content string) (frontMatter, string, error) {
	var fm frontMatter

	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return fm, content, nil
	}

	rest := content[strings.Index(content, "\n")+1:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return fm, "", fmt.Errorf("unterminated front matter")
	}

	block := rest[:end]
	body := rest[end+len("\n---"):]
	if i := strings.Index(body, "\n"); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}

	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return fm, "", fmt.Errorf("front matter: %w", err)
	}
	return fm, strings.TrimLeft(body, "\n"), nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05Z07:00", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// dateFromName extracts a YYYY-MM-DD prefix from a filename.
func dateFromName(name string) (time.Time, bool) {
	if len(name) < 10 {
		return time.Time{}, false
	}
	ts, err := time.Parse("2006-01-02", name[:10])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
