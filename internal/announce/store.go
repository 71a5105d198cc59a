package announce

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ausiq/corpuschat/internal/corpus"
	"github.com/ausiq/corpuschat/internal/db"
	"github.com/ausiq/corpuschat/internal/fingerprint"
)

// typeKeywords maps each filter label to the substrings matched against the
// announcement's type string. A label matches when any keyword appears.
var typeKeywords = map[string][]string{
	"Cashflow Reports":         {"Cash"},
	"Mining studies/resources": {"dfs", "pfs", "scoping", "study", "feasibility", "jorc", "resource"},
	"Placements":               {"Placement", "Renounceable", "Security Purchase", "Trading Halt"},
	"Shares 3B's, 2A's":        {"Placement", "Appendix 2A", "Appendix 3B", "Renounceable", "Security Purchase", "Appendix 3G", "Trading Halt"},
	"Presentations":            {"presentation"},
}

// Store resolves catalog and filter queries against the SQLite index. All
// reads are side-effect free.
type Store struct {
	db     *db.DB
	ignore []string
}

// NewStore creates a Store. ignoreGlobs holds doublestar patterns; any
// document key matching one is excluded from filter results.
func NewStore(d *db.DB, ignoreGlobs []string) *Store {
	return &Store{db: d, ignore: ignoreGlobs}
}

// Companies returns the full catalog ordered by company name.
func (s *Store) Companies(ctx context.Context) ([]Company, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ticker, name, industry FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying companies: %w", err)
	}
	defer rows.Close()

	var companies []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.Ticker, &c.Name, &c.Industry); err != nil {
			return nil, fmt.Errorf("scanning company: %w", err)
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// Company looks up a single catalog entry by ticker.
func (s *Store) Company(ctx context.Context, ticker string) (Company, error) {
	var c Company
	err := s.db.QueryRowContext(ctx,
		`SELECT ticker, name, industry FROM companies WHERE ticker = ?`, ticker).
		Scan(&c.Ticker, &c.Name, &c.Industry)
	if err != nil {
		return Company{}, fmt.Errorf("looking up company %s: %w", ticker, err)
	}
	return c, nil
}

// SaveCompany inserts or updates a catalog entry.
func (s *Store) SaveCompany(ctx context.Context, c Company) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (ticker, name, industry) VALUES (?, ?, ?)
		ON CONFLICT(ticker) DO UPDATE SET name = excluded.name, industry = excluded.industry`,
		c.Ticker, c.Name, c.Industry)
	if err != nil {
		return fmt.Errorf("saving company %s: %w", c.Ticker, err)
	}
	return nil
}

// SaveAnnouncement inserts or updates one announcement row.
func (s *Store) SaveAnnouncement(ctx context.Context, a Announcement) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO announcements (key, ticker, published_at, types, price_sensitive, markdown, url, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			ticker = excluded.ticker,
			published_at = excluded.published_at,
			types = excluded.types,
			price_sensitive = excluded.price_sensitive,
			markdown = excluded.markdown,
			url = excluded.url,
			content = excluded.content`,
		a.Key, a.Ticker, a.PublishedAt.Format("2006-01-02 15:04:05"), a.Types, a.PriceSensitive, a.Markdown, a.URL, a.Content)
	if err != nil {
		return fmt.Errorf("saving announcement %s: %w", a.Key, err)
	}
	return nil
}

// Content returns the stored text of one announcement by key.
func (s *Store) Content(ctx context.Context, key string) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `SELECT content FROM announcements WHERE key = ?`, key).Scan(&content)
	if err != nil {
		return "", fmt.Errorf("loading announcement content %s: %w", key, err)
	}
	return content, nil
}

// Matching resolves a filter query to the ordered set of matching documents.
// Announcements with a markdown rendition have their key rewritten to the
// markdown object and sort first, so a document appearing in both forms
// resolves to the markdown one.
func (s *Store) Matching(ctx context.Context, q fingerprint.Query) ([]corpus.MatchedDocument, error) {
	sb := strings.Builder{}
	sb.WriteString(`
		SELECT
			CASE WHEN markdown = 1
				THEN replace(replace(key, 'downloaded_pdfs/', 'markdown/'), '.pdf', '.md')
				ELSE key
			END AS key,
			types
		FROM announcements
		WHERE ticker = ? AND date(published_at) >= date(?) AND date(published_at) <= date(?)`)
	args := []any{q.Ticker, q.DateFrom.Format("2006-01-02"), q.DateTo.Format("2006-01-02")}

	if q.PriceSensitiveOnly {
		sb.WriteString(" AND price_sensitive = 1")
	}

	if len(q.Types) > 0 {
		var groups []string
		for _, label := range q.Types {
			keywords, ok := typeKeywords[label]
			if !ok {
				continue
			}
			likes := make([]string, len(keywords))
			for i, kw := range keywords {
				likes[i] = "types LIKE ?"
				args = append(args, "%"+kw+"%")
			}
			groups = append(groups, "("+strings.Join(likes, " OR ")+")")
		}
		if len(groups) > 0 {
			sb.WriteString(" AND (" + strings.Join(groups, " OR ") + ")")
		}
	}

	sb.WriteString(" ORDER BY markdown DESC, published_at DESC")

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying announcements: %w", err)
	}
	defer rows.Close()

	var matched []corpus.MatchedDocument
	for rows.Next() {
		var doc corpus.MatchedDocument
		if err := rows.Scan(&doc.ID, &doc.Category); err != nil {
			return nil, fmt.Errorf("scanning announcement: %w", err)
		}
		if s.ignored(doc.ID) {
			continue
		}
		matched = append(matched, doc)
	}
	return matched, rows.Err()
}

func (s *Store) ignored(key string) bool {
	for _, pattern := range s.ignore {
		if ok, err := doublestar.Match(pattern, key); err == nil && ok {
			return true
		}
	}
	return false
}

// DateRange is a convenience for building a query window ending today.
func DateRange(days int) (from, to time.Time) {
	to = time.Now()
	from = to.AddDate(0, 0, -days)
	return from, to
}
