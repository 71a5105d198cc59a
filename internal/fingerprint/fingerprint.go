// Package fingerprint derives deterministic digests from announcement
// filter state. The digest is what the corpus cache compares to decide
// whether a knowledge store is still in sync with the user's filters.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Query is the filter state scoping an entity's document set.
// Types is treated as a set: element order never affects the digest.
type Query struct {
	Ticker             string
	DateFrom           time.Time
	DateTo             time.Time
	Types              []string
	PriceSensitiveOnly bool
}

// DateRangeDays returns the inclusive span of the query's date range in days.
func (q Query) DateRangeDays() int {
	return int(q.DateTo.Sub(q.DateFrom).Hours() / 24)
}

// Digest computes the query fingerprint. Queries that are set-equal in
// their type filters produce identical digests regardless of input order.
func Digest(q Query) string {
	types := make([]string, len(q.Types))
	copy(types, q.Types)
	sort.Strings(types)

	canonical := fmt.Sprintf("%s_%s_%s_[%s]_%t",
		q.Ticker,
		q.DateFrom.Format("2006-01-02"),
		q.DateTo.Format("2006-01-02"),
		strings.Join(types, ","),
		q.PriceSensitiveOnly,
	)

	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])[:16]
}
