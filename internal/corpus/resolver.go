package corpus

// Resolve computes the document delta between the matched set and the
// entity's loaded set. New preserves the relative order of matched, and
// the type histogram counts every matched document so the category
// distribution reflects the full selection. Resolve has no side effects:
// calling it twice without an intervening MarkReady yields the same delta.
func (c *Cache) Resolve(entityID string, matched []MatchedDocument) Delta {
	e := c.ensure(entityID)

	d := Delta{
		TypeCounts: make(map[string]int),
		Initial:    len(e.loaded) == 0,
	}

	for _, doc := range matched {
		d.Matched = append(d.Matched, doc.ID)
		d.TypeCounts[doc.Category]++
		if _, ok := e.loaded[doc.ID]; !ok {
			d.New = append(d.New, doc.ID)
		}
	}

	return d
}
