// Package citation turns the raw reference annotations buffered during a
// generation turn into the formatted reference block appended to the
// assistant's answer.
package citation

import (
	"fmt"
	"strings"

	"github.com/ausiq/corpuschat/internal/llm"
)

// fileLinkBase is the public document gateway; the positional id extracted
// from a cited filename is appended to form a stable link.
const fileLinkBase = "https://cdn-api.markitdigital.com/apiman-gateway/ASX/asx-research/1.0/file/"

// Process renders the reference block for a turn's citation set. File
// citations are deduplicated by filename (first occurrence wins); web
// citations keep encounter order and are never deduplicated. The file
// block precedes the web block, separated by a blank line. With no
// citations the result is empty, with no headings emitted.
func Process(citations []llm.Citation) string {
	var fileLinks []string
	seen := make(map[string]struct{})
	var web []llm.Citation

	for _, c := range citations {
		switch c.Kind {
		case llm.CitationFile:
			if _, ok := seen[c.Filename]; ok {
				continue
			}
			seen[c.Filename] = struct{}{}
			if id, ok := DocumentID(c.Filename); ok {
				fileLinks = append(fileLinks, fileLinkBase+id)
			}
		case llm.CitationWeb:
			web = append(web, c)
		}
	}

	var sb strings.Builder
	if len(fileLinks) > 0 {
		sb.WriteString("🔗 Referenced Files:\n")
		for _, url := range fileLinks {
			fmt.Fprintf(&sb, "- [File Link](%s)\n", url)
		}
	}
	if len(web) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("🌐 Web Sources:\n")
		for _, c := range web {
			fmt.Fprintf(&sb, "- [%s](%s)\n", c.Title, c.URL)
		}
	}
	return sb.String()
}

// DocumentID derives the external document reference from a cited
// filename. Filenames follow the form TICKER_SEQ_DOCID.ext; the id is the
// third underscore-separated segment with the extension removed. Filenames
// that do not fit the form yield no id.
func DocumentID(filename string) (string, bool) {
	parts := strings.SplitN(filename, "_", 3)
	if len(parts) < 3 || parts[2] == "" {
		return "", false
	}
	id := parts[2]
	if dot := strings.LastIndex(id, "."); dot >= 0 {
		id = id[:dot]
	}
	if id == "" {
		return "", false
	}
	return id, true
}
