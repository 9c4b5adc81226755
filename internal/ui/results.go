package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/vocalia/hybridrag/internal/search"
)

const snippetLength = 160

// RenderResults writes a ranked result list to w, styled when w is a
// terminal and plain otherwise.
func RenderResults(w io.Writer, query string, resp *search.Response) {
	styles := StylesFor(w)

	if resp.Degraded {
		fmt.Fprintln(w, styles.Warning.Render("semantic scoring unavailable, lexical matches only"))
	}

	if len(resp.Results) == 0 {
		fmt.Fprintln(w, styles.Dim.Render(fmt.Sprintf("no results for %q", query)))
		return
	}

	fmt.Fprintln(w, styles.Header.Render(fmt.Sprintf("%d results for %q", len(resp.Results), query)))
	for i, r := range resp.Results {
		fmt.Fprintf(w, "%s %s %s\n",
			styles.Label.Render(fmt.Sprintf("%2d.", i+1)),
			styles.ID.Render(r.Chunk.ID),
			styles.Score.Render(fmt.Sprintf("(%.4f)", r.RRFScore)))

		fmt.Fprintf(w, "    %s\n", styles.Text.Render(Snippet(r.Chunk.Text, snippetLength)))

		detail := sourceDetail(r)
		if detail != "" {
			fmt.Fprintf(w, "    %s\n", styles.Dim.Render(detail))
		}
	}
}

func sourceDetail(r *search.FusedResult) string {
	var parts []string
	if r.SparseRank > 0 {
		parts = append(parts, fmt.Sprintf("bm25 #%d %.3f", r.SparseRank, r.SparseScore))
	}
	if r.DenseRank > 0 {
		parts = append(parts, fmt.Sprintf("cosine #%d %.3f", r.DenseRank, r.DenseScore))
	}
	if r.Chunk.Intent != "" {
		parts = append(parts, "intent "+r.Chunk.Intent)
	}
	return strings.Join(parts, "  ")
}

// Snippet collapses whitespace and truncates text to max runes with an
// ellipsis.
func Snippet(text string, max int) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	runes := []rune(collapsed)
	if len(runes) <= max {
		return collapsed
	}
	return string(runes[:max]) + "..."
}
