// Package references turns retriever output into citation records.
package references

import (
	"sort"
	"strings"

	"bgc-assistant/internal/conversation"
	"bgc-assistant/internal/retriever"
)

// Extract returns one Reference per document, in the retriever's rank order.
// Missing page or source metadata stays absent.
func Extract(docs []retriever.Document) []conversation.Reference {
	refs := make([]conversation.Reference, 0, len(docs))
	for _, doc := range docs {
		ref := conversation.Reference{Content: doc.Text}
		if doc.Page != nil {
			p := *doc.Page
			ref.Page = &p
		}
		if doc.Source != nil {
			s := *doc.Source
			ref.Source = &s
		}
		refs = append(refs, ref)
	}
	return refs
}

// Pages returns the distinct known page numbers of refs in ascending order
func Pages(refs []conversation.Reference) []int {
	seen := make(map[int]bool)
	var pages []int
	for _, ref := range refs {
		if ref.Page == nil || *ref.Page < 0 || seen[*ref.Page] {
			continue
		}
		seen[*ref.Page] = true
		pages = append(pages, *ref.Page)
	}
	sort.Ints(pages)
	return pages
}

// Context concatenates the excerpts of refs in rank order
func Context(refs []conversation.Reference) string {
	var sb strings.Builder
	for i, ref := range refs {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(ref.Content)
	}
	return sb.String()
}
