// Package ingest turns uploaded documents into embedded, indexed chunks.
// The pipeline runs extract, split, identify, embed, and insert in order and
// rolls back everything it stored when any step fails.
package ingest

import "github.com/docuchat/docuchat-go/internal/rag"

// AssignIDs numbers chunks within each (source, page) group and derives the
// stable chunk ID from the key. Input order is preserved; the counter resets
// whenever the source or page changes, so page numbering restarts at zero
// per page with no gaps.
func AssignIDs(chunks []rag.Chunk) []rag.Chunk {
	var (
		prevSource string
		prevPage   int
		next       int
	)
	for i := range chunks {
		if i == 0 || chunks[i].Source != prevSource || chunks[i].Page != prevPage {
			next = 0
			prevSource = chunks[i].Source
			prevPage = chunks[i].Page
		}
		chunks[i].Index = next
		chunks[i].ID = chunks[i].Key()
		next++
	}
	return chunks
}
