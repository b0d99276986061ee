package repositories

import (
	"context"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

// SearchIndex maintains a Bluge full-text index next to the BadgerDB log.
// The log is the source of truth; the index is derived data and may lag
// behind it briefly after an edit or delete.
type SearchIndex struct {
	writer *bluge.Writer
}

func NewSearchIndex(writer *bluge.Writer) *SearchIndex {
	return &SearchIndex{writer: writer}
}

// Index upserts a message document. Called for inserts and edits alike;
// Update replaces any previous document with the same id.
func (s *SearchIndex) Index(msg DiskMessage) error {
	doc := bluge.NewDocument(msg.ID.String()).
		AddField(bluge.NewTextField("text", msg.Text)).
		AddField(bluge.NewKeywordField("from", msg.From)).
		AddField(bluge.NewKeywordField("to", msg.To))
	return s.writer.Update(doc.ID(), doc)
}

func (s *SearchIndex) Remove(id uuid.UUID) error {
	return s.writer.Delete(bluge.Identifier(id.String()))
}

// Search returns the ids of documents matching terms, best score first.
// Hits are capped at size; callers over-fetch so that visibility filtering
// can still fill their window.
func (s *SearchIndex) Search(ctx context.Context, terms string, size int) ([]uuid.UUID, error) {
	reader, err := s.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	query := bluge.NewMatchQuery(terms).SetField("text")
	request := bluge.NewTopNSearch(size, query)

	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				if id, parseErr := uuid.Parse(string(value)); parseErr == nil {
					ids = append(ids, id)
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func (s *SearchIndex) Close() error {
	return s.writer.Close()
}
