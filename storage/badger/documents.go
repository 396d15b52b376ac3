package badger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/relayout/core"
	"github.com/poiesic/relayout/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
//
// Each (category, name) pair maps to at most one document. Storing a
// document under a name already held by another ID replaces the older
// document and drops its chunks.
type DocumentRepository struct {
	backend *Backend
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) *DocumentRepository {
	return &DocumentRepository{
		backend: backend,
	}
}

// Close is a no-op; the backend is closed by its owner.
func (r *DocumentRepository) Close() error {
	return nil
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocuments stores one or more documents.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		now := time.Now().UTC().Truncate(time.Microsecond)
		for _, doc := range docs {
			if err := core.ValidateDocument(doc); err != nil {
				return err
			}
			if doc.Id == 0 {
				doc.Id = core.DocumentID(doc.Category, doc.Layout)
			}

			old, err := readDocument(tx, doc.Id)
			if err != nil {
				return err
			}
			if old != nil {
				doc.InsertedAt = old.InsertedAt
				if err := tx.Delete(makeDocumentNameKey(old.Category, old.Name)); err != nil {
					return err
				}
			} else {
				doc.InsertedAt = now
			}
			doc.UpdatedAt = now

			if err := r.claimName(tx, doc); err != nil {
				return err
			}
			if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// UpdateDocuments updates existing documents.
func (r *DocumentRepository) UpdateDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, doc := range docs {
			if err := core.ValidateDocument(doc); err != nil {
				return err
			}

			old, err := readDocument(tx, doc.Id)
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: document %d", storage.ErrNotFound, doc.Id)
			}

			doc.InsertedAt = old.InsertedAt
			doc.UpdatedAt = time.Now().UTC().Truncate(time.Microsecond)

			if old.Category != doc.Category || old.Name != doc.Name {
				if err := tx.Delete(makeDocumentNameKey(old.Category, old.Name)); err != nil {
					return err
				}
				if err := r.claimName(tx, doc); err != nil {
					return err
				}
			}

			if err := tx.Set(makeDocumentKey(doc.Id), storage.MarshalDocument(doc)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return docs, err
}

// DeleteDocuments removes documents by their IDs along with their name
// index entries and chunks.
func (r *DocumentRepository) DeleteDocuments(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, id)
			if err != nil {
				return err
			}
			if doc == nil {
				return fmt.Errorf("%w: document %d", storage.ErrNotFound, id)
			}
			if err := deleteDocument(tx, doc); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// GetDocuments retrieves multiple documents by their IDs.
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, id)
			if err != nil {
				return err
			}
			if doc != nil {
				result = append(result, doc)
			}
		}
		return nil
	}, false)
	return result, err
}

// ListDocuments returns the documents of a category ordered by name.
func (r *DocumentRepository) ListDocuments(ctx context.Context, category core.Category) ([]*core.Document, error) {
	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePartialDocumentNameKey(category)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var id core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			doc, err := readDocument(tx, id)
			if err != nil {
				return err
			}
			if doc != nil {
				results = append(results, doc)
			}
		}
		return nil
	}, false)
	return results, err
}

// FindDocumentByName finds a document by category and name.
func (r *DocumentRepository) FindDocumentByName(ctx context.Context, category core.Category, name string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := lookupName(tx, category, name)
		if err != nil {
			return err
		}
		if id == 0 {
			return storage.ErrNotFound
		}
		result, err = readDocument(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ScanDocuments returns up to limit documents with IDs greater than afterID.
func (r *DocumentRepository) ScanDocuments(ctx context.Context, afterID core.ID, limit int) ([]*core.Document, error) {
	if limit < 1 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", storage.ErrInvalidQuery, limit)
	}

	var results []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeDocumentKey(afterID)); iter.Valid() && len(results) < limit; iter.Next() {
			item := iter.Item()
			if documentIDFromKey(item.Key()) == afterID {
				continue
			}
			var doc *core.Document
			if err := item.Value(func(val []byte) error {
				var err error
				doc, err = storage.UnmarshalDocument(val)
				return err
			}); err != nil {
				return err
			}
			results = append(results, doc)
		}
		return nil
	}, false)
	return results, err
}

// claimName points the name index at doc, replacing any other document
// that held the name.
func (r *DocumentRepository) claimName(tx *badger.Txn, doc *core.Document) error {
	holder, err := lookupName(tx, doc.Category, doc.Name)
	if err != nil {
		return err
	}
	if holder != 0 && holder != doc.Id {
		previous, err := readDocument(tx, holder)
		if err != nil {
			return err
		}
		if previous != nil {
			r.backend.logger.Debug("replacing document with same name",
				"name", doc.Name, "category", doc.Category, "old_id", holder, "new_id", doc.Id)
			if err := deleteDocument(tx, previous); err != nil {
				return err
			}
		}
	}
	return tx.Set(makeDocumentNameKey(doc.Category, doc.Name), storage.MarshalID(doc.Id))
}

// readDocument reads a document, returning nil if it does not exist.
func readDocument(tx *badger.Txn, id core.ID) (*core.Document, error) {
	item, err := tx.Get(makeDocumentKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		doc, unmarshalErr = storage.UnmarshalDocument(val)
		return unmarshalErr
	})
	return doc, err
}

// lookupName returns the ID indexed under (category, name), or 0.
func lookupName(tx *badger.Txn, category core.Category, name string) (core.ID, error) {
	item, err := tx.Get(makeDocumentNameKey(category, name))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	var id core.ID
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		id, unmarshalErr = storage.UnmarshalID(val)
		return unmarshalErr
	})
	return id, err
}

func deleteDocument(tx *badger.Txn, doc *core.Document) error {
	if err := tx.Delete(makeDocumentNameKey(doc.Category, doc.Name)); err != nil {
		return err
	}
	if err := deletePrefix(tx, makePartialChunkKey(doc.Id)); err != nil {
		return err
	}
	return tx.Delete(makeDocumentKey(doc.Id))
}
