// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/caselens/core"
	"github.com/poiesic/caselens/storage"
)

// DocumentRepository implements storage.DocumentRepository for BadgerDB.
type DocumentRepository struct {
	backend *Backend
	seq     *badger.Sequence
}

var _ storage.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates a new DocumentRepository.
func NewDocumentRepository(backend *Backend) (*DocumentRepository, error) {
	seq, err := backend.GetSequence(documentSeq)
	if err != nil {
		return nil, err
	}
	return &DocumentRepository{
		backend: backend,
		seq:     seq,
	}, nil
}

// Close releases the insertion order sequence.
func (r *DocumentRepository) Close() error {
	return r.seq.Release()
}

// WithTransaction delegates to the backend.
func (r *DocumentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddDocuments appends documents to the corpus in argument order.
func (r *DocumentRepository) AddDocuments(ctx context.Context, docs ...*core.Document) ([]*core.Document, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		seen := make(map[string]struct{}, len(docs))
		for _, doc := range docs {
			if doc == nil || doc.ID == "" {
				return fmt.Errorf("%w: %w", core.ErrInvalidDocument, core.ErrEmptyID)
			}
			if _, dup := seen[doc.ID]; dup {
				return fmt.Errorf("%w: document %q", storage.ErrDuplicateKey, doc.ID)
			}
			seen[doc.ID] = struct{}{}

			key := makeDocumentKey(doc.ID)
			_, err := tx.Get(key)
			if err == nil {
				return fmt.Errorf("%w: document %q", storage.ErrDuplicateKey, doc.ID)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}

			seq, err := r.seq.Next()
			if err != nil {
				return err
			}

			if err := tx.Set(key, storage.MarshalDocument(doc)); err != nil {
				return err
			}
			if err := tx.Set(makeDocumentOrderKey(seq), []byte(doc.ID)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

// GetDocument retrieves a single document by ID.
func (r *DocumentRepository) GetDocument(ctx context.Context, id string) (*core.Document, error) {
	var result *core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDocument(tx, makeDocumentKey(id))
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
func (r *DocumentRepository) GetDocuments(ctx context.Context, ids ...string) ([]*core.Document, error) {
	var result []*core.Document
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			doc, err := readDocument(tx, makeDocumentKey(id))
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

// ForEachDocument walks the insertion order index and calls fn per document.
func (r *DocumentRepository) ForEachDocument(ctx context.Context, fn func(*core.Document) error) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(documentOrderPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			doc, err := readDocument(tx, makeDocumentKey(string(id)))
			if err != nil {
				return err
			}
			if doc == nil {
				continue
			}
			if err := fn(doc); err != nil {
				return err
			}
		}
		return nil
	}, false)
}

// CountDocuments counts entries of the insertion order index.
func (r *DocumentRepository) CountDocuments(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		count = countPrefix(tx, []byte(documentOrderPrefix+":"))
		return nil
	}, false)
	return count, err
}

// readDocument reads a document from the transaction.
// Returns nil, nil if the key doesn't exist.
func readDocument(tx *badger.Txn, key []byte) (*core.Document, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var doc *core.Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = storage.UnmarshalDocument(val)
		return err
	})
	return doc, err
}

// countPrefix counts keys under prefix without fetching values.
func countPrefix(tx *badger.Txn, prefix []byte) int {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)
	defer iter.Close()

	count := 0
	for iter.Rewind(); iter.Valid(); iter.Next() {
		count++
	}
	return count
}
