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

// FragmentRepository implements storage.FragmentRepository for BadgerDB.
type FragmentRepository struct {
	backend *Backend
}

var _ storage.FragmentRepository = (*FragmentRepository)(nil)

// NewFragmentRepository creates a new FragmentRepository.
func NewFragmentRepository(backend *Backend) (*FragmentRepository, error) {
	return &FragmentRepository{
		backend: backend,
	}, nil
}

// Close releases resources. FragmentRepository has no resources to release.
func (r *FragmentRepository) Close() error {
	return nil
}

// FindSimilar delegates to the backend.
func (r *FragmentRepository) FindSimilar(ctx context.Context, vector []float32, minSimilarity float32, limit int) ([]*core.SearchResult, error) {
	return r.backend.FindSimilar(ctx, vector, minSimilarity, limit)
}

// WithTransaction delegates to the backend.
func (r *FragmentRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// AddFragments stores fragments and their parent index entries.
// Fragments with ID 0 get their content ID.
func (r *FragmentRepository) AddFragments(ctx context.Context, fragments ...*core.Fragment) ([]*core.Fragment, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, f := range fragments {
			if err := core.ValidateFragment(f, 0); err != nil {
				return err
			}
			if f.ID == 0 {
				f.ID = core.FragmentID(f.ParentID, f.Modality, f.Location, f.Text)
			}
			if err := tx.Set(makeFragmentKey(f.ID), storage.MarshalFragment(f)); err != nil {
				return err
			}
			if err := tx.Set(makeFragmentParentKey(f.ParentID, f.ID), nil); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return fragments, nil
}

// UpdateFragments replaces existing fragments.
func (r *FragmentRepository) UpdateFragments(ctx context.Context, fragments ...*core.Fragment) ([]*core.Fragment, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, f := range fragments {
			key := makeFragmentKey(f.ID)
			old, err := readFragment(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return fmt.Errorf("%w: fragment %s", storage.ErrNotFound, f.ID)
			}
			if old.ParentID != f.ParentID {
				if err := tx.Delete(makeFragmentParentKey(old.ParentID, f.ID)); err != nil {
					return err
				}
				if err := tx.Set(makeFragmentParentKey(f.ParentID, f.ID), nil); err != nil {
					return err
				}
			}
			if err := tx.Set(key, storage.MarshalFragment(f)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return fragments, nil
}

// GetFragment retrieves a single fragment by ID.
func (r *FragmentRepository) GetFragment(ctx context.Context, id core.ID) (*core.Fragment, error) {
	var result *core.Fragment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readFragment(tx, makeFragmentKey(id))
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

// GetFragmentsByParent scans the parent index for one document.
func (r *FragmentRepository) GetFragmentsByParent(ctx context.Context, parentID string) ([]*core.Fragment, error) {
	var results []*core.Fragment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialFragmentParentKey(parentID)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			id := fragmentIDFromKey(iter.Item().Key())
			f, err := readFragment(tx, makeFragmentKey(id))
			if err != nil {
				return err
			}
			if f != nil {
				results = append(results, f)
			}
		}
		return nil
	}, false)
	return results, err
}

// GetFragmentsAfter returns a page of fragments in ID order.
func (r *FragmentRepository) GetFragmentsAfter(ctx context.Context, after core.ID, limit int) ([]*core.Fragment, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit %d", storage.ErrInvalidQuery, limit)
	}
	var results []*core.Fragment
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(fragmentPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Seek(makeFragmentKey(after)); iter.Valid() && len(results) < limit; iter.Next() {
			item := iter.Item()
			if fragmentIDFromKey(item.Key()) == after && after != 0 {
				continue
			}
			var f *core.Fragment
			err := item.Value(func(val []byte) error {
				var err error
				f, err = storage.UnmarshalFragment(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, f)
		}
		return nil
	}, false)
	return results, err
}

// CountFragments counts stored fragments.
func (r *FragmentRepository) CountFragments(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		count = countPrefix(tx, []byte(fragmentPrefix))
		return nil
	}, false)
	return count, err
}

// readFragment reads a fragment from the transaction.
// Returns nil, nil if the key doesn't exist.
func readFragment(tx *badger.Txn, key []byte) (*core.Fragment, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var f *core.Fragment
	err = item.Value(func(val []byte) error {
		var err error
		f, err = storage.UnmarshalFragment(val)
		return err
	})
	return f, err
}
