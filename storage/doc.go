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


// Package storage provides the storage abstraction layer for caselens.
//
// This package defines repository interfaces that decouple storage implementation
// from indexing and search. The badger subpackage is the only backend.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - DocumentRepository: the append-only case corpus, in insertion order
//   - FragmentRepository: segmented fragments with their embeddings
//   - VectorSearcher: brute-force similarity search over fragment vectors
//   - CheckpointRepository: progress of resumable maintenance jobs
//
// Records are encoded with mus-go serializers defined in serialization.go.
//
// # Usage
//
// Use in tests with in-memory storage:
//
//	repos, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repos.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
