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
	"encoding/binary"
	"fmt"

	"github.com/poiesic/caselens/core"
)

const (
	documentPrefix       = "doc"
	documentOrderPrefix  = "docord"
	documentSeq          = "docseq"
	fragmentPrefix       = "frag:"
	fragmentParentPrefix = "fragpar"
	checkpointPrefix     = "chkpt"
)

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id string) []byte {
	return []byte(documentPrefix + ":" + id)
}

// makeDocumentOrderKey generates a key for the insertion order index.
// Format: prefix:seq
func makeDocumentOrderKey(seq uint64) []byte {
	prefix := []byte(documentOrderPrefix + ":")
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], seq)
	return buf
}

// makeFragmentKey generates a key for a fragment by ID.
// Format: prefix id, with the ID big-endian so keys iterate in ID order.
func makeFragmentKey(id core.ID) []byte {
	buf := make([]byte, len(fragmentPrefix)+8)
	offset := copy(buf, fragmentPrefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// fragmentIDFromKey extracts the ID from a fragment or parent index key,
// both of which end in the big-endian fragment ID.
func fragmentIDFromKey(key []byte) core.ID {
	return core.ID(binary.BigEndian.Uint64(key[len(key)-8:]))
}

// makePartialFragmentParentKey generates the prefix of a document's fragment index.
// Format: prefix:parentID NUL
func makePartialFragmentParentKey(parentID string) []byte {
	return []byte(fmt.Sprintf("%s:%s\x00", fragmentParentPrefix, parentID))
}

// makeFragmentParentKey generates a composite key for the parent index.
// Format: prefix:parentID NUL fragmentID
func makeFragmentParentKey(parentID string, id core.ID) []byte {
	prefix := makePartialFragmentParentKey(parentID)
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeCheckpointKey generates a key for processor checkpoints.
func makeCheckpointKey(processorType string) []byte {
	return []byte(checkpointPrefix + ":" + processorType)
}
