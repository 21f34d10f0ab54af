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


package storage

import (
	"fmt"
	"slices"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/caselens/core"
)

// Records are encoded as a fixed field sequence with mus-go primitives:
// varint integers and floats, length-prefixed strings, and slices and maps
// as a varint count followed by their elements. Map keys are written sorted
// so equal records encode to equal bytes.

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// MarshalDocument serializes a Document's ID, text and metadata.
// Fragments and matches are not part of the stored record.
func MarshalDocument(doc *core.Document) []byte {
	size := ord.String.Size(doc.ID) + ord.String.Size(doc.Text) + sizeStringMap(doc.Metadata)
	w := writer{bs: make([]byte, size)}
	w.string(doc.ID)
	w.string(doc.Text)
	w.stringMap(doc.Metadata)
	return w.bs
}

// UnmarshalDocument deserializes a Document.
func UnmarshalDocument(data []byte) (*core.Document, error) {
	r := reader{bs: data}
	doc := &core.Document{
		ID:       r.string(),
		Text:     r.string(),
		Metadata: r.stringMap(),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return doc, nil
}

// MarshalFragment serializes a Fragment without its sub-fragments or matches.
func MarshalFragment(f *core.Fragment) []byte {
	size := varint.Uint64.Size(uint64(f.ID)) +
		ord.String.Size(f.ParentID) +
		ord.String.Size(f.Text) +
		sizeModality(f.Modality) +
		varint.Int.Size(f.Location[0]) + varint.Int.Size(f.Location[1]) +
		sizeStringMap(f.Tags) +
		sizeVector(f.Vector)
	w := writer{bs: make([]byte, size)}
	w.uint64(uint64(f.ID))
	w.string(f.ParentID)
	w.string(f.Text)
	w.modality(f.Modality)
	w.int(f.Location[0])
	w.int(f.Location[1])
	w.stringMap(f.Tags)
	w.vector(f.Vector)
	return w.bs
}

// UnmarshalFragment deserializes a Fragment.
func UnmarshalFragment(data []byte) (*core.Fragment, error) {
	r := reader{bs: data}
	f := &core.Fragment{
		ID:       core.ID(r.uint64()),
		ParentID: r.string(),
		Text:     r.string(),
		Modality: r.modality(),
		Location: core.Location{r.int(), r.int()},
		Tags:     r.stringMap(),
		Vector:   r.vector(),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return f, nil
}

// MarshalCheckpoint serializes a Checkpoint to bytes.
func MarshalCheckpoint(checkpoint *core.Checkpoint) []byte {
	micros := checkpoint.UpdatedAt.UnixMicro()
	size := ord.String.Size(checkpoint.ProcessorType) +
		ord.String.Size(checkpoint.LastKey) +
		varint.Int64.Size(micros)
	w := writer{bs: make([]byte, size)}
	w.string(checkpoint.ProcessorType)
	w.string(checkpoint.LastKey)
	w.int64(micros)
	return w.bs
}

// UnmarshalCheckpoint deserializes a Checkpoint from bytes.
func UnmarshalCheckpoint(data []byte) (*core.Checkpoint, error) {
	r := reader{bs: data}
	checkpoint := &core.Checkpoint{
		ProcessorType: r.string(),
		LastKey:       r.string(),
		UpdatedAt:     time.UnixMicro(r.int64()).UTC(),
	}
	if err := r.done(); err != nil {
		return nil, err
	}
	return checkpoint, nil
}

func sizeModality(m core.Modality) int {
	return varint.Uint64.Size(uint64(m.Kind)) + ord.String.Size(m.Ext)
}

func sizeStringMap(m map[string]string) int {
	size := varint.Int.Size(len(m))
	for k, v := range m {
		size += ord.String.Size(k) + ord.String.Size(v)
	}
	return size
}

func sizeVector(v []float32) int {
	size := varint.Int.Size(len(v))
	for _, x := range v {
		size += varint.Float32.Size(x)
	}
	return size
}

type writer struct {
	bs []byte
	n  int
}

func (w *writer) string(v string) { w.n += ord.String.Marshal(v, w.bs[w.n:]) }
func (w *writer) uint64(v uint64) { w.n += varint.Uint64.Marshal(v, w.bs[w.n:]) }
func (w *writer) int(v int)       { w.n += varint.Int.Marshal(v, w.bs[w.n:]) }
func (w *writer) int64(v int64)   { w.n += varint.Int64.Marshal(v, w.bs[w.n:]) }

func (w *writer) modality(m core.Modality) {
	w.uint64(uint64(m.Kind))
	w.string(m.Ext)
}

func (w *writer) stringMap(m map[string]string) {
	w.int(len(m))
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		w.string(k)
		w.string(m[k])
	}
}

func (w *writer) vector(v []float32) {
	w.int(len(v))
	for _, x := range v {
		w.n += varint.Float32.Marshal(x, w.bs[w.n:])
	}
}

// reader decodes fields in order and keeps the first error.
type reader struct {
	bs  []byte
	n   int
	err error
}

func (r *reader) fail(err error) {
	if r.err == nil {
		r.err = fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.bs[r.n:])
	if err != nil {
		r.fail(err)
		return ""
	}
	r.n += n
	return v
}

func (r *reader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.bs[r.n:])
	if err != nil {
		r.fail(err)
		return 0
	}
	r.n += n
	return v
}

func (r *reader) int() int {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int.Unmarshal(r.bs[r.n:])
	if err != nil {
		r.fail(err)
		return 0
	}
	r.n += n
	return v
}

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.bs[r.n:])
	if err != nil {
		r.fail(err)
		return 0
	}
	r.n += n
	return v
}

func (r *reader) float32() float32 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Float32.Unmarshal(r.bs[r.n:])
	if err != nil {
		r.fail(err)
		return 0
	}
	r.n += n
	return v
}

// length reads an element count. Every element takes at least one byte, so a
// count above the remaining input means the record was cut short.
func (r *reader) length() int {
	l := r.int()
	if r.err == nil && (l < 0 || l > len(r.bs)-r.n) {
		r.fail(fmt.Errorf("%w: length %d with %d bytes left", ErrTruncatedData, l, len(r.bs)-r.n))
		return 0
	}
	return l
}

func (r *reader) modality() core.Modality {
	kind := r.uint64()
	ext := r.string()
	return core.Modality{Kind: core.ModalityKind(kind), Ext: ext}
}

func (r *reader) stringMap() map[string]string {
	l := r.length()
	if r.err != nil || l == 0 {
		return nil
	}
	m := make(map[string]string, l)
	for i := 0; i < l && r.err == nil; i++ {
		k := r.string()
		m[k] = r.string()
	}
	return m
}

func (r *reader) vector() []float32 {
	l := r.length()
	if r.err != nil || l == 0 {
		return nil
	}
	v := make([]float32, l)
	for i := range v {
		v[i] = r.float32()
	}
	return v
}

func (r *reader) done() error {
	if r.err != nil {
		return r.err
	}
	if r.n != len(r.bs) {
		return fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(r.bs)-r.n)
	}
	return nil
}
