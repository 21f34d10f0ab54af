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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidFragment indicates a Fragment failed validation.
	ErrInvalidFragment = errors.New("invalid fragment")

	// ErrInvalidMatch indicates a Match failed validation.
	ErrInvalidMatch = errors.New("invalid match")

	// ErrEmptyID indicates a required identifier is empty.
	ErrEmptyID = errors.New("identifier cannot be empty")

	// ErrEmptyContent indicates the text field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrMissingParent indicates a fragment or match has no parent-document identifier.
	ErrMissingParent = errors.New("parent document identifier is required")

	// ErrUnknownModality indicates a modality tag outside the taxonomy.
	ErrUnknownModality = errors.New("unknown modality")

	// ErrFragmentTooDeep indicates fragments nested deeper than MaxFragmentDepth.
	ErrFragmentTooDeep = errors.New("fragment nesting too deep")

	// ErrFragmentTooLong indicates a fragment longer than the configured maximum.
	ErrFragmentTooLong = errors.New("fragment text too long")
)
