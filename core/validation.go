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

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// MaxFragmentDepth is the deepest fragment nesting below a document.
const MaxFragmentDepth = 2

// DefaultMaxFragmentLength is the default maximum fragment length in runes.
const DefaultMaxFragmentLength = 64

// NewFragment builds a fragment, validating the modality at construction time.
// The fragment ID is derived from the parent, modality, location and text.
func NewFragment(parentID, text string, modality Modality, loc Location) (*Fragment, error) {
	f := &Fragment{
		ParentID: parentID,
		Text:     text,
		Modality: modality,
		Location: loc,
	}
	if err := ValidateFragment(f, 0); err != nil {
		return nil, err
	}
	f.ID = FragmentID(parentID, modality, loc, text)
	return f, nil
}

// FragmentID derives the content ID of a fragment.
func FragmentID(parentID string, modality Modality, loc Location, text string) ID {
	return IDFromContent(parentID + "|" + modality.String() + "|" +
		strconv.Itoa(loc[0]) + ":" + strconv.Itoa(loc[1]) + "|" + text)
}

// ValidateModality checks that a modality is a well-formed member of the taxonomy.
func ValidateModality(m Modality) error {
	switch m.Kind {
	case KindUnknown:
		return fmt.Errorf("%w: modality not set", ErrUnknownModality)
	case KindComposite:
		parsed, err := ParseModality(m.Ext)
		if err != nil {
			return err
		}
		if parsed != m {
			return fmt.Errorf("%w: composite %q is not canonical", ErrUnknownModality, m.Ext)
		}
	case KindOther:
		if m.Ext == "" {
			return fmt.Errorf("%w: extension without name", ErrUnknownModality)
		}
	default:
		if _, ok := kindNames[m.Kind]; !ok {
			return fmt.Errorf("%w: kind %d", ErrUnknownModality, m.Kind)
		}
		if m.Ext != "" {
			return fmt.Errorf("%w: %s carries extension %q", ErrUnknownModality, m.Kind, m.Ext)
		}
	}
	return nil
}

// ValidateFragment validates a fragment according to domain rules.
//
// Validation rules:
//   - ParentID must not be empty
//   - Text must not be empty
//   - Modality must be valid
//   - sub-fragments share the parent and nest at most MaxFragmentDepth levels
//
// maxLen bounds the text length in runes; 0 disables the check.
//
// NOT validated (populated by processors):
//   - Vector
//   - Matches
func ValidateFragment(f *Fragment, maxLen int) error {
	return validateFragment(f, maxLen, 1)
}

func validateFragment(f *Fragment, maxLen, depth int) error {
	if f == nil {
		return fmt.Errorf("%w: fragment is nil", ErrInvalidFragment)
	}
	if depth > MaxFragmentDepth {
		return fmt.Errorf("%w: %w", ErrInvalidFragment, ErrFragmentTooDeep)
	}
	if f.ParentID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFragment, ErrMissingParent)
	}
	if f.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidFragment, ErrEmptyContent)
	}
	if maxLen > 0 && utf8.RuneCountInString(f.Text) > maxLen {
		return fmt.Errorf("%w: %w", ErrInvalidFragment, ErrFragmentTooLong)
	}
	if err := ValidateModality(f.Modality); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidFragment, err)
	}
	for _, sub := range f.Fragments {
		if sub != nil && sub.ParentID != f.ParentID {
			return fmt.Errorf("%w: sub-fragment parent %q differs from %q", ErrInvalidFragment, sub.ParentID, f.ParentID)
		}
		if err := validateFragment(sub, maxLen, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// ValidateDocument validates a Document and its fragment tree.
func ValidateDocument(doc *Document, maxLen int) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyID)
	}
	for _, f := range doc.Fragments {
		if f != nil && f.ParentID != doc.ID {
			return fmt.Errorf("%w: fragment parent %q differs from %q", ErrInvalidDocument, f.ParentID, doc.ID)
		}
		if err := ValidateFragment(f, maxLen); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
		}
	}
	return nil
}

// ValidateMatch checks that a match candidate can be grouped by parent document.
func ValidateMatch(m *Match) error {
	if m == nil {
		return fmt.Errorf("%w: match is nil", ErrInvalidMatch)
	}
	if m.ParentID == "" {
		return fmt.Errorf("%w: %q: %w", ErrInvalidMatch, m.ID, ErrMissingParent)
	}
	return nil
}
