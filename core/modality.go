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
	"slices"
	"strings"
)

// ModalityKind enumerates the known fragment modalities.
type ModalityKind uint8

const (
	// KindUnknown is the zero value and never valid on a fragment.
	KindUnknown ModalityKind = iota
	KindContent
	KindTitle
	KindTitleSubsentence
	KindParas
	KindCauses
	KindCourt
	KindDocType
	KindTopCause
	KindTrialRound
	KindName
	KindCaseNumber
	// KindComposite combines two or more known kinds, e.g. "court+causes".
	KindComposite
	// KindOther is the extension case. Its tag must be written with the
	// "x-" prefix so that a typo never silently becomes a new modality.
	KindOther
)

// ExtensionPrefix marks a modality tag outside the known taxonomy.
const ExtensionPrefix = "x-"

const compositeSeparator = "+"

var kindNames = map[ModalityKind]string{
	KindContent:          "content",
	KindTitle:            "title",
	KindTitleSubsentence: "title_subsentence",
	KindParas:            "paras",
	KindCauses:           "causes",
	KindCourt:            "court",
	KindDocType:          "docType",
	KindTopCause:         "topCause",
	KindTrialRound:       "trialRound",
	KindName:             "name",
	KindCaseNumber:       "caseNumber",
}

var kindsByName = func() map[string]ModalityKind {
	m := make(map[string]ModalityKind, len(kindNames))
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

// String returns the tag of a simple kind.
func (k ModalityKind) String() string {
	switch k {
	case KindComposite:
		return "composite"
	case KindOther:
		return "other"
	}
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Modality is a closed tagged variant over the modality taxonomy. Ext carries
// the canonical composite tag for KindComposite and the extension name for
// KindOther. Modality values are comparable and usable as map keys.
type Modality struct {
	Kind ModalityKind
	Ext  string
}

// Modalities of the known taxonomy.
var (
	Content          = Modality{Kind: KindContent}
	Title            = Modality{Kind: KindTitle}
	TitleSubsentence = Modality{Kind: KindTitleSubsentence}
	Paras            = Modality{Kind: KindParas}
	Causes           = Modality{Kind: KindCauses}
	Court            = Modality{Kind: KindCourt}
	DocType          = Modality{Kind: KindDocType}
	TopCause         = Modality{Kind: KindTopCause}
	TrialRound       = Modality{Kind: KindTrialRound}
	Name             = Modality{Kind: KindName}
	CaseNumber       = Modality{Kind: KindCaseNumber}
)

// Composite builds a composite modality from two or more known kinds.
// Order does not matter: "court+causes" and "causes+court" are the same modality.
func Composite(kinds ...ModalityKind) (Modality, error) {
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		n, ok := kindNames[k]
		if !ok {
			return Modality{}, fmt.Errorf("%w: %s cannot be part of a composite", ErrUnknownModality, k)
		}
		if !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	if len(names) < 2 {
		return Modality{}, fmt.Errorf("%w: composite needs at least two distinct kinds", ErrUnknownModality)
	}
	slices.Sort(names)
	return Modality{Kind: KindComposite, Ext: strings.Join(names, compositeSeparator)}, nil
}

// Extension builds a modality outside the known taxonomy.
func Extension(name string) (Modality, error) {
	if strings.TrimSpace(name) == "" {
		return Modality{}, fmt.Errorf("%w: empty extension name", ErrUnknownModality)
	}
	return Modality{Kind: KindOther, Ext: name}, nil
}

// ParseModality parses a modality tag. Known tags map to their kind, tags
// joined with "+" form a composite, and tags prefixed with "x-" are
// extensions. Anything else is rejected.
func ParseModality(tag string) (Modality, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return Modality{}, fmt.Errorf("%w: empty tag", ErrUnknownModality)
	}
	if strings.HasPrefix(tag, ExtensionPrefix) {
		return Extension(strings.TrimPrefix(tag, ExtensionPrefix))
	}
	if strings.Contains(tag, compositeSeparator) {
		parts := strings.Split(tag, compositeSeparator)
		kinds := make([]ModalityKind, 0, len(parts))
		for _, p := range parts {
			k, ok := kindsByName[strings.TrimSpace(p)]
			if !ok {
				return Modality{}, fmt.Errorf("%w: %q in %q", ErrUnknownModality, p, tag)
			}
			kinds = append(kinds, k)
		}
		return Composite(kinds...)
	}
	k, ok := kindsByName[tag]
	if !ok {
		return Modality{}, fmt.Errorf("%w: %q", ErrUnknownModality, tag)
	}
	return Modality{Kind: k}, nil
}

// MustParseModality is like ParseModality but panics on error.
func MustParseModality(tag string) Modality {
	m, err := ParseModality(tag)
	if err != nil {
		panic(err)
	}
	return m
}

// String returns the tag form of the modality; ParseModality(m.String()) == m.
func (m Modality) String() string {
	switch m.Kind {
	case KindComposite:
		return m.Ext
	case KindOther:
		return ExtensionPrefix + m.Ext
	}
	return m.Kind.String()
}

// IsZero reports whether the modality is unset.
func (m Modality) IsZero() bool {
	return m.Kind == KindUnknown && m.Ext == ""
}
