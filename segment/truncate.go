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


package segment

import (
	"fmt"

	"github.com/poiesic/caselens/core"
)

// Direction selects which end of an over-long fragment survives truncation.
type Direction int

const (
	// Head keeps the first runes.
	Head Direction = iota
	// Tail keeps the last runes.
	Tail
)

// ParseDirection accepts "head" and "tail".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "head", "":
		return Head, nil
	case "tail":
		return Tail, nil
	}
	return Head, fmt.Errorf("%w: direction %q", ErrInvalidOption, s)
}

func (d Direction) String() string {
	if d == Tail {
		return "tail"
	}
	return "head"
}

// Truncator caps fragment text at a rune length, per modality direction.
// Modalities without an explicit direction use Head.
type Truncator struct {
	MaxLength  int
	Directions map[core.Modality]Direction
}

// NewTruncator returns a head-only truncator at core.DefaultMaxFragmentLength.
func NewTruncator() *Truncator {
	return &Truncator{MaxLength: core.DefaultMaxFragmentLength, Directions: map[core.Modality]Direction{}}
}

// Truncate shortens text to MaxLength runes for the given modality.
func (t *Truncator) Truncate(text string, modality core.Modality) string {
	runes := []rune(text)
	if t.MaxLength <= 0 || len(runes) <= t.MaxLength {
		return text
	}
	if t.Directions[modality] == Tail {
		return string(runes[len(runes)-t.MaxLength:])
	}
	return string(runes[:t.MaxLength])
}
