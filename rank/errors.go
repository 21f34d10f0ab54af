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


package rank

import "errors"

var (
	// ErrInvalidLimit is returned for a non-positive result limit.
	ErrInvalidLimit = errors.New("result limit must be positive")

	// ErrInvalidDepth is returned for an unknown traversal depth.
	ErrInvalidDepth = errors.New("invalid traversal depth")

	// ErrMissingScore is returned when a candidate lacks the configured score metric.
	ErrMissingScore = errors.New("candidate missing score metric")

	// ErrInvalidScore is returned when a candidate's score is NaN.
	ErrInvalidScore = errors.New("candidate score is not a number")

	// ErrInvalidMetric is returned for an empty score metric name.
	ErrInvalidMetric = errors.New("score metric name required")
)
