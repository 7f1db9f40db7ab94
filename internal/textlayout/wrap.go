/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"errors"
	"strings"
)

// ErrInvalidInput is returned when there is nothing to wrap.
var ErrInvalidInput = errors.New("textlayout: empty text")

// MeasureFunc returns the advance width of s in pixels for the currently selected font.
type MeasureFunc func(s string) float64

// Wrap greedily fills lines word by word. A word is appended to the current line
// only if the measured candidate still fits maxWidth; otherwise the current line
// is committed and the word starts a new one. A single word wider than maxWidth
// is emitted on its own line and overflows; words are never broken.
//
// Words are separated by single spaces. Runs of spaces produce empty words, so
// padding spaces survive wrapping and strings.Join(lines, " ") == text always holds.
func Wrap(text string, maxWidth float64, measure MeasureFunc) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrInvalidInput
	}
	if measure == nil {
		return nil, errors.New("textlayout: nil measure func")
	}
	words := strings.Split(text, " ")
	lines := make([]string, 0, 2)
	cur := words[0]
	for _, w := range words[1:] {
		candidate := cur + " " + w
		if measure(candidate) <= maxWidth {
			cur = candidate
			continue
		}
		lines = append(lines, cur)
		cur = w
	}
	return append(lines, cur), nil
}
