/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package card

import (
	"strings"
	"unicode/utf8"

	"visitingcard/internal/textlayout"
)

// NameVariant returns ShortName when name has at most cutoff runes.
func NameVariant(name string, cutoff int) Variant {
	if utf8.RuneCountInString(name) <= cutoff {
		return ShortName
	}
	return LongName
}

// DesignationText composes the designation line. A designation of at most cutoff
// runes gets a comma and is padded with spaces until the company starts at the
// width of columns+1 digit advances ("0"), so companies line up in a column
// across cards. Longer designations only get the trailing comma and the company
// is dropped. With a nil measure the padding is counted in characters.
//
// When maxWidth is positive and the padded line would not fit it, the padding is
// dropped and a single space separates the company, so a wrapped company starts
// flush on its own line instead of behind leftover spaces.
func DesignationText(designation, company string, cutoff, columns int, maxWidth float64, measure textlayout.MeasureFunc) string {
	if company == "" {
		return designation
	}
	n := utf8.RuneCountInString(designation)
	prefix := designation + ","
	if n > cutoff {
		return prefix
	}
	if measure == nil || measure(" ") <= 0 {
		pad := columns - n
		if pad < 1 {
			pad = 1
		}
		return prefix + strings.Repeat(" ", pad) + company
	}
	target := float64(columns+1) * measure("0")
	pad := " "
	for i := 0; i < columns && measure(prefix+pad+" ") <= target; i++ {
		pad += " "
	}
	if maxWidth > 0 && measure(prefix+pad+company) > maxWidth {
		return prefix + " " + company
	}
	return prefix + pad + company
}

// ComposeDesignation applies DesignationText with the style's thresholds and the
// designation placement width of variant v.
func (s Style) ComposeDesignation(r Record, v Variant, measure textlayout.MeasureFunc) string {
	var maxWidth float64
	if p, ok := s.Placements(v).Lookup(FieldDesignation); ok {
		maxWidth = p.MaxWidth
	}
	return DesignationText(r.Designation, r.Company, s.DesignationCutoff, s.PadColumns, maxWidth, measure)
}
