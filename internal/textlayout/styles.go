/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// TextStyle is a reusable text preset: font, fill color, line height and
// alignment, plus whether the text is drawn with the card's drop shadow.
// Color is a hex string (#RGB, #RRGGBB or #RRGGBBAA) so styles stay readable in YAML.
type TextStyle struct {
	Font       FontSpec `yaml:"font"`
	Color      string   `yaml:"color"`
	LineHeight float64  `yaml:"line_height"`
	Align      Align    `yaml:"align,omitempty"`
	Shadow     bool     `yaml:"shadow,omitempty"`
}

var builtinStyles = map[string]TextStyle{
	// White headline text sits on the dark band of the template and gets the drop shadow.
	"Name": {
		Font:       FontSpec{Family: "Barlow", SizePx: 42, Weight: 400},
		Color:      "#FFFFFF",
		LineHeight: 38,
		Align:      AlignLeft,
		Shadow:     true,
	},
	"Designation": {
		Font:       FontSpec{Family: "Barlow", SizePx: 24, Weight: 400},
		Color:      "#FFFFFF",
		LineHeight: 29,
		Align:      AlignLeft,
		Shadow:     true,
	},
	"About": {
		Font:       FontSpec{Family: "Barlow", SizePx: 28, Weight: 400},
		Color:      "#112D44",
		LineHeight: 34,
		Align:      AlignLeft,
	},
	"Detail": {
		Font:       FontSpec{Family: "Barlow", SizePx: 22, Weight: 500},
		Color:      "#112D44",
		LineHeight: 26,
		Align:      AlignLeft,
	},
}

// GetStyle returns a builtin style preset by name. The second return value is false if
// the style is not found.
func GetStyle(name string) (TextStyle, bool) { s, ok := builtinStyles[name]; return s, ok }

// Block builds the TextBlock for text placed at (x, y) with the given wrap width.
func (s TextStyle) Block(text string, x, y, maxWidth float64) (TextBlock, error) {
	col, err := ParseHexColor(s.Color)
	if err != nil {
		return TextBlock{}, err
	}
	align := s.Align
	if align == "" {
		align = AlignLeft
	}
	return TextBlock{
		Text:       text,
		X:          x,
		Y:          y,
		MaxWidth:   maxWidth,
		LineHeight: s.LineHeight,
		Font:       s.Font,
		Color:      col,
		Align:      align,
	}, nil
}

// ParseHexColor parses #RGB, #RRGGBB and #RRGGBBAA.
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) == 6 {
		h += "ff"
	}
	if len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("textlayout: bad color %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("textlayout: bad color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
