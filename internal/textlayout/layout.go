/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

// Abstractions for text measurement and block layout.
// Measurement sits behind MeasureFunc and Provider so the wrapping logic can be
// tested with a deterministic face and rendered with a real one.

import (
	"fmt"
	"image/color"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FontSpec describes a requested font.
type FontSpec struct {
	Family string  `yaml:"family"` // logical family name
	SizePx float64 `yaml:"size"`   // size in pixels; faces are built at 72 DPI so px == pt
	Weight int     `yaml:"weight"` // 100..900
	Italic bool    `yaml:"italic,omitempty"`
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// Provider maps FontSpec to a concrete font.Face.
type Provider interface {
	Resolve(FontSpec) (font.Face, Metrics, error)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests:
// every glyph advances exactly 7 px regardless of the requested size.
type BasicProvider struct{}

func (BasicProvider) Resolve(FontSpec) (font.Face, Metrics, error) {
	f := basicfont.Face7x13
	return f, metricsOf(f), nil
}

func metricsOf(f font.Face) Metrics {
	m := f.Metrics()
	return Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// FaceMeasure adapts a face to a MeasureFunc. Kerning is applied by font.MeasureString.
func FaceMeasure(face font.Face) MeasureFunc {
	return func(s string) float64 {
		return float64(font.MeasureString(face, s)) / 64 // fixed.Int26_6 to px
	}
}

// Align is the horizontal anchoring of a line relative to the block's X.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// ParseAlign accepts left/start, center and right/end; empty means left.
func ParseAlign(s string) (Align, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "left", "start":
		return AlignLeft, nil
	case "center", "centre":
		return AlignCenter, nil
	case "right", "end":
		return AlignRight, nil
	}
	return "", fmt.Errorf("textlayout: unknown align %q", s)
}

// TextBlock is one field ready for layout. It is built per field at render time
// and not modified afterwards.
type TextBlock struct {
	Text       string
	X, Y       float64 // anchor; Y is the top of the first line
	MaxWidth   float64
	LineHeight float64
	Font       FontSpec
	Color      color.NRGBA
	Align      Align
}

// Line is a single wrapped line with its resolved top-left position.
type Line struct {
	Text  string
	X, Y  float64
	Width float64
}

// LayoutBlock wraps b.Text and positions line i at (x, b.Y + i*LineHeight),
// where x is shifted by the measured width for center and right alignment.
func LayoutBlock(b TextBlock, measure MeasureFunc) ([]Line, error) {
	wrapped, err := Wrap(b.Text, b.MaxWidth, measure)
	if err != nil {
		return nil, err
	}
	out := make([]Line, len(wrapped))
	for i, s := range wrapped {
		w := measure(s)
		x := b.X
		switch b.Align {
		case AlignCenter:
			x -= w / 2
		case AlignRight:
			x -= w
		}
		out[i] = Line{Text: s, X: x, Y: b.Y + float64(i)*b.LineHeight, Width: w}
	}
	return out, nil
}
