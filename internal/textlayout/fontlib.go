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
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontLibrary stores parsed OpenType fonts mapped by family/weight/italic.
// Parsed fonts are immutable and can be shared between renders; faces are not
// and must be created per render through a Provider.
type FontLibrary struct {
	mu      sync.RWMutex
	fonts   map[fontKey]*opentype.Font
	aliases map[string]string
}

type fontKey struct {
	family string
	weight int
	italic bool
}

func NewFontLibrary() *FontLibrary {
	return &FontLibrary{fonts: make(map[fontKey]*opentype.Font), aliases: make(map[string]string)}
}

// NewDefaultLibrary returns a library with the Go fonts registered as family "Go"
// at weights 400, 500 and 700. "Barlow" and "sans-serif" alias to it so card
// styles resolve without any font files on disk.
func NewDefaultLibrary() (*FontLibrary, error) {
	fl := NewFontLibrary()
	builtin := []struct {
		data   []byte
		weight int
		italic bool
	}{
		{goregular.TTF, 400, false},
		{gomedium.TTF, 500, false},
		{gobold.TTF, 700, false},
		{goitalic.TTF, 400, true},
	}
	for _, b := range builtin {
		if err := fl.Register("Go", b.weight, b.italic, b.data); err != nil {
			return nil, err
		}
	}
	fl.Alias("Barlow", "Go")
	fl.Alias("sans-serif", "Go")
	return fl, nil
}

// Register parses font data and stores it under the given family/weight/italic.
func (fl *FontLibrary) Register(family string, weight int, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s/%d: %w", family, weight, err)
	}
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.fonts == nil {
		fl.fonts = make(map[fontKey]*opentype.Font)
	}
	fl.fonts[fontKey{family: normFamily(family), weight: weight, italic: italic}] = f
	return nil
}

// LoadTTF loads a font file into the library under the given family/weight/italic.
func (fl *FontLibrary) LoadTTF(family string, weight int, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return fl.Register(family, weight, italic, data)
}

// Alias makes lookups for alias fall through to family when alias itself has no fonts.
func (fl *FontLibrary) Alias(alias, family string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.aliases == nil {
		fl.aliases = make(map[string]string)
	}
	fl.aliases[normFamily(alias)] = normFamily(family)
}

func normFamily(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (fl *FontLibrary) find(spec FontSpec) *opentype.Font {
	if fl == nil {
		return nil
	}
	fl.mu.RLock()
	defer fl.mu.RUnlock()
	family := normFamily(spec.Family)
	if f := fl.closest(family, spec); f != nil {
		return f
	}
	if target, ok := fl.aliases[family]; ok {
		return fl.closest(target, spec)
	}
	return nil
}

// closest picks the exact match, else the same family with matching italic and
// the nearest weight, else any style of the family. Ties go to the lighter weight.
func (fl *FontLibrary) closest(family string, spec FontSpec) *opentype.Font {
	weight := spec.Weight
	if weight == 0 {
		weight = 400
	}
	if f, ok := fl.fonts[fontKey{family: family, weight: weight, italic: spec.Italic}]; ok {
		return f
	}
	var best *opentype.Font
	bestScore := -1
	for k, f := range fl.fonts {
		if k.family != family {
			continue
		}
		score := abs(k.weight - weight)
		if k.italic != spec.Italic {
			score += 1000
		}
		if best == nil || score < bestScore || (score == bestScore && k.weight < weight) {
			best, bestScore = f, score
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// OTProvider resolves FontSpec using a FontLibrary and falls back to another Provider.
// It uses kerning as provided by opentype.Face and font.Drawer.
type OTProvider struct {
	Lib      *FontLibrary
	DPI      float64 // default 72 if zero
	Fallback Provider
}

func (p OTProvider) Resolve(spec FontSpec) (font.Face, Metrics, error) {
	if spec.SizePx <= 0 {
		spec.SizePx = 12
	}
	dpi := p.DPI
	if dpi <= 0 {
		dpi = 72
	}

	if f := p.Lib.find(spec); f != nil {
		face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: spec.SizePx, DPI: dpi, Hinting: font.HintingFull})
		if err != nil {
			return nil, Metrics{}, fmt.Errorf("face %s/%d: %w", spec.Family, spec.Weight, err)
		}
		return face, metricsOf(face), nil
	}
	if p.Fallback == nil {
		return nil, Metrics{}, fmt.Errorf("no font for family %q", spec.Family)
	}
	return p.Fallback.Resolve(spec)
}
