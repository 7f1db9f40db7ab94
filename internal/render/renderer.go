/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render composes a visiting card: template background, filtered and
// clipped profile photo, wrapped text fields and an optional contact QR code.
//
// A Renderer holds only read-only configuration. Every Render call owns its
// own drawing surface and font faces, so one Renderer may serve many
// goroutines at once.
package render

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"visitingcard/internal/card"
	"visitingcard/internal/filter"
	"visitingcard/internal/textlayout"
	"visitingcard/internal/vector"
)

// Renderer draws cards for one style.
type Renderer struct {
	style    card.Style
	provider textlayout.Provider
	log      *slog.Logger
}

// Option customizes a Renderer.
type Option func(*Renderer)

// WithProvider replaces the font provider, e.g. with textlayout.BasicProvider in tests.
func WithProvider(p textlayout.Provider) Option {
	return func(r *Renderer) { r.provider = p }
}

// New validates style, registers its extra font files in lib and returns a
// Renderer. A nil lib uses the built-in Go fonts and a nil logger slog.Default().
func New(style card.Style, lib *textlayout.FontLibrary, logger *slog.Logger, opts ...Option) (*Renderer, error) {
	if err := style.Validate(); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	if lib == nil {
		var err error
		if lib, err = textlayout.NewDefaultLibrary(); err != nil {
			return nil, fmt.Errorf("render: fonts: %w", err)
		}
	}
	for _, ff := range style.Fonts {
		if err := lib.LoadTTF(ff.Family, ff.Weight, ff.Italic, ff.Path); err != nil {
			return nil, &IOError{Op: "load font", Path: ff.Path, Err: err}
		}
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{
		style:    style,
		provider: textlayout.OTProvider{Lib: lib, Fallback: textlayout.BasicProvider{}},
		log:      logger.With(slog.String("component", "render")),
	}
	for _, o := range opts {
		o(r)
	}
	return r, nil
}

// Style returns the renderer's style.
func (r *Renderer) Style() card.Style { return r.style }

type resolvedFace struct {
	face    font.Face
	metrics textlayout.Metrics
}

// Render draws rec onto a fresh canvas and returns it. template and photo are
// not modified. An empty Name fails with textlayout.ErrInvalidInput; empty
// optional fields are skipped.
func (r *Renderer) Render(template, photo image.Image, rec card.Record) (image.Image, error) {
	start := time.Now()
	if template == nil {
		return nil, fmt.Errorf("render: template: %w", filter.ErrInvalidImage)
	}
	if photo == nil {
		return nil, fmt.Errorf("render: photo: %w", filter.ErrInvalidImage)
	}
	rec = rec.Normalize()
	if rec.Name == "" {
		return nil, fmt.Errorf("render: name: %w", textlayout.ErrInvalidInput)
	}

	st := r.style
	dc := gg.NewContext(st.Canvas.Width, st.Canvas.Height)

	// 1. background
	bg := template
	if b := template.Bounds(); b.Dx() != st.Canvas.Width || b.Dy() != st.Canvas.Height {
		bg = imaging.Resize(template, st.Canvas.Width, st.Canvas.Height, imaging.Lanczos)
	}
	dc.DrawImage(bg, 0, 0)

	// 2. photo
	if err := r.drawPhoto(dc, photo); err != nil {
		return nil, err
	}

	// 3. text
	variant := st.Variant(rec.Name)
	placements := st.Placements(variant)
	faces := make(map[textlayout.FontSpec]resolvedFace, 4)
	for _, f := range card.Fields {
		if err := r.drawField(dc, f, rec, placements, faces); err != nil {
			if f != card.FieldName && errors.Is(err, textlayout.ErrInvalidInput) {
				r.log.Warn("field skipped", slog.String("field", string(f)), slog.String("name", rec.Name))
				continue
			}
			return nil, fmt.Errorf("render: %s: %w", f, err)
		}
	}

	// 4. contact code
	if st.QR.Enabled {
		if err := r.drawQR(dc, rec); err != nil {
			if !errors.Is(err, textlayout.ErrInvalidInput) {
				return nil, fmt.Errorf("render: qr: %w", err)
			}
			r.log.Warn("qr skipped", slog.String("content", st.QR.Content), slog.String("name", rec.Name))
		}
	}

	r.log.Debug("card rendered",
		slog.String("name", rec.Name),
		slog.String("variant", variant.String()),
		slog.Duration("took", time.Since(start)),
	)
	return dc.Image(), nil
}

// drawPhoto filters the photo once, scales it to the frame and draws it
// through the rounded-rectangle clip. The shadow, when enabled, follows the
// clipped outline and falls outside the frame.
func (r *Renderer) drawPhoto(dc *gg.Context, photo image.Image) error {
	ps := r.style.Photo
	gray, err := filter.ToGrayscale(photo, ps.Filter)
	if err != nil {
		return fmt.Errorf("render: photo: %w", err)
	}
	w, h := int(math.Round(ps.Width)), int(math.Round(ps.Height))
	scaled := imaging.Resize(gray, w, h, imaging.Lanczos)
	outline := vector.RoundedRect(ps.Rect(), float32(ps.Radius))
	x, y := int(math.Round(ps.X)), int(math.Round(ps.Y))

	return r.withShadow(dc, ps.Shadow, func(c *gg.Context) error {
		c.ClearPath()
		outline.Replay(c)
		c.Clip()
		defer c.ResetClip()
		c.DrawImage(scaled, x, y)
		return nil
	})
}

func (r *Renderer) face(spec textlayout.FontSpec, cache map[textlayout.FontSpec]resolvedFace) (resolvedFace, error) {
	if rf, ok := cache[spec]; ok {
		return rf, nil
	}
	face, m, err := r.provider.Resolve(spec)
	if err != nil {
		return resolvedFace{}, err
	}
	rf := resolvedFace{face: face, metrics: m}
	cache[spec] = rf
	return rf, nil
}

// drawField wraps one field at its placement and draws line i with its top at
// y + i*lineHeight.
func (r *Renderer) drawField(dc *gg.Context, f card.Field, rec card.Record, pl card.Placements, faces map[textlayout.FontSpec]resolvedFace) error {
	ts, ok := r.style.Text[f]
	if !ok {
		return fmt.Errorf("no text style")
	}
	p, ok := pl.Lookup(f)
	if !ok {
		return fmt.Errorf("no placement")
	}
	rf, err := r.face(ts.Font, faces)
	if err != nil {
		return err
	}
	measure := textlayout.FaceMeasure(rf.face)

	text := rec.Value(f)
	if f == card.FieldDesignation {
		text = r.style.ComposeDesignation(rec, r.style.Variant(rec.Name), measure)
	}
	block, err := ts.Block(text, p.X, p.Y, p.MaxWidth)
	if err != nil {
		return err
	}
	lines, err := textlayout.LayoutBlock(block, measure)
	if err != nil {
		return err
	}
	return r.withShadow(dc, ts.Shadow, func(c *gg.Context) error {
		c.SetFontFace(rf.face)
		c.SetColor(block.Color)
		for _, ln := range lines {
			c.DrawString(ln.Text, ln.X, ln.Y+rf.metrics.Ascent)
		}
		return nil
	})
}
