/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package card

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"visitingcard/internal/filter"
	"visitingcard/internal/textlayout"
	"visitingcard/internal/vector"
)

// Field names a text slot on the card.
type Field string

const (
	FieldOrganization   Field = "organization"
	FieldEmail          Field = "email"
	FieldWebsite        Field = "website"
	FieldPhone          Field = "phone"
	FieldLocation       Field = "location"
	FieldAreaOfInterest Field = "area_of_interest"
	FieldName           Field = "name"
	FieldDesignation    Field = "designation"
	FieldAbout          Field = "about"
)

// Fields lists every field in draw order.
var Fields = []Field{
	FieldOrganization, FieldEmail, FieldWebsite,
	FieldPhone, FieldLocation, FieldAreaOfInterest,
	FieldName, FieldDesignation, FieldAbout,
}

// TextStyle is the per-field text preset.
type TextStyle = textlayout.TextStyle

// Placement anchors a field: Y is the top of the first line, MaxWidth the wrap width.
type Placement struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	MaxWidth float64 `yaml:"max_width"`
}

// Placements maps fields to their anchors. It is read-only during a render.
type Placements map[Field]Placement

// Lookup returns the placement of f and whether it is defined.
func (p Placements) Lookup(f Field) (Placement, bool) {
	pl, ok := p[f]
	return pl, ok
}

// Variant selects one of the two name layouts.
type Variant int

const (
	ShortName Variant = iota
	LongName
)

func (v Variant) String() string {
	if v == LongName {
		return "long"
	}
	return "short"
}

// NameLayout holds the coordinates that differ between the short and long name variants.
type NameLayout struct {
	Name        Placement `yaml:"name"`
	Designation Placement `yaml:"designation"`
}

type Size struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// PhotoStyle places the profile photo inside a rounded rectangle.
type PhotoStyle struct {
	X      float64     `yaml:"x"`
	Y      float64     `yaml:"y"`
	Width  float64     `yaml:"width"`
	Height float64     `yaml:"height"`
	Radius float64     `yaml:"radius"`
	Filter filter.Mode `yaml:"filter"`
	Shadow bool        `yaml:"shadow"`
}

// Rect returns the photo frame.
func (p PhotoStyle) Rect() vector.Rect {
	return vector.R(float32(p.X), float32(p.Y), float32(p.Width), float32(p.Height))
}

// ShadowStyle is the drop shadow applied to fields and the photo that opt in.
type ShadowStyle struct {
	OffsetX float64 `yaml:"offset_x"`
	OffsetY float64 `yaml:"offset_y"`
	Blur    float64 `yaml:"blur"`
	Color   string  `yaml:"color"`
}

// QRStyle configures the optional contact QR code.
type QRStyle struct {
	Enabled bool   `yaml:"enabled"`
	X       int    `yaml:"x"`
	Y       int    `yaml:"y"`
	Size    int    `yaml:"size"`
	Content string `yaml:"content"` // "vcard" or "website"
}

// FontFile registers an extra font file with the font library before rendering.
type FontFile struct {
	Family string `yaml:"family"`
	Weight int    `yaml:"weight"`
	Italic bool   `yaml:"italic,omitempty"`
	Path   string `yaml:"path"`
}

// Style is the complete, read-only description of a card layout.
type Style struct {
	Canvas            Size                `yaml:"canvas"`
	NameCutoff        int                 `yaml:"name_cutoff"`
	DesignationCutoff int                 `yaml:"designation_cutoff"`
	PadColumns        int                 `yaml:"pad_columns"`
	Short             NameLayout          `yaml:"short_name"`
	Long              NameLayout          `yaml:"long_name"`
	About             Placement           `yaml:"about"`
	Details           Placements          `yaml:"details"`
	Text              map[Field]TextStyle `yaml:"text"`
	Photo             PhotoStyle          `yaml:"photo"`
	Shadow            ShadowStyle         `yaml:"shadow"`
	QR                QRStyle             `yaml:"qr"`
	Fonts             []FontFile          `yaml:"fonts,omitempty"`
}

// DefaultStyle returns the stock 736x1104 layout.
func DefaultStyle() Style {
	name, _ := textlayout.GetStyle("Name")
	desig, _ := textlayout.GetStyle("Designation")
	about, _ := textlayout.GetStyle("About")
	detail, _ := textlayout.GetStyle("Detail")

	text := map[Field]TextStyle{
		FieldName:        name,
		FieldDesignation: desig,
		FieldAbout:       about,
	}
	for _, f := range Fields[:6] {
		text[f] = detail
	}
	return Style{
		Canvas:            Size{Width: 736, Height: 1104},
		NameCutoff:        11,
		DesignationCutoff: 21,
		PadColumns:        22,
		Short: NameLayout{
			Name:        Placement{X: 46, Y: 261, MaxWidth: 294},
			Designation: Placement{X: 52, Y: 332, MaxWidth: 250},
		},
		Long: NameLayout{
			Name:        Placement{X: 56, Y: 228, MaxWidth: 279.17},
			Designation: Placement{X: 62, Y: 332, MaxWidth: 279.17},
		},
		About: Placement{X: 52, Y: 612, MaxWidth: 634},
		Details: Placements{
			FieldOrganization:   {X: 105.2, Y: 825, MaxWidth: 300},
			FieldEmail:          {X: 105.2, Y: 873, MaxWidth: 300},
			FieldWebsite:        {X: 105.2, Y: 921, MaxWidth: 300},
			FieldPhone:          {X: 460, Y: 825, MaxWidth: 300},
			FieldLocation:       {X: 460, Y: 873, MaxWidth: 300},
			FieldAreaOfInterest: {X: 460, Y: 921, MaxWidth: 300},
		},
		Text: text,
		Photo: PhotoStyle{
			X: 374, Y: 188, Width: 324, Height: 324,
			Radius: 35.64,
			Filter: filter.ContrastLuminance,
			Shadow: true,
		},
		Shadow: ShadowStyle{OffsetX: 5, OffsetY: 5, Blur: 10, Color: "#000000"},
		QR:     QRStyle{X: 600, Y: 990, Size: 96, Content: "vcard"},
	}
}

// Variant picks the name layout: names up to NameCutoff runes use the short variant.
func (s Style) Variant(name string) Variant {
	return NameVariant(name, s.NameCutoff)
}

// Placements returns the full placement table for the given name variant.
func (s Style) Placements(v Variant) Placements {
	out := make(Placements, len(s.Details)+3)
	for f, p := range s.Details {
		out[f] = p
	}
	nl := s.Short
	if v == LongName {
		nl = s.Long
	}
	out[FieldName] = nl.Name
	out[FieldDesignation] = nl.Designation
	out[FieldAbout] = s.About
	return out
}

// Validate reports every problem found in the style at once.
func (s Style) Validate() error {
	var errs []error
	if s.Canvas.Width <= 0 || s.Canvas.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas %dx%d must be positive", s.Canvas.Width, s.Canvas.Height))
	}
	if s.NameCutoff <= 0 {
		errs = append(errs, fmt.Errorf("name_cutoff %d must be positive", s.NameCutoff))
	}
	if s.DesignationCutoff <= 0 {
		errs = append(errs, fmt.Errorf("designation_cutoff %d must be positive", s.DesignationCutoff))
	}
	if s.PadColumns <= 0 {
		errs = append(errs, fmt.Errorf("pad_columns %d must be positive", s.PadColumns))
	}
	for _, v := range []Variant{ShortName, LongName} {
		pl := s.Placements(v)
		for _, f := range Fields {
			p, ok := pl.Lookup(f)
			if !ok {
				errs = append(errs, fmt.Errorf("%s: no placement for %s", v, f))
				continue
			}
			if p.MaxWidth <= 0 {
				errs = append(errs, fmt.Errorf("%s: %s max_width %.2f must be positive", v, f, p.MaxWidth))
			}
		}
	}
	for _, f := range Fields {
		ts, ok := s.Text[f]
		if !ok {
			errs = append(errs, fmt.Errorf("no text style for %s", f))
			continue
		}
		if _, err := textlayout.ParseHexColor(ts.Color); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
		}
		if ts.Font.SizePx <= 0 {
			errs = append(errs, fmt.Errorf("%s: font size must be positive", f))
		}
		if _, err := textlayout.ParseAlign(string(ts.Align)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f, err))
		}
	}
	if s.Photo.Rect().Empty() {
		errs = append(errs, fmt.Errorf("photo %gx%g must be positive", s.Photo.Width, s.Photo.Height))
	}
	if s.Photo.Radius < 0 {
		errs = append(errs, fmt.Errorf("photo radius %g must not be negative", s.Photo.Radius))
	}
	if _, err := filter.ParseMode(string(s.Photo.Filter)); err != nil {
		errs = append(errs, err)
	}
	if s.Shadow.Blur < 0 {
		errs = append(errs, fmt.Errorf("shadow blur %g must not be negative", s.Shadow.Blur))
	}
	if _, err := textlayout.ParseHexColor(s.Shadow.Color); err != nil {
		errs = append(errs, fmt.Errorf("shadow: %w", err))
	}
	if s.QR.Enabled {
		if s.QR.Size <= 0 {
			errs = append(errs, fmt.Errorf("qr size %d must be positive", s.QR.Size))
		}
		switch s.QR.Content {
		case "vcard", "website":
		default:
			errs = append(errs, fmt.Errorf("qr content %q must be vcard or website", s.QR.Content))
		}
	}
	for i, ff := range s.Fonts {
		if ff.Family == "" || ff.Path == "" {
			errs = append(errs, fmt.Errorf("fonts[%d]: family and path are required", i))
		}
	}
	return errors.Join(errs...)
}

// LoadStyle reads a YAML style document on top of DefaultStyle, so a file only
// needs the keys it changes. Entries under text and details replace the default
// entry as a whole. Relative font paths resolve against the file's directory.
func LoadStyle(path string) (Style, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Style{}, fmt.Errorf("read style %s: %w", path, err)
	}
	s := DefaultStyle()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Style{}, fmt.Errorf("parse style %s: %w", path, err)
	}
	if m, err := filter.ParseMode(string(s.Photo.Filter)); err == nil {
		s.Photo.Filter = m
	}
	dir := filepath.Dir(path)
	for i := range s.Fonts {
		if s.Fonts[i].Path != "" && !filepath.IsAbs(s.Fonts[i].Path) {
			s.Fonts[i].Path = filepath.Join(dir, s.Fonts[i].Path)
		}
	}
	if err := s.Validate(); err != nil {
		return Style{}, fmt.Errorf("style %s: %w", path, err)
	}
	return s, nil
}

// YAML encodes the style in the format LoadStyle reads.
func (s Style) YAML() ([]byte, error) { return yaml.Marshal(s) }
