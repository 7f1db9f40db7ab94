/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package card

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"visitingcard/internal/filter"
)

func TestDefaultStyleIsValid(t *testing.T) {
	s := DefaultStyle()
	if err := s.Validate(); err != nil {
		t.Fatalf("DefaultStyle invalid: %v", err)
	}
	if s.Canvas.Width != 736 || s.Canvas.Height != 1104 {
		t.Fatalf("canvas = %+v", s.Canvas)
	}
	if s.Photo.Filter != filter.ContrastLuminance {
		t.Fatalf("photo filter = %q", s.Photo.Filter)
	}
}

func TestPlacementsPerVariant(t *testing.T) {
	s := DefaultStyle()
	short := s.Placements(s.Variant("Jane Doe"))
	long := s.Placements(s.Variant("Maximilian Mustermann"))

	if p, _ := short.Lookup(FieldName); p != (Placement{X: 46, Y: 261, MaxWidth: 294}) {
		t.Fatalf("short name placement = %+v", p)
	}
	if p, _ := long.Lookup(FieldName); p != (Placement{X: 56, Y: 228, MaxWidth: 279.17}) {
		t.Fatalf("long name placement = %+v", p)
	}
	if p, _ := long.Lookup(FieldDesignation); p.X != 62 {
		t.Fatalf("long designation placement = %+v", p)
	}
	for _, f := range Fields {
		if _, ok := short.Lookup(f); !ok {
			t.Fatalf("short variant lacks %s", f)
		}
	}
	// The shared table is not touched by building a variant.
	if _, ok := s.Details[FieldName]; ok {
		t.Fatalf("Placements leaked name into Details")
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	s := DefaultStyle()
	s.Canvas.Width = 0
	s.PadColumns = 0
	s.Photo.Filter = "sepia"
	s.Shadow.Color = "black"
	s.QR.Enabled = true
	s.QR.Content = "phone"
	delete(s.Text, FieldEmail)
	err := s.Validate()
	if err == nil {
		t.Fatalf("expected validation errors")
	}
	for _, want := range []string{"canvas", "pad_columns", "sepia", "shadow", "qr content", "email"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q lacks %q", err, want)
		}
	}
}

func TestLoadStyleOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "compact.yaml")
	doc := `
name_cutoff: 14
pad_columns: 13
photo:
  x: 374
  y: 188
  width: 324
  height: 324
  radius: 12
  filter: average
fonts:
  - family: Barlow
    weight: 500
    path: fonts/Barlow-Medium.ttf
`
	if err := os.WriteFile(p, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := LoadStyle(p)
	if err != nil {
		t.Fatalf("LoadStyle: %v", err)
	}
	if s.NameCutoff != 14 || s.PadColumns != 13 || s.DesignationCutoff != 21 {
		t.Fatalf("thresholds = %d/%d/%d", s.NameCutoff, s.PadColumns, s.DesignationCutoff)
	}
	if s.Photo.Filter != filter.Average || s.Photo.Radius != 12 {
		t.Fatalf("photo = %+v", s.Photo)
	}
	if want := filepath.Join(dir, "fonts", "Barlow-Medium.ttf"); s.Fonts[0].Path != want {
		t.Fatalf("font path = %q, want %q", s.Fonts[0].Path, want)
	}
	if s.Canvas.Width != 736 {
		t.Fatalf("canvas default lost: %+v", s.Canvas)
	}
}

func TestLoadStyleCanonicalizesFilter(t *testing.T) {
	p := filepath.Join(t.TempDir(), "mean.yaml")
	if err := os.WriteFile(p, []byte("photo:\n  filter: mean\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := LoadStyle(p)
	if err != nil {
		t.Fatalf("LoadStyle: %v", err)
	}
	if s.Photo.Filter != filter.Average {
		t.Fatalf("filter = %q, want %q", s.Photo.Filter, filter.Average)
	}
	if s.Photo.Width != DefaultStyle().Photo.Width {
		t.Fatalf("photo overlay lost defaults: %+v", s.Photo)
	}
}

func TestLoadStyleRejectsInvalid(t *testing.T) {
	p := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(p, []byte("canvas: {width: -1, height: 10}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadStyle(p); err == nil {
		t.Fatalf("expected error for negative canvas")
	}
}

func TestStyleYAMLRoundTrip(t *testing.T) {
	data, err := DefaultStyle().YAML()
	if err != nil {
		t.Fatalf("YAML: %v", err)
	}
	p := filepath.Join(t.TempDir(), "dump.yaml")
	if err := os.WriteFile(p, data, 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := LoadStyle(p)
	if err != nil {
		t.Fatalf("LoadStyle(dump): %v", err)
	}
	if s.Text[FieldAbout].Font.SizePx != 28 {
		t.Fatalf("about font = %+v", s.Text[FieldAbout].Font)
	}
}
