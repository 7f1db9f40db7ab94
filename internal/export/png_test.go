/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func sampleCard(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 90, A: 255})
		}
	}
	return img
}

func TestWritePNGCreatesDirAndDecodes(t *testing.T) {
	out := filepath.Join(t.TempDir(), "cards", "jane.png")
	if err := WritePNG(out, sampleCard(40, 60)); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 60 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	entries, _ := os.ReadDir(filepath.Dir(out))
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}

func TestWritePNGNilImageLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "nil.png")
	if err := WritePNG(out, nil); err == nil {
		t.Fatalf("expected error for nil image")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("expected empty dir, found %d entries", len(entries))
	}
}

func TestThumbnailPNG(t *testing.T) {
	data, err := ThumbnailPNG(sampleCard(200, 300), 64)
	if err != nil {
		t.Fatalf("ThumbnailPNG: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dy() != 64 || b.Dx() > 64 {
		t.Fatalf("thumb bounds = %v", b)
	}
	if _, err := ThumbnailPNG(nil, 64); err == nil {
		t.Fatalf("expected error for nil image")
	}
}

func TestPresets(t *testing.T) {
	src := sampleCard(736, 1104)
	for _, c := range []struct {
		p    PresetName
		w, h int
	}{
		{PresetPrint, 736, 1104},
		{PresetWeb, 368, 552},
		{PresetThumb, 184, 276},
	} {
		img, err := Apply(src, c.p)
		if err != nil {
			t.Fatalf("Apply(%s): %v", c.p, err)
		}
		if b := img.Bounds(); b.Dx() != c.w || b.Dy() != c.h {
			t.Fatalf("Apply(%s) = %v, want %dx%d", c.p, b, c.w, c.h)
		}
	}
	if p, err := ParsePreset(" WEB "); err != nil || p != PresetWeb {
		t.Fatalf("ParsePreset = %q, %v", p, err)
	}
	if p, _ := ParsePreset(""); p != PresetPrint {
		t.Fatalf("empty preset = %q", p)
	}
	if _, err := ParsePreset("a4"); err == nil {
		t.Fatalf("expected error for unknown preset")
	}
}
