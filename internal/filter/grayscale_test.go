/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package filter

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func onePixel(c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.SetNRGBA(0, 0, c)
	return img
}

func TestGrayPixel_Golden(t *testing.T) {
	// avg = 133.33, factor = 1.00833; R',G',B' = 201.67, 151.25, 50.42; lum = 154.83
	if got := GrayPixel(200, 150, 50, ContrastLuminance); got != 155 {
		t.Fatalf("contrast golden = %d, want 155", got)
	}
	if got := GrayPixel(200, 150, 50, Average); got != 133 {
		t.Fatalf("average golden = %d, want 133", got)
	}
}

func TestGrayPixel_MidGrayIsPlainLuminance(t *testing.T) {
	// mean is exactly 128 so the contrast factor is 1.
	r, g, b := uint8(100), uint8(128), uint8(156)
	want := uint8(math.Round(0.299*100 + 0.587*128 + 0.114*156))
	if got := GrayPixel(r, g, b, ContrastLuminance); got != want {
		t.Fatalf("GrayPixel = %d, want %d", got, want)
	}
}

func TestGrayPixel_ClampsBrightChannels(t *testing.T) {
	if got := GrayPixel(255, 255, 255, ContrastLuminance); got != 255 {
		t.Fatalf("white = %d", got)
	}
	if got := GrayPixel(0, 0, 0, ContrastLuminance); got != 0 {
		t.Fatalf("black = %d", got)
	}
}

func TestToGrayscale_GoldenImage(t *testing.T) {
	src := onePixel(color.NRGBA{R: 200, G: 150, B: 50, A: 255})
	out, err := ToGrayscale(src, ContrastLuminance)
	if err != nil {
		t.Fatalf("grayscale: %v", err)
	}
	if got := out.NRGBAAt(0, 0); got != (color.NRGBA{R: 155, G: 155, B: 155, A: 255}) {
		t.Fatalf("pixel = %#v", got)
	}
	if src.NRGBAAt(0, 0) != (color.NRGBA{R: 200, G: 150, B: 50, A: 255}) {
		t.Fatalf("source was mutated")
	}
}

func TestToGrayscale_SubImageBounds(t *testing.T) {
	full := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := range full.Pix {
		full.Pix[i] = uint8(i * 7)
	}
	sub := full.SubImage(image.Rect(2, 3, 6, 8))
	out, err := ToGrayscale(sub, Average)
	if err != nil {
		t.Fatalf("grayscale: %v", err)
	}
	if out.Bounds().Dx() != 4 || out.Bounds().Dy() != 5 {
		t.Fatalf("bounds = %v", out.Bounds())
	}
}

func TestToGrayscale_Invalid(t *testing.T) {
	if _, err := ToGrayscale(nil, ContrastLuminance); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("nil image err = %v", err)
	}
	empty := image.NewNRGBA(image.Rect(0, 0, 0, 10))
	if _, err := ToGrayscale(empty, ContrastLuminance); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("zero width err = %v", err)
	}
	if _, err := ToGrayscale(onePixel(color.NRGBA{A: 255}), Mode("sepia")); err == nil {
		t.Fatalf("expected unknown mode error")
	}
}

func TestToGrayscale_AcceptsModeAliases(t *testing.T) {
	src := onePixel(color.NRGBA{R: 200, G: 150, B: 50, A: 255})
	for alias, canonical := range map[Mode]Mode{"Mean": Average, " AVERAGE ": Average, "luminance": ContrastLuminance, "": ContrastLuminance} {
		out, err := ToGrayscale(src, alias)
		if err != nil {
			t.Fatalf("ToGrayscale(%q): %v", alias, err)
		}
		if got, want := out.NRGBAAt(0, 0).R, GrayPixel(200, 150, 50, canonical); got != want {
			t.Fatalf("ToGrayscale(%q) = %d, want %d", alias, got, want)
		}
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"": ContrastLuminance, "Contrast": ContrastLuminance, "average": Average, "mean": Average}
	for in, want := range cases {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("sepia"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestToGrayscale_Properties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 100
	properties := gopter.NewProperties(params)

	pixels := gen.SliceOfN(48, gen.UInt8())
	modes := gen.OneConstOf(ContrastLuminance, Average)

	properties.Property("channels equal, alpha and size preserved, source untouched", prop.ForAll(
		func(raw []uint8, mode Mode) bool {
			src := image.NewNRGBA(image.Rect(0, 0, 4, 3))
			copy(src.Pix, raw)
			before := bytes.Clone(src.Pix)
			out, err := ToGrayscale(src, mode)
			if err != nil || out.Bounds() != src.Bounds() {
				return false
			}
			if !bytes.Equal(src.Pix, before) {
				return false
			}
			for y := 0; y < 3; y++ {
				for x := 0; x < 4; x++ {
					in := src.NRGBAAt(x, y)
					px := out.NRGBAAt(x, y)
					if px.R != px.G || px.G != px.B || px.A != in.A {
						return false
					}
				}
			}
			return true
		},
		pixels, modes,
	))

	properties.TestingRun(t)
}
