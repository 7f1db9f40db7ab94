/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package filter desaturates profile photos before they are placed on a card.
package filter

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrInvalidImage is returned for nil or zero-sized input.
var ErrInvalidImage = errors.New("filter: invalid image")

// Mode selects the per-pixel grayscale transform.
type Mode string

const (
	// ContrastLuminance pushes dark pixels darker and light pixels lighter by up
	// to 20% before taking Rec. 601 luminance.
	ContrastLuminance Mode = "contrast"
	// Average replicates mean(R,G,B).
	Average Mode = "average"
)

// contrastStrength scales how far from mid-gray the contrast factor may move.
const contrastStrength = 0.2

// ParseMode maps a style value to a Mode; empty selects ContrastLuminance.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ContrastLuminance, "contrast-luminance", "luminance":
		return ContrastLuminance, nil
	case Average, "mean":
		return Average, nil
	}
	return "", fmt.Errorf("filter: unknown mode %q", s)
}

// ToGrayscale returns a new NRGBA image with the same size as img where every
// pixel has R == G == B. Alpha is copied unchanged and img is never modified:
// it is first drawn into a scratch buffer which is then transformed in place.
func ToGrayscale(img image.Image, mode Mode) (*image.NRGBA, error) {
	if img == nil {
		return nil, ErrInvalidImage
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidImage, b.Dx(), b.Dy())
	}
	mode, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}

	dst := imaging.Clone(img)
	pix := dst.Pix
	for y := 0; y < dst.Rect.Dy(); y++ {
		row := pix[y*dst.Stride : y*dst.Stride+dst.Rect.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			g := GrayPixel(row[i], row[i+1], row[i+2], mode)
			row[i], row[i+1], row[i+2] = g, g, g
		}
	}
	return dst, nil
}

// GrayPixel applies the mode's transform to one non-premultiplied pixel. mode must
// be one of the Mode constants; use ParseMode for style values.
func GrayPixel(r, g, b uint8, mode Mode) uint8 {
	avg := (float64(r) + float64(g) + float64(b)) / 3
	if mode == Average {
		return toUint8(avg)
	}
	factor := 1 + (avg-128)/128*contrastStrength
	cr := clamp(float64(r) * factor)
	cg := clamp(float64(g) * factor)
	cb := clamp(float64(b) * factor)
	return toUint8(0.299*cr + 0.587*cg + 0.114*cb)
}

func clamp(v float64) float64 {
	return math.Min(255, math.Max(0, v))
}

// toUint8 stores v the way a clamped 8-bit pixel buffer does: round to nearest, clamp to [0,255].
func toUint8(v float64) uint8 {
	return uint8(clamp(math.Round(v)))
}
