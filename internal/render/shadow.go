/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"visitingcard/internal/textlayout"
)

// withShadow runs draw against a transparent scratch layer of the same size as
// dc. On success the layer's alpha, tinted with the shadow color and blurred,
// is composited at the shadow offset, then the layer itself on top. dc never
// holds shadow state, and nothing reaches dc when draw fails.
func (r *Renderer) withShadow(dc *gg.Context, enabled bool, draw func(*gg.Context) error) error {
	sh := r.style.Shadow
	if !enabled || (sh.OffsetX == 0 && sh.OffsetY == 0 && sh.Blur == 0) {
		return draw(dc)
	}
	col, err := textlayout.ParseHexColor(sh.Color)
	if err != nil {
		return err
	}
	layer := gg.NewContext(dc.Width(), dc.Height())
	if err := draw(layer); err != nil {
		return err
	}
	top := layer.Image()
	dc.DrawImage(shadowOf(top, col, sh.Blur), int(math.Round(sh.OffsetX)), int(math.Round(sh.OffsetY)))
	dc.DrawImage(top, 0, 0)
	return nil
}

// shadowOf returns a silhouette of img in col, blurred with sigma blur/2 to
// approximate a canvas shadowBlur of the same value.
func shadowOf(img image.Image, col color.NRGBA, blur float64) image.Image {
	src := imaging.Clone(img)
	sil := image.NewNRGBA(src.Bounds())
	for i := 0; i < len(src.Pix); i += 4 {
		a := src.Pix[i+3]
		if a == 0 {
			continue
		}
		sil.Pix[i+0] = col.R
		sil.Pix[i+1] = col.G
		sil.Pix[i+2] = col.B
		sil.Pix[i+3] = uint8(uint16(a) * uint16(col.A) / 255)
	}
	if blur <= 0 {
		return sil
	}
	return imaging.Blur(sil, blur/2)
}
