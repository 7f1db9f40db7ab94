/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
)

// PresetName represents a named output preset.
type PresetName string

const (
	PresetPrint PresetName = "print"
	PresetWeb   PresetName = "web"
	PresetThumb PresetName = "thumb"
)

// presetScale is the output scale relative to the rendered canvas.
var presetScale = map[PresetName]float64{
	PresetPrint: 1,
	PresetWeb:   0.5,
	PresetThumb: 0.25,
}

// ParsePreset accepts a preset name; empty selects print.
func ParsePreset(s string) (PresetName, error) {
	p := PresetName(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PresetPrint, nil
	}
	if _, ok := presetScale[p]; !ok {
		return "", fmt.Errorf("unknown preset: %s", s)
	}
	return p, nil
}

// Presets lists the preset names in stable order.
func Presets() []PresetName { return []PresetName{PresetPrint, PresetWeb, PresetThumb} }

// Apply scales img for the preset. Print returns img unchanged.
func Apply(img image.Image, p PresetName) (image.Image, error) {
	scale, ok := presetScale[p]
	if !ok {
		return nil, fmt.Errorf("unknown preset: %s", p)
	}
	if scale == 1 {
		return img, nil
	}
	b := img.Bounds()
	w := int(float64(b.Dx())*scale + 0.5)
	if w < 1 {
		w = 1
	}
	// height 0 keeps the aspect ratio
	return imaging.Resize(img, w, 0, imaging.Lanczos), nil
}
