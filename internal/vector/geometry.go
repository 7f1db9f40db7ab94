/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Basic 2D geometry for card placements and clip shapes.
// Float values use float32 for compactness; the drawing surface converts at the boundary.

// Pt is a 2D point.
type Pt struct{ X, Y float32 }

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float32
	W, H float32
}

func R(x, y, w, h float32) Rect { return Rect{X: x, Y: y, W: w, H: h} }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

func (r Rect) Contains(p Pt) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Inset returns a rectangle inset by dx,dy on all sides (negative grows).
func (r Rect) Inset(dx, dy float32) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W - 2*dx, H: r.H - 2*dy}
}

func min(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}
func max(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// RoundedContains reports whether p lies inside r with corners of the given radius.
// The radius is clamped to half the shorter side.
func RoundedContains(r Rect, radius float32, p Pt) bool {
	if !r.Contains(p) {
		return false
	}
	radius = min(radius, min(r.W, r.H)/2)
	core := r.Inset(radius, radius)
	if radius <= 0 || (p.X >= core.X && p.X <= core.X+core.W) || (p.Y >= core.Y && p.Y <= core.Y+core.H) {
		return true
	}
	cx := []float32{r.X + radius, r.X + r.W - radius}
	cy := []float32{r.Y + radius, r.Y + r.H - radius}
	r2 := radius * radius
	for _, x := range cx {
		for _, y := range cy {
			dx := p.X - x
			dy := p.Y - y
			if dx*dx+dy*dy <= r2 {
				return true
			}
		}
	}
	return false
}
