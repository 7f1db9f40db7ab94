/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Path commands and shapes. Paths are recorded once and replayed onto a
// drawing surface, so clip shapes can be tested without rasterizing.

type PathOp uint8

const (
	MoveTo PathOp = iota
	LineTo
	QuadTo  // quadratic bezier (cx, cy, x, y)
	CubicTo // cubic bezier (cx1, cy1, cx2, cy2, x, y)
	Close
)

type PathCmd struct {
	Op   PathOp
	Data [6]float32 // enough for cubic; unused slots are zero
}

type Path struct{ Cmds []PathCmd }

func (p *Path) MoveTo(x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: MoveTo, Data: [6]float32{x, y}})
}
func (p *Path) LineTo(x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: LineTo, Data: [6]float32{x, y}})
}
func (p *Path) QuadTo(cx, cy, x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: QuadTo, Data: [6]float32{cx, cy, x, y}})
}
func (p *Path) CubicTo(cx1, cy1, cx2, cy2, x, y float32) {
	p.Cmds = append(p.Cmds, PathCmd{Op: CubicTo, Data: [6]float32{cx1, cy1, cx2, cy2, x, y}})
}
func (p *Path) Close() { p.Cmds = append(p.Cmds, PathCmd{Op: Close}) }

// Bounds returns an axis-aligned bounding box of the path using a simple
// approximation by considering control points. This is sufficient for UI layout
// and selection rectangles; exporters can use tighter bounds later.
func (p *Path) Bounds() Rect {
	minX, minY := float32(+1e9), float32(+1e9)
	maxX, maxY := float32(-1e9), float32(-1e9)
	cur := Pt{}
	for _, c := range p.Cmds {
		switch c.Op {
		case MoveTo, LineTo:
			x, y := c.Data[0], c.Data[1]
			cur = Pt{x, y}
			if x < minX {
				minX = x
			}
			if y < minY {
				minY = y
			}
			if x > maxX {
				maxX = x
			}
			if y > maxY {
				maxY = y
			}
		case QuadTo:
			pts := []Pt{cur, {c.Data[0], c.Data[1]}, {c.Data[2], c.Data[3]}}
			for _, p := range pts {
				if p.X < minX {
					minX = p.X
				}
				if p.Y < minY {
					minY = p.Y
				}
				if p.X > maxX {
					maxX = p.X
				}
				if p.Y > maxY {
					maxY = p.Y
				}
			}
			cur = Pt{c.Data[2], c.Data[3]}
		case CubicTo:
			pts := []Pt{cur, {c.Data[0], c.Data[1]}, {c.Data[2], c.Data[3]}, {c.Data[4], c.Data[5]}}
			for _, p := range pts {
				if p.X < minX {
					minX = p.X
				}
				if p.Y < minY {
					minY = p.Y
				}
				if p.X > maxX {
					maxX = p.X
				}
				if p.Y > maxY {
					maxY = p.Y
				}
			}
			cur = Pt{c.Data[4], c.Data[5]}
		case Close:
			// no-op for bounds
		}
	}
	if minX > maxX || minY > maxY {
		return Rect{}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Sink receives replayed path commands. *gg.Context satisfies it.
type Sink interface {
	MoveTo(x, y float64)
	LineTo(x, y float64)
	QuadraticTo(cx, cy, x, y float64)
	CubicTo(cx1, cy1, cx2, cy2, x, y float64)
	ClosePath()
}

// Replay issues the recorded commands on s.
func (p *Path) Replay(s Sink) {
	f := func(v float32) float64 { return float64(v) }
	for _, c := range p.Cmds {
		d := c.Data
		switch c.Op {
		case MoveTo:
			s.MoveTo(f(d[0]), f(d[1]))
		case LineTo:
			s.LineTo(f(d[0]), f(d[1]))
		case QuadTo:
			s.QuadraticTo(f(d[0]), f(d[1]), f(d[2]), f(d[3]))
		case CubicTo:
			s.CubicTo(f(d[0]), f(d[1]), f(d[2]), f(d[3]), f(d[4]), f(d[5]))
		case Close:
			s.ClosePath()
		}
	}
}

// RoundedRect outlines r clockwise with quadratic corners whose control point is
// the rectangle corner itself. Radius is clamped to half the shorter side.
func RoundedRect(r Rect, radius float32) Path {
	radius = max(0, min(radius, min(r.W, r.H)/2))
	x0, y0 := r.X, r.Y
	x1, y1 := r.X+r.W, r.Y+r.H
	var p Path
	p.MoveTo(x0+radius, y0)
	p.LineTo(x1-radius, y0)
	p.QuadTo(x1, y0, x1, y0+radius)
	p.LineTo(x1, y1-radius)
	p.QuadTo(x1, y1, x1-radius, y1)
	p.LineTo(x0+radius, y1)
	p.QuadTo(x0, y1, x0, y1-radius)
	p.LineTo(x0, y0+radius)
	p.QuadTo(x0, y0, x0+radius, y0)
	p.Close()
	return p
}
