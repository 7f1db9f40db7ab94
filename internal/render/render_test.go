/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fogleman/gg"

	"visitingcard/internal/card"
	"visitingcard/internal/export"
	"visitingcard/internal/filter"
	"visitingcard/internal/textlayout"
	"visitingcard/internal/vector"
)

var (
	blue  = color.NRGBA{R: 0, G: 0, B: 200, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.NRGBA{R: 255, G: 0, B: 0, A: 255}
)

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// newTestRenderer uses the 7x13 bitmap face so text placement is deterministic.
func newTestRenderer(t *testing.T, style card.Style) *Renderer {
	t.Helper()
	r, err := New(style, nil, quietLogger(), WithProvider(textlayout.BasicProvider{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func noShadow() card.Style {
	s := card.DefaultStyle()
	s.Photo.Shadow = false
	for f, ts := range s.Text {
		ts.Shadow = false
		s.Text[f] = ts
	}
	return s
}

func rgbaAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

func TestRenderClipsAndFiltersPhoto(t *testing.T) {
	r := newTestRenderer(t, noShadow())
	img, err := r.Render(solid(736, 1104, blue), solid(50, 50, red), card.Record{Name: "Jane Doe"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 736 || b.Dy() != 1104 {
		t.Fatalf("canvas = %v", b)
	}
	// Center of the frame: filtered photo, gray.
	c := rgbaAt(img, 536, 350)
	if c.R != c.G || c.G != c.B {
		t.Fatalf("photo center not gray: %+v", c)
	}
	if want := filter.GrayPixel(255, 0, 0, filter.ContrastLuminance); absDiff(c.R, want) > 1 {
		t.Fatalf("photo center = %d, want about %d", c.R, want)
	}
	// Pixels clearly outside the rounded frame keep the template; pixels clearly
	// inside show the photo. The 2 px band along the outline is antialiased.
	ps := r.Style().Photo
	frame, radius := ps.Rect(), float32(ps.Radius)
	inner, outer := frame.Inset(2, 2), frame.Inset(-2, -2)
	for y := ps.Y - 4; y < ps.Y+ps.Height+4; y += 3 {
		for x := ps.X - 4; x < ps.X+ps.Width+4; x += 3 {
			pt := vector.Pt{X: float32(x) + 0.5, Y: float32(y) + 0.5}
			got := rgbaAt(img, int(x), int(y))
			switch {
			case vector.RoundedContains(inner, radius-2, pt):
				if got == blue {
					t.Fatalf("(%v,%v) inside the frame shows template", x, y)
				}
			case !vector.RoundedContains(outer, radius+2, pt):
				if got != blue {
					t.Fatalf("(%v,%v) outside the frame = %+v, want template", x, y, got)
				}
			}
		}
	}
	// Straight edge just inside the frame is photo.
	if got := rgbaAt(img, 376, 350); got == blue {
		t.Fatalf("edge pixel still template")
	}
}

func TestRenderAcceptsFilterAlias(t *testing.T) {
	p := filepath.Join(t.TempDir(), "style.yaml")
	if err := os.WriteFile(p, []byte("photo:\n  filter: Mean\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	style, err := card.LoadStyle(p)
	if err != nil {
		t.Fatalf("LoadStyle: %v", err)
	}
	r := newTestRenderer(t, style)
	img, err := r.Render(solid(736, 1104, blue), solid(50, 50, red), card.Record{Name: "Jane Doe"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	c := rgbaAt(img, 536, 350)
	if want := filter.GrayPixel(255, 0, 0, filter.Average); c.R != c.G || c.G != c.B || absDiff(c.R, want) > 1 {
		t.Fatalf("photo center = %+v, want average gray %d", c, want)
	}

	// A style built in code with an alias renders the same way.
	s := noShadow()
	s.Photo.Filter = "average"
	if _, err := newTestRenderer(t, s).Render(solid(736, 1104, blue), solid(50, 50, red), card.Record{Name: "Jane Doe"}); err != nil {
		t.Fatalf("Render with in-code alias: %v", err)
	}
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestRenderDoesNotMutateInputs(t *testing.T) {
	r := newTestRenderer(t, card.DefaultStyle())
	tpl, photo := solid(736, 1104, blue), solid(40, 40, red)
	if _, err := r.Render(tpl, photo, card.Record{Name: "Jane Doe"}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if tpl.NRGBAAt(536, 350) != blue || photo.NRGBAAt(5, 5) != red {
		t.Fatalf("inputs were modified")
	}
}

func TestRenderDrawsNameText(t *testing.T) {
	r := newTestRenderer(t, noShadow())
	img, err := r.Render(solid(736, 1104, blue), solid(10, 10, red), card.Record{Name: "Jane"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// Short variant places the name at (46, 261); "Jane" is 28px wide in the 7x13 face.
	found := false
	for y := 261; y < 261+13 && !found; y++ {
		for x := 46; x < 46+28; x++ {
			if rgbaAt(img, x, y) == white {
				found = true
				break
			}
		}
	}
	if !found {
		t.Fatalf("no white name pixels in the name box")
	}
	// Nothing is drawn left of the anchor.
	for y := 261; y < 261+13; y++ {
		if got := rgbaAt(img, 45, y); got != blue {
			t.Fatalf("pixel (45,%d) = %+v, want template", y, got)
		}
	}
}

func TestRenderPhotoShadowFallsOutsideFrame(t *testing.T) {
	tpl := solid(736, 1104, white)
	photo := solid(20, 20, red)

	plain := newTestRenderer(t, noShadow())
	img, err := plain.Render(tpl, photo, card.Record{Name: "Jane"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := rgbaAt(img, 701, 350); got != white {
		t.Fatalf("without shadow (701,350) = %+v", got)
	}

	s := noShadow()
	s.Photo.Shadow = true
	shadowed := newTestRenderer(t, s)
	img, err = shadowed.Render(tpl, photo, card.Record{Name: "Jane"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	// Right of the frame (ends at x=698) but inside the offset silhouette.
	if got := rgbaAt(img, 701, 350); got.R > 230 {
		t.Fatalf("expected shadow at (701,350), got %+v", got)
	}
	// Far away from the photo the template is untouched.
	if got := rgbaAt(img, 20, 700); got != white {
		t.Fatalf("shadow leaked to (20,700): %+v", got)
	}
}

func TestWithShadowErrorLeavesSurfaceUntouched(t *testing.T) {
	r := newTestRenderer(t, card.DefaultStyle())
	dc := gg.NewContext(40, 40)
	dc.SetColor(blue)
	dc.Clear()
	before := rgbaAt(dc.Image(), 20, 20)
	boom := errors.New("boom")
	err := r.withShadow(dc, true, func(c *gg.Context) error {
		c.SetColor(red)
		c.DrawRectangle(10, 10, 20, 20)
		c.Fill()
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if got := rgbaAt(dc.Image(), 20, 20); got != before {
		t.Fatalf("surface changed after failed draw: %+v", got)
	}
}

func TestWithShadowComposites(t *testing.T) {
	r := newTestRenderer(t, card.DefaultStyle())
	dc := gg.NewContext(60, 60)
	dc.SetColor(white)
	dc.Clear()
	if err := r.withShadow(dc, true, func(c *gg.Context) error {
		c.SetColor(red)
		c.DrawRectangle(10, 10, 20, 20)
		c.Fill()
		return nil
	}); err != nil {
		t.Fatalf("withShadow: %v", err)
	}
	if got := rgbaAt(dc.Image(), 20, 20); got != red {
		t.Fatalf("layer pixel = %+v, want red", got)
	}
	// Default offset is (5,5): below-right of the square is darkened.
	if got := rgbaAt(dc.Image(), 32, 32); got.R >= 255 {
		t.Fatalf("no shadow at (32,32): %+v", got)
	}
	// A later draw on the surface carries no shadow.
	dc.SetColor(red)
	dc.DrawRectangle(45, 5, 5, 5)
	dc.Fill()
	if got := rgbaAt(dc.Image(), 52, 12); got != white {
		t.Fatalf("shadow state leaked: %+v", got)
	}
}

func TestRenderErrors(t *testing.T) {
	r := newTestRenderer(t, card.DefaultStyle())
	tpl, photo := solid(10, 10, blue), solid(10, 10, red)

	if _, err := r.Render(tpl, photo, card.Record{Name: "   "}); !errors.Is(err, textlayout.ErrInvalidInput) {
		t.Fatalf("blank name err = %v", err)
	}
	if _, err := r.Render(nil, photo, card.Record{Name: "Jane"}); !errors.Is(err, filter.ErrInvalidImage) {
		t.Fatalf("nil template err = %v", err)
	}
	if _, err := r.Render(tpl, image.NewNRGBA(image.Rect(0, 0, 0, 0)), card.Record{Name: "Jane"}); !errors.Is(err, filter.ErrInvalidImage) {
		t.Fatalf("empty photo err = %v", err)
	}
}

func TestRenderScalesSmallTemplate(t *testing.T) {
	r := newTestRenderer(t, noShadow())
	img, err := r.Render(solid(10, 15, blue), solid(10, 10, red), card.Record{Name: "Jane"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := rgbaAt(img, 700, 1080); got != blue {
		t.Fatalf("background not stretched: %+v", got)
	}
}

func TestRenderFullRecordLongName(t *testing.T) {
	r := newTestRenderer(t, card.DefaultStyle())
	rec := card.Record{
		Name:           "Maximilian Mustermann",
		Designation:    "Blockchain Engineer",
		Company:        "Timechain Labs",
		About:          "Builds payment channels and teaches distributed systems on weekends.",
		Organization:   "Timechain Labs",
		Email:          "max@example.com",
		Website:        "https://example.com",
		Phone:          "+49 441 000000",
		Location:       "Oldenburg",
		AreaOfInterest: "Layer two protocols",
	}
	if _, err := r.Render(solid(736, 1104, blue), solid(64, 64, red), rec); err != nil {
		t.Fatalf("Render: %v", err)
	}
}

func TestNewRejectsInvalidStyle(t *testing.T) {
	s := card.DefaultStyle()
	s.Canvas.Width = 0
	if _, err := New(s, nil, quietLogger()); err == nil {
		t.Fatalf("expected error for invalid style")
	}
	s = card.DefaultStyle()
	s.Fonts = []card.FontFile{{Family: "Barlow", Weight: 400, Path: filepath.Join(t.TempDir(), "nope.ttf")}}
	_, err := New(s, nil, quietLogger())
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "load font" {
		t.Fatalf("missing font err = %v", err)
	}
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestRenderFiles(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "template.png")
	photo := filepath.Join(dir, "photo.png")
	writePNG(t, tpl, solid(736, 1104, blue))
	writePNG(t, photo, solid(32, 32, red))

	r := newTestRenderer(t, card.DefaultStyle())
	out := filepath.Join(dir, "out", "jane.png")
	res, err := r.RenderFiles(context.Background(), Job{
		ID:       "job-1",
		Record:   card.Record{Name: "Jane Doe", Designation: "Engineer", Company: "Acme"},
		Template: tpl,
		Photo:    photo,
		Output:   out,
		Preset:   export.PresetWeb,
	})
	if err != nil {
		t.Fatalf("RenderFiles: %v", err)
	}
	if res.Variant != card.ShortName || res.Output != out {
		t.Fatalf("result = %+v", res)
	}
	got, err := LoadImage("read back", out)
	if err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	if b := got.Bounds(); b.Dx() != 368 || b.Dy() != 552 {
		t.Fatalf("web preset size = %v", b)
	}
}

func TestRenderFilesIOErrors(t *testing.T) {
	dir := t.TempDir()
	tpl := filepath.Join(dir, "template.png")
	writePNG(t, tpl, solid(736, 1104, blue))
	corrupt := filepath.Join(dir, "corrupt.png")
	if err := os.WriteFile(corrupt, []byte("not a png"), 0o600); err != nil {
		t.Fatal(err)
	}
	r := newTestRenderer(t, card.DefaultStyle())
	out := filepath.Join(dir, "out.png")

	cases := map[string]Job{
		"missing photo":    {Record: card.Record{Name: "Jane"}, Template: tpl, Photo: filepath.Join(dir, "nope.png"), Output: out},
		"corrupt template": {Record: card.Record{Name: "Jane"}, Template: corrupt, Photo: tpl, Output: out},
	}
	for label, job := range cases {
		_, err := r.RenderFiles(context.Background(), job)
		var ioErr *IOError
		if !errors.As(err, &ioErr) {
			t.Fatalf("%s: err = %v, want *IOError", label, err)
		}
		if !strings.HasPrefix(ioErr.Op, "load") {
			t.Fatalf("%s: op = %q", label, ioErr.Op)
		}
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output must not exist after failures: %v", err)
	}
}

func TestRenderFilesCanceled(t *testing.T) {
	r := newTestRenderer(t, card.DefaultStyle())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.RenderFiles(ctx, Job{Record: card.Record{Name: "Jane"}}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
