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
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"

	"visitingcard/internal/card"
	"visitingcard/internal/export"
	applog "visitingcard/internal/log"
)

// IOError reports a failed file operation on a template, photo, font or output.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string { return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err) }

func (e *IOError) Unwrap() error { return e.Err }

// LoadImage opens and decodes an image file, honoring EXIF orientation.
// Missing and undecodable files both yield an *IOError.
func LoadImage(op, path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &IOError{Op: op, Path: path, Err: err}
	}
	return img, nil
}

// Job is one file-to-file render.
type Job struct {
	ID       string
	Record   card.Record
	Template string
	Photo    string
	Output   string
	Preset   export.PresetName
}

// Result describes a finished job.
type Result struct {
	Output  string
	Image   image.Image
	Variant card.Variant
	Took    time.Duration
}

// RenderFiles loads the job's images, renders the card and writes it to
// job.Output. Nothing is written when any step fails.
func (r *Renderer) RenderFiles(ctx context.Context, job Job) (Result, error) {
	start := time.Now()
	if job.ID != "" {
		ctx = applog.ContextWithJob(ctx, job.ID)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	tpl, err := LoadImage("load template", job.Template)
	if err != nil {
		return Result{}, err
	}
	photo, err := LoadImage("load photo", job.Photo)
	if err != nil {
		return Result{}, err
	}
	img, err := r.Render(tpl, photo, job.Record)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	preset := job.Preset
	if preset == "" {
		preset = export.PresetPrint
	}
	out, err := export.Apply(img, preset)
	if err != nil {
		return Result{}, err
	}
	if err := export.WritePNG(job.Output, out); err != nil {
		return Result{}, &IOError{Op: "write card", Path: job.Output, Err: err}
	}
	res := Result{
		Output:  job.Output,
		Image:   out,
		Variant: r.style.Variant(job.Record.Normalize().Name),
		Took:    time.Since(start),
	}
	r.log.InfoContext(ctx, "card written",
		slog.String("output", job.Output),
		slog.String("preset", string(preset)),
		slog.String("variant", res.Variant.String()),
		slog.Duration("took", res.Took),
	)
	return res, nil
}
