/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"visitingcard/internal/card"
	"visitingcard/internal/config"
	"visitingcard/internal/crash"
	"visitingcard/internal/export"
	applog "visitingcard/internal/log"
	"visitingcard/internal/render"
	"visitingcard/internal/server"
	"visitingcard/internal/storage"
	"visitingcard/internal/version"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "visitingcard: visiting card renderer")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  visitingcard version|-v|--version                              Show version")
	fmt.Fprintln(w, "  visitingcard render <record> <photo> <out.png> [template] [preset] Render one card")
	fmt.Fprintln(w, "  visitingcard serve [addr]                                      Serve the HTTP API")
	fmt.Fprintln(w, "  visitingcard history [n] [query]                               List or search recent renders")
	fmt.Fprintln(w, "  visitingcard qr <text> <out.png> [size]                        Write a QR code PNG")
	fmt.Fprintln(w, "  visitingcard style-dump                                        Print the effective card style as YAML")
	fmt.Fprintln(w)
	presets := make([]string, 0, 3)
	for _, p := range export.Presets() {
		presets = append(presets, string(p))
	}
	fmt.Fprintf(w, "Presets: %s\n", strings.Join(presets, ", "))
}

func main() {
	defer crash.Recover("")
	if code := run(os.Args[1:], os.Stdout, os.Stderr); code != 0 {
		os.Exit(code)
	}
}

// run executes one command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, cfgErr := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
		Writer:    stderr,
	})
	l := applog.WithComponent("cli")
	if cfgErr != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", cfgErr))
	}
	l.Debug("start", slog.Int("args", len(args)))

	if len(args) == 0 {
		usage(stdout)
		return 0
	}
	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintln(stdout, version.String())
		return 0
	case "render":
		if len(args) < 4 {
			fmt.Fprintln(stderr, "render requires <record> <photo> <out.png>")
			usage(stderr)
			return 2
		}
		return cmdRender(cfg, args[1:], stdout, stderr, l)
	case "serve":
		addr := cfg.Server.Addr
		if len(args) >= 2 {
			addr = args[1]
		}
		return cmdServe(cfg, addr, stderr, l)
	case "history":
		return cmdHistory(cfg, args[1:], stdout, stderr)
	case "qr":
		if len(args) < 3 {
			fmt.Fprintln(stderr, "qr requires <text> <out.png>")
			usage(stderr)
			return 2
		}
		return cmdQR(args[1:], stdout, stderr)
	case "style-dump":
		style, err := loadStyle(cfg)
		if err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 1
		}
		data, err := style.YAML()
		if err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 1
		}
		_, _ = stdout.Write(data)
		return 0
	}
	fmt.Fprintf(stderr, "unknown command %q\n", args[0])
	usage(stderr)
	return 2
}

func loadStyle(cfg config.AppConfig) (card.Style, error) {
	if cfg.Render.StyleFile == "" {
		return card.DefaultStyle(), nil
	}
	return card.LoadStyle(cfg.Render.StyleFile)
}

func newRenderer(cfg config.AppConfig) (*render.Renderer, error) {
	style, err := loadStyle(cfg)
	if err != nil {
		return nil, err
	}
	return render.New(style, nil, applog.L())
}

func openHistory(cfg config.AppConfig) (*storage.History, error) {
	path, err := cfg.HistoryPath()
	if err != nil {
		return nil, err
	}
	return storage.OpenHistory(path)
}

func cmdRender(cfg config.AppConfig, args []string, stdout, stderr io.Writer, l *slog.Logger) int {
	recordPath, photo, out := args[0], args[1], args[2]
	tpl := cfg.Render.Template
	if len(args) >= 4 && args[3] != "" {
		tpl = args[3]
	}
	preset := export.PresetPrint
	if len(args) >= 5 {
		p, err := export.ParsePreset(args[4])
		if err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 2
		}
		preset = p
	}
	if !filepath.IsAbs(out) && filepath.Dir(out) == "." && cfg.Render.OutputDir != "" {
		out = filepath.Join(cfg.Render.OutputDir, out)
	}

	rec, err := card.LoadRecord(recordPath)
	if err != nil {
		l.Error("load record failed", slog.Any("err", err))
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	r, err := newRenderer(cfg)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	res, err := r.RenderFiles(context.Background(), render.Job{
		ID:       strings.TrimSuffix(filepath.Base(out), filepath.Ext(out)),
		Record:   rec,
		Template: tpl,
		Photo:    photo,
		Output:   out,
		Preset:   preset,
	})
	if err != nil {
		l.Error("render failed", slog.Any("err", err))
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	if cfg.History.Enabled {
		recordHistory(cfg, rec, res, tpl, photo, preset, l)
	}
	fmt.Fprintf(stdout, "Wrote %s (%s name layout)\n", res.Output, res.Variant)
	return 0
}

// recordHistory is best effort: a broken history never fails a render.
func recordHistory(cfg config.AppConfig, rec card.Record, res render.Result, tpl, photo string, preset export.PresetName, l *slog.Logger) {
	h, err := openHistory(cfg)
	if err != nil {
		l.Warn("history unavailable", slog.Any("err", err))
		return
	}
	defer h.Close()
	thumb, err := export.ThumbnailPNG(res.Image, 128)
	if err != nil {
		l.Warn("thumbnail failed", slog.Any("err", err))
	}
	b := res.Image.Bounds()
	rec = rec.Normalize()
	if _, err := h.Add(context.Background(), storage.Entry{
		Name:        rec.Name,
		Designation: rec.Designation,
		Variant:     res.Variant.String(),
		Preset:      string(preset),
		Template:    tpl,
		Photo:       photo,
		Output:      res.Output,
		Width:       b.Dx(),
		Height:      b.Dy(),
		Thumb:       thumb,
	}); err != nil {
		l.Warn("history insert failed", slog.Any("err", err))
		return
	}
	if cfg.History.Keep > 0 {
		if n, err := h.Prune(context.Background(), cfg.History.Keep); err != nil {
			l.Warn("history prune failed", slog.Any("err", err))
		} else if n > 0 {
			l.Debug("history pruned", slog.Int64("removed", n))
		}
	}
}

func cmdServe(cfg config.AppConfig, addr string, stderr io.Writer, l *slog.Logger) int {
	r, err := newRenderer(cfg)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	opts := server.Options{Renderer: r, MaxUpload: cfg.Server.MaxUploadBytes()}
	if cfg.Render.Template != "" {
		tpl, err := render.LoadImage("load template", cfg.Render.Template)
		if err != nil {
			// requests may still upload their own template
			l.Warn("default template unavailable", slog.Any("err", err))
		} else {
			opts.Template = tpl
		}
	}
	if cfg.History.Enabled {
		h, err := openHistory(cfg)
		if err != nil {
			fmt.Fprintln(stderr, "Error:", err)
			return 1
		}
		defer h.Close()
		opts.History = h
	}
	srv, err := server.New(opts)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx, addr); err != nil {
		l.Error("server failed", slog.Any("err", err))
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

func cmdHistory(cfg config.AppConfig, args []string, stdout, stderr io.Writer) int {
	limit := 20
	if len(args) >= 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			fmt.Fprintln(stderr, "history count must be a positive number")
			return 2
		}
		limit = n
	}
	h, err := openHistory(cfg)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	defer h.Close()
	var entries []storage.Entry
	if len(args) >= 2 {
		entries, err = h.Search(context.Background(), strings.Join(args[1:], " "), limit)
	} else {
		entries, err = h.List(context.Background(), limit)
	}
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No renders recorded.")
		return 0
	}
	for _, e := range entries {
		fmt.Fprintf(stdout, "%4d  %s  %-24s %-6s %-5s %s\n",
			e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Name, e.Variant, e.Preset, e.Output)
	}
	return 0
}

func cmdQR(args []string, stdout, stderr io.Writer) int {
	size := 256
	if len(args) >= 3 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n <= 0 {
			fmt.Fprintln(stderr, "qr size must be a positive number")
			return 2
		}
		size = n
	}
	data, err := render.QRPNG(args[0], size)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	if err := os.WriteFile(args[1], data, 0o644); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	fmt.Fprintf(stdout, "Wrote %s\n", args[1])
	return 0
}
