/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"fmt"
	"image"
	"strings"

	"github.com/fogleman/gg"
	qrcode "github.com/skip2/go-qrcode"

	"visitingcard/internal/card"
	"visitingcard/internal/textlayout"
)

// VCard returns a vCard 3.0 document for rec.
func VCard(rec card.Record) string {
	var b strings.Builder
	line := func(key, val string) {
		if val == "" {
			return
		}
		b.WriteString(key)
		b.WriteByte(':')
		b.WriteString(vcardEscape(val))
		b.WriteString("\r\n")
	}
	b.WriteString("BEGIN:VCARD\r\nVERSION:3.0\r\n")
	line("FN", rec.Name)
	line("TITLE", rec.Designation)
	org := rec.Company
	if org == "" {
		org = rec.Organization
	}
	line("ORG", org)
	line("EMAIL", rec.Email)
	line("TEL", rec.Phone)
	line("URL", rec.Website)
	if rec.Location != "" {
		b.WriteString("ADR:;;" + vcardEscape(rec.Location) + ";;;;\r\n")
	}
	line("NOTE", rec.About)
	b.WriteString("END:VCARD\r\n")
	return b.String()
}

var vcardEscaper = strings.NewReplacer(`\`, `\\`, ",", `\,`, ";", `\;`, "\n", `\n`)

func vcardEscape(s string) string { return vcardEscaper.Replace(s) }

// QRContent returns the text encoded into the card's QR code.
// It fails with textlayout.ErrInvalidInput when there is nothing to encode.
func QRContent(mode string, rec card.Record) (string, error) {
	switch mode {
	case "website":
		if rec.Website == "" {
			return "", fmt.Errorf("website: %w", textlayout.ErrInvalidInput)
		}
		return rec.Website, nil
	case "", "vcard":
		if rec.Name == "" {
			return "", fmt.Errorf("vcard: %w", textlayout.ErrInvalidInput)
		}
		return VCard(rec), nil
	}
	return "", fmt.Errorf("unknown qr content %q", mode)
}

// QRImage encodes content as a borderless QR code of size x size pixels.
func QRImage(content string, size int) (image.Image, error) {
	q, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	q.DisableBorder = true
	return q.Image(size), nil
}

// QRPNG encodes content as a PNG QR code with the standard quiet zone.
func QRPNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, textlayout.ErrInvalidInput
	}
	return qrcode.Encode(content, qrcode.Medium, size)
}

func (r *Renderer) drawQR(dc *gg.Context, rec card.Record) error {
	q := r.style.QR
	content, err := QRContent(q.Content, rec)
	if err != nil {
		return err
	}
	img, err := QRImage(content, q.Size)
	if err != nil {
		return err
	}
	dc.DrawImage(img, q.X, q.Y)
	return nil
}
