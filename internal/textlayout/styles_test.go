/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textlayout

import (
	"image/color"
	"testing"
)

func TestBuiltinStyles(t *testing.T) {
	for _, name := range []string{"Name", "Designation", "About", "Detail"} {
		st, ok := GetStyle(name)
		if !ok {
			t.Fatalf("%s style missing", name)
		}
		if st.LineHeight <= 0 || st.Font.SizePx <= 0 {
			t.Fatalf("%s style incomplete: %+v", name, st)
		}
	}
	if st, _ := GetStyle("Name"); !st.Shadow {
		t.Fatalf("Name style should be shadowed")
	}
	if st, _ := GetStyle("Detail"); st.Font.Weight != 500 {
		t.Fatalf("Detail weight = %d, want 500", st.Font.Weight)
	}
}

func TestStyleBlock(t *testing.T) {
	st, _ := GetStyle("About")
	b, err := st.Block("As a Blockchain Engineer", 52, 612, 634)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if b.Color != (color.NRGBA{R: 0x11, G: 0x2d, B: 0x44, A: 0xff}) {
		t.Fatalf("color = %#v", b.Color)
	}
	if b.LineHeight != 34 || b.MaxWidth != 634 || b.Align != AlignLeft {
		t.Fatalf("unexpected block: %+v", b)
	}
}

func TestParseHexColor(t *testing.T) {
	cases := map[string]color.NRGBA{
		"#fff":      {255, 255, 255, 255},
		"#000000":   {0, 0, 0, 255},
		"11223380":  {0x11, 0x22, 0x33, 0x80},
		" #112D44 ": {0x11, 0x2d, 0x44, 0xff},
	}
	for in, want := range cases {
		got, err := ParseHexColor(in)
		if err != nil || got != want {
			t.Fatalf("ParseHexColor(%q) = %#v, %v", in, got, err)
		}
	}
	for _, bad := range []string{"", "#12", "#zzzzzz"} {
		if _, err := ParseHexColor(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
