/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package card

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"
)

// Record is the person data printed on one card. Only Name is required; every
// other field is skipped at render time when empty.
type Record struct {
	Name           string `json:"name" yaml:"name"`
	Designation    string `json:"designation,omitempty" yaml:"designation,omitempty"`
	Company        string `json:"company,omitempty" yaml:"company,omitempty"`
	Organization   string `json:"organization,omitempty" yaml:"organization,omitempty"`
	About          string `json:"about,omitempty" yaml:"about,omitempty"`
	Email          string `json:"email,omitempty" yaml:"email,omitempty"`
	Website        string `json:"website,omitempty" yaml:"website,omitempty"`
	Phone          string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Location       string `json:"location,omitempty" yaml:"location,omitempty"`
	AreaOfInterest string `json:"area_of_interest,omitempty" yaml:"area_of_interest,omitempty"`
}

//go:embed record.schema.json
var recordSchema []byte

// ErrInvalidRecord wraps schema violations reported by ValidateRecordJSON.
var ErrInvalidRecord = errors.New("card: invalid record")

// Normalize returns a copy with every field in NFC form, trimmed, and with
// inner whitespace runs collapsed to a single space.
func (r Record) Normalize() Record {
	for _, p := range []*string{
		&r.Name, &r.Designation, &r.Company, &r.Organization, &r.About,
		&r.Email, &r.Website, &r.Phone, &r.Location, &r.AreaOfInterest,
	} {
		*p = normalizeText(*p)
	}
	return r
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

// Value returns the raw text of a field. Name and Designation return the record
// values as-is; the composed designation is built by DesignationText.
func (r Record) Value(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldDesignation:
		return r.Designation
	case FieldAbout:
		return r.About
	case FieldOrganization:
		return r.Organization
	case FieldEmail:
		return r.Email
	case FieldWebsite:
		return r.Website
	case FieldPhone:
		return r.Phone
	case FieldLocation:
		return r.Location
	case FieldAreaOfInterest:
		return r.AreaOfInterest
	}
	return ""
}

// ValidateRecordJSON checks data against the embedded record schema.
func ValidateRecordJSON(data []byte) error {
	res, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(recordSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidRecord, strings.Join(msgs, "; "))
}

// ParseRecordJSON validates and decodes a JSON record and normalizes it.
func ParseRecordJSON(data []byte) (Record, error) {
	if err := ValidateRecordJSON(data); err != nil {
		return Record{}, err
	}
	var r Record
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&r); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	r = r.Normalize()
	if r.Name == "" {
		return Record{}, fmt.Errorf("%w: name is blank", ErrInvalidRecord)
	}
	return r, nil
}

// LoadRecord reads a record file. Files ending in .yaml or .yml are parsed as
// YAML, everything else as JSON; both go through the same schema.
func LoadRecord(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("read record %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Record{}, fmt.Errorf("parse record %s: %w", path, err)
		}
		if data, err = json.Marshal(doc); err != nil {
			return Record{}, fmt.Errorf("convert record %s: %w", path, err)
		}
	}
	r, err := ParseRecordJSON(data)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}
