// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/poiesic/kinfolk/core"
	"gopkg.in/yaml.v3"
)

// recordsFile is the on-disk layout accepted by the import command.
//
//	stories:
//	  - title: Grandma's Dumplings
//	    content: Every New Year grandma folded dumplings...
//	    people: [Grandma Li, Mei]
//	events:
//	  - name: Reunion 2024
//	    start_date: 2024-02-10
type recordsFile struct {
	Stories  []*core.Story    `yaml:"stories"`
	Events   []*core.Event    `yaml:"events"`
	Heritage []*core.Heritage `yaml:"heritage"`
	Health   []*core.Health   `yaml:"health"`
	People   []*core.Person   `yaml:"people"`
}

// records flattens the file, skipping empty list entries.
func (f *recordsFile) records() []core.Record {
	records := make([]core.Record, 0, len(f.Stories)+len(f.Events)+len(f.Heritage)+len(f.Health)+len(f.People))
	for _, r := range f.Stories {
		if r != nil {
			records = append(records, r)
		}
	}
	for _, r := range f.Events {
		if r != nil {
			records = append(records, r)
		}
	}
	for _, r := range f.Heritage {
		if r != nil {
			records = append(records, r)
		}
	}
	for _, r := range f.Health {
		if r != nil {
			records = append(records, r)
		}
	}
	for _, r := range f.People {
		if r != nil {
			records = append(records, r)
		}
	}
	return records
}

// loadRecordsFile parses a YAML records file. Records without an explicit
// id get one derived from their kind and title, so importing the same file
// twice updates records in place instead of duplicating them.
func loadRecordsFile(path string) ([]core.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file recordsFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	records := file.records()
	for i, r := range records {
		title, _ := core.TitleAndBody(r)
		if title == "" {
			return nil, fmt.Errorf("%s: %s record %d has no title or name", path, r.Kind(), i+1)
		}
		if r.RecordID() == 0 {
			r.SetRecordID(core.IDFromContent(string(r.Kind()) + "\x00" + title))
		}
	}
	return records, nil
}
