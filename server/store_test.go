// Licensed under the Apache License, Version 2.0 (the "License"); you may not
// use this file except in compliance with the License. You may obtain a copy of
// the License at
//
//  http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
// WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
// License for the specific language governing permissions and limitations under
// the License.

package server

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseRev(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input   string
		want    revision
		wantErr bool
	}{
		{input: "1-abc", want: revision{gen: 1, id: "abc"}},
		{input: "17-967a00dff5e02add41819138abb3284d", want: revision{gen: 17, id: "967a00dff5e02add41819138abb3284d"}},
		{input: "bogus", wantErr: true},
		{input: "-abc", wantErr: true},
		{input: "0-abc", wantErr: true},
		{input: "x-abc", wantErr: true},
		{input: "1-", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, err := parseRev(tt.input)
			if tt.wantErr != (err != nil) {
				t.Fatalf("Unexpected error: %v", err)
			}
			if d := cmp.Diff(tt.want, got, cmp.AllowUnexported(revision{})); d != "" {
				t.Error(d)
			}
		})
	}
}

func TestValidDBName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		want bool
	}{
		{name: "abc", want: true},
		{name: "a1_$()+/-", want: true},
		{name: "squirrels_2026", want: true},
		{name: "_foo", want: false},
		{name: "1abc", want: false},
		{name: "ABC", want: false},
		{name: "", want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := validDBName.MatchString(tt.name); got != tt.want {
				t.Errorf("MatchString(%q) = %v", tt.name, got)
			}
		})
	}
}

// Document IDs sort in collation order, not byte order. Digits come before
// letters, and case is ignored for ordering purposes.
func TestAllDocsCollation(t *testing.T) {
	t.Parallel()
	db := &database{
		docs:       make(map[string]*record),
		tombstones: make(map[string]*record),
		diskSize:   initialDiskSize,
	}
	for _, id := range []string{"Zebra", "apple", "1024"} {
		if _, err := db.put(id, map[string]interface{}{"x": 1}); err != nil {
			t.Fatal(err)
		}
	}
	rows := db.allDocs()
	got := make([]string, 0, len(rows))
	for _, row := range rows {
		got = append(got, row.ID)
	}
	want := []string{"1024", "apple", "Zebra"}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}

func TestStripMeta(t *testing.T) {
	t.Parallel()
	got := stripMeta(map[string]interface{}{
		"_id":      "cow",
		"_rev":     "1-abc",
		"_deleted": false,
		"feet":     4,
		"sound":    "moo",
	})
	want := map[string]interface{}{
		"feet":  4,
		"sound": "moo",
	}
	if d := cmp.Diff(want, got); d != "" {
		t.Error(d)
	}
}

func TestDatabaseRevisionHistory(t *testing.T) {
	t.Parallel()
	db := &database{
		docs:       make(map[string]*record),
		tombstones: make(map[string]*record),
		diskSize:   initialDiskSize,
	}
	rev1, err := db.put("cow", map[string]interface{}{"feet": 4})
	if err != nil {
		t.Fatal(err)
	}
	rev2, err := db.put("cow", map[string]interface{}{"_rev": rev1, "feet": 5})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.put("cow", map[string]interface{}{"_rev": rev1, "feet": 6}); err != errConflict {
		t.Errorf("Unexpected error for stale rev: %v", err)
	}
	rev3, err := db.delete("cow", rev2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.get("cow"); err != errDocDeleted {
		t.Errorf("Unexpected error after delete: %v", err)
	}
	if _, err := db.delete("cow", rev3); err != errDocDeleted {
		t.Errorf("Unexpected error deleting tombstone: %v", err)
	}
	rev4, err := db.put("cow", map[string]interface{}{"feet": 4})
	if err != nil {
		t.Fatal(err)
	}
	for i, rev := range []string{rev1, rev2, rev3, rev4} {
		parsed, err := parseRev(rev)
		if err != nil {
			t.Fatal(err)
		}
		if parsed.gen != i+1 {
			t.Errorf("Unexpected generation for rev %d: %d", i+1, parsed.gen)
		}
	}
}
