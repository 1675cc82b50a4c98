// Copyright 2024 The gocfb Authors.
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

package cfb

import "testing"

func TestNameRoundTrip(t *testing.T) {
	names := []string{"Root Entry", "A", "Ab", "aaa", "", "éclair"}
	for _, n := range names {
		d := &directoryEntryFields{}
		if err := d.setName(n); err != nil {
			t.Fatalf("setName(%q): %v", n, err)
		}
		if got := d.name(); got != n {
			t.Errorf("name round trip: setName(%q), name() = %q", n, got)
		}
	}
}

func TestSetNameTooLong(t *testing.T) {
	d := &directoryEntryFields{}
	long := make([]rune, 32)
	for i := range long {
		long[i] = 'x'
	}
	if err := d.setName(string(long)); err == nil {
		t.Error("setName with 32 code units should fail, got nil error")
	}
}

func TestCompareCFBOrdering(t *testing.T) {
	// CFB orders by UTF-16 length first, then case-folded lexicographic.
	names := []string{"/B", "/Ab", "/aaa"}
	want := []string{"/B", "/Ab", "/aaa"}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			c := compareCFB(names[i], names[j])
			wantLess := i < j // already in expected sorted order
			if (c < 0) != wantLess && c != 0 {
				t.Errorf("compareCFB(%q, %q) = %d, ordering relative to %v unexpected", names[i], names[j], c, want)
			}
		}
	}
	if compareCFB("abc", "ABC") != 0 {
		t.Error("compareCFB should treat ASCII case as equivalent for same-length names")
	}
	if compareCFB("ab", "abc") >= 0 {
		t.Error("shorter name should sort before longer name regardless of content")
	}
}

func TestValidateComponent(t *testing.T) {
	bad := []string{"", "a/b", "a\\b", "a:b", "a!b"}
	for _, n := range bad {
		if err := validateComponent(n); err == nil {
			t.Errorf("validateComponent(%q) should fail", n)
		}
	}
	if err := validateComponent("Normal Name"); err != nil {
		t.Errorf("validateComponent(\"Normal Name\") unexpected error: %v", err)
	}
}

func TestEntryPredicates(t *testing.T) {
	e := newEmptyEntry()
	if !e.isFree() {
		t.Error("fresh empty entry should be free")
	}
	e.ObjectType = typeStorage
	if !e.isStorage() || e.isStream() || e.isRoot() {
		t.Error("storage entry predicates wrong")
	}
	e.ObjectType = typeRootStorage
	if !e.isStorage() || !e.isRoot() {
		t.Error("root entry predicates wrong")
	}
	e.ObjectType = typeStream
	if !e.isStream() || e.isStorage() {
		t.Error("stream entry predicates wrong")
	}
}
