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

func buildTestTree(names []string) (*rbtree, []*entry) {
	entries := make([]*entry, len(names))
	for i, n := range names {
		e := newEmptyEntry()
		e.setName(n)
		entries[i] = e
	}
	var root uint32 = noStream
	tr := &rbtree{entries: entries, root: &root}
	for i := range entries {
		tr.insert(uint32(i))
	}
	return tr, entries
}

func TestRBTreeInorderMatchesCFBOrder(t *testing.T) {
	names := []string{"Golf", "Bravo", "Delta", "Alpha", "Charlie", "Echo", "Foxtrot"}
	tr, entries := buildTestTree(names)
	order := tr.inorder()
	if len(order) != len(names) {
		t.Fatalf("inorder returned %d ids, want %d", len(order), len(names))
	}
	for i := 1; i < len(order); i++ {
		prev := entries[order[i-1]].name()
		cur := entries[order[i]].name()
		if compareCFB(prev, cur) >= 0 {
			t.Errorf("inorder not sorted: %q before %q", prev, cur)
		}
	}
}

func TestRBTreeFind(t *testing.T) {
	names := []string{"Golf", "Bravo", "Delta", "Alpha", "Charlie"}
	tr, _ := buildTestTree(names)
	for _, n := range names {
		if id := tr.find(n); id == noStream {
			t.Errorf("find(%q) not found", n)
		}
	}
	if id := tr.find("Missing"); id != noStream {
		t.Errorf("find(\"Missing\") = %d, want noStream", id)
	}
}

func TestRBTreeRemove(t *testing.T) {
	names := []string{"Golf", "Bravo", "Delta", "Alpha", "Charlie", "Echo", "Foxtrot", "Hotel"}
	tr, entries := buildTestTree(names)
	victim := tr.find("Delta")
	if victim == noStream {
		t.Fatal("Delta not found before removal")
	}
	tr.remove(victim)
	if tr.find("Delta") != noStream {
		t.Error("Delta still found after removal")
	}
	order := tr.inorder()
	if len(order) != len(names)-1 {
		t.Fatalf("inorder after remove returned %d ids, want %d", len(order), len(names)-1)
	}
	for i := 1; i < len(order); i++ {
		prev := entries[order[i-1]].name()
		cur := entries[order[i]].name()
		if compareCFB(prev, cur) >= 0 {
			t.Errorf("inorder not sorted after remove: %q before %q", prev, cur)
		}
	}
}
