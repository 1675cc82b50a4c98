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

// rbtree implements the standard CLRS red-black tree algorithms over
// the directory entry array. Nodes are addressed by their uint32
// directory id rather than by pointer, per the on-disk encoding
// (directory.go's entries share one flat pool); noStream plays the
// role of the sentinel nil leaf and is always treated as black.
type rbtree struct {
	entries []*entry
	root    *uint32 // address of the owning storage's ChildID field
}

func (t *rbtree) color(id uint32) uint8 {
	if id == noStream {
		return colorBlack
	}
	return t.entries[id].Color
}

func (t *rbtree) setColor(id uint32, c uint8) {
	if id == noStream {
		return
	}
	t.entries[id].Color = c
}

func (t *rbtree) left(id uint32) uint32  { return t.entries[id].LeftSibID }
func (t *rbtree) right(id uint32) uint32 { return t.entries[id].RightSibID }

func (t *rbtree) name(id uint32) string {
	if t.entries[id].cachedName == "" {
		t.entries[id].cachedName = t.entries[id].name()
	}
	return t.entries[id].cachedName
}

// parent is derived by walking from root rather than stored, since
// the on-disk format has no parent pointer; this keeps the encoding
// identical to the format while still giving fixup routines parent
// access.
func (t *rbtree) parent(id uint32) uint32 {
	cur := *t.root
	var p uint32 = noStream
	for cur != noStream && cur != id {
		p = cur
		switch c := compareCFB(t.name(id), t.name(cur)); {
		case c < 0:
			cur = t.left(cur)
		case c > 0:
			cur = t.right(cur)
		default:
			return p
		}
	}
	return p
}

func (t *rbtree) rotateLeft(x uint32) {
	y := t.right(x)
	t.entries[x].RightSibID = t.left(y)
	p := t.parent(x)
	if p == noStream {
		*t.root = y
	} else if t.left(p) == x {
		t.entries[p].LeftSibID = y
	} else {
		t.entries[p].RightSibID = y
	}
	t.entries[y].LeftSibID = x
}

func (t *rbtree) rotateRight(x uint32) {
	y := t.left(x)
	t.entries[x].LeftSibID = t.right(y)
	p := t.parent(x)
	if p == noStream {
		*t.root = y
	} else if t.right(p) == x {
		t.entries[p].RightSibID = y
	} else {
		t.entries[p].LeftSibID = y
	}
	t.entries[y].RightSibID = x
}

// insert places id (already populated with a name) into the tree,
// restoring red-black invariants.
func (t *rbtree) insert(id uint32) {
	t.entries[id].LeftSibID = noStream
	t.entries[id].RightSibID = noStream
	t.entries[id].Color = colorRed

	if *t.root == noStream {
		*t.root = id
		t.setColor(id, colorBlack)
		return
	}
	cur := *t.root
	for {
		if compareCFB(t.name(id), t.name(cur)) < 0 {
			if t.left(cur) == noStream {
				t.entries[cur].LeftSibID = id
				break
			}
			cur = t.left(cur)
		} else {
			if t.right(cur) == noStream {
				t.entries[cur].RightSibID = id
				break
			}
			cur = t.right(cur)
		}
	}
	t.insertFixup(id)
}

func (t *rbtree) insertFixup(z uint32) {
	for t.color(t.parent(z)) == colorRed {
		p := t.parent(z)
		gp := t.parent(p)
		if gp == noStream {
			break
		}
		if p == t.left(gp) {
			y := t.right(gp)
			if t.color(y) == colorRed {
				t.setColor(p, colorBlack)
				t.setColor(y, colorBlack)
				t.setColor(gp, colorRed)
				z = gp
				continue
			}
			if z == t.right(p) {
				z = p
				t.rotateLeft(z)
				p = t.parent(z)
				gp = t.parent(p)
			}
			t.setColor(p, colorBlack)
			t.setColor(gp, colorRed)
			t.rotateRight(gp)
		} else {
			y := t.left(gp)
			if t.color(y) == colorRed {
				t.setColor(p, colorBlack)
				t.setColor(y, colorBlack)
				t.setColor(gp, colorRed)
				z = gp
				continue
			}
			if z == t.left(p) {
				z = p
				t.rotateRight(z)
				p = t.parent(z)
				gp = t.parent(p)
			}
			t.setColor(p, colorBlack)
			t.setColor(gp, colorRed)
			t.rotateLeft(gp)
		}
	}
	t.setColor(*t.root, colorBlack)
}

func (t *rbtree) transplant(u, v uint32) {
	p := t.parent(u)
	if p == noStream {
		*t.root = v
	} else if u == t.left(p) {
		t.entries[p].LeftSibID = v
	} else {
		t.entries[p].RightSibID = v
	}
}

func (t *rbtree) minimum(id uint32) uint32 {
	for t.left(id) != noStream {
		id = t.left(id)
	}
	return id
}

// remove deletes id from the tree, restoring red-black invariants.
func (t *rbtree) remove(z uint32) {
	y := z
	yOrigColor := t.color(y)
	var x, xParent uint32

	if t.left(z) == noStream {
		x = t.right(z)
		xParent = t.parent(z)
		t.transplant(z, t.right(z))
	} else if t.right(z) == noStream {
		x = t.left(z)
		xParent = t.parent(z)
		t.transplant(z, t.left(z))
	} else {
		y = t.minimum(t.right(z))
		yOrigColor = t.color(y)
		x = t.right(y)
		if t.parent(y) == z {
			xParent = y
		} else {
			xParent = t.parent(y)
			t.transplant(y, t.right(y))
			t.entries[y].RightSibID = t.right(z)
		}
		t.transplant(z, y)
		t.entries[y].LeftSibID = t.left(z)
		t.setColor(y, t.color(z))
	}
	if yOrigColor == colorBlack {
		t.removeFixup(x, xParent)
	}
}

func (t *rbtree) removeFixup(x, parent uint32) {
	for x != *t.root && t.color(x) == colorBlack {
		if parent == noStream {
			break
		}
		if x == t.left(parent) {
			w := t.right(parent)
			if t.color(w) == colorRed {
				t.setColor(w, colorBlack)
				t.setColor(parent, colorRed)
				t.rotateLeft(parent)
				w = t.right(parent)
			}
			if t.color(t.left(w)) == colorBlack && t.color(t.right(w)) == colorBlack {
				t.setColor(w, colorRed)
				x = parent
				parent = t.parent(x)
				continue
			}
			if t.color(t.right(w)) == colorBlack {
				t.setColor(t.left(w), colorBlack)
				t.setColor(w, colorRed)
				t.rotateRight(w)
				w = t.right(parent)
			}
			t.setColor(w, t.color(parent))
			t.setColor(parent, colorBlack)
			t.setColor(t.right(w), colorBlack)
			t.rotateLeft(parent)
			x = *t.root
		} else {
			w := t.left(parent)
			if t.color(w) == colorRed {
				t.setColor(w, colorBlack)
				t.setColor(parent, colorRed)
				t.rotateRight(parent)
				w = t.left(parent)
			}
			if t.color(t.right(w)) == colorBlack && t.color(t.left(w)) == colorBlack {
				t.setColor(w, colorRed)
				x = parent
				parent = t.parent(x)
				continue
			}
			if t.color(t.left(w)) == colorBlack {
				t.setColor(t.right(w), colorBlack)
				t.setColor(w, colorRed)
				t.rotateLeft(w)
				w = t.left(parent)
			}
			t.setColor(w, t.color(parent))
			t.setColor(parent, colorBlack)
			t.setColor(t.left(w), colorBlack)
			t.rotateRight(parent)
			x = *t.root
		}
	}
	t.setColor(x, colorBlack)
}

// find returns the id of the child named name, or noStream.
func (t *rbtree) find(name string) uint32 {
	cur := *t.root
	for cur != noStream {
		switch c := compareCFB(name, t.name(cur)); {
		case c == 0:
			return cur
		case c < 0:
			cur = t.left(cur)
		default:
			cur = t.right(cur)
		}
	}
	return noStream
}

// inorder returns every id in the tree in CFB key order.
func (t *rbtree) inorder() []uint32 {
	var out []uint32
	var walk func(id uint32)
	walk = func(id uint32) {
		if id == noStream {
			return
		}
		walk(t.left(id))
		out = append(out, id)
		walk(t.right(id))
	}
	walk(*t.root)
	return out
}
