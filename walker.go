// Copyright 2013 Richard Lehane. All rights reserved.
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

import "strings"

// splitPath normalizes a slash-delimited path into its non-empty,
// non-"." components, rejecting ".." per spec.md §4.7.
func splitPath(path string) ([]string, error) {
	path = strings.TrimPrefix(path, "/")
	path = strings.TrimSuffix(path, "/")
	if path == "" {
		return nil, nil
	}
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		switch c {
		case "", ".":
			continue
		case "..":
			return nil, newFormatError(ErrInvalidInput, "\"..\" is not permitted in a path", noStream)
		default:
			out = append(out, c)
		}
	}
	return out, nil
}

// tree returns the red-black tree of storageID's direct children.
func (cf *CompoundFile) tree(storageID uint32) *rbtree {
	return &rbtree{entries: cf.entries, root: &cf.entries[storageID].ChildID}
}

// resolvePath walks from the root storage to the entry named by path,
// returning its directory id.
func (cf *CompoundFile) resolvePath(path string) (uint32, error) {
	comps, err := splitPath(path)
	if err != nil {
		return noStream, err
	}
	cur := uint32(0)
	for i, c := range comps {
		if err := validateComponent(c); err != nil {
			return noStream, err
		}
		if !cf.entries[cur].isStorage() {
			return noStream, newFormatError(ErrNotFound, "path component is not a storage", cur)
		}
		id := cf.tree(cur).find(c)
		if id == noStream {
			return noStream, newFormatError(ErrNotFound, "no such entry: "+strings.Join(comps[:i+1], "/"), noStream)
		}
		cur = id
	}
	return cur, nil
}

// resolveParent resolves all but the last path component, returning
// the parent storage id and the final component name.
func (cf *CompoundFile) resolveParent(path string) (parent uint32, name string, err error) {
	comps, err := splitPath(path)
	if err != nil {
		return noStream, "", err
	}
	if len(comps) == 0 {
		return noStream, "", newFormatError(ErrInvalidInput, "path has no final component", noStream)
	}
	cur := uint32(0)
	for _, c := range comps[:len(comps)-1] {
		if !cf.entries[cur].isStorage() {
			return noStream, "", newFormatError(ErrNotFound, "path component is not a storage", cur)
		}
		id := cf.tree(cur).find(c)
		if id == noStream {
			return noStream, "", newFormatError(ErrNotFound, "no such storage: "+c, noStream)
		}
		cur = id
	}
	if !cf.entries[cur].isStorage() {
		return noStream, "", newFormatError(ErrNotFound, "path component is not a storage", cur)
	}
	last := comps[len(comps)-1]
	if err := validateComponent(last); err != nil {
		return noStream, "", err
	}
	return cur, last, nil
}

// childrenInOrder returns storageID's direct children in CFB key
// order.
func (cf *CompoundFile) childrenInOrder(storageID uint32) []uint32 {
	return cf.tree(storageID).inorder()
}

// ReadStorage returns the direct children of the storage at path, in
// CFB key order, as a snapshot slice (safe to range over even if the
// caller subsequently mutates the compound file).
func (cf *CompoundFile) ReadStorage(path string) ([]Entry, error) {
	id, err := cf.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if !cf.entries[id].isStorage() {
		return nil, newFormatError(ErrInvalidInput, "not a storage: "+path, noStream)
	}
	base := strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/")
	var out []Entry
	for _, childID := range cf.childrenInOrder(id) {
		childPath := cf.entryName(childID)
		if base != "" {
			childPath = base + "/" + childPath
		}
		out = append(out, cf.toEntry(childID, childPath))
	}
	return out, nil
}

// Walk performs a pre-order traversal of the whole compound file
// starting at the root, emitting every storage (itself, then its
// children in key order) and every stream.
func (cf *CompoundFile) Walk() []Entry {
	var out []Entry
	var visit func(id uint32, path string)
	visit = func(id uint32, path string) {
		out = append(out, cf.toEntry(id, path))
		if !cf.entries[id].isStorage() {
			return
		}
		for _, childID := range cf.childrenInOrder(id) {
			name := cf.entryName(childID)
			childPath := name
			if path != "" {
				childPath = path + "/" + name
			}
			visit(childID, childPath)
		}
	}
	visit(0, "")
	return out
}

// WalkStorage performs a pre-order traversal rooted at the storage
// named by path (path itself is not included; its children are).
func (cf *CompoundFile) WalkStorage(path string) ([]Entry, error) {
	id, err := cf.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if !cf.entries[id].isStorage() {
		return nil, newFormatError(ErrInvalidInput, "not a storage: "+path, noStream)
	}
	base := strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/")
	var out []Entry
	var visit func(id uint32, path string)
	visit = func(id uint32, path string) {
		for _, childID := range cf.childrenInOrder(id) {
			name := cf.entryName(childID)
			childPath := name
			if path != "" {
				childPath = path + "/" + name
			}
			out = append(out, cf.toEntry(childID, childPath))
			if cf.entries[childID].isStorage() {
				visit(childID, childPath)
			}
		}
	}
	visit(id, base)
	return out, nil
}
