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

import (
	"io"
	"strings"
	"time"
)

// CompoundFile is an open compound file container: a directory tree of
// storages and streams backed by a FAT-chained, sector-addressed
// container (an *os.File, a network-backed io.ReadWriteSeeker, or a
// *MemSector). All public operations address entries by slash
// delimited path from the root storage ("/").
//
// The FAT, miniFAT and directory array are loaded fully into memory on
// open and rewritten fully on every structural mutation (Design Notes:
// "simplest correct design... for files up to tens of MB"); there is
// no separate dirty-sector tracking.
type CompoundFile struct {
	rws      io.ReadWriteSeeker
	readOnly bool
	version  Version

	sectorSize uint32
	header     *headerFields

	fat     []uint32
	difat   []uint32 // ordered list of sector ids holding the FAT itself
	difatChain []uint32 // DIFAT overflow sectors, when len(difat) > 109

	miniFat         []uint32
	miniFatChain    []uint32
	miniStreamChain []uint32

	entries []*entry

	// generation increments on every structural mutation (allocation,
	// free, directory insert/remove/rename). Stream caches its chain
	// against this counter; see stream.go's resolved Open Question.
	generation uint64
}

// Open opens an existing compound file read-only. Mutating methods on
// the returned CompoundFile all fail with ErrReadOnly.
func Open(rws io.ReadWriteSeeker) (*CompoundFile, error) {
	return openCompoundFile(rws, true)
}

// OpenRW opens an existing compound file for reading and writing.
func OpenRW(rws io.ReadWriteSeeker) (*CompoundFile, error) {
	return openCompoundFile(rws, false)
}

func openCompoundFile(rws io.ReadWriteSeeker, readOnly bool) (*CompoundFile, error) {
	if _, err := rws.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	hdrBuf := make([]byte, lenHeader)
	if _, err := io.ReadFull(rws, hdrBuf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, newFormatError(ErrUnexpectedEOF, "backing container shorter than the header region", 0)
		}
		return nil, err
	}
	h, err := parseHeader(hdrBuf)
	if err != nil {
		return nil, err
	}
	cf := &CompoundFile{
		rws:        rws,
		readOnly:   readOnly,
		version:    h.version(),
		sectorSize: h.version().sectorSize(),
		header:     h,
		generation: 1,
	}
	if err := cf.loadDifat(); err != nil {
		return nil, err
	}
	if err := cf.loadFAT(); err != nil {
		return nil, err
	}
	if err := cf.loadDirectory(); err != nil {
		return nil, err
	}
	if err := cf.loadMiniFAT(); err != nil {
		return nil, err
	}
	return cf, nil
}

// Create initializes a brand new, empty compound file of the given
// version over rws, which must be empty (or will be overwritten from
// offset 0).
func Create(rws io.ReadWriteSeeker, v Version) (*CompoundFile, error) {
	if v != V3 && v != V4 {
		return nil, newFormatError(ErrInvalidInput, "unsupported version", noStream)
	}
	cf := &CompoundFile{
		rws:        rws,
		version:    v,
		sectorSize: v.sectorSize(),
		header:     newHeader(v),
		generation: 1,
	}
	root := newEmptyEntry()
	root.ObjectType = typeRootStorage
	root.Color = colorBlack
	if err := root.setName("Root Entry"); err != nil {
		return nil, err
	}
	now := timeToFiletime(time.Now())
	root.CreateDate = now
	root.ModifiedDate = now
	cf.entries = []*entry{root}
	if err := cf.flushMeta(); err != nil {
		return nil, err
	}
	return cf, nil
}

// CreateMem initializes a brand new compound file entirely in memory,
// returning both the CompoundFile and the MemSector backing it (the
// caller can persist MemSector.Bytes() elsewhere, or keep it purely as
// a scratch container; grounded on original_source's in-memory
// construction tests).
func CreateMem(v Version) (*CompoundFile, *MemSector, error) {
	m := NewMemSector()
	cf, err := Create(m, v)
	if err != nil {
		return nil, nil, err
	}
	return cf, m, nil
}

// loadDirectory reads the full directory array out of the directory
// sector chain. Grounded on the teacher's setDirEntries.
func (cf *CompoundFile) loadDirectory() error {
	if cf.header.DirectorySectorLoc == endOfChain {
		return newFormatError(ErrInvalidData, "compound file has no directory sector", 0)
	}
	chain, err := cf.walkChain(cf.header.DirectorySectorLoc, false)
	if err != nil {
		return err
	}
	perSector := int(dirEntriesPerSector(cf.sectorSize))
	cf.entries = make([]*entry, 0, len(chain)*perSector)
	for _, sn := range chain {
		buf, err := cf.readSector(sn)
		if err != nil {
			return err
		}
		for j := 0; j < perSector; j++ {
			d := unmarshalDirEntry(buf[j*int(dirEntrySize) : (j+1)*int(dirEntrySize)])
			cf.entries = append(cf.entries, &entry{directoryEntryFields: d})
		}
	}
	if len(cf.entries) == 0 || !cf.entries[0].isRoot() {
		return newFormatError(ErrInvalidData, "directory entry 0 is not the root storage", 0)
	}
	return nil
}

// flushDirectory rewrites the full directory array across its sector
// chain, growing the chain first if the array has grown, and padding
// any trailing slots in the last sector with free entries.
func (cf *CompoundFile) flushDirectory() error {
	perSector := int(dirEntriesPerSector(cf.sectorSize))
	neededSectors := (len(cf.entries) + perSector - 1) / perSector
	if neededSectors == 0 {
		neededSectors = 1
	}
	curSectors := 0
	if cf.header.DirectorySectorLoc != endOfChain {
		chain, err := cf.walkChain(cf.header.DirectorySectorLoc, false)
		if err != nil {
			return err
		}
		curSectors = len(chain)
	}
	if neededSectors > curSectors {
		if _, err := cf.extendOrAllocate(&cf.header.DirectorySectorLoc, neededSectors-curSectors); err != nil {
			return err
		}
	}
	chain, err := cf.walkChain(cf.header.DirectorySectorLoc, false)
	if err != nil {
		return err
	}
	empty := newEmptyEntry().directoryEntryFields
	for i, sn := range chain {
		buf := make([]byte, cf.sectorSize)
		for j := 0; j < perSector; j++ {
			idx := i*perSector + j
			d := empty
			if idx < len(cf.entries) {
				d = cf.entries[idx].directoryEntryFields
			}
			copy(buf[j*int(dirEntrySize):(j+1)*int(dirEntrySize)], d.marshal())
		}
		if err := cf.writeSector(sn, buf); err != nil {
			return err
		}
	}
	if cf.version == V4 {
		cf.header.NumDirectorySectors = uint32(len(chain))
	} else {
		cf.header.NumDirectorySectors = 0
	}
	return nil
}

// allocEntry returns the id of a free directory slot, reusing one left
// behind by a prior removal before growing the array.
func (cf *CompoundFile) allocEntry() uint32 {
	for i, e := range cf.entries {
		if e.isFree() {
			return uint32(i)
		}
	}
	cf.entries = append(cf.entries, newEmptyEntry())
	return uint32(len(cf.entries) - 1)
}

// writeHeader serializes and writes the header sector.
func (cf *CompoundFile) writeHeader() error {
	buf := cf.header.marshal(cf.sectorSize)
	if _, err := cf.rws.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err := cf.rws.Write(buf)
	return err
}

// flushMeta materializes the directory array, miniFAT, FAT/DIFAT and
// header, in that order (payload sectors are already written
// synchronously by Stream.Write before this is called). Every
// mutating operation below calls this directly, so the backing
// container is always fully consistent between calls; Flush is an
// idempotent no-op convenience wrapper around the same thing.
func (cf *CompoundFile) flushMeta() error {
	if cf.readOnly {
		return ErrReadOnly
	}
	if err := cf.flushDirectory(); err != nil {
		return err
	}
	if err := cf.flushMiniFAT(); err != nil {
		return err
	}
	if err := cf.flushDifat(); err != nil {
		return err
	}
	if err := cf.flushFAT(); err != nil {
		return err
	}
	return cf.writeHeader()
}

// Flush writes out any state not yet materialized to the backing
// container. Since every mutating method already flushes before
// returning, this is normally a no-op; it exists so callers have an
// explicit, idempotent point to call before handing the backing
// container to something else.
func (cf *CompoundFile) Flush() error {
	if cf.readOnly {
		return nil
	}
	return cf.flushMeta()
}

// Generation returns the structural-mutation counter current at the
// time of the call (see the Stream cache-invalidation scheme this
// backs). Callers doing their own change tracking or logging can use
// it to tell whether anything has moved since they last looked.
func (cf *CompoundFile) Generation() uint64 { return cf.generation }

func fullPath(base, name string) string {
	if base == "" {
		return name
	}
	return base + "/" + name
}

func normalizePath(path string) string {
	return strings.TrimSuffix(strings.TrimPrefix(path, "/"), "/")
}

// Exists reports whether path resolves to an entry.
func (cf *CompoundFile) Exists(path string) bool {
	_, err := cf.resolvePath(path)
	return err == nil
}

// IsStorage reports whether path resolves to a storage.
func (cf *CompoundFile) IsStorage(path string) (bool, error) {
	id, err := cf.resolvePath(path)
	if err != nil {
		return false, err
	}
	return cf.entries[id].isStorage(), nil
}

// IsStream reports whether path resolves to a stream.
func (cf *CompoundFile) IsStream(path string) (bool, error) {
	id, err := cf.resolvePath(path)
	if err != nil {
		return false, err
	}
	return cf.entries[id].isStream(), nil
}

// Entry returns a snapshot of the entry named by path.
func (cf *CompoundFile) Entry(path string) (Entry, error) {
	id, err := cf.resolvePath(path)
	if err != nil {
		return Entry{}, err
	}
	return cf.toEntry(id, normalizePath(path)), nil
}

// CreateStorage creates a new, empty storage at path. The parent
// storage must already exist; path itself must not.
func (cf *CompoundFile) CreateStorage(path string) (Entry, error) {
	if cf.readOnly {
		return Entry{}, ErrReadOnly
	}
	parent, name, err := cf.resolveParent(path)
	if err != nil {
		return Entry{}, err
	}
	if cf.tree(parent).find(name) != noStream {
		return Entry{}, newFormatError(ErrAlreadyExists, "entry already exists: "+path, noStream)
	}
	id := cf.allocEntry()
	e := cf.entries[id]
	e.ObjectType = typeStorage
	if err := e.setName(name); err != nil {
		return Entry{}, err
	}
	e.ChildID = noStream
	e.StartSector = endOfChain
	now := timeToFiletime(time.Now())
	e.CreateDate = now
	e.ModifiedDate = now
	cf.tree(parent).insert(id)
	cf.generation++
	if err := cf.flushMeta(); err != nil {
		return Entry{}, err
	}
	return cf.toEntry(id, normalizePath(path)), nil
}

// CreateStorageAll creates every storage named along path that does
// not already exist, like "mkdir -p". It fails if any existing
// intermediate component is a stream rather than a storage.
func (cf *CompoundFile) CreateStorageAll(path string) (Entry, error) {
	comps, err := splitPath(path)
	if err != nil {
		return Entry{}, err
	}
	if len(comps) == 0 {
		return Entry{}, newFormatError(ErrInvalidInput, "path has no final component", noStream)
	}
	var built string
	var last Entry
	for _, c := range comps {
		built = fullPath(built, c)
		id, err := cf.resolvePath(built)
		if err == nil {
			if !cf.entries[id].isStorage() {
				return Entry{}, newFormatError(ErrInvalidInput, "not a storage: "+built, noStream)
			}
			last = cf.toEntry(id, built)
			continue
		}
		last, err = cf.CreateStorage(built)
		if err != nil {
			return Entry{}, err
		}
	}
	return last, nil
}

// RemoveStorage removes the empty storage at path. It fails with
// ErrInvalidInput if the storage has any children.
func (cf *CompoundFile) RemoveStorage(path string) error {
	if cf.readOnly {
		return ErrReadOnly
	}
	if normalizePath(path) == "" {
		return newFormatError(ErrInvalidInput, "the root storage cannot be removed", noStream)
	}
	parent, name, err := cf.resolveParent(path)
	if err != nil {
		return err
	}
	id := cf.tree(parent).find(name)
	if id == noStream {
		return newFormatError(ErrNotFound, "no such entry: "+path, noStream)
	}
	if !cf.entries[id].isStorage() {
		return newFormatError(ErrInvalidInput, "not a storage: "+path, noStream)
	}
	if cf.entries[id].ChildID != noStream {
		return newFormatError(ErrInvalidInput, "storage has children: "+path, noStream)
	}
	cf.tree(parent).remove(id)
	cf.entries[id] = newEmptyEntry()
	cf.generation++
	return cf.flushMeta()
}

// RemoveStorageAll removes the storage at path along with everything
// inside it, recursively (supplemented from original_source's
// remove_storage_all).
func (cf *CompoundFile) RemoveStorageAll(path string) error {
	if cf.readOnly {
		return ErrReadOnly
	}
	id, err := cf.resolvePath(path)
	if err != nil {
		return err
	}
	if !cf.entries[id].isStorage() {
		return newFormatError(ErrInvalidInput, "not a storage: "+path, noStream)
	}
	if err := cf.removeChildrenRecursive(id); err != nil {
		return err
	}
	if normalizePath(path) == "" {
		cf.generation++
		return cf.flushMeta()
	}
	return cf.RemoveStorage(path)
}

// removeChildrenRecursive frees every descendant of storageID without
// touching storageID's own directory entry.
func (cf *CompoundFile) removeChildrenRecursive(storageID uint32) error {
	children := cf.childrenInOrder(storageID)
	for _, childID := range children {
		if cf.entries[childID].isStorage() {
			if err := cf.removeChildrenRecursive(childID); err != nil {
				return err
			}
		} else {
			mini := cf.entries[childID].StreamSize < miniStreamCutoffSize
			var err error
			if mini {
				err = cf.freeMiniChain(cf.entries[childID].StartSector)
			} else {
				err = cf.freeChain(cf.entries[childID].StartSector)
			}
			if err != nil {
				return err
			}
		}
	}
	for _, childID := range children {
		cf.entries[childID] = newEmptyEntry()
	}
	cf.entries[storageID].ChildID = noStream
	return nil
}

// Rename changes the final path component of the entry at path,
// re-keying it in its parent's tree.
func (cf *CompoundFile) Rename(path, newName string) error {
	if cf.readOnly {
		return ErrReadOnly
	}
	if err := validateComponent(newName); err != nil {
		return err
	}
	parent, name, err := cf.resolveParent(path)
	if err != nil {
		return err
	}
	id := cf.tree(parent).find(name)
	if id == noStream {
		return newFormatError(ErrNotFound, "no such entry: "+path, noStream)
	}
	if cf.tree(parent).find(newName) != noStream {
		return newFormatError(ErrAlreadyExists, "entry already exists: "+newName, noStream)
	}
	cf.tree(parent).remove(id)
	if err := cf.entries[id].setName(newName); err != nil {
		cf.tree(parent).insert(id)
		return err
	}
	cf.entries[id].cachedName = ""
	cf.tree(parent).insert(id)
	cf.generation++
	return cf.flushMeta()
}

// Touch updates the entry's modified timestamp to the current time.
func (cf *CompoundFile) Touch(path string) error {
	id, err := cf.resolvePath(path)
	if err != nil {
		return err
	}
	return cf.touchEntry(id)
}

// SetStorageCLSID sets a storage's object class id.
func (cf *CompoundFile) SetStorageCLSID(path string, clsid CLSID) error {
	if cf.readOnly {
		return ErrReadOnly
	}
	id, err := cf.resolvePath(path)
	if err != nil {
		return err
	}
	if !cf.entries[id].isStorage() {
		return newFormatError(ErrInvalidInput, "not a storage: "+path, noStream)
	}
	cf.entries[id].CLSID = clsid
	return cf.flushMeta()
}

// SetStateBits sets an entry's caller-defined state bits.
func (cf *CompoundFile) SetStateBits(path string, bits uint32) error {
	if cf.readOnly {
		return ErrReadOnly
	}
	id, err := cf.resolvePath(path)
	if err != nil {
		return err
	}
	cf.entries[id].StateBits = bits
	return cf.flushMeta()
}

// CreateStream creates a new, empty stream at path and returns a
// handle open for reading and writing. It fails with ErrAlreadyExists
// if path already resolves to an entry.
func (cf *CompoundFile) CreateStream(path string) (*Stream, error) {
	if cf.readOnly {
		return nil, ErrReadOnly
	}
	parent, name, err := cf.resolveParent(path)
	if err != nil {
		return nil, err
	}
	if cf.tree(parent).find(name) != noStream {
		return nil, newFormatError(ErrAlreadyExists, "entry already exists: "+path, noStream)
	}
	id := cf.allocEntry()
	e := cf.entries[id]
	e.ObjectType = typeStream
	if err := e.setName(name); err != nil {
		return nil, err
	}
	e.StartSector = endOfChain
	e.StreamSize = 0
	now := timeToFiletime(time.Now())
	e.CreateDate = now
	e.ModifiedDate = now
	cf.tree(parent).insert(id)
	cf.generation++
	if err := cf.flushMeta(); err != nil {
		return nil, err
	}
	return cf.newStream(id)
}

// CreateStreamOverwrite opens the stream at path for reading and
// writing, truncating it to zero length if it already exists, or
// creating it fresh otherwise. It fails if path resolves to a storage.
func (cf *CompoundFile) CreateStreamOverwrite(path string) (*Stream, error) {
	if cf.readOnly {
		return nil, ErrReadOnly
	}
	id, err := cf.resolvePath(path)
	if err != nil {
		return cf.CreateStream(path)
	}
	if !cf.entries[id].isStream() {
		return nil, newFormatError(ErrInvalidInput, "not a stream: "+path, noStream)
	}
	if err := cf.truncateStream(id, 0); err != nil {
		return nil, err
	}
	return cf.newStream(id)
}

// OpenStream opens the stream at path for reading and writing.
func (cf *CompoundFile) OpenStream(path string) (*Stream, error) {
	id, err := cf.resolvePath(path)
	if err != nil {
		return nil, err
	}
	if !cf.entries[id].isStream() {
		return nil, newFormatError(ErrInvalidInput, "not a stream: "+path, noStream)
	}
	return cf.newStream(id)
}

// RemoveStream deletes the stream at path, freeing its chain.
func (cf *CompoundFile) RemoveStream(path string) error {
	if cf.readOnly {
		return ErrReadOnly
	}
	parent, name, err := cf.resolveParent(path)
	if err != nil {
		return err
	}
	id := cf.tree(parent).find(name)
	if id == noStream {
		return newFormatError(ErrNotFound, "no such entry: "+path, noStream)
	}
	if !cf.entries[id].isStream() {
		return newFormatError(ErrInvalidInput, "not a stream: "+path, noStream)
	}
	mini := cf.entries[id].StreamSize < miniStreamCutoffSize
	if mini {
		err = cf.freeMiniChain(cf.entries[id].StartSector)
	} else {
		err = cf.freeChain(cf.entries[id].StartSector)
	}
	if err != nil {
		return err
	}
	cf.tree(parent).remove(id)
	cf.entries[id] = newEmptyEntry()
	cf.generation++
	return cf.flushMeta()
}
