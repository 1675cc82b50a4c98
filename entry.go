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
	"fmt"
	"time"
)

// CLSID is a 16 byte object class identifier, as stored verbatim in a
// storage's directory entry. No UUID library is used here: none of
// the grounding repos pull one in, so CLSID is a plain byte array
// with a hand-written hyphenated hex form, matching the teacher's
// treatment of CLSID as an opaque [16]byte.
type CLSID [16]byte

func (c CLSID) String() string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		leUint32(c[0:4]), binUint16(c[4:6]), binUint16(c[6:8]), binUint16BE(c[8:10]), c[10:16])
}

func binUint16(b []byte) uint16 { return uint16(b[0]) | uint16(b[1])<<8 }
func binUint16BE(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}

// IsZero reports whether the CLSID is all zero bytes, the usual value
// for plain stream entries and storages that never had a class
// assigned.
func (c CLSID) IsZero() bool {
	for _, b := range c {
		if b != 0 {
			return false
		}
	}
	return true
}

// filetimeEpoch is the offset between the Windows FILETIME epoch
// (1601-01-01 UTC) and the Unix epoch, in 100ns ticks.
const filetimeEpoch = 116444736000000000

func filetimeToTime(ft uint64) time.Time {
	if ft == 0 {
		return time.Time{}
	}
	ticks := int64(ft) - filetimeEpoch
	return time.Unix(0, ticks*100).UTC()
}

func timeToFiletime(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	ticks := t.UTC().UnixNano()/100 + filetimeEpoch
	if ticks < 0 {
		return 0
	}
	return uint64(ticks)
}

// Entry describes one storage or stream in the compound file, as
// returned by CompoundFile.Entry, ReadStorage and Walk. It is a
// snapshot: mutating the compound file after obtaining an Entry does
// not update it in place.
type Entry struct {
	id       uint32
	path     string
	name     string
	storage  bool
	root     bool
	clsid    CLSID
	state    uint32
	created  time.Time
	modified time.Time
	length   uint64
}

// Name is the entry's own path component.
func (e Entry) Name() string { return e.name }

// Path is the full slash-delimited path to the entry from the root.
func (e Entry) Path() string { return e.path }

// IsStorage reports whether the entry is a storage (including the
// root storage).
func (e Entry) IsStorage() bool { return e.storage }

// IsStream reports whether the entry is a stream.
func (e Entry) IsStream() bool { return !e.storage }

// IsRoot reports whether the entry is the root storage.
func (e Entry) IsRoot() bool { return e.root }

// CLSID is the storage's object class id; zero for streams.
func (e Entry) CLSID() CLSID { return e.clsid }

// StateBits are the caller-defined storage state flags.
func (e Entry) StateBits() uint32 { return e.state }

// Created is the entry's creation timestamp (zero if unset).
func (e Entry) Created() time.Time { return e.created }

// Modified is the entry's last-modified timestamp (zero if unset).
func (e Entry) Modified() time.Time { return e.modified }

// Len is the stream's byte length; zero for storages other than the
// root, whose Len reports the mini-stream size.
func (e Entry) Len() uint64 { return e.length }

func (cf *CompoundFile) toEntry(id uint32, path string) Entry {
	d := cf.entries[id]
	return Entry{
		id:       id,
		path:     path,
		name:     cf.entryName(id),
		storage:  d.isStorage(),
		root:     d.isRoot(),
		clsid:    CLSID(d.CLSID),
		state:    d.StateBits,
		created:  filetimeToTime(d.CreateDate),
		modified: filetimeToTime(d.ModifiedDate),
		length:   d.StreamSize,
	}
}

func (cf *CompoundFile) entryName(id uint32) string {
	if id == 0 {
		return "Root Entry"
	}
	return cf.entries[id].name()
}
