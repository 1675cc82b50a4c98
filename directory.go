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

import (
	"encoding/binary"
	"unicode/utf16"
	"unicode/utf8"
)

// objectType values
const (
	typeUnknown     uint8 = 0x0
	typeStorage     uint8 = 0x1
	typeStream      uint8 = 0x2
	typeRootStorage uint8 = 0x5
)

// rb-tree node colors
const (
	colorRed   uint8 = 0x0
	colorBlack uint8 = 0x1
)

const maxNameCodeUnits = 31

// directoryEntryFields is the fixed 128 byte on-disk directory entry.
type directoryEntryFields struct {
	RawName      [32]uint16
	NameLength   uint16 // bytes, including null terminator
	ObjectType   uint8
	Color        uint8
	LeftSibID    uint32
	RightSibID   uint32
	ChildID      uint32
	CLSID        [16]byte
	StateBits    uint32
	CreateDate   uint64 // FILETIME, 100ns ticks since 1601-01-01 UTC
	ModifiedDate uint64
	StartSector  uint32
	StreamSize   uint64
}

func (d *directoryEntryFields) marshal() []byte {
	buf := make([]byte, dirEntrySize)
	for i, u := range d.RawName {
		binary.LittleEndian.PutUint16(buf[i*2:i*2+2], u)
	}
	binary.LittleEndian.PutUint16(buf[64:66], d.NameLength)
	buf[66] = d.ObjectType
	buf[67] = d.Color
	binary.LittleEndian.PutUint32(buf[68:72], d.LeftSibID)
	binary.LittleEndian.PutUint32(buf[72:76], d.RightSibID)
	binary.LittleEndian.PutUint32(buf[76:80], d.ChildID)
	copy(buf[80:96], d.CLSID[:])
	binary.LittleEndian.PutUint32(buf[96:100], d.StateBits)
	binary.LittleEndian.PutUint64(buf[100:108], d.CreateDate)
	binary.LittleEndian.PutUint64(buf[108:116], d.ModifiedDate)
	binary.LittleEndian.PutUint32(buf[116:120], d.StartSector)
	binary.LittleEndian.PutUint64(buf[120:128], d.StreamSize)
	return buf
}

func unmarshalDirEntry(buf []byte) *directoryEntryFields {
	d := &directoryEntryFields{}
	for i := 0; i < 32; i++ {
		d.RawName[i] = binary.LittleEndian.Uint16(buf[i*2 : i*2+2])
	}
	d.NameLength = binary.LittleEndian.Uint16(buf[64:66])
	d.ObjectType = buf[66]
	d.Color = buf[67]
	d.LeftSibID = binary.LittleEndian.Uint32(buf[68:72])
	d.RightSibID = binary.LittleEndian.Uint32(buf[72:76])
	d.ChildID = binary.LittleEndian.Uint32(buf[76:80])
	copy(d.CLSID[:], buf[80:96])
	d.StateBits = binary.LittleEndian.Uint32(buf[96:100])
	d.CreateDate = binary.LittleEndian.Uint64(buf[100:108])
	d.ModifiedDate = binary.LittleEndian.Uint64(buf[108:116])
	d.StartSector = binary.LittleEndian.Uint32(buf[116:120])
	d.StreamSize = binary.LittleEndian.Uint64(buf[120:128])
	return d
}

func (d *directoryEntryFields) name() string {
	nlen := 0
	if d.NameLength > 2 {
		nlen = int(d.NameLength/2 - 1)
	} else if d.NameLength > 0 {
		nlen = 1
	}
	if nlen == 0 {
		return ""
	}
	return string(utf16.Decode(d.RawName[:nlen]))
}

func (d *directoryEntryFields) setName(name string) error {
	units := utf16.Encode([]rune(name))
	if len(units) > maxNameCodeUnits {
		return newFormatError(ErrInvalidInput, "name exceeds 31 UTF-16 code units", noStream)
	}
	var raw [32]uint16
	copy(raw[:], units)
	d.RawName = raw
	if len(units) == 0 {
		d.NameLength = 0
	} else {
		d.NameLength = uint16((len(units) + 1) * 2)
	}
	return nil
}

func validateComponent(name string) error {
	if name == "" {
		return newFormatError(ErrInvalidInput, "empty path component", noStream)
	}
	for _, r := range name {
		switch r {
		case '/', '\\', ':', '!':
			return newFormatError(ErrInvalidInput, "path component contains a forbidden character", noStream)
		}
	}
	if !utf8.ValidString(name) {
		return newFormatError(ErrInvalidInput, "path component is not valid UTF-8", noStream)
	}
	if len(utf16.Encode([]rune(name))) > maxNameCodeUnits {
		return newFormatError(ErrInvalidInput, "path component longer than 31 UTF-16 code units", noStream)
	}
	return nil
}

// cfbUpper applies the uppercase mapping used for ordering: ASCII a-z
// become A-Z. Every other UTF-16 code unit, including non-ASCII
// letters, is returned unchanged.
func cfbUpper(units []uint16) []uint16 {
	out := make([]uint16, len(units))
	for i, u := range units {
		if u >= 'a' && u <= 'z' {
			out[i] = u - ('a' - 'A')
			continue
		}
		out[i] = u
	}
	return out
}

// compareCFB orders two names per the CFB directory ordering: first by
// UTF-16 code unit count, then by case-folded lexicographic order on
// UTF-16 code units.
func compareCFB(a, b string) int {
	au, bu := utf16.Encode([]rune(a)), utf16.Encode([]rune(b))
	if len(au) != len(bu) {
		if len(au) < len(bu) {
			return -1
		}
		return 1
	}
	afold, bfold := cfbUpper(au), cfbUpper(bu)
	for i := range afold {
		if afold[i] != bfold[i] {
			if afold[i] < bfold[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// entry is the in-memory counterpart of a directory slot: the raw
// on-disk fields plus a cached decoded name so path resolution does
// not re-decode UTF-16 on every lookup.
type entry struct {
	*directoryEntryFields
	cachedName string
}

func newEmptyEntry() *entry {
	return &entry{
		directoryEntryFields: &directoryEntryFields{
			LeftSibID:   noStream,
			RightSibID:  noStream,
			ChildID:     noStream,
			StartSector: endOfChain,
			ObjectType:  typeUnknown,
		},
	}
}

func (e *entry) isStorage() bool {
	return e.ObjectType == typeStorage || e.ObjectType == typeRootStorage
}

func (e *entry) isStream() bool {
	return e.ObjectType == typeStream
}

func (e *entry) isRoot() bool {
	return e.ObjectType == typeRootStorage
}

func (e *entry) isFree() bool {
	return e.ObjectType == typeUnknown
}
