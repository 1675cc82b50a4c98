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

import "encoding/binary"

const lenHeader int = 8 + 16 + 10 + 6 + 12 + 8 + 16 + difatEntriesInHeader*4

// headerFields is the fixed 512 byte header region. In a V4 file the
// remainder of the first 4096 byte sector beyond these fields is zero
// padding.
type headerFields struct {
	Signature           [8]byte
	CLSID               [16]byte // must be zero
	MinorVersion        uint16
	MajorVersion        uint16 // 3 or 4
	ByteOrder           uint16 // must be 0xFFFE (little endian)
	SectorShift         uint16 // 9 or 12
	MiniSectorShift     uint16 // always 6
	Reserved            [6]byte
	NumDirectorySectors uint32 // must be 0 for V3
	NumFatSectors       uint32
	DirectorySectorLoc  uint32
	TransactionSig      uint32 // ignored, written as 0
	MiniStreamCutoff    uint32 // always 4096
	MiniFatSectorLoc    uint32
	NumMiniFatSectors   uint32
	DifatSectorLoc      uint32
	NumDifatSectors     uint32
	InitialDifats       [difatEntriesInHeader]uint32
}

func parseHeader(buf []byte) (*headerFields, error) {
	if len(buf) < lenHeader {
		return nil, newFormatError(ErrUnexpectedEOF, "short header", 0)
	}
	h := &headerFields{}
	copy(h.Signature[:], buf[:8])
	copy(h.CLSID[:], buf[8:24])
	h.MinorVersion = binary.LittleEndian.Uint16(buf[24:26])
	h.MajorVersion = binary.LittleEndian.Uint16(buf[26:28])
	h.ByteOrder = binary.LittleEndian.Uint16(buf[28:30])
	h.SectorShift = binary.LittleEndian.Uint16(buf[30:32])
	h.MiniSectorShift = binary.LittleEndian.Uint16(buf[32:34])
	copy(h.Reserved[:], buf[34:40])
	h.NumDirectorySectors = binary.LittleEndian.Uint32(buf[40:44])
	h.NumFatSectors = binary.LittleEndian.Uint32(buf[44:48])
	h.DirectorySectorLoc = binary.LittleEndian.Uint32(buf[48:52])
	h.TransactionSig = binary.LittleEndian.Uint32(buf[52:56])
	h.MiniStreamCutoff = binary.LittleEndian.Uint32(buf[56:60])
	h.MiniFatSectorLoc = binary.LittleEndian.Uint32(buf[60:64])
	h.NumMiniFatSectors = binary.LittleEndian.Uint32(buf[64:68])
	h.DifatSectorLoc = binary.LittleEndian.Uint32(buf[68:72])
	h.NumDifatSectors = binary.LittleEndian.Uint32(buf[72:76])
	idx := 0
	for i := 76; i < 76+difatEntriesInHeader*4; i += 4 {
		h.InitialDifats[idx] = binary.LittleEndian.Uint32(buf[i : i+4])
		idx++
	}
	if err := h.validate(); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *headerFields) validate() error {
	if h.Signature != signature {
		return newFormatError(ErrInvalidData, "bad magic", 0)
	}
	if h.MajorVersion != 3 && h.MajorVersion != 4 {
		return newFormatError(ErrInvalidData, "unsupported major version", 0)
	}
	if h.ByteOrder != 0xFFFE {
		return newFormatError(ErrInvalidData, "bad byte order marker", 0)
	}
	if h.MajorVersion == 3 && h.SectorShift != 9 {
		return newFormatError(ErrInvalidData, "sector shift inconsistent with major version 3", 0)
	}
	if h.MajorVersion == 4 && h.SectorShift != 12 {
		return newFormatError(ErrInvalidData, "sector shift inconsistent with major version 4", 0)
	}
	if h.MiniSectorShift != 6 {
		return newFormatError(ErrInvalidData, "mini sector shift must be 6", 0)
	}
	if h.MiniStreamCutoff != uint32(miniStreamCutoffSize) {
		return newFormatError(ErrInvalidData, "mini stream cutoff must be 4096", 0)
	}
	if h.MajorVersion == 3 && h.NumDirectorySectors != 0 {
		return newFormatError(ErrInvalidData, "version 3 must have zero directory sector count", 0)
	}
	return nil
}

// version reports the file's sector-size variant.
func (h *headerFields) version() Version {
	if h.MajorVersion == 4 {
		return V4
	}
	return V3
}

// marshal serializes the header into a buffer of exactly sectorSize
// bytes (zero padded beyond the fixed fields for V4).
func (h *headerFields) marshal(sectorSize uint32) []byte {
	buf := make([]byte, sectorSize)
	copy(buf[0:8], h.Signature[:])
	copy(buf[8:24], h.CLSID[:])
	binary.LittleEndian.PutUint16(buf[24:26], h.MinorVersion)
	binary.LittleEndian.PutUint16(buf[26:28], h.MajorVersion)
	binary.LittleEndian.PutUint16(buf[28:30], 0xFFFE)
	binary.LittleEndian.PutUint16(buf[30:32], h.SectorShift)
	binary.LittleEndian.PutUint16(buf[32:34], h.MiniSectorShift)
	binary.LittleEndian.PutUint32(buf[40:44], h.NumDirectorySectors)
	binary.LittleEndian.PutUint32(buf[44:48], h.NumFatSectors)
	binary.LittleEndian.PutUint32(buf[48:52], h.DirectorySectorLoc)
	binary.LittleEndian.PutUint32(buf[52:56], 0)
	binary.LittleEndian.PutUint32(buf[56:60], uint32(miniStreamCutoffSize))
	binary.LittleEndian.PutUint32(buf[60:64], h.MiniFatSectorLoc)
	binary.LittleEndian.PutUint32(buf[64:68], h.NumMiniFatSectors)
	binary.LittleEndian.PutUint32(buf[68:72], h.DifatSectorLoc)
	binary.LittleEndian.PutUint32(buf[72:76], h.NumDifatSectors)
	idx := 76
	for _, v := range h.InitialDifats {
		binary.LittleEndian.PutUint32(buf[idx:idx+4], v)
		idx += 4
	}
	return buf
}

// newHeader builds a fresh header for a newly created, empty compound
// file of the given version.
func newHeader(v Version) *headerFields {
	h := &headerFields{
		Signature:        signature,
		MinorVersion:     0x003E,
		MajorVersion:     uint16(v),
		SectorShift:      v.sectorShift(),
		MiniSectorShift:  6,
		MiniStreamCutoff: uint32(miniStreamCutoffSize),
	}
	for i := range h.InitialDifats {
		h.InitialDifats[i] = freeSect
	}
	h.DirectorySectorLoc = endOfChain
	h.MiniFatSectorLoc = endOfChain
	h.DifatSectorLoc = endOfChain
	return h
}
