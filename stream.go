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

import "io"

// Stream is a seekable byte view over a stream's sector chain
// (regular or mini, whichever the stream currently lives in). A
// Stream borrows its owning CompoundFile and must not outlive it.
//
// Per the resolved Open Question in SPEC_FULL.md, a Stream caches its
// chain of sector ids for fast random access, but re-validates that
// cache against the CompoundFile's generation counter on every Read
// and Write rather than forbidding structural mutation while the
// Stream is open. Seek, Len and Truncate do not use the cached chain
// and do not re-validate it.
type Stream struct {
	cf         *CompoundFile
	id         uint32
	pos        int64
	generation uint64
	chain      []uint32
	mini       bool
}

func (cf *CompoundFile) newStream(id uint32) (*Stream, error) {
	s := &Stream{cf: cf, id: id}
	if err := s.resync(); err != nil {
		return nil, err
	}
	return s, nil
}

// resync re-walks the entry's current chain if the compound file has
// been structurally mutated since this Stream last cached it.
func (s *Stream) resync() error {
	if s.chain != nil && s.generation == s.cf.generation {
		return nil
	}
	d := s.cf.entries[s.id]
	s.mini = d.StreamSize < miniStreamCutoffSize
	if d.StartSector == endOfChain {
		s.chain = nil
	} else {
		chain, err := s.cf.walkChain(d.StartSector, s.mini)
		if err != nil {
			return err
		}
		s.chain = chain
	}
	s.generation = s.cf.generation
	return nil
}

func (s *Stream) unitSize() int64 {
	if s.mini {
		return int64(miniSectorSize)
	}
	return int64(s.cf.sectorSize)
}

// Len reports the stream's current byte length.
func (s *Stream) Len() uint64 { return s.cf.entries[s.id].StreamSize }

// Seek repositions the stream's logical cursor.
func (s *Stream) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = s.pos + offset
	case io.SeekEnd:
		abs = int64(s.Len()) + offset
	default:
		return 0, newFormatError(ErrInvalidInput, "invalid seek whence", noStream)
	}
	if abs < 0 {
		return 0, newFormatError(ErrInvalidInput, "negative seek position", noStream)
	}
	s.pos = abs
	return abs, nil
}

// sectorAndOffset maps a logical position to its (unit id, offset
// within unit) pair using the cached chain.
func (s *Stream) sectorAndOffset(pos int64) (unitID uint32, offset int64, ok bool) {
	unit := s.unitSize()
	idx := pos / unit
	if idx < 0 || idx >= int64(len(s.chain)) {
		return 0, 0, false
	}
	return s.chain[idx], pos % unit, true
}

// Read reads up to len(p) bytes at the current cursor, advancing it.
// Reading at or past the stream's end returns (0, io.EOF).
func (s *Stream) Read(p []byte) (int, error) {
	if err := s.resync(); err != nil {
		return 0, err
	}
	length := int64(s.Len())
	if s.pos >= length {
		return 0, io.EOF
	}
	remaining := length - s.pos
	if int64(len(p)) > remaining {
		p = p[:remaining]
	}
	read := 0
	for read < len(p) {
		unitID, off, ok := s.sectorAndOffset(s.pos)
		if !ok {
			return read, newFormatError(ErrInvalidData, "stream position outside its chain", noStream)
		}
		unit := s.unitSize()
		n := int64(len(p) - read)
		if n > unit-off {
			n = unit - off
		}
		var base int64
		var err error
		if s.mini {
			base, err = s.cf.miniSectorOffset(unitID)
		} else {
			base = sectorOffset(s.cf.sectorSize, unitID)
		}
		if err != nil {
			return read, err
		}
		if err := s.cf.readAt(base+off, p[read:read+int(n)]); err != nil {
			return read, err
		}
		read += int(n)
		s.pos += n
	}
	return read, nil
}

// Write writes p at the current cursor, extending (and, if needed,
// migrating between mini- and regular-space) the stream when the
// write runs past its current end.
func (s *Stream) Write(p []byte) (int, error) {
	if s.cf.readOnly {
		return 0, ErrReadOnly
	}
	if err := s.resync(); err != nil {
		return 0, err
	}
	end := s.pos + int64(len(p))
	if end > int64(s.Len()) {
		// Grow the chain without flushing yet: payload sectors below
		// must reach the backing container before the metadata that
		// describes the new length does.
		if err := s.cf.growStreamChain(s.id, uint64(end)); err != nil {
			return 0, err
		}
		if err := s.resync(); err != nil {
			return 0, err
		}
	}
	written := 0
	for written < len(p) {
		unitID, off, ok := s.sectorAndOffset(s.pos)
		if !ok {
			return written, newFormatError(ErrInvalidData, "stream position outside its chain", noStream)
		}
		unit := s.unitSize()
		n := int64(len(p) - written)
		if n > unit-off {
			n = unit - off
		}
		var base int64
		var err error
		if s.mini {
			base, err = s.cf.miniSectorOffset(unitID)
		} else {
			base = sectorOffset(s.cf.sectorSize, unitID)
		}
		if err != nil {
			return written, err
		}
		if err := s.cf.writeAt(base+off, p[written:written+int(n)]); err != nil {
			return written, err
		}
		written += int(n)
		s.pos += n
	}
	if err := s.cf.touchEntry(s.id); err != nil {
		return written, err
	}
	return written, nil
}

// Truncate sets the stream's length, freeing trailing sectors when
// shrinking and migrating across the mini/regular threshold when the
// new length crosses it downward.
func (s *Stream) Truncate(size uint64) error {
	if s.cf.readOnly {
		return ErrReadOnly
	}
	return s.cf.truncateStream(s.id, size)
}
