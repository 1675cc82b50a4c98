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
	"io"
)

// readAt reads exactly len(b) bytes from the backing container at
// offset, surfacing a short read as ErrUnexpectedEOF.
func (cf *CompoundFile) readAt(off int64, b []byte) error {
	if _, err := cf.rws.Seek(off, io.SeekStart); err != nil {
		return err
	}
	if _, err := io.ReadFull(cf.rws, b); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return newFormatError(ErrUnexpectedEOF, "short read from backing container", 0)
		}
		return err
	}
	return nil
}

// writeAt writes b to the backing container at offset.
func (cf *CompoundFile) writeAt(off int64, b []byte) error {
	if cf.readOnly {
		return ErrReadOnly
	}
	if _, err := cf.rws.Seek(off, io.SeekStart); err != nil {
		return err
	}
	_, err := cf.rws.Write(b)
	return err
}

// readSector reads one full sector by id.
func (cf *CompoundFile) readSector(sn uint32) ([]byte, error) {
	buf := make([]byte, cf.sectorSize)
	if err := cf.readAt(sectorOffset(cf.sectorSize, sn), buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// writeSector writes one full sector by id, extending the backing
// container with zeroes first if the sector is past the current EOF.
func (cf *CompoundFile) writeSector(sn uint32, buf []byte) error {
	off := sectorOffset(cf.sectorSize, sn)
	if err := cf.ensureLength(off + int64(len(buf))); err != nil {
		return err
	}
	return cf.writeAt(off, buf)
}

// ensureLength zero-extends the backing container up to length if it
// is currently shorter, so that sector writes never leave holes that
// the underlying container implementation might not zero-fill itself.
func (cf *CompoundFile) ensureLength(length int64) error {
	cur, err := cf.rws.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	if cur >= length {
		return nil
	}
	if _, err := cf.rws.Seek(cur, io.SeekStart); err != nil {
		return err
	}
	zeroes := make([]byte, length-cur)
	_, err = cf.rws.Write(zeroes)
	return err
}

func leUint32(b []byte) uint32 { return binary.LittleEndian.Uint32(b) }

func putLeUint32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
