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

// loadDifat reconstructs the full ordered list of FAT sector ids: the
// 109 ids in the header, followed by the overflow chain of DIFAT
// sectors (each holding entriesPerSector-1 ids and a trailing
// next-pointer). Grounded on the teacher's setDifats.
func (cf *CompoundFile) loadDifat() error {
	cf.difat = make([]uint32, 0, difatEntriesInHeader)
	for _, id := range cf.header.InitialDifats {
		if id == freeSect {
			continue
		}
		cf.difat = append(cf.difat, id)
	}
	if cf.header.NumDifatSectors == 0 {
		cf.difatChain = nil
		return nil
	}
	eps := entriesPerSector(cf.sectorSize)
	sn := cf.header.DifatSectorLoc
	cf.difatChain = make([]uint32, 0, cf.header.NumDifatSectors)
	for i := uint32(0); i < cf.header.NumDifatSectors; i++ {
		if sn == endOfChain {
			return newFormatError(ErrInvalidData, "DIFAT chain shorter than header count", sn)
		}
		cf.difatChain = append(cf.difatChain, sn)
		buf, err := cf.readSector(sn)
		if err != nil {
			return err
		}
		for j := uint32(0); j < eps-1; j++ {
			id := binary.LittleEndian.Uint32(buf[j*4 : j*4+4])
			if id != freeSect {
				cf.difat = append(cf.difat, id)
			}
		}
		sn = binary.LittleEndian.Uint32(buf[(eps-1)*4:])
	}
	return nil
}

// flushDifat writes back the first 109 FAT sector ids into the header
// and the remainder into the DIFAT overflow chain, growing or
// shrinking that chain as needed.
//
// Growing the DIFAT overflow chain can itself call firstFreeFAT,
// which may have to append a brand new FAT sector (growFAT) — and
// growFAT appends that sector's own id onto cf.difat, potentially
// requiring yet another overflow slot. overflow/needed are therefore
// recomputed after every sector the growth loop allocates, not just
// once up front.
func (cf *CompoundFile) flushDifat() error {
	for i := range cf.header.InitialDifats {
		cf.header.InitialDifats[i] = freeSect
	}
	eps := entriesPerSector(cf.sectorSize)
	perSector := int(eps - 1)

	overflowLen := func() int {
		n := len(cf.difat) - difatEntriesInHeader
		if n < 0 {
			n = 0
		}
		return n
	}
	neededFor := func(n int) int {
		if n == 0 {
			return 0
		}
		return (n + perSector - 1) / perSector
	}

	needed := neededFor(overflowLen())
	for len(cf.difatChain) < needed {
		id, err := cf.firstFreeFAT()
		if err != nil {
			return err
		}
		cf.fat[id] = difatSect
		cf.difatChain = append(cf.difatChain, id)
		needed = neededFor(overflowLen())
	}
	for len(cf.difatChain) > needed {
		last := cf.difatChain[len(cf.difatChain)-1]
		cf.fat[last] = freeSect
		cf.difatChain = cf.difatChain[:len(cf.difatChain)-1]
	}

	head := len(cf.difat)
	if head > difatEntriesInHeader {
		head = difatEntriesInHeader
	}
	for i := 0; i < head; i++ {
		cf.header.InitialDifats[i] = cf.difat[i]
	}
	overflow := cf.difat[head:]

	cf.header.NumDifatSectors = uint32(needed)
	if needed == 0 {
		cf.header.DifatSectorLoc = endOfChain
		return nil
	}
	cf.header.DifatSectorLoc = cf.difatChain[0]
	for i, sn := range cf.difatChain {
		buf := make([]byte, cf.sectorSize)
		for j := 0; j < perSector; j++ {
			idx := i*perSector + j
			if idx < len(overflow) {
				binary.LittleEndian.PutUint32(buf[j*4:j*4+4], overflow[idx])
			} else {
				binary.LittleEndian.PutUint32(buf[j*4:j*4+4], freeSect)
			}
		}
		if i+1 < len(cf.difatChain) {
			binary.LittleEndian.PutUint32(buf[int(eps-1)*4:], cf.difatChain[i+1])
		} else {
			binary.LittleEndian.PutUint32(buf[int(eps-1)*4:], endOfChain)
		}
		if err := cf.writeSector(sn, buf); err != nil {
			return err
		}
	}
	return nil
}
