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

// The miniFAT allocator and mini-stream. miniFAT mirrors the FAT's
// shape but indexes 64 byte mini-sectors inside the mini-stream; the
// mini-stream and the miniFAT's own storage are both ordinary FAT
// chains, so this file is a client of fat.go rather than a second
// independent allocator (Design Notes: "keep the FAT allocator
// oblivious to miniFAT").

// loadMiniFAT walks the miniFAT's own backing chain (header.MiniFatSectorLoc)
// into cf.miniFatChain/cf.miniFat, and the mini-stream's backing chain
// (the root entry's StartSector) into cf.miniStreamChain. Grounded on
// the teacher's streams.go setMiniStream.
func (cf *CompoundFile) loadMiniFAT() error {
	root := cf.entries[0]
	cf.miniStreamChain = nil
	cf.miniFatChain = nil
	cf.miniFat = nil

	if root.StartSector != endOfChain {
		chain, err := cf.walkChain(root.StartSector, false)
		if err != nil {
			return err
		}
		cf.miniStreamChain = chain
	}
	if cf.header.MiniFatSectorLoc == endOfChain {
		return nil
	}
	chain, err := cf.walkChain(cf.header.MiniFatSectorLoc, false)
	if err != nil {
		return err
	}
	cf.miniFatChain = chain
	eps := entriesPerSector(cf.sectorSize)
	cf.miniFat = make([]uint32, 0, uint32(len(chain))*eps)
	for _, sn := range chain {
		buf, err := cf.readSector(sn)
		if err != nil {
			return err
		}
		for i := uint32(0); i < eps; i++ {
			cf.miniFat = append(cf.miniFat, leUint32(buf[i*4:i*4+4]))
		}
	}
	return nil
}

// growMiniFatStorage extends the miniFAT's own regular-sector chain
// by one sector.
func (cf *CompoundFile) growMiniFatStorage() error {
	if cf.header.MiniFatSectorLoc == endOfChain {
		head, err := cf.allocateChain(1)
		if err != nil {
			return err
		}
		cf.header.MiniFatSectorLoc = head
		cf.miniFatChain = []uint32{head}
		cf.header.NumMiniFatSectors = 1
		return nil
	}
	tail, err := cf.chainTail(cf.header.MiniFatSectorLoc)
	if err != nil {
		return err
	}
	newTail, err := cf.extendChain(tail, 1)
	if err != nil {
		return err
	}
	cf.miniFatChain = append(cf.miniFatChain, newTail)
	cf.header.NumMiniFatSectors++
	return nil
}

// growMiniStream extends the mini-stream by one regular sector (i.e.
// miniSectorsPerSector more mini-sector slots), appending FREE
// miniFAT entries for the new slots, growing the miniFAT's own
// storage to hold them if necessary, and updating the root entry's
// StreamSize to track the mini-stream's new total length.
func (cf *CompoundFile) growMiniStream() error {
	root := cf.entries[0]
	newTail, err := cf.extendOrAllocate(&root.StartSector, 1)
	if err != nil {
		return err
	}
	cf.miniStreamChain = append(cf.miniStreamChain, newTail)
	root.StreamSize = uint64(len(cf.miniStreamChain)) * uint64(cf.sectorSize)

	perSector := miniSectorsPerSector(cf.sectorSize)
	for i := uint32(0); i < perSector; i++ {
		cf.miniFat = append(cf.miniFat, freeSect)
	}
	eps := entriesPerSector(cf.sectorSize)
	needed := (len(cf.miniFat) + int(eps) - 1) / int(eps)
	for len(cf.miniFatChain) < needed {
		if err := cf.growMiniFatStorage(); err != nil {
			return err
		}
	}
	return nil
}

// firstFreeMini scans the miniFAT for a FREE slot, growing the
// mini-stream as needed.
func (cf *CompoundFile) firstFreeMini() (uint32, error) {
	for {
		for i, v := range cf.miniFat {
			if v == freeSect {
				return uint32(i), nil
			}
		}
		if err := cf.growMiniStream(); err != nil {
			return 0, err
		}
	}
}

// allocateMiniChain allocates n mini-sectors and returns the chain
// head, terminated with endOfChain.
func (cf *CompoundFile) allocateMiniChain(n int) (uint32, error) {
	if n <= 0 {
		return endOfChain, nil
	}
	ids := make([]uint32, 0, n)
	for len(ids) < n {
		id, err := cf.firstFreeMini()
		if err != nil {
			return 0, err
		}
		cf.miniFat[id] = endOfChain
		ids = append(ids, id)
	}
	for i := 0; i < len(ids)-1; i++ {
		cf.miniFat[ids[i]] = ids[i+1]
	}
	return ids[0], nil
}

// extendMiniChain appends n mini-sectors onto an existing mini chain.
func (cf *CompoundFile) extendMiniChain(head uint32, n int) (uint32, error) {
	tail := head
	for {
		next, err := cf.next(tail, true)
		if err != nil {
			return 0, err
		}
		if next == endOfChain {
			break
		}
		tail = next
	}
	for i := 0; i < n; i++ {
		id, err := cf.firstFreeMini()
		if err != nil {
			return 0, err
		}
		cf.miniFat[tail] = id
		cf.miniFat[id] = endOfChain
		tail = id
	}
	return tail, nil
}

// freeMiniChain marks every mini-sector in the chain as FREE; it does
// not shrink the mini-stream.
func (cf *CompoundFile) freeMiniChain(head uint32) error {
	if head == endOfChain || head == freeSect {
		return nil
	}
	ids, err := cf.walkChain(head, true)
	if err != nil {
		return err
	}
	for _, id := range ids {
		cf.miniFat[id] = freeSect
	}
	return nil
}

// miniSectorOffset returns the absolute byte offset of mini-sector mn
// inside the backing container, via the mini-stream's regular chain.
func (cf *CompoundFile) miniSectorOffset(mn uint32) (int64, error) {
	perSector := miniSectorsPerSector(cf.sectorSize)
	idx := mn / perSector
	rem := mn % perSector
	if idx >= uint32(len(cf.miniStreamChain)) {
		return 0, newFormatError(ErrInvalidData, "mini-sector index outside mini-stream", mn)
	}
	base := sectorOffset(cf.sectorSize, cf.miniStreamChain[idx])
	return base + int64(rem)*int64(miniSectorSize), nil
}

// flushMiniFAT writes cf.miniFat back out to its backing chain.
func (cf *CompoundFile) flushMiniFAT() error {
	if len(cf.miniFatChain) == 0 {
		cf.header.MiniFatSectorLoc = endOfChain
		cf.header.NumMiniFatSectors = 0
		return nil
	}
	eps := entriesPerSector(cf.sectorSize)
	for i, sn := range cf.miniFatChain {
		buf := make([]byte, cf.sectorSize)
		for j := uint32(0); j < eps; j++ {
			idx := uint32(i)*eps + j
			v := freeSect
			if int(idx) < len(cf.miniFat) {
				v = cf.miniFat[idx]
			}
			putLeUint32(buf[j*4:j*4+4], v)
		}
		if err := cf.writeSector(sn, buf); err != nil {
			return err
		}
	}
	cf.header.MiniFatSectorLoc = cf.miniFatChain[0]
	cf.header.NumMiniFatSectors = uint32(len(cf.miniFatChain))
	return nil
}
