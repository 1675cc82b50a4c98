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

// The FAT allocator: cf.fat is a full in-memory mirror of the virtual
// FAT array (sector id -> next sector id, or a sentinel). It is kept
// eagerly loaded and eagerly flushed, per the Design Notes "simplest
// correct design" tradeoff for files up to tens of MB.

// loadFAT reads the FAT array out of the sectors named by cf.difat (in
// order), which loadDifat has already reconstructed from the header's
// 109 inline ids plus the DIFAT overflow chain.
func (cf *CompoundFile) loadFAT() error {
	eps := entriesPerSector(cf.sectorSize)
	cf.fat = make([]uint32, 0, uint32(len(cf.difat))*eps)
	for _, sn := range cf.difat {
		buf, err := cf.readSector(sn)
		if err != nil {
			return err
		}
		for i := uint32(0); i < eps; i++ {
			cf.fat = append(cf.fat, leUint32(buf[i*4:i*4+4]))
		}
	}
	return nil
}

// flushFAT writes cf.fat back out across the sectors named by cf.difat,
// which must already describe exactly len(cf.fat)/entriesPerSector
// sectors (growFAT keeps the two in lockstep as the FAT grows).
func (cf *CompoundFile) flushFAT() error {
	eps := entriesPerSector(cf.sectorSize)
	for i, sn := range cf.difat {
		buf := make([]byte, cf.sectorSize)
		for j := uint32(0); j < eps; j++ {
			idx := uint32(i)*eps + j
			v := freeSect
			if int(idx) < len(cf.fat) {
				v = cf.fat[idx]
			}
			putLeUint32(buf[j*4:j*4+4], v)
		}
		if err := cf.writeSector(sn, buf); err != nil {
			return err
		}
	}
	return nil
}

// growFAT materializes one additional FAT sector, extending cf.fat to
// cover the entriesPerSector slots it describes (including its own),
// and records it in the DIFAT list.
func (cf *CompoundFile) growFAT() error {
	if cf.readOnly {
		return ErrReadOnly
	}
	eps := entriesPerSector(cf.sectorSize)
	newID := uint32(len(cf.fat))
	if newID > maxRegSect {
		return ErrOutOfSpace
	}
	for uint32(len(cf.fat)) < newID+eps {
		cf.fat = append(cf.fat, freeSect)
	}
	cf.fat[newID] = fatSect
	cf.difat = append(cf.difat, newID)
	cf.header.NumFatSectors++
	return nil
}

// firstFreeFAT scans for a FREE sector id, growing the FAT as needed.
func (cf *CompoundFile) firstFreeFAT() (uint32, error) {
	for {
		for i, v := range cf.fat {
			if v == freeSect {
				return uint32(i), nil
			}
		}
		if err := cf.growFAT(); err != nil {
			return 0, err
		}
	}
}

// allocateChain allocates a new chain of n sectors and returns its
// head. The chain is terminated with endOfChain.
func (cf *CompoundFile) allocateChain(n int) (uint32, error) {
	if n <= 0 {
		return endOfChain, nil
	}
	ids := make([]uint32, 0, n)
	for len(ids) < n {
		id, err := cf.firstFreeFAT()
		if err != nil {
			return 0, err
		}
		cf.fat[id] = endOfChain // provisional, fixed below
		ids = append(ids, id)
	}
	for i := 0; i < len(ids)-1; i++ {
		cf.fat[ids[i]] = ids[i+1]
	}
	return ids[0], nil
}

// extendChain appends n more sectors onto the tail of an existing
// chain (head must not be endOfChain) and returns the new tail id.
func (cf *CompoundFile) extendChain(head uint32, n int) (uint32, error) {
	tail := head
	for {
		next, err := cf.next(tail, false)
		if err != nil {
			return 0, err
		}
		if next == endOfChain {
			break
		}
		tail = next
	}
	for i := 0; i < n; i++ {
		id, err := cf.firstFreeFAT()
		if err != nil {
			return 0, err
		}
		cf.fat[tail] = id
		cf.fat[id] = endOfChain
		tail = id
	}
	return tail, nil
}

// extendOrAllocate extends *head if it already addresses a chain, or
// allocates a fresh chain and writes its head into *head if the chain
// is currently empty (endOfChain). Returns the new tail.
func (cf *CompoundFile) extendOrAllocate(head *uint32, n int) (uint32, error) {
	if *head == endOfChain {
		first, err := cf.allocateChain(n)
		if err != nil {
			return 0, err
		}
		*head = first
		return cf.chainTail(first)
	}
	return cf.extendChain(*head, n)
}

func (cf *CompoundFile) chainTail(head uint32) (uint32, error) {
	cur := head
	for {
		next, err := cf.next(cur, false)
		if err != nil {
			return 0, err
		}
		if next == endOfChain {
			return cur, nil
		}
		cur = next
	}
}

// freeChain marks every sector in the chain headed at head as FREE.
// It does not shrink the backing file.
func (cf *CompoundFile) freeChain(head uint32) error {
	if head == endOfChain || head == freeSect {
		return nil
	}
	ids, err := cf.walkChain(head, false)
	if err != nil {
		return err
	}
	for _, id := range ids {
		cf.fat[id] = freeSect
	}
	return nil
}

// next returns the FAT or miniFAT successor of sn.
func (cf *CompoundFile) next(sn uint32, mini bool) (uint32, error) {
	arr := cf.fat
	if mini {
		arr = cf.miniFat
	}
	if sn >= uint32(len(arr)) {
		return 0, newFormatError(ErrInvalidData, "sector id out of range", sn)
	}
	return arr[sn], nil
}

// walkChain walks a chain from head to END-OF-CHAIN, detecting cycles
// and out-of-range ids along the way.
func (cf *CompoundFile) walkChain(head uint32, mini bool) ([]uint32, error) {
	limit := len(cf.fat)
	if mini {
		limit = len(cf.miniFat)
	}
	ids := make([]uint32, 0, 16)
	visited := make(map[uint32]bool, 16)
	cur := head
	for cur != endOfChain {
		if cur == freeSect || cur > maxRegSect {
			return nil, newFormatError(ErrInvalidData, "invalid sector id in chain", cur)
		}
		if visited[cur] {
			return nil, newFormatError(ErrInvalidData, "cyclic sector chain detected", cur)
		}
		if len(ids) > limit {
			return nil, newFormatError(ErrInvalidData, "sector chain longer than addressable space", cur)
		}
		visited[cur] = true
		ids = append(ids, cur)
		next, err := cf.next(cur, mini)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return ids, nil
}
