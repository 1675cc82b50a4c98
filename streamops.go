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

import "time"

func ceilDiv(a uint64, b uint32) uint64 {
	if a == 0 {
		return 0
	}
	return (a + uint64(b) - 1) / uint64(b)
}

// readEntryBytes reads the first length bytes of the entry's current
// chain, used as the payload carried across a mini/regular migration.
func (cf *CompoundFile) readEntryBytes(id uint32, length uint64) ([]byte, error) {
	d := cf.entries[id]
	if length == 0 || d.StartSector == endOfChain {
		return nil, nil
	}
	mini := d.StreamSize < miniStreamCutoffSize
	chain, err := cf.walkChain(d.StartSector, mini)
	if err != nil {
		return nil, err
	}
	unit := uint64(cf.sectorSize)
	if mini {
		unit = uint64(miniSectorSize)
	}
	buf := make([]byte, 0, length)
	remaining := length
	for _, unitID := range chain {
		if remaining == 0 {
			break
		}
		n := unit
		if n > remaining {
			n = remaining
		}
		var base int64
		if mini {
			base, err = cf.miniSectorOffset(unitID)
		} else {
			base = sectorOffset(cf.sectorSize, unitID)
		}
		if err != nil {
			return nil, err
		}
		chunk := make([]byte, n)
		if err := cf.readAt(base, chunk); err != nil {
			return nil, err
		}
		buf = append(buf, chunk...)
		remaining -= n
	}
	return buf, nil
}

// writeChainBytes writes data sequentially across the units of chain,
// starting at its head.
func (cf *CompoundFile) writeChainBytes(head uint32, mini bool, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	chain, err := cf.walkChain(head, mini)
	if err != nil {
		return err
	}
	unit := int(cf.sectorSize)
	if mini {
		unit = int(miniSectorSize)
	}
	off := 0
	for _, unitID := range chain {
		if off >= len(data) {
			break
		}
		n := len(data) - off
		if n > unit {
			n = unit
		}
		var base int64
		if mini {
			base, err = cf.miniSectorOffset(unitID)
		} else {
			base = sectorOffset(cf.sectorSize, unitID)
		}
		if err != nil {
			return err
		}
		if err := cf.writeAt(base, data[off:off+n]); err != nil {
			return err
		}
		off += n
	}
	return nil
}

// growStream extends an entry's chain so that it can address newLen
// bytes, migrating mini-to-regular if newLen crosses the cutoff, and
// flushes the resulting metadata. Used by callers that do not
// separately write payload bytes after growing (e.g. Truncate growing
// a stream with nothing to fill the new space).
func (cf *CompoundFile) growStream(id uint32, newLen uint64) error {
	if err := cf.growStreamChain(id, newLen); err != nil {
		return err
	}
	return cf.flushMeta()
}

// growStreamChain does the allocation/migration work of growStream
// without flushing metadata, so a caller that still has payload bytes
// to write (Stream.Write) can write them first and flush once
// afterwards — payload sectors must reach the backing container
// before the metadata describing the new length does.
func (cf *CompoundFile) growStreamChain(id uint32, newLen uint64) error {
	d := cf.entries[id]
	oldLen := d.StreamSize
	if newLen <= oldLen {
		return nil
	}
	wasMini := oldLen < miniStreamCutoffSize
	willBeMini := newLen < miniStreamCutoffSize

	switch {
	case wasMini && willBeMini:
		curUnits := ceilDiv(oldLen, miniSectorSize)
		newUnits := ceilDiv(newLen, miniSectorSize)
		if newUnits > curUnits {
			if d.StartSector == endOfChain {
				head, err := cf.allocateMiniChain(int(newUnits))
				if err != nil {
					return err
				}
				d.StartSector = head
			} else if _, err := cf.extendMiniChain(d.StartSector, int(newUnits-curUnits)); err != nil {
				return err
			}
		}
	case !wasMini && !willBeMini:
		curUnits := ceilDiv(oldLen, cf.sectorSize)
		newUnits := ceilDiv(newLen, cf.sectorSize)
		if newUnits > curUnits {
			if d.StartSector == endOfChain {
				head, err := cf.allocateChain(int(newUnits))
				if err != nil {
					return err
				}
				d.StartSector = head
			} else if _, err := cf.extendChain(d.StartSector, int(newUnits-curUnits)); err != nil {
				return err
			}
		}
	default: // mini -> regular migration
		buf, err := cf.readEntryBytes(id, oldLen)
		if err != nil {
			return err
		}
		oldHead := d.StartSector
		newUnits := ceilDiv(newLen, cf.sectorSize)
		newHead, err := cf.allocateChain(int(newUnits))
		if err != nil {
			return err
		}
		if err := cf.writeChainBytes(newHead, false, buf); err != nil {
			return err
		}
		if err := cf.freeMiniChain(oldHead); err != nil {
			return err
		}
		d.StartSector = newHead
	}
	d.StreamSize = newLen
	cf.generation++
	return nil
}

// truncateStream sets an entry's length, freeing trailing storage and
// migrating regular-to-mini when newLen drops below the cutoff.
func (cf *CompoundFile) truncateStream(id uint32, newLen uint64) error {
	d := cf.entries[id]
	oldLen := d.StreamSize
	if newLen == oldLen {
		return nil
	}
	if newLen > oldLen {
		return cf.growStream(id, newLen)
	}
	if newLen == 0 {
		mini := oldLen < miniStreamCutoffSize
		var err error
		if mini {
			err = cf.freeMiniChain(d.StartSector)
		} else {
			err = cf.freeChain(d.StartSector)
		}
		if err != nil {
			return err
		}
		d.StartSector = endOfChain
		d.StreamSize = 0
		cf.generation++
		return cf.flushMeta()
	}

	wasMini := oldLen < miniStreamCutoffSize
	willBeMini := newLen < miniStreamCutoffSize

	switch {
	case wasMini && willBeMini:
		needed := ceilDiv(newLen, miniSectorSize)
		if err := cf.shrinkChain(&d.StartSector, true, needed); err != nil {
			return err
		}
	case !wasMini && !willBeMini:
		needed := ceilDiv(newLen, cf.sectorSize)
		if err := cf.shrinkChain(&d.StartSector, false, needed); err != nil {
			return err
		}
	default: // regular -> mini migration
		buf, err := cf.readEntryBytes(id, newLen)
		if err != nil {
			return err
		}
		oldHead := d.StartSector
		needed := ceilDiv(newLen, miniSectorSize)
		newHead, err := cf.allocateMiniChain(int(needed))
		if err != nil {
			return err
		}
		if err := cf.writeChainBytes(newHead, true, buf); err != nil {
			return err
		}
		if err := cf.freeChain(oldHead); err != nil {
			return err
		}
		d.StartSector = newHead
	}
	d.StreamSize = newLen
	cf.generation++
	return cf.flushMeta()
}

// shrinkChain keeps the first needed units of the chain addressed by
// *head and frees the rest.
func (cf *CompoundFile) shrinkChain(head *uint32, mini bool, needed uint64) error {
	if *head == endOfChain {
		return nil
	}
	chain, err := cf.walkChain(*head, mini)
	if err != nil {
		return err
	}
	if uint64(len(chain)) <= needed {
		return nil
	}
	freeHead := chain[needed]
	arr := cf.fat
	if mini {
		arr = cf.miniFat
	}
	if needed == 0 {
		*head = endOfChain
	} else {
		arr[chain[needed-1]] = endOfChain
	}
	if mini {
		return cf.freeMiniChain(freeHead)
	}
	return cf.freeChain(freeHead)
}

// touchEntry stamps an entry's modified time to now. It does not
// invalidate open Stream chain caches: metadata-only changes never
// alter sector layout.
func (cf *CompoundFile) touchEntry(id uint32) error {
	if cf.readOnly {
		return ErrReadOnly
	}
	cf.entries[id].ModifiedDate = timeToFiletime(time.Now())
	return cf.flushMeta()
}
