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

import "testing"

func TestSectorOffset(t *testing.T) {
	cases := []struct {
		sectorSize uint32
		sn         uint32
		want       int64
	}{
		{sectorSizeV3, 0, 512},
		{sectorSizeV3, 1, 1024},
		{sectorSizeV4, 0, 4096},
		{sectorSizeV4, 1, 8192},
	}
	for _, c := range cases {
		if got := sectorOffset(c.sectorSize, c.sn); got != c.want {
			t.Errorf("sectorOffset(%d, %d) = %d, want %d", c.sectorSize, c.sn, got, c.want)
		}
	}
}

func TestMiniSectorsPerSector(t *testing.T) {
	if got := miniSectorsPerSector(sectorSizeV3); got != 8 {
		t.Errorf("V3 miniSectorsPerSector = %d, want 8", got)
	}
	if got := miniSectorsPerSector(sectorSizeV4); got != 64 {
		t.Errorf("V4 miniSectorsPerSector = %d, want 64", got)
	}
}

func TestEntriesPerSector(t *testing.T) {
	if got := entriesPerSector(sectorSizeV3); got != 128 {
		t.Errorf("V3 entriesPerSector = %d, want 128", got)
	}
	if got := entriesPerSector(sectorSizeV4); got != 1024 {
		t.Errorf("V4 entriesPerSector = %d, want 1024", got)
	}
}

func TestDirEntriesPerSector(t *testing.T) {
	if got := dirEntriesPerSector(sectorSizeV3); got != 4 {
		t.Errorf("V3 dirEntriesPerSector = %d, want 4", got)
	}
	if got := dirEntriesPerSector(sectorSizeV4); got != 32 {
		t.Errorf("V4 dirEntriesPerSector = %d, want 32", got)
	}
}

func TestVersionSectorSize(t *testing.T) {
	if V3.sectorSize() != 512 || V3.sectorShift() != 9 {
		t.Errorf("V3 sectorSize/sectorShift wrong: %d/%d", V3.sectorSize(), V3.sectorShift())
	}
	if V4.sectorSize() != 4096 || V4.sectorShift() != 12 {
		t.Errorf("V4 sectorSize/sectorShift wrong: %d/%d", V4.sectorSize(), V4.sectorShift())
	}
}
