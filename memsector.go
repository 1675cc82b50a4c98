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

import "io"

// MemSector is a growable in-memory backing container, usable
// anywhere an *os.File would be: a scratch compound file that never
// touches the OS filesystem. Grounded on original_source's
// test_memory_usage.rs / create_test_cfb.rs, which build a compound
// file entirely over an in-memory cursor before ever writing it out.
type MemSector struct {
	buf []byte
	pos int64
}

// NewMemSector returns an empty in-memory backing container.
func NewMemSector() *MemSector {
	return &MemSector{}
}

func (m *MemSector) Read(p []byte) (int, error) {
	if m.pos >= int64(len(m.buf)) {
		return 0, io.EOF
	}
	n := copy(p, m.buf[m.pos:])
	m.pos += int64(n)
	return n, nil
}

func (m *MemSector) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	n := copy(m.buf[m.pos:end], p)
	m.pos = end
	return n, nil
}

func (m *MemSector) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = m.pos + offset
	case io.SeekEnd:
		abs = int64(len(m.buf)) + offset
	default:
		return 0, newFormatError(ErrInvalidInput, "invalid seek whence", noStream)
	}
	if abs < 0 {
		return 0, newFormatError(ErrInvalidInput, "negative seek position", noStream)
	}
	m.pos = abs
	return abs, nil
}

// Bytes returns the current contents; the slice aliases the
// MemSector's internal buffer and must not be mutated by the caller.
func (m *MemSector) Bytes() []byte { return m.buf }

// Len reports the current container length.
func (m *MemSector) Len() int64 { return int64(len(m.buf)) }
