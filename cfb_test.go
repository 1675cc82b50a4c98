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

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func equals(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i, v := range a {
		if v != b[i] {
			return false
		}
	}
	return true
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func TestCreateMemRoot(t *testing.T) {
	cf, _, err := CreateMem(V4)
	if err != nil {
		t.Fatalf("CreateMem: %v", err)
	}
	e, err := cf.Entry("/")
	if err != nil {
		t.Fatalf("Entry(\"/\"): %v", err)
	}
	if !e.IsRoot() || !e.IsStorage() {
		t.Error("root entry should be both root and storage")
	}
}

func TestCreateStreamWriteReadReopen(t *testing.T) {
	cf, m, err := CreateMem(V4)
	if err != nil {
		t.Fatalf("CreateMem: %v", err)
	}
	if _, err := cf.CreateStorage("/A"); err != nil {
		t.Fatalf("CreateStorage: %v", err)
	}
	s, err := cf.CreateStream("/A/s")
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	payload := pattern(100)
	if n, err := s.Write(payload); err != nil || n != len(payload) {
		t.Fatalf("Write: n=%d err=%v", n, err)
	}

	cf2, err := Open(m)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	s2, err := cf2.OpenStream("/A/s")
	if err != nil {
		t.Fatalf("OpenStream after reopen: %v", err)
	}
	if s2.Len() != 100 {
		t.Fatalf("Len after reopen = %d, want 100", s2.Len())
	}
	got := make([]byte, 100)
	if _, err := io.ReadFull(s2, got); err != nil {
		t.Fatalf("Read after reopen: %v", err)
	}
	if !equals(got, payload) {
		t.Error("content mismatch after reopen")
	}
}

func TestMiniToRegularMigration(t *testing.T) {
	cf, _, err := CreateMem(V3)
	if err != nil {
		t.Fatalf("CreateMem: %v", err)
	}
	s, err := cf.CreateStream("/big")
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	first := pattern(4095)
	if _, err := s.Write(first); err != nil {
		t.Fatalf("initial write: %v", err)
	}
	if s.Len() != 4095 {
		t.Fatalf("Len after first write = %d, want 4095", s.Len())
	}
	if _, err := s.Seek(4095, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	if _, err := s.Write([]byte{0xAB}); err != nil {
		t.Fatalf("crossing write: %v", err)
	}
	if s.Len() != 4096 {
		t.Fatalf("Len after crossing write = %d, want 4096", s.Len())
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek to start: %v", err)
	}
	got := make([]byte, 4096)
	if _, err := io.ReadFull(s, got); err != nil {
		t.Fatalf("Read whole stream: %v", err)
	}
	want := append(append([]byte{}, first...), 0xAB)
	if !equals(got, want) {
		t.Error("content mismatch across mini->regular migration")
	}
}

func TestTruncateRegularToMiniMigration(t *testing.T) {
	cf, _, err := CreateMem(V4)
	if err != nil {
		t.Fatalf("CreateMem: %v", err)
	}
	s, err := cf.CreateStream("/huge")
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	big := pattern(10 * 1024 * 1024)
	if _, err := s.Write(big); err != nil {
		t.Fatalf("write large payload: %v", err)
	}
	if err := s.Truncate(2048); err != nil {
		t.Fatalf("Truncate: %v", err)
	}
	if s.Len() != 2048 {
		t.Fatalf("Len after truncate = %d, want 2048", s.Len())
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got := make([]byte, 2048)
	if _, err := io.ReadFull(s, got); err != nil {
		t.Fatalf("Read after truncate: %v", err)
	}
	if !equals(got, big[:2048]) {
		t.Error("content mismatch after regular->mini truncate migration")
	}
}

// TestLargeStream writes a multi-megabyte stream in chunks, the way
// create_large_cfb.rs/create_1gb_cfb.rs build up a container
// incrementally rather than buffering the whole payload, and confirms
// the chain grows correctly and the content round-trips.
func TestLargeStream(t *testing.T) {
	cf, _, err := CreateMem(V4)
	if err != nil {
		t.Fatalf("CreateMem: %v", err)
	}
	s, err := cf.CreateStream("/large")
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	const chunkSize = 64 * 1024
	const chunks = 40
	want := make([]byte, 0, chunkSize*chunks)
	for i := 0; i < chunks; i++ {
		chunk := pattern(chunkSize)
		if _, err := s.Write(chunk); err != nil {
			t.Fatalf("chunk %d write: %v", i, err)
		}
		want = append(want, chunk...)
		if s.Len() != uint64(len(want)) {
			t.Fatalf("Len after chunk %d = %d, want %d", i, s.Len(), len(want))
		}
	}
	if _, err := s.Seek(0, io.SeekStart); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	got := make([]byte, len(want))
	if _, err := io.ReadFull(s, got); err != nil {
		t.Fatalf("Read whole stream: %v", err)
	}
	if !equals(got, want) {
		t.Error("content mismatch after chunked large-stream write")
	}
}

func TestChildOrderingCFB(t *testing.T) {
	cf, _, err := CreateMem(V4)
	if err != nil {
		t.Fatalf("CreateMem: %v", err)
	}
	for _, name := range []string{"/aaa", "/B", "/Ab"} {
		if _, err := cf.CreateStream(name); err != nil {
			t.Fatalf("CreateStream(%q): %v", name, err)
		}
	}
	children, err := cf.ReadStorage("/")
	if err != nil {
		t.Fatalf("ReadStorage: %v", err)
	}
	wantOrder := []string{"B", "Ab", "aaa"}
	if len(children) != len(wantOrder) {
		t.Fatalf("got %d children, want %d", len(children), len(wantOrder))
	}
	for i, w := range wantOrder {
		if children[i].Name() != w {
			t.Errorf("child %d = %q, want %q", i, children[i].Name(), w)
		}
	}
}

func TestRemoveNonEmptyStorageFails(t *testing.T) {
	cf, _, err := CreateMem(V4)
	if err != nil {
		t.Fatalf("CreateMem: %v", err)
	}
	if _, err := cf.CreateStorage("/A"); err != nil {
		t.Fatalf("CreateStorage: %v", err)
	}
	if _, err := cf.CreateStream("/A/s"); err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	err = cf.RemoveStorage("/A")
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("RemoveStorage on non-empty storage: got %v, want ErrInvalidInput", err)
	}
	if err := cf.RemoveStream("/A/s"); err != nil {
		t.Fatalf("RemoveStream: %v", err)
	}
	if err := cf.RemoveStorage("/A"); err != nil {
		t.Errorf("RemoveStorage on now-empty storage: %v", err)
	}
}

func TestRemoveStorageAllRecursive(t *testing.T) {
	cf, _, err := CreateMem(V4)
	if err != nil {
		t.Fatalf("CreateMem: %v", err)
	}
	if _, err := cf.CreateStorageAll("/A/B/C"); err != nil {
		t.Fatalf("CreateStorageAll: %v", err)
	}
	if _, err := cf.CreateStream("/A/B/C/s"); err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	if err := cf.RemoveStorageAll("/A"); err != nil {
		t.Fatalf("RemoveStorageAll: %v", err)
	}
	if cf.Exists("/A") {
		t.Error("/A should no longer exist after RemoveStorageAll")
	}
}

func TestRenameReordersTree(t *testing.T) {
	cf, _, err := CreateMem(V4)
	if err != nil {
		t.Fatalf("CreateMem: %v", err)
	}
	if _, err := cf.CreateStream("/z"); err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	if err := cf.Rename("/z", "a"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if cf.Exists("/z") {
		t.Error("/z should no longer resolve after rename")
	}
	if !cf.Exists("/a") {
		t.Error("/a should resolve after rename")
	}
}

func TestInvalidComponentRejected(t *testing.T) {
	cf, _, err := CreateMem(V4)
	if err != nil {
		t.Fatalf("CreateMem: %v", err)
	}
	if _, err := cf.CreateStream("/bad:name"); err == nil {
		t.Error("CreateStream with forbidden character should fail")
	}
	if _, err := cf.CreateStream("/a/../b"); err == nil {
		t.Error("CreateStream with \"..\" component should fail")
	}
}

func TestHeaderRejectsBadCutoff(t *testing.T) {
	h := newHeader(V4)
	buf := h.marshal(sectorSizeV4)
	// Corrupt the mini stream cutoff field (offset 56..60).
	buf[56] = 0x01
	if _, err := parseHeader(buf[:lenHeader]); err == nil {
		t.Error("parseHeader should reject a non-4096 mini stream cutoff")
	}
}

func TestHeaderRejectsBadSignature(t *testing.T) {
	h := newHeader(V3)
	buf := h.marshal(sectorSizeV3)
	buf[0] = 0x00
	if _, err := parseHeader(buf[:lenHeader]); err == nil {
		t.Error("parseHeader should reject a bad signature")
	}
}

func TestWalkPreOrder(t *testing.T) {
	cf, _, err := CreateMem(V4)
	if err != nil {
		t.Fatalf("CreateMem: %v", err)
	}
	if _, err := cf.CreateStorageAll("/A"); err != nil {
		t.Fatalf("CreateStorageAll: %v", err)
	}
	if _, err := cf.CreateStream("/A/s1"); err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	if _, err := cf.CreateStream("/top"); err != nil {
		t.Fatalf("CreateStream: %v", err)
	}
	entries := cf.Walk()
	if len(entries) == 0 || !entries[0].IsRoot() {
		t.Fatal("Walk should start with the root entry")
	}
	var sawA, sawS1, sawTop bool
	for _, e := range entries {
		switch e.Path() {
		case "A":
			sawA = true
		case "A/s1":
			sawS1 = true
		case "top":
			sawTop = true
		}
	}
	if !sawA || !sawS1 || !sawTop {
		t.Errorf("Walk missing expected paths: A=%v A/s1=%v top=%v", sawA, sawS1, sawTop)
	}
}

func TestReadOnlyRejectsMutation(t *testing.T) {
	_, m, err := CreateMem(V4)
	if err != nil {
		t.Fatalf("CreateMem: %v", err)
	}
	cf, err := Open(m)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := cf.CreateStream("/s"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("CreateStream on read-only file: got %v, want ErrReadOnly", err)
	}
}

func TestStateBitsAndCLSIDRoundTrip(t *testing.T) {
	cf, _, err := CreateMem(V4)
	if err != nil {
		t.Fatalf("CreateMem: %v", err)
	}
	if _, err := cf.CreateStorage("/A"); err != nil {
		t.Fatalf("CreateStorage: %v", err)
	}
	if err := cf.SetStateBits("/A", 0x42); err != nil {
		t.Fatalf("SetStateBits: %v", err)
	}
	var id CLSID
	copy(id[:], bytes.Repeat([]byte{0x7}, 16))
	if err := cf.SetStorageCLSID("/A", id); err != nil {
		t.Fatalf("SetStorageCLSID: %v", err)
	}
	e, err := cf.Entry("/A")
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	if e.StateBits() != 0x42 {
		t.Errorf("StateBits = %#x, want 0x42", e.StateBits())
	}
	if e.CLSID() != id {
		t.Errorf("CLSID = %v, want %v", e.CLSID(), id)
	}
}
