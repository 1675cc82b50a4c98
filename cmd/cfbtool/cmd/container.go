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

package cmd

import (
	"os"

	"github.com/mmhliton/gocfb"
)

// openRO opens path read-only and returns both the CompoundFile and a
// closer for the backing *os.File.
func openRO(path string) (*cfb.CompoundFile, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	cf, err := cfb.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return cf, f, nil
}

// openRW opens path for reading and writing and returns both the
// CompoundFile and a closer for the backing *os.File.
func openRW(path string) (*cfb.CompoundFile, *os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, err
	}
	cf, err := cfb.OpenRW(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return cf, f, nil
}
