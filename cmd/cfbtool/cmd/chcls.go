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
	"encoding/hex"
	"fmt"

	"github.com/mmhliton/gocfb"
	"github.com/spf13/cobra"
)

var chclsCmd = &cobra.Command{
	Use:   "chcls <file> <path> <clsid-hex>",
	Short: "Set a storage's CLSID from a 32 character hex string",
	Args:  cobra.ExactArgs(3),
	RunE:  runChcls,
}

func runChcls(cmd *cobra.Command, args []string) error {
	raw, err := hex.DecodeString(args[2])
	if err != nil {
		return fmt.Errorf("cfbtool: invalid clsid hex: %w", err)
	}
	if len(raw) != 16 {
		return fmt.Errorf("cfbtool: clsid must be exactly 16 bytes (32 hex characters), got %d", len(raw))
	}
	var clsid cfb.CLSID
	copy(clsid[:], raw)

	cf, f, err := openRW(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	return cf.SetStorageCLSID(args[1], clsid)
}
