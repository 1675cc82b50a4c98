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
	"encoding/binary"
	"fmt"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a stream with a predefined record under an existing storage",
	Long: `create opens an existing compound file, looks up the storage named by
--inner-path, and creates a new stream named --stream-name underneath
it holding a fixed little-endian record: a length-prefixed string,
an int32, a float32 and a float64.`,
	RunE: runCreate,
}

func init() {
	createCmd.Flags().String("file-path", "", "path to the compound file")
	createCmd.Flags().String("inner-path", "", "path to the storage inside the compound file")
	createCmd.Flags().String("stream-name", "", "name for the new stream")
	createCmd.MarkFlagRequired("file-path")
	createCmd.MarkFlagRequired("inner-path")
	createCmd.MarkFlagRequired("stream-name")
}

// Fixed payload for the predefined record, matching the original
// cfbtool's write_values("Hello", 123, 45.67, 89.1011) call.
const (
	recordText   = "Hello"
	recordInt32  = int32(123)
	recordFloat  = float32(45.67)
	recordDouble = float64(89.1011)
)

func runCreate(cmd *cobra.Command, args []string) error {
	filePath, _ := cmd.Flags().GetString("file-path")
	innerPath, _ := cmd.Flags().GetString("inner-path")
	streamName, _ := cmd.Flags().GetString("stream-name")

	cf, f, err := openRW(filePath)
	if err != nil {
		return err
	}
	defer f.Close()

	isStorage, err := cf.IsStorage(innerPath)
	if err != nil {
		return fmt.Errorf("cfbtool: %s: %w", innerPath, err)
	}
	if !isStorage {
		return fmt.Errorf("cfbtool: %s is not a storage", innerPath)
	}

	s, err := cf.CreateStream(innerPath + "/" + streamName)
	if err != nil {
		return err
	}

	text := []byte(recordText)
	if err := binary.Write(s, binary.LittleEndian, uint32(len(text))); err != nil {
		return err
	}
	if _, err := s.Write(text); err != nil {
		return err
	}
	if err := binary.Write(s, binary.LittleEndian, recordInt32); err != nil {
		return err
	}
	if err := binary.Write(s, binary.LittleEndian, recordFloat); err != nil {
		return err
	}
	if err := binary.Write(s, binary.LittleEndian, recordDouble); err != nil {
		return err
	}

	if err := cf.Flush(); err != nil {
		return err
	}
	clog := log.Container(filePath)
	clog.Infof("created stream %q under %s", streamName, innerPath)
	clog.Generation(cf.Generation(), "flushed after stream creation")
	fmt.Fprintf(cmd.OutOrStdout(), "Successfully created stream '%s' in '%s'\n", streamName, filePath)
	return nil
}
