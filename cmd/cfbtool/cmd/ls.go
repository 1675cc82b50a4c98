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
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mmhliton/gocfb"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls <file> [path]",
	Short: "List the children of a storage",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runLs,
}

func init() {
	lsCmd.Flags().BoolP("long", "l", false, "show type and size columns")
	lsCmd.Flags().BoolP("all", "a", false, "include hidden entries (names starting with \\x01, \\x02 or \\x05)")
}

func runLs(cmd *cobra.Command, args []string) error {
	path := "/"
	if len(args) > 1 {
		path = args[1]
	}
	long, _ := cmd.Flags().GetBool("long")
	all, _ := cmd.Flags().GetBool("all")

	cf, f, err := openRO(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	children, err := cf.ReadStorage(path)
	if err != nil {
		return err
	}
	for _, e := range children {
		if !all && isHidden(e.Name()) {
			continue
		}
		printEntry(cmd, e, long)
	}
	return nil
}

// isHidden reports whether name starts with one of the control
// characters 0x01, 0x02 or 0x05 that conventionally prefix
// system-defined entries (0x05 marks OLE property-set streams such
// as SummaryInformation).
func isHidden(name string) bool {
	return strings.HasPrefix(name, "\x05") || strings.HasPrefix(name, "\x01") || strings.HasPrefix(name, "\x02")
}

func printEntry(cmd *cobra.Command, e cfb.Entry, long bool) {
	kind := "stream"
	if e.IsStorage() {
		kind = "storage"
	}
	if !long {
		fmt.Fprintln(cmd.OutOrStdout(), e.Name())
		return
	}
	size := humanize.Bytes(e.Len())
	fmt.Fprintf(cmd.OutOrStdout(), "%-8s %10s %s %s\n", kind, size, e.Modified().Format("2006-01-02 15:04:05"), e.Name())
}
