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

import "github.com/spf13/cobra"

var rmCmd = &cobra.Command{
	Use:   "rm <file> <path>",
	Short: "Remove a stream or an empty storage",
	Args:  cobra.ExactArgs(2),
	RunE:  runRm,
}

func init() {
	rmCmd.Flags().BoolP("recursive", "r", false, "remove a storage and everything inside it")
}

func runRm(cmd *cobra.Command, args []string) error {
	cf, f, err := openRW(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	recursive, _ := cmd.Flags().GetBool("recursive")

	isStorage, err := cf.IsStorage(args[1])
	if err != nil {
		return err
	}
	if !isStorage {
		return cf.RemoveStream(args[1])
	}
	if recursive {
		return cf.RemoveStorageAll(args[1])
	}
	return cf.RemoveStorage(args[1])
}
