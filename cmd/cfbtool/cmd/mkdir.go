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

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <file> <path>",
	Short: "Create a storage",
	Args:  cobra.ExactArgs(2),
	RunE:  runMkdir,
}

func init() {
	mkdirCmd.Flags().BoolP("parents", "p", false, "create intermediate storages as needed")
}

func runMkdir(cmd *cobra.Command, args []string) error {
	cf, f, err := openRW(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	parents, _ := cmd.Flags().GetBool("parents")
	if parents {
		_, err = cf.CreateStorageAll(args[1])
		return err
	}
	_, err = cf.CreateStorage(args[1])
	return err
}
