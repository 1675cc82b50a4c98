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

var mvCmd = &cobra.Command{
	Use:   "mv <file> <path> <new-name>",
	Short: "Rename an entry in place",
	Args:  cobra.ExactArgs(3),
	RunE:  runMv,
}

func runMv(cmd *cobra.Command, args []string) error {
	cf, f, err := openRW(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	return cf.Rename(args[1], args[2])
}
