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

// Package cmd implements the cfbtool command-line interface: a set of
// cobra subcommands for inspecting and editing compound file binary
// containers from the shell.
package cmd

import (
	"os"

	"github.com/mmhliton/gocfb/internal/cfblog"
	"github.com/spf13/cobra"
)

const appName = "cfbtool"

var log *cfblog.Logger

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: appName + " - inspect and edit compound file binary containers",
	Long: `cfbtool reads and edits Compound File Binary (CFB/OLE2) containers:
the structured-storage format behind legacy MS Office documents and
many other applications.

Examples:
  cfbtool ls doc.doc
  cfbtool ls -l doc.doc /ObjectPool
  cfbtool cat doc.doc "/WordDocument" > wd.bin
  cfbtool mkdir -p new.cfb /A/B
  cfbtool create --file-path doc.doc --inner-path /A --stream-name s
  cfbtool props doc.doc $'/\x05SummaryInformation'`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		log = cfblog.New(os.Stderr, cfblog.ParseLevel(level))
		return nil
	},
}

// Execute runs the cfbtool command tree, exiting the process with a
// non-zero status on failure.
func Execute() {
	rootCmd.PersistentFlags().String("log-level", "INFO", "DEBUG, INFO, WARN or ERROR")
	rootCmd.AddCommand(lsCmd, catCmd, mkdirCmd, rmCmd, mvCmd, chclsCmd, createCmd, propsCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
