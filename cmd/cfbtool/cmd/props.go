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

	"github.com/richardlehane/msoleps"
	"github.com/spf13/cobra"
)

var propsCmd = &cobra.Command{
	Use:   "props <file> <property-stream-path>",
	Short: "Decode an OLE property set stream (e.g. \\x05SummaryInformation)",
	Long: `props decodes one of the property-set streams a CFB container
commonly carries alongside its document content, such as
"\x05SummaryInformation" or "\x05DocumentSummaryInformation", and
prints each property's name and value.`,
	Args: cobra.ExactArgs(2),
	RunE: runProps,
}

func runProps(cmd *cobra.Command, args []string) error {
	cf, f, err := openRO(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	s, err := cf.OpenStream(args[1])
	if err != nil {
		return err
	}

	doc, err := msoleps.New(s)
	if err != nil {
		// Parsing arbitrary stream content is an explicit non-goal;
		// only well-formed property sets are decoded.
		fmt.Fprintf(cmd.OutOrStdout(), "%s: not a property set\n", args[1])
		return nil
	}
	for _, p := range doc.Property {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", p.Name(), p)
	}
	return nil
}
