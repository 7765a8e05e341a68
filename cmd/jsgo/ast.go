package main

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/finitefield-org/browser-tester-sub000/parser"
)

func newASTCmd(c *cli) *cobra.Command {
	var module bool
	cmd := &cobra.Command{
		Use:   "ast <file.js>",
		Short: "Parse a file and print its syntax tree as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "reading script")
			}
			parse := parser.ParseScript
			if module {
				parse = parser.ParseModule
			}
			prog, err := parse(string(data))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.stdout)
			enc.SetIndent("", "  ")
			return errors.Wrap(enc.Encode(prog), "encoding syntax tree")
		},
	}
	cmd.Flags().BoolVarP(&module, "module", "m", false, "parse as an ES module")
	return cmd
}
