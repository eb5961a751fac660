package cmd

import (
	"github.com/spf13/cobra"
)

type TomlParams struct {
	Find   string `json:"find"`   // dot-path key to look up
	Input  string `json:"input"`  // input file path
	Output string `json:"output"` // output file path
}

var tomlParams *TomlParams

var tomlCmd = &cobra.Command{
	Use:   "toml",
	Short: "toml parse tools",
	Run:   tomlRun,
}

func init() {
	tomlParams = &TomlParams{}
	tomlCmd.Flags().StringVarP(&tomlParams.Find, "find", "f", "", "dot-path key to look up")
	tomlCmd.Flags().StringVarP(&tomlParams.Input, "input", "i", "", "input file path")
	tomlCmd.Flags().StringVarP(&tomlParams.Output, "output", "o", "", "output path")
}

func tomlRun(cmd *cobra.Command, args []string) {
	e, _ := formatByName("toml")
	runFormat(e, tomlParams.Input, tomlParams.Find, tomlParams.Output)
}
