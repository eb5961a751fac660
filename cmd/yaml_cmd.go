package cmd

import (
	"github.com/spf13/cobra"
)

type YamlParams struct {
	Find   string `json:"find"`   // dot-path key to look up
	Input  string `json:"input"`  // input file path
	Output string `json:"output"` // output file path
}

var yamlParams *YamlParams

var yamlCmd = &cobra.Command{
	Use:   "yaml",
	Short: "yaml parse tools",
	Run:   yamlRun,
}

func init() {
	yamlParams = &YamlParams{}
	yamlCmd.Flags().StringVarP(&yamlParams.Find, "find", "f", "", "dot-path key to look up")
	yamlCmd.Flags().StringVarP(&yamlParams.Input, "input", "i", "", "input file path")
	yamlCmd.Flags().StringVarP(&yamlParams.Output, "output", "o", "", "output path")
}

func yamlRun(cmd *cobra.Command, args []string) {
	e, _ := formatByName("yaml")
	runFormat(e, yamlParams.Input, yamlParams.Find, yamlParams.Output)
}
