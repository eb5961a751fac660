package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dzjyyds666/cq/pkg"
)

type ConvertParams struct {
	Input  string `json:"input"`  // input file path
	Output string `json:"output"` // output file path
	From   string `json:"from"`   // source format name, detected from the input extension when empty
	To     string `json:"to"`     // target format name, detected from the output extension when empty
}

var convertParams *ConvertParams

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "convert between configuration formats",
	Run:   convertRun,
}

func init() {
	convertParams = &ConvertParams{}
	convertCmd.Flags().StringVarP(&convertParams.Input, "input", "i", "", "input file path")
	convertCmd.Flags().StringVarP(&convertParams.Output, "output", "o", "", "output path")
	convertCmd.Flags().StringVar(&convertParams.From, "from", "", "source format name")
	convertCmd.Flags().StringVar(&convertParams.To, "to", "", "target format name")
}

func convertRun(cmd *cobra.Command, args []string) {
	if len(convertParams.Input) == 0 {
		fmt.Println("no input file path")
		return
	}
	src, ok := resolveFormat(convertParams.From, convertParams.Input)
	if !ok {
		fmt.Println("cannot determine source format, use --from")
		return
	}
	dst, ok := resolveFormat(convertParams.To, convertParams.Output)
	if !ok {
		fmt.Println("cannot determine target format, use --to")
		return
	}
	content, err := pkg.ReadFileContent(convertParams.Input)
	if err != nil {
		fmt.Println("read file error:", err)
		return
	}
	root, err := src.parse(content, convertParams.Input)
	if err != nil {
		fmt.Println("parse error:", err)
		return
	}
	out := dst.stringify(root)
	if len(convertParams.Output) != 0 {
		if err := pkg.WriteFileContent(convertParams.Output, out); err != nil {
			fmt.Println("write file error:", err)
		}
		return
	}
	fmt.Print(out)
}

func resolveFormat(name, path string) (formatEntry, bool) {
	if len(name) != 0 {
		return formatByName(name)
	}
	if len(path) != 0 {
		return detectFormat(path)
	}
	return formatEntry{}, false
}
