package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dzjyyds666/cq/parse"
	"github.com/dzjyyds666/cq/parse/toml"
	"github.com/dzjyyds666/cq/parse/yaml"
	"github.com/dzjyyds666/cq/pkg"
)

// formatEntry binds a format's registry metadata to its parse and
// stringify functions.
type formatEntry struct {
	meta      parse.Format
	parse     func(content, sourceName string) (parse.Node, error)
	stringify func(parse.Node) string
}

var formatTable = []formatEntry{
	{
		meta:      yaml.Format,
		parse:     yaml.Parse,
		stringify: yaml.Stringify,
	},
	{
		meta: toml.Format,
		parse: func(content, sourceName string) (parse.Node, error) {
			return toml.Parse(content, sourceName)
		},
		stringify: toml.Stringify,
	},
}

// detectFormat picks the format recognizing the path's extension. When
// extensions overlap the highest priority wins.
func detectFormat(path string) (formatEntry, bool) {
	ext := filepath.Ext(path)
	var best formatEntry
	found := false
	for _, e := range formatTable {
		if !e.meta.Recognizes(ext) {
			continue
		}
		if !found || e.meta.Priority > best.meta.Priority {
			best = e
			found = true
		}
	}
	return best, found
}

func formatByName(name string) (formatEntry, bool) {
	for _, e := range formatTable {
		if e.meta.Name == name {
			return e, true
		}
	}
	return formatEntry{}, false
}

// runFormat is the shared body of the yaml and toml subcommands: parse
// the input file, optionally look up a dot-path key, and either write or
// print the canonical form.
func runFormat(e formatEntry, input, find, output string) {
	if len(input) == 0 {
		fmt.Println("no input file path")
		return
	}
	exist, err := pkg.CheckFileExist(input)
	if err != nil {
		fmt.Println("check file exist error:", err)
		return
	}
	if !exist {
		fmt.Println("input file not exist")
		return
	}
	content, err := pkg.ReadFileContent(input)
	if err != nil {
		fmt.Println("read file error:", err)
		return
	}
	root, err := e.parse(content, input)
	if err != nil {
		fmt.Println("parse error:", err)
		return
	}
	if len(find) != 0 {
		n, ok := parse.Get(root, strings.Split(find, ".")...)
		if !ok {
			fmt.Println("key not found:", find)
			return
		}
		printNode(e, n)
		return
	}
	out := e.stringify(root)
	if len(output) != 0 {
		if err := pkg.WriteFileContent(output, out); err != nil {
			fmt.Println("write file error:", err)
		}
		return
	}
	fmt.Print(out)
}

func printNode(e formatEntry, n parse.Node) {
	if _, ok := n.(*parse.Value); ok {
		fmt.Println(parse.ToUntyped(n))
		return
	}
	fmt.Print(e.stringify(n))
}
