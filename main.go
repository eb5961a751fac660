package main

import "github.com/dzjyyds666/cq/cmd"

func main() {
	cmd.Execute()
}
