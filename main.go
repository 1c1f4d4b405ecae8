package main

import "github.com/agentic-research/treesearch/cmd"

func main() {
	cmd.Execute()
}
