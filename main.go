package main

import "github.com/llmgate/promptcoder/cmd"

func main() {
	cmd.Execute()
}
