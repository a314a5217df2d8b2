package main

import "github.com/ppiankov/decisiongate/internal/cli"

func main() {
	cli.Execute()
}
