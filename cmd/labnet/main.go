package main

import "github.com/rzbill/labnet/pkg/cli/cmd"

func main() {
	cmd.Execute()
}
