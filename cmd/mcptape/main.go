package main

import "github.com/mcptape/mcptape/pkg/cli"

func main() {
	cli.Execute()
}
