package main

import "github.com/mchmarny/stvctl/pkg/cli"

func main() {
	cli.Execute()
}
