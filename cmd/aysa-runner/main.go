package main

import "github.com/devicelab-dev/aysa-runner/pkg/cli"

func main() {
	cli.Execute()
}
