package main

import "github.com/flutterfly/devbridge/pkg/cli"

func main() {
	cli.Execute()
}
