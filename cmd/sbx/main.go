package main

import "github.com/vytor/sbx/internal/cli"

func main() {
	cli.Execute()
}
