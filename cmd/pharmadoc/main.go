package main

import "pharmadoc/internal/cli"

func main() {
	cli.Execute()
}
