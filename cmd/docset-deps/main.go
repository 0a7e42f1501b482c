package main

import "docset-deps/internal/cli"

func main() {
	cli.Execute()
}
