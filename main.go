package main

import "github.com/solipsis/go-bootenv/cmd"

func main() {
	cmd.Execute()
}
