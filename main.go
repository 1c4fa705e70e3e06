package main

import "github.com/sv4u/tidaldl/cmd"

func main() {
	cmd.Execute()
}
