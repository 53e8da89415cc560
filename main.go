package main

import "github.com/tanq16/futload/cmd"

func main() {
	cmd.Execute()
}
