package main

import "github.com/okairos/deltarig/cmd"

func main() {
	cmd.Execute()
}
