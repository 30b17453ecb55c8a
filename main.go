package main

import "trunkline/cmd"

func main() {
	cmd.Execute()
}
