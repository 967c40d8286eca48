package main

import "finlint/cmd"

func main() {
	cmd.Execute()
}
