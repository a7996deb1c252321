package main

import "github.com/vestlock/vestlock/cmd"

func main() {
	cmd.Execute()
}
