package main

import "github.com/sadopc/shiftclock/cmd"

func main() {
	cmd.Execute()
}
