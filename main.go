package main

import "github.com/RyanBlaney/edf2cfs/cmd"

func main() {
	cmd.Execute()
}
