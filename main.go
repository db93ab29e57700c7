package main

import "pctrack/cmd"

func main() {
	cmd.Execute()
}
