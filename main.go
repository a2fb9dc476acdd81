package main

import "arcmemory/arc/cmd"

func main() {
	cmd.Execute()
}
