package main

import "drawsync/cmd/client/cmd"

func main() {
	cmd.Execute()
}
