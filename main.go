package main

import "github.com/mklatt/chatwire/cmd"

func main() {
	cmd.Execute()
}
