package main

import "github.com/kozaktomas/faceid/cmd"

func main() {
	cmd.Execute()
}
