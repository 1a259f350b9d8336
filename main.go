package main

import "github.com/pyneda/stapi/cmd"

func main() {
	cmd.Execute()
}
