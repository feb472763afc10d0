package main

import "tunehub/cmd"

func main() {
	cmd.Execute()
}
