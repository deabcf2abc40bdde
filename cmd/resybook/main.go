package main

import "github.com/example/resy-booker/cmd"

func main() {
	cmd.Execute()
}
