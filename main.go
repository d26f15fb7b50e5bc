package main

import "github.com/ottojp/ccdev/cmd"

func main() {
	cmd.Execute()
}
