package main

import "github.com/viktsys/b3history/cmd"

func main() {
	cmd.Execute()
}
