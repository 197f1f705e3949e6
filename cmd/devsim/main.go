package main

import "github.com/devsimlab/devsim/cmd/devsim/cmd"

func main() {
	cmd.Execute()
}
