package main

import "github.com/deploymenttheory/go-xts/cmd"

func main() {
	cmd.Execute()
}
