package main

import "github.com/moyu-x/dropwatch/cmd"

func main() {
	cmd.Execute()
}
