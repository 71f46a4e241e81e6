package main

import "rpabridge/cmd"

func main() {
	cmd.Execute()
}
