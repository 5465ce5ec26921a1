package main

import "insightpro/cmd"

func main() {
	cmd.Execute()
}
