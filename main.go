package main

import "scenarioq/cmd"

func main() {
	cmd.Execute()
}
