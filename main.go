package main

import "github.com/snwareresearch/project-tracker/cmd"

func main() {
	cmd.Execute()
}
