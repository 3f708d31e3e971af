package main

import "github.com/frahmantamala/issue-tracker/cmd"

func main() {
	cmd.Execute()
}
