package main

import "github.com/kawagoe/orgaudit/cmd"

func main() {
	cmd.Execute()
}
