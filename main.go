package main

import "github.com/fakeyudi/promptmark/cmd"

func main() {
	cmd.Execute()
}
