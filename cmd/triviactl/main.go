package main

import "github.com/mcoot/trivia-pot/internal/cli"

func main() {
	cli.Execute()
}
