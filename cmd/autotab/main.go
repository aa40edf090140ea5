package main

import "github.com/noahxzhu/autotab/internal/cli"

func main() {
	cli.Execute()
}
