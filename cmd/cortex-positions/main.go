package main

import "github.com/mvp-joe/cortex-positions/internal/cli"

func main() {
	cli.Execute()
}
