package main

import "github.com/mvp-joe/centrifuge/internal/cli"

func main() {
	cli.Execute()
}
