package main

import "github.com/LeJamon/ammquote/internal/cli"

func main() {
	cli.Execute()
}
