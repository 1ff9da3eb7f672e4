package main

import "github.com/emedialab/sioviz/internal/cli"

func main() {
	cli.Main()
}
