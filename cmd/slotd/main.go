package main

import "github.com/sandeepkv93/slotd/internal/cli"

func main() {
	cli.Execute()
}
