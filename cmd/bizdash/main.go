package main

import "github.com/nhle/bizdash/internal/cli"

func main() {
	cli.Execute()
}
