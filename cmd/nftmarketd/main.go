package main

import "github.com/LeJamon/goNFTMarket/internal/cli"

func main() {
	cli.Execute()
}
