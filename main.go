package main

import "shadow-ledger/cli"

func main() {
	cli.Execute()
}
