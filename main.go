package main

import "github.com/afcpln/listingnet/cmd"

func main() {
	cmd.Execute()
}
