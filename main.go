package main

import "github.com/ebudnikov/dateguard/cmd"

func main() {
	cmd.Execute()
}
