package main

import "github.com/claimstake/console/cmd"

func main() {
	cmd.Execute()
}
