package main

import "notionsync/cmd/notionsync/cmd"

func main() {
	cmd.Execute()
}
