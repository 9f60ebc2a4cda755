package main

import "example.com/fieldops/cmd"

func main() {
	cmd.Execute()
}
