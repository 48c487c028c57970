package main

import "dataviews/cmd"

func main() {
	cmd.Execute()
}
