package main

import "github.com/Tiliavir/work-board/cmd"

func main() {
	cmd.Execute()
}
