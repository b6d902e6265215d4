package main

import "github.com/veskrna/face-attend/cmd"

func main() {
	cmd.Execute()
}
