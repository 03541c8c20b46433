package main

import "github.com/quelgo/quel/cmd"

func main() {
	cmd.Execute()
}
