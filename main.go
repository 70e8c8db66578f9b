package main

import "github.com/Mohsinsiddi/cappu/cmd"

func main() {
	cmd.Execute()
}
