package main

import "github.com/genuss/jl/internal/cmd"

func main() {
	cmd.Execute()
}
