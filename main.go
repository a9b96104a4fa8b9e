package main

import "github.com/theirongolddev/budgetrecon/cmd"

func main() {
	cmd.Execute()
}
