// cmd/solar-checker/main.go
package main

import (
	"os"

	"solar-checker/cmd/solar-checker/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
