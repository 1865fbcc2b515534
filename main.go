// ./main.go
package main

import (
	"github.com/xkilldash9x/bugtrap/cmd"
)

// main is the entry point for the bugtrap CLI.
func main() {
	cmd.Execute()
}
