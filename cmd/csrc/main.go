// Command csrc builds, signs and submits certificate registry
// transactions to a validator.
package main

import "github.com/consensource/consensource-cli/internal/cli"

func main() {
	cli.Execute()
}
