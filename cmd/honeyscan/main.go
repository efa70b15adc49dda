// Command honeyscan analyses scam messages offline.
package main

import (
	"os"

	"github.com/ashureev/scam-honeypot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
