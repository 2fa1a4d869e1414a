// Command claimcore serves, imports, reports on and archives insurance
// policyholder and claim records.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
