// Package main provides the entry point for mesi4sim.
// mesi4sim is a cycle-accurate simulator of a four-core chip
// multiprocessor with private write-back MESI caches over a shared,
// arbitrated bus.
//
// For the full CLI, use: go run ./cmd/mesi4sim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("mesi4sim - Four-Core MESI Multiprocessor Simulator")
	fmt.Println("")
	fmt.Println("Usage: mesi4sim [imem0 imem1 imem2 imem3 memin]")
	fmt.Println("   OR: mesi4sim [all 27 input and output files]")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/mesi4sim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/mesi4sim' instead.")
	}
}
