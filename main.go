// Package main provides the entry point for cnnsim.
// cnnsim is a cycle-level simulator of a streaming fixed-point CNN
// classifier accelerator built on Akita.
//
// For the full CLI, use: go run ./cmd/cnnsim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("cnnsim - Streaming CNN Accelerator Simulator")
	fmt.Println("Built on Akita simulation framework")
	fmt.Println("")
	fmt.Println("Usage: cnnsim [options] <image.raw> [image.raw ...]")
	fmt.Println("")
	fmt.Println("Options:")
	fmt.Println("  -timing    Enable cycle-level timing simulation mode")
	fmt.Println("  -akita     Run the timing model inside the event-driven engine")
	fmt.Println("  -config    Path to datapath configuration JSON file")
	fmt.Println("  -weights   Directory holding the hex weight files")
	fmt.Println("  -v         Verbose output")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/cnnsim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/cnnsim' instead.")
	}
}
