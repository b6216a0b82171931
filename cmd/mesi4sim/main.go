// Package main provides the entry point for mesi4sim, a cycle-accurate
// simulator of a four-core chip multiprocessor with private MESI caches
// over a shared bus.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"mesi4sim/ioformat"
	"mesi4sim/sim"
)

// The simulator's file surface is positional: four instruction images,
// one memory image, and twenty-two output files, in this order.
var defaultFiles = [numFiles]string{
	// Inputs (0-4)
	"inputs/imem0.txt", "inputs/imem1.txt", "inputs/imem2.txt", "inputs/imem3.txt",
	"inputs/memin.txt",
	// Outputs (5-26)
	"outputs/memout.txt",
	"outputs/regout0.txt", "outputs/regout1.txt", "outputs/regout2.txt", "outputs/regout3.txt",
	"outputs/core0trace.txt", "outputs/core1trace.txt", "outputs/core2trace.txt", "outputs/core3trace.txt",
	"outputs/bustrace.txt",
	"outputs/dsram0.txt", "outputs/dsram1.txt", "outputs/dsram2.txt", "outputs/dsram3.txt",
	"outputs/tsram0.txt", "outputs/tsram1.txt", "outputs/tsram2.txt", "outputs/tsram3.txt",
	"outputs/stats0.txt", "outputs/stats1.txt", "outputs/stats2.txt", "outputs/stats3.txt",
}

const (
	numFiles  = 27
	numInputs = 5
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [imem0.txt imem1.txt imem2.txt imem3.txt memin.txt]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "   OR: %s [all 27 files]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nWith no arguments, default file names under inputs/ and outputs/ are used.\n")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	files := defaultFiles
	switch len(args) {
	case 0:
		fmt.Println("Using default file names")
	case numInputs:
		copy(files[:numInputs], args)
		fmt.Println("Using custom inputs, default outputs")
	case numFiles:
		copy(files[:], args)
	default:
		usage()
		return 1
	}

	s := sim.New()

	fmt.Println("Loading instruction memories...")
	imems := make([][]uint32, len(s.Cores))
	for i := range s.Cores {
		words, err := ioformat.LoadIMem(files[i])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", files[i], err)
			return 1
		}
		imems[i] = words
		s.Cores[i].LoadInstructions(words)
	}

	// Best-effort .asm listings of the loaded programs, for eyeballing
	// that the images decoded the way the assembler meant them.
	for i, words := range imems {
		asmPath := filepath.Join(filepath.Dir(files[5]), fmt.Sprintf("imem%d.asm", i))
		ensureDir(asmPath)
		if err := ioformat.SaveAssembly(asmPath, words); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save %s: %v\n", asmPath, err)
		}
	}

	fmt.Println("Loading main memory...")
	if err := ioformat.LoadMemIn(files[4], s.Mem); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %v\n", files[4], err)
		return 1
	}

	fmt.Println("Starting simulation...")
	cycles, hitCeiling := s.Run()
	if hitCeiling {
		fmt.Printf("Warning: simulation stopped after %d cycles\n", sim.SafetyCeiling)
	}
	fmt.Printf("Simulation completed after %d cycles\n", cycles)

	fmt.Println("Saving outputs...")
	if err := saveOutputs(s, &files); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving outputs: %v\n", err)
		return 1
	}

	fmt.Println("All outputs saved successfully")
	fmt.Println("\nSimulation Summary:")
	for i, c := range s.Cores {
		stats := c.Stats()
		fmt.Printf("Core %d: %d cycles, %d instructions\n", i, stats.Cycles, stats.Instructions)
	}
	return 0
}

func saveOutputs(s *sim.Simulator, files *[numFiles]string) error {
	for _, path := range files[numInputs:] {
		ensureDir(path)
	}

	if err := ioformat.SaveMemOut(files[5], s.Mem); err != nil {
		return err
	}
	for i, c := range s.Cores {
		if err := ioformat.SaveRegOut(files[6+i], c.Registers()); err != nil {
			return err
		}
	}
	for i := range s.Cores {
		if err := ioformat.SaveTrace(files[10+i], s.Trace(i)); err != nil {
			return err
		}
	}
	if err := ioformat.SaveBusTrace(files[14], s.Bus.Trace()); err != nil {
		return err
	}
	for i, c := range s.Cores {
		if err := ioformat.SaveDSRAM(files[15+i], c.Cache()); err != nil {
			return err
		}
	}
	for i, c := range s.Cores {
		if err := ioformat.SaveTSRAM(files[19+i], c.Cache()); err != nil {
			return err
		}
	}
	for i, c := range s.Cores {
		if err := ioformat.SaveStats(files[23+i], c.Stats()); err != nil {
			return err
		}
	}
	return nil
}

// ensureDir creates the parent directory of path if it is missing, so
// the default outputs/ tree works out of the box.
func ensureDir(path string) {
	if dir := filepath.Dir(path); dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
}
