// Package ioformat implements the simulator's text file surface: the
// hex-word loaders for instruction and main memory images, and the
// textual dumps of memory, registers, traces, caches and statistics
// written at the end of a run.
package ioformat

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"mesi4sim/core"
	"mesi4sim/memory"
)

// parseHexWord parses one 8-hex-digit line into a 32-bit word.
func parseHexWord(line string) (uint32, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(line, 16, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}

// loadWords reads up to max hex words from path, one per line.
// Malformed lines are skipped; unlisted addresses stay zero.
func loadWords(path string, max int) ([]uint32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var words []uint32
	scanner := bufio.NewScanner(f)
	for scanner.Scan() && len(words) < max {
		if w, ok := parseHexWord(scanner.Text()); ok {
			words = append(words, w)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return words, nil
}

// LoadIMem reads one core's instruction image: one 8-hex-digit word
// per line, at most 1024 words. Blank and malformed lines are skipped
// without taking an address, so a word's address is its position among
// the well-formed lines (its line number when every line is well-formed).
func LoadIMem(path string) ([]uint32, error) {
	return loadWords(path, core.IMemWords)
}

// LoadMemIn reads the main memory image into mem, one word per line
// from address 0.
func LoadMemIn(path string, mem *memory.Main) error {
	words, err := loadWords(path, memory.Size)
	if err != nil {
		return err
	}
	for addr, w := range words {
		mem.WriteWord(uint32(addr), w)
	}
	return nil
}
