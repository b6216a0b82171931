package ioformat

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"mesi4sim/bus"
	"mesi4sim/coherence"
	"mesi4sim/isa"
	"mesi4sim/memory"
	"mesi4sim/pipeline"
	"mesi4sim/regfile"
	"mesi4sim/sim"
)

// minMemOutLines is the least number of lines a memory dump emits,
// even for an all-zero memory.
const minMemOutLines = 64

// writeLines opens path and streams lines produced by emit through a
// buffered writer.
func writeLines(path string, emit func(w *bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	if err := emit(w); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// SaveMemOut dumps main memory, one 8-hex-digit word per line, through
// the last non-zero word and never fewer than 64 lines.
func SaveMemOut(path string, mem *memory.Main) error {
	count := mem.LastNonZero() + 1
	if count < minMemOutLines {
		count = minMemOutLines
	}
	return writeLines(path, func(w *bufio.Writer) error {
		for addr := 0; addr < count; addr++ {
			if _, err := fmt.Fprintf(w, "%08X\n", mem.ReadWord(uint32(addr))); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveRegOut dumps R2..R15 of one core, one 8-hex-digit word per line.
func SaveRegOut(path string, regs *regfile.File) error {
	snapshot := regs.Snapshot()
	return writeLines(path, func(w *bufio.Writer) error {
		for _, v := range snapshot {
			if _, err := fmt.Fprintf(w, "%08X\n", v); err != nil {
				return err
			}
		}
		return nil
	})
}

func stagePC(v pipeline.StageView) string {
	if !v.Valid {
		return "---"
	}
	return fmt.Sprintf("%03X", v.PC)
}

// SaveTrace writes one core's pipeline trace: one line per cycle the
// core was running, with each stage's PC (or --- for a bubble) and
// the values of R2..R15.
func SaveTrace(path string, records []sim.CoreTraceRecord) error {
	return writeLines(path, func(w *bufio.Writer) error {
		for _, rec := range records {
			row := rec.Row
			if _, err := fmt.Fprintf(w, "%d %s %s %s %s %s",
				rec.Cycle,
				stagePC(row.IF), stagePC(row.ID), stagePC(row.EX),
				stagePC(row.MEM), stagePC(row.WB)); err != nil {
				return err
			}
			for _, v := range rec.Regs {
				if _, err := fmt.Fprintf(w, " %08X", v); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintln(w); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveBusTrace writes the shared-bus trace: one line per Request cycle
// and per Flush word cycle.
func SaveBusTrace(path string, entries []bus.TraceEntry) error {
	return writeLines(path, func(w *bufio.Writer) error {
		for _, e := range entries {
			shared := 0
			if e.Shared {
				shared = 1
			}
			if _, err := fmt.Fprintf(w, "%d %d %d %06X %08X %d\n",
				e.Cycle, e.OrigID, e.Cmd, e.Addr, e.Data, shared); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveDSRAM dumps one cache's 512 data words in set, then offset order.
func SaveDSRAM(path string, c *coherence.Cache) error {
	dump := c.Dump()
	return writeLines(path, func(w *bufio.Writer) error {
		for _, entry := range dump {
			for _, word := range entry.Data {
				if _, err := fmt.Fprintf(w, "%08X\n", word); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// SaveTSRAM dumps one cache's 64 tag/state entries, packed as
// bits[13:12] = MESI state, bits[11:0] = tag.
func SaveTSRAM(path string, c *coherence.Cache) error {
	dump := c.Dump()
	return writeLines(path, func(w *bufio.Writer) error {
		for _, entry := range dump {
			packed := uint32(entry.State)<<12 | entry.Tag&0xFFF
			if _, err := fmt.Fprintf(w, "%08X\n", packed); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveStats writes one core's eight counters as "name value" lines.
func SaveStats(path string, stats pipeline.Stats) error {
	return writeLines(path, func(w *bufio.Writer) error {
		lines := []struct {
			name  string
			value uint64
		}{
			{"cycles", stats.Cycles},
			{"instructions", stats.Instructions},
			{"read_hit", stats.ReadHit},
			{"write_hit", stats.WriteHit},
			{"read_miss", stats.ReadMiss},
			{"write_miss", stats.WriteMiss},
			{"decode_stall", stats.DecodeStall},
			{"mem_stall", stats.MemStall},
		}
		for _, l := range lines {
			if _, err := fmt.Fprintf(w, "%s %d\n", l.name, l.value); err != nil {
				return err
			}
		}
		return nil
	})
}

func asmRegName(reg uint8) string {
	switch reg {
	case 0:
		return "$zero"
	case 1:
		return "$imm"
	default:
		return fmt.Sprintf("$r%d", reg)
	}
}

// SaveAssembly disassembles a loaded instruction image into a
// human-readable .asm listing, through the last non-zero word. It is
// a debugging aid for verifying loaded programs.
func SaveAssembly(path string, words []uint32) error {
	last := -1
	for i := len(words) - 1; i >= 0; i-- {
		if words[i] != 0 {
			last = i
			break
		}
	}
	return writeLines(path, func(w *bufio.Writer) error {
		for pc := 0; pc <= last; pc++ {
			inst := isa.Decode(words[pc])
			if _, err := fmt.Fprintf(w, "\t%s %s, %s, %s, %d\t\t# PC=%d\n",
				strings.ToLower(inst.Opcode.Name()),
				asmRegName(inst.Rd), asmRegName(inst.Rs), asmRegName(inst.Rt),
				inst.Imm, pc); err != nil {
				return err
			}
		}
		return nil
	})
}
