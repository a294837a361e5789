// Package image loads a guest program into a mips32.Bus, either from a
// MIPS32 ELF executable or from a flat raw binary placed at address 0.
package image

import (
	"debug/elf"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Target is anything a loader can deposit bytes into.
type Target interface {
	WriteByte(addr uint32, val uint8)
}

// Loaded reports where a program ended up, for the embedder to seed
// CPU state with.
type Loaded struct {
	Entry      uint32
	LittleEndian bool
}

// Load opens path and loads it into target, auto-detecting ELF vs. raw
// binary the same way cmd/mipsdump's static disassembler does. A raw
// binary has no entry point of its own; entryHint is used verbatim.
func Load(path string, target Target, entryHint uint32) (Loaded, error) {
	if elfFile, err := elf.Open(path); err == nil {
		defer elfFile.Close()
		return loadELF(elfFile, target)
	}

	f, err := os.Open(path)
	if err != nil {
		return Loaded{}, fmt.Errorf("image: open %s: %w", path, err)
	}
	defer f.Close()

	if err := loadRaw(f, target); err != nil {
		return Loaded{}, err
	}
	return Loaded{Entry: entryHint, LittleEndian: true}, nil
}

func loadELF(f *elf.File, target Target) (Loaded, error) {
	littleEndian := f.ByteOrder == binary.LittleEndian

	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		data, err := io.ReadAll(prog.Open())
		if err != nil {
			return Loaded{}, fmt.Errorf("image: read segment at 0x%x: %w", prog.Vaddr, err)
		}
		for i, b := range data {
			target.WriteByte(uint32(prog.Vaddr)+uint32(i), b)
		}
	}

	return Loaded{Entry: uint32(f.Entry), LittleEndian: littleEndian}, nil
}

func loadRaw(r io.Reader, target Target) error {
	buf := make([]byte, 4096)
	addr := uint32(0)
	for {
		n, err := r.Read(buf)
		for i := 0; i < n; i++ {
			target.WriteByte(addr+uint32(i), buf[i])
		}
		addr += uint32(n)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("image: read raw binary: %w", err)
		}
	}
}
