// Command mipsmon is an interactive debug console for the MIPS I core:
// it loads a guest program, then lets the operator single-step or free-
// run it while inspecting the PC, general-purpose registers, and HI/LO.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eiannone/keyboard"
	"golang.org/x/term"

	"mipsim/internal/cp0"
	"mipsim/internal/flatbus"
	"mipsim/internal/image"
	"mipsim/internal/mips32"
)

func main() {
	verbose := flag.Bool("v", false, "enable verbose logging")
	memoryFlag := flag.Uint64("memory", 1<<20, "memory size in bytes")
	tlbSize := flag.Int("tlb", 16, "reference coprocessor 0 TLB entry count")
	entry := flag.Uint64("entry", 0, "entry address for a raw (non-ELF) image")
	littleEndian := flag.Bool("little", true, "bus byte order (used for ELF images too)")
	interactive := flag.Bool("i", false, "drop into the single-step console instead of free-running")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Printf("usage: %s [flags] <image>\n", os.Args[0])
		os.Exit(1)
	}

	if *memoryFlag > uint64(^uint32(0)) {
		log.Fatalf("memory size %d exceeds max uint32", *memoryFlag)
	}

	bus := flatbus.New(uint32(*memoryFlag), *littleEndian)
	loaded, err := image.Load(flag.Arg(0), bus, uint32(*entry))
	if err != nil {
		log.Fatalf("loading image: %v", err)
	}

	printIfVerbose(*verbose, "Loaded %s, entry 0x%08X", flag.Arg(0), loaded.Entry)

	cop0 := cp0.New(*tlbSize)
	// Reset() fetches its boot address from EBase (CP0 reg 15, sel 1);
	// pointing it at the loaded entry address before constructing the
	// CPU makes the image's own entry point the first instruction run.
	cop0.Write(cp0.RegPRId, 1, loaded.Entry)

	cpu, err := mips32.NewCPU(bus, cop0)
	if err != nil {
		log.Fatalf("constructing CPU: %v", err)
	}

	if *interactive {
		runInteractive(cpu, bus, *verbose)
		return
	}

	runFree(cpu, *verbose)
}

// runFree steps the CPU continuously in a goroutine, stopping on
// SIGINT/SIGTERM - the same cancellation shape cmd/mipsvm used for the
// LC-3 core, now driving the MIPS I core's Step loop instead.
func runFree(cpu *mips32.CPU, verbose bool) {
	done := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	start := time.Now()
	go func() {
		for {
			cpu.Step()
		}
	}()

	select {
	case <-sigCh:
		printIfVerbose(verbose, "Signal received, stopping.")
	case <-done:
	}

	printIfVerbose(verbose, "Total execution time: %s", time.Since(start))
}

// runInteractive reads single keystrokes from the raw terminal to drive
// the core one instruction (or one free-run burst) at a time.
func runInteractive(cpu *mips32.CPU, bus *flatbus.Bus, verbose bool) {
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		log.Fatalf("putting terminal into raw mode: %v", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	fmt.Print("mipsmon: s=step c=continue r=registers q=quit\r\n")

	for {
		ch, key, err := keyboard.GetSingleKey()
		if err != nil {
			log.Fatalf("reading key: %v", err)
		}
		if key == keyboard.KeyCtrlC || ch == 'q' {
			return
		}

		switch ch {
		case 's':
			cpu.Step()
			printRegisters(cpu)
		case 'c':
			for i := 0; i < 1_000_000; i++ {
				cpu.Step()
			}
			printRegisters(cpu)
		case 'r':
			printRegisters(cpu)
		default:
			printIfVerbose(verbose, "unknown command %q", ch)
		}
	}
}

func printRegisters(cpu *mips32.CPU) {
	fmt.Printf("pc=0x%08X hi=0x%08X lo=0x%08X\r\n", cpu.PC(), cpu.GetHI(), cpu.GetLO())
	for i := 0; i < 32; i += 4 {
		fmt.Printf("r%02d=0x%08X r%02d=0x%08X r%02d=0x%08X r%02d=0x%08X\r\n",
			i, cpu.GetReg(uint8(i)),
			i+1, cpu.GetReg(uint8(i+1)),
			i+2, cpu.GetReg(uint8(i+2)),
			i+3, cpu.GetReg(uint8(i+3)))
	}
}

func printIfVerbose(verbose bool, format string, v ...interface{}) {
	if verbose {
		log.Printf(format, v...)
	}
}
