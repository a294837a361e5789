package mips32_test

import (
	"testing"

	"mipsim/internal/cp0"
	"mipsim/internal/flatbus"
	. "mipsim/internal/mips32"
)

func loadWord(bus *flatbus.Bus, addr uint32, word uint32) {
	bus.WriteWord(addr, word)
}

func TestStepAddiAndAdd(t *testing.T) {
	bus := flatbus.New(0x100, true)
	c0 := cp0.New(8)
	// Boot at 0, where the program is loaded, instead of the default EBase.
	c0.Write(cp0.RegPRId, 1, 0)
	cpu, err := NewCPU(bus, c0)
	if err != nil {
		t.Fatalf("NewCPU: %v", err)
	}

	// addi $t0, $zero, 5
	loadWord(bus, 0, 0x20080005)
	// addi $t1, $zero, 7
	loadWord(bus, 4, 0x20090007)
	// add $t2, $t0, $t1
	loadWord(bus, 8, 0x01095020)

	cpu.Step()
	cpu.Step()
	cpu.Step()

	if got := cpu.GetReg(10); got != 12 {
		t.Errorf("$t2 = %d, want 12", got)
	}
}

func TestAddOverflowRaisesException(t *testing.T) {
	bus := flatbus.New(0x200, true)
	c0 := cp0.New(8)
	c0.Write(cp0.RegPRId, 1, 0) // boot at 0
	cpu, err := NewCPU(bus, c0)
	if err != nil {
		t.Fatalf("NewCPU: %v", err)
	}

	cpu.SetReg(8, 0x7FFFFFFF)
	cpu.SetReg(9, 1)
	// add $t2, $t0, $t1 -> overflow
	loadWord(bus, 0, 0x01095020)

	cpu.Step()

	if got := cpu.GetReg(10); got != 0 {
		t.Errorf("destination register must be untouched on overflow, got %d", got)
	}
	if excCode := (c0.Cause() & 0x7C) >> 2; excCode != uint32(ExcArithmeticOverflow) {
		t.Errorf("Cause.ExcCode = %d, want %d", excCode, ExcArithmeticOverflow)
	}
}

func TestBranchDelaySlotExecutes(t *testing.T) {
	bus := flatbus.New(0x200, true)
	c0 := cp0.New(8)
	c0.Write(cp0.RegPRId, 1, 0) // boot at 0
	cpu, err := NewCPU(bus, c0)
	if err != nil {
		t.Fatalf("NewCPU: %v", err)
	}

	// beq $zero, $zero, 2 (branch to pc+4+8=12, skipping the word at 8)
	loadWord(bus, 0, 0x10000002)
	// addi $t0, $zero, 99   (delay slot: must still execute)
	loadWord(bus, 4, 0x20080063)
	// addi $t0, $zero, 1    (skipped over by the branch; never executed)
	loadWord(bus, 8, 0x20080001)
	// addi $t1, $zero, 42 (0x2A) (branch target)
	loadWord(bus, 12, 0x2009002A)

	cpu.Step() // beq, sets pcNext=12, branchDelay=true, pc becomes 4
	cpu.Step() // delay slot at 4 executes: $t0=99; pc becomes 12 (the branch target)
	cpu.Step() // addi $t1, $zero, 42 at address 12

	if got := cpu.GetReg(8); got != 99 {
		t.Errorf("delay slot instruction did not execute: $t0 = %d, want 99", got)
	}
	if got := cpu.GetReg(9); got != 42 {
		t.Errorf("branch target not reached: $t1 = %d, want 42", got)
	}
}

func TestUnalignedLoadRaisesAddrError(t *testing.T) {
	bus := flatbus.New(0x200, true)
	c0 := cp0.New(8)
	c0.Write(cp0.RegPRId, 1, 0) // boot at 0
	cpu, err := NewCPU(bus, c0)
	if err != nil {
		t.Fatalf("NewCPU: %v", err)
	}

	cpu.SetReg(8, 1) // base address 1, misaligned for a word load
	// lw $t1, 0($t0)
	loadWord(bus, 0, 0x8D090000)

	pcBefore := cpu.PC()
	cpu.Step()

	if cpu.PC() == pcBefore+4 {
		t.Errorf("misaligned load should vector to an exception handler, not fall through")
	}
}

func TestDivideByZeroConvention(t *testing.T) {
	bus := flatbus.New(0x200, true)
	c0 := cp0.New(8)
	c0.Write(cp0.RegPRId, 1, 0) // boot at 0
	cpu, err := NewCPU(bus, c0)
	if err != nil {
		t.Fatalf("NewCPU: %v", err)
	}

	cpu.SetReg(8, 42)
	cpu.SetReg(9, 0)
	// div $t0, $t1 -> rs=$t0, rt=$t1, funct=0x1A
	loadWord(bus, 0, 0x0109001A)

	cpu.Step()

	if cpu.GetLO() != 0 {
		t.Errorf("LO on divide-by-zero = %d, want 0", cpu.GetLO())
	}
	if cpu.GetHI() != 42 {
		t.Errorf("HI on divide-by-zero = %d, want dividend 42", cpu.GetHI())
	}
}
