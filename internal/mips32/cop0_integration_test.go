package mips32_test

import (
	"testing"

	"mipsim/internal/cp0"
	"mipsim/internal/flatbus"
	. "mipsim/internal/mips32"
)

func newTestCPU(t *testing.T) (*CPU, *cp0.COP0, *flatbus.Bus) {
	t.Helper()
	bus := flatbus.New(0x10000, true)
	cop0 := cp0.New(16)
	cpu, err := NewCPU(bus, cop0)
	if err != nil {
		t.Fatalf("NewCPU: %v", err)
	}
	return cpu, cop0, bus
}

func TestCOP0Integration(t *testing.T) {
	cpu, cop0, _ := newTestCPU(t)

	// MFC0: move Status (CP0[12,0]) into $5.
	statusVal := uint32(0x20000000)
	cop0.Write(cp0.RegStatus, 0, statusVal)

	// mfc0 $5, $12 -> opcode=0x10, rs=0 (MF), rt=5, rd=12, sel=0
	instr := uint32(0x40056000)
	decoded := DecodeInstruction(instr)
	cop, ok := decoded.(*COPInstruction)
	if !ok {
		t.Fatalf("expected *COPInstruction, got %T", decoded)
	}
	cop.Execute(cpu)
	if got := cpu.GetReg(5); got != statusVal {
		t.Errorf("MFC0 failed: got 0x%x, want 0x%x", got, statusVal)
	}

	// MTC0: move $7 into Status.
	testVal := uint32(0x30000000)
	cpu.SetReg(7, testVal)

	// mtc0 $7, $12 -> rs=4 (MT), rt=7, rd=12, sel=0
	instr2 := uint32(0x40876000)
	decoded2 := DecodeInstruction(instr2)
	cop2, ok := decoded2.(*COPInstruction)
	if !ok {
		t.Fatalf("expected *COPInstruction, got %T", decoded2)
	}
	cop2.Execute(cpu)
	if got := cop0.Read(cp0.RegStatus, 0); got != testVal {
		t.Errorf("MTC0 failed: got 0x%x, want 0x%x", got, testVal)
	}

	// ERET: set EPC and EXL, then verify the resume target and EXL clear.
	cop0.Write(cp0.RegEPC, 0, 0x80001000)
	cop0.Write(cp0.RegStatus, 0, cop0.Status()|(1<<1))

	// eret -> opcode=0x10, rs=0x10 (cofun), funct=0x18
	instr3 := uint32(0x42000018)
	decoded3 := DecodeInstruction(instr3)
	cop3, ok := decoded3.(*COPInstruction)
	if !ok {
		t.Fatalf("expected *COPInstruction, got %T", decoded3)
	}
	nextPC, _ := cop3.Execute(cpu)
	if nextPC == nil || *nextPC != 0x80001000 {
		t.Fatalf("ERET failed: got %#v, want 0x80001000", nextPC)
	}
	if cop0.Status()&(1<<1) != 0 {
		t.Errorf("ERET should clear EXL")
	}

	// TLBWI: load EntryHi/EntryLo0/EntryLo1/PageMask and write TLB index 0.
	cop0.Write(cp0.RegEntryHi, 0, 0x80000001)
	cop0.Write(cp0.RegEntryLo0, 0, 0x00000007)
	cop0.Write(cp0.RegEntryLo1, 0, 0x00000007)
	cop0.Write(cp0.RegPageMask, 0, 0x00000000)

	// tlbwi -> opcode=0x10, rs=0x10, funct=0x02
	instr4 := uint32(0x42000002)
	decoded4 := DecodeInstruction(instr4)
	cop4, ok := decoded4.(*COPInstruction)
	if !ok {
		t.Fatalf("expected *COPInstruction, got %T", decoded4)
	}
	cop4.Execute(cpu)

	entry, ok := cop0.TLBEntryAt(0)
	if !ok {
		t.Fatalf("TLB entry 0 not available")
	}
	if entry.VPN2 != 0x80000000 {
		t.Errorf("TLBWI failed: VPN2 = 0x%x, want 0x80000000", entry.VPN2)
	}
}

func TestCOP0ExceptionHandling(t *testing.T) {
	cpu, cop0, _ := newTestCPU(t)

	badAddr := uint32(0xDEADBEEF)
	// lw $t1, 0($t0) with a misaligned base raises AddrErrorLoad at badAddr.
	cpu.SetReg(8, badAddr)
	DecodeInstruction(0x8D090000).Execute(cpu)

	if (cop0.Cause()&0x7C)>>2 != uint32(ExcAddrErrorLoad) {
		t.Errorf("Cause.ExcCode not set to AddrErrorLoad")
	}
	if got := cop0.Read(cp0.RegBadVAddr, 0); got != badAddr {
		t.Errorf("BadVAddr not preserved: got 0x%x, want 0x%x", got, badAddr)
	}
	if cop0.EPC() != 0 {
		t.Errorf("EPC should capture ret_addr 0: got 0x%x", cop0.EPC())
	}
}
