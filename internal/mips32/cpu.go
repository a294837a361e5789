package mips32

import "fmt"

// CPU holds the full architectural state of a MIPS I core: the general
// purpose register file, HI/LO, the two-deep PC pipeline, and the
// collaborators (bus, coprocessor 0, coprocessors 1-3) it drives through
// a single instruction's dispatch.
//
// There is no internal locking, matching the single-threaded,
// non-suspending execution model the core promises its embedder. Step()
// does allocate: each decoded instruction, and each branch or jump
// target it returns, is a heap-allocated value.
type CPU struct {
	gpr [32]uint32
	hi  uint32
	lo  uint32

	// pc is the address of the instruction currently being fetched;
	// pcNext is the address to fetch after the current instruction
	// retires. branchDelay is true exactly when the instruction about to
	// be fetched sits in a delay slot.
	pc          uint32
	pcNext      uint32
	branchDelay bool

	// currentInstrAddr records the in-flight instruction's address for
	// exception reporting; trapDelay is the branchDelay value sampled at
	// the start of Step(), before it is cleared, so that an exception
	// raised mid-instruction can still compute the correct ret_addr.
	currentInstrAddr uint32
	trapDelay        bool

	bus  Bus
	cop0 Coprocessor0
	cop  [3]Coprocessor // slots 1, 2, 3
}

// NewCPU constructs a CPU over the given bus and coprocessor 0. bus and
// cop0 must not be nil; coprocessor 0 is the mandatory exception
// authority and every step() dereferences it.
func NewCPU(bus Bus, cop0 Coprocessor0) (*CPU, error) {
	if bus == nil {
		return nil, fmt.Errorf("mips32: NewCPU: bus must not be nil")
	}
	if cop0 == nil {
		return nil, fmt.Errorf("mips32: NewCPU: coprocessor 0 must not be nil")
	}
	cpu := &CPU{bus: bus, cop0: cop0}
	cpu.Reset()
	return cpu, nil
}

// SetCoprocessor installs (or removes, with a nil value) the optional
// coprocessor for slot z in {1,2,3}. It is a no-op for z outside that
// range.
func (cpu *CPU) SetCoprocessor(z int, coproc Coprocessor) {
	if z < 1 || z > 3 {
		return
	}
	cpu.cop[z-1] = coproc
}

// Coprocessor returns the coprocessor installed in slot z (1-3), or nil
// if the slot is empty or out of range.
func (cpu *CPU) Coprocessor(z int) Coprocessor {
	if z < 1 || z > 3 {
		return nil
	}
	return cpu.cop[z-1]
}

// Coprocessor0 returns the coprocessor 0 implementation backing this
// CPU, for embedders that need to inspect exception/interrupt state.
func (cpu *CPU) Coprocessor0() Coprocessor0 { return cpu.cop0 }

// GetReg reads general-purpose register i. Register 0 always reads 0.
func (cpu *CPU) GetReg(i uint8) uint32 {
	if i == 0 {
		return 0
	}
	return cpu.gpr[i&0x1F]
}

// SetReg writes general-purpose register i. A write to register 0 is
// silently discarded.
func (cpu *CPU) SetReg(i uint8, v uint32) {
	if i == 0 {
		return
	}
	cpu.gpr[i&0x1F] = v
}

// GetHI / SetHI / GetLO / SetLO are unconditional.
func (cpu *CPU) GetHI() uint32     { return cpu.hi }
func (cpu *CPU) SetHI(v uint32)    { cpu.hi = v }
func (cpu *CPU) GetLO() uint32     { return cpu.lo }
func (cpu *CPU) SetLO(v uint32)    { cpu.lo = v }

// PC returns the address of the instruction currently being fetched.
func (cpu *CPU) PC() uint32 { return cpu.pc }

// PCNext returns the address that will be fetched after the current
// instruction retires.
func (cpu *CPU) PCNext() uint32 { return cpu.pcNext }

// BranchDelay reports whether the instruction about to be fetched sits
// in a branch-delay slot.
func (cpu *CPU) BranchDelay() bool { return cpu.branchDelay }

// Link writes the current PC_next into register i - the return address
// for JAL/JALR/BLTZAL/BGEZAL, captured before the linking instruction
// itself changes PC_next.
func (cpu *CPU) Link(i uint8) { cpu.SetReg(i, cpu.pcNext) }

// Reset delegates to coprocessor 0's reset hook, which returns the entry
// address to resume fetching from.
func (cpu *CPU) Reset() {
	addr := cpu.cop0.Reset()
	cpu.pc = addr
	cpu.pcNext = addr + 4
	cpu.branchDelay = false
}

// raiseException builds the Exception Report for the in-flight
// instruction and routes it through coprocessor 0, vectoring PC/PC_next
// to the returned address. Any register or memory write the trapping
// instruction would otherwise have performed must already have been
// skipped by the caller.
func (cpu *CPU) raiseException(code ExceptionCode, badVirtualAddr uint32) {
	retAddr := cpu.currentInstrAddr
	if cpu.trapDelay {
		retAddr -= 4
	}
	report := ExceptionReport{
		Code:           code,
		RetAddr:        retAddr,
		BadVirtualAddr: badVirtualAddr,
		BranchDelay:    cpu.trapDelay,
	}
	vec := cpu.cop0.TriggerException(report)
	cpu.pc = vec
	cpu.pcNext = vec + 4
	cpu.branchDelay = false
}

// Step fetches, decodes, and executes exactly one instruction, then
// ticks the bus and checks for an external interrupt. It runs to
// completion; it never blocks and never returns an error, since every
// failure mode in the architecture is represented as a routed exception
// rather than a host-level error (see package-level exception codes).
func (cpu *CPU) Step() {
	cpu.currentInstrAddr = cpu.pc
	word := readWord(cpu.bus, cpu.pc)

	cpu.pc = cpu.pcNext
	cpu.pcNext += 4

	cpu.trapDelay = cpu.branchDelay
	cpu.branchDelay = false

	inst := DecodeInstruction(word)
	if inst == nil {
		cpu.raiseException(ExcReservedInstruction, 0)
	} else {
		nextPC, delay := inst.Execute(cpu)
		if nextPC != nil {
			cpu.pcNext = *nextPC
		}
		if delay {
			cpu.branchDelay = true
		}
	}

	interrupts := cpu.bus.Clock(1)
	if cpu.cop0.ExternalInterrupt(interrupts) {
		cpu.raiseException(ExcInterrupt, 0)
	}
}
