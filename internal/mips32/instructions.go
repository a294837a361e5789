package mips32

import "mipsim/internal/utils"

// Primary opcode values (instr bits 31..26).
const (
	opSpecial = 0x00
	opRegimm  = 0x01
	opJ       = 0x02
	opJAL     = 0x03
	opBEQ     = 0x04
	opBNE     = 0x05
	opBLEZ    = 0x06
	opBGTZ    = 0x07
	opADDI    = 0x08
	opADDIU   = 0x09
	opSLTI    = 0x0A
	opSLTIU   = 0x0B
	opANDI    = 0x0C
	opORI     = 0x0D
	opXORI    = 0x0E
	opLUI     = 0x0F
	opCOP0    = 0x10
	opCOP1    = 0x11
	opCOP2    = 0x12
	opCOP3    = 0x13
	opLB      = 0x20
	opLH      = 0x21
	opLWL     = 0x22
	opLW      = 0x23
	opLBU     = 0x24
	opLHU     = 0x25
	opLWR     = 0x26
	opSB      = 0x28
	opSH      = 0x29
	opSWL     = 0x2A
	opSW      = 0x2B
	opSWR     = 0x2E
	opLWC1    = 0x31
	opLWC2    = 0x32
	opLWC3    = 0x33
	opSWC1    = 0x39
	opSWC2    = 0x3A
	opSWC3    = 0x3B
)

// SPECIAL (op==0) funct values.
const (
	fnSLL     = 0x00
	fnSRL     = 0x02
	fnSRA     = 0x03
	fnSLLV    = 0x04
	fnSRLV    = 0x06
	fnSRAV    = 0x07
	fnJR      = 0x08
	fnJALR    = 0x09
	fnMOVZ    = 0x0A
	fnMOVN    = 0x0B
	fnSYSCALL = 0x0C
	fnBREAK   = 0x0D
	fnMFHI    = 0x10
	fnMTHI    = 0x11
	fnMFLO    = 0x12
	fnMTLO    = 0x13
	fnMULT    = 0x18
	fnMULTU   = 0x19
	fnDIV     = 0x1A
	fnDIVU    = 0x1B
	fnADD     = 0x20
	fnADDU    = 0x21
	fnSUB     = 0x22
	fnSUBU    = 0x23
	fnAND     = 0x24
	fnOR      = 0x25
	fnXOR     = 0x26
	fnNOR     = 0x27
	fnSLT     = 0x2A
	fnSLTU    = 0x2B
	fnTGE     = 0x30
	fnTGEU    = 0x31
	fnTLT     = 0x32
	fnTLTU    = 0x33
	fnTEQ     = 0x34
	fnTNE     = 0x36
)

// REGIMM (op==1) rt-field sub-dispatch values.
const (
	riBLTZ   = 0x00
	riBGEZ   = 0x01
	riTGEI   = 0x08
	riTGEIU  = 0x09
	riTLTI   = 0x0A
	riTLTIU  = 0x0B
	riTEQI   = 0x0C
	riTNEI   = 0x0E
	riBLTZAL = 0x10
	riBGEZAL = 0x11
)

// COPz rs-field sub-dispatch values (shared by COP0-3).
const (
	cpMF = 0x00
	cpCF = 0x02
	cpMT = 0x04
	cpCT = 0x06
)

// COP0 raw-function values recognised when rs has bit 4 set.
const (
	cp0fnTLBR  = 0x01
	cp0fnTLBWI = 0x02
	cp0fnTLBWR = 0x06
	cp0fnTLBP  = 0x08
	cp0fnERET  = 0x18
)

// Instruction is a decoded MIPS I instruction. Execute returns the
// address to assign to PC_next if the instruction changed it (nil
// otherwise) and whether it opened a branch-delay slot.
type Instruction interface {
	Execute(cpu *CPU) (nextPC *uint32, delaySlot bool)
	Decode(instr uint32) Instruction
}

// DecodeInstruction maps a 32-bit instruction word to its decoded form.
// An unrecognised primary opcode yields nil, which the dispatcher turns
// into ReservedInstruction. An unrecognised SPECIAL funct, REGIMM rt or
// COPz rs field still decodes; its Execute raises ReservedInstruction.
func DecodeInstruction(instr uint32) Instruction {
	op := (instr >> 26) & 0x3F

	switch {
	case op == opSpecial:
		return (&RTypeInstruction{}).Decode(instr)
	case op == opRegimm:
		return (&REGIMMInstruction{}).Decode(instr)
	case op == opJ || op == opJAL:
		return (&JTypeInstruction{}).Decode(instr)
	case op >= opCOP0 && op <= opCOP3:
		return (&COPInstruction{}).Decode(instr)
	case op == opLWC1 || op == opLWC2 || op == opLWC3 || op == opSWC1 || op == opSWC2 || op == opSWC3:
		return (&CPMemInstruction{}).Decode(instr)
	default:
		inst := (&ITypeInstruction{}).Decode(instr)
		if !isKnownITypeOp(op) {
			return nil
		}
		return inst
	}
}

func isKnownITypeOp(op uint32) bool {
	switch op {
	case opBEQ, opBNE, opBLEZ, opBGTZ,
		opADDI, opADDIU, opSLTI, opSLTIU,
		opANDI, opORI, opXORI, opLUI,
		opLB, opLH, opLWL, opLW, opLBU, opLHU, opLWR,
		opSB, opSH, opSWL, opSW, opSWR:
		return true
	}
	return false
}

func signExtend16(imm uint16) uint32 {
	return utils.SignExtend[uint32](uint32(imm), 16)
}

// ---------------------------------------------------------------------
// R-type (SPECIAL)
// ---------------------------------------------------------------------

type RTypeInstruction struct {
	Opcode uint8
	Rs     uint8
	Rt     uint8
	Rd     uint8
	Shamt  uint8
	Funct  uint8
}

func (ri *RTypeInstruction) Decode(instr uint32) Instruction {
	return &RTypeInstruction{
		Opcode: uint8((instr >> 26) & 0x3F),
		Rs:     uint8((instr >> 21) & 0x1F),
		Rt:     uint8((instr >> 16) & 0x1F),
		Rd:     uint8((instr >> 11) & 0x1F),
		Shamt:  uint8((instr >> 6) & 0x1F),
		Funct:  uint8(instr & 0x3F),
	}
}

func (ri *RTypeInstruction) Execute(cpu *CPU) (nextPC *uint32, delaySlot bool) {
	switch ri.Funct {
	case fnADD:
		rs := int32(cpu.GetReg(ri.Rs))
		rt := int32(cpu.GetReg(ri.Rt))
		sum := rs + rt
		if utils.CheckAdditionOverflow(rs, rt, sum) {
			cpu.raiseException(ExcArithmeticOverflow, 0)
			return nil, false
		}
		cpu.SetReg(ri.Rd, uint32(sum))

	case fnADDU:
		cpu.SetReg(ri.Rd, cpu.GetReg(ri.Rs)+cpu.GetReg(ri.Rt))

	case fnSUB:
		rs := int32(cpu.GetReg(ri.Rs))
		rt := int32(cpu.GetReg(ri.Rt))
		diff := rs - rt
		if utils.CheckSubtractionOverflow(rs, rt, diff) {
			cpu.raiseException(ExcArithmeticOverflow, 0)
			return nil, false
		}
		cpu.SetReg(ri.Rd, uint32(diff))

	case fnSUBU:
		cpu.SetReg(ri.Rd, cpu.GetReg(ri.Rs)-cpu.GetReg(ri.Rt))

	case fnAND:
		cpu.SetReg(ri.Rd, cpu.GetReg(ri.Rs)&cpu.GetReg(ri.Rt))
	case fnOR:
		cpu.SetReg(ri.Rd, cpu.GetReg(ri.Rs)|cpu.GetReg(ri.Rt))
	case fnXOR:
		cpu.SetReg(ri.Rd, cpu.GetReg(ri.Rs)^cpu.GetReg(ri.Rt))
	case fnNOR:
		cpu.SetReg(ri.Rd, ^(cpu.GetReg(ri.Rs) | cpu.GetReg(ri.Rt)))

	case fnSLL:
		cpu.SetReg(ri.Rd, cpu.GetReg(ri.Rt)<<ri.Shamt)
	case fnSRL:
		cpu.SetReg(ri.Rd, cpu.GetReg(ri.Rt)>>ri.Shamt)
	case fnSRA:
		cpu.SetReg(ri.Rd, uint32(int32(cpu.GetReg(ri.Rt))>>ri.Shamt))
	case fnSLLV:
		s := cpu.GetReg(ri.Rs) & 0x1F
		cpu.SetReg(ri.Rd, cpu.GetReg(ri.Rt)<<s)
	case fnSRLV:
		s := cpu.GetReg(ri.Rs) & 0x1F
		cpu.SetReg(ri.Rd, cpu.GetReg(ri.Rt)>>s)
	case fnSRAV:
		s := cpu.GetReg(ri.Rs) & 0x1F
		cpu.SetReg(ri.Rd, uint32(int32(cpu.GetReg(ri.Rt))>>s))

	case fnSLT:
		if int32(cpu.GetReg(ri.Rs)) < int32(cpu.GetReg(ri.Rt)) {
			cpu.SetReg(ri.Rd, 1)
		} else {
			cpu.SetReg(ri.Rd, 0)
		}
	case fnSLTU:
		if cpu.GetReg(ri.Rs) < cpu.GetReg(ri.Rt) {
			cpu.SetReg(ri.Rd, 1)
		} else {
			cpu.SetReg(ri.Rd, 0)
		}

	case fnMOVN:
		if cpu.GetReg(ri.Rt) != 0 {
			cpu.SetReg(ri.Rd, cpu.GetReg(ri.Rs))
		}
	case fnMOVZ:
		if cpu.GetReg(ri.Rt) == 0 {
			cpu.SetReg(ri.Rd, cpu.GetReg(ri.Rs))
		}

	case fnMULT:
		prod := int64(int32(cpu.GetReg(ri.Rs))) * int64(int32(cpu.GetReg(ri.Rt)))
		cpu.SetLO(uint32(prod))
		cpu.SetHI(uint32(prod >> 32))
	case fnMULTU:
		prod := uint64(cpu.GetReg(ri.Rs)) * uint64(cpu.GetReg(ri.Rt))
		cpu.SetLO(uint32(prod))
		cpu.SetHI(uint32(prod >> 32))

	case fnDIV:
		rs := int32(cpu.GetReg(ri.Rs))
		rt := int32(cpu.GetReg(ri.Rt))
		if rt == 0 {
			cpu.SetLO(0)
			cpu.SetHI(uint32(rs))
		} else {
			cpu.SetLO(uint32(rs / rt))
			cpu.SetHI(uint32(rs % rt))
		}
	case fnDIVU:
		rs := cpu.GetReg(ri.Rs)
		rt := cpu.GetReg(ri.Rt)
		if rt == 0 {
			cpu.SetLO(0)
			cpu.SetHI(rs)
		} else {
			cpu.SetLO(rs / rt)
			cpu.SetHI(rs % rt)
		}

	case fnMFHI:
		cpu.SetReg(ri.Rd, cpu.GetHI())
	case fnMFLO:
		cpu.SetReg(ri.Rd, cpu.GetLO())
	case fnMTHI:
		cpu.SetHI(cpu.GetReg(ri.Rs))
	case fnMTLO:
		cpu.SetLO(cpu.GetReg(ri.Rs))

	case fnJR:
		target := cpu.GetReg(ri.Rs)
		return &target, true
	case fnJALR:
		cpu.Link(ri.Rd)
		target := cpu.GetReg(ri.Rs)
		return &target, true

	case fnSYSCALL:
		cpu.raiseException(ExcSyscall, 0)
	case fnBREAK:
		cpu.raiseException(ExcBreakpoint, 0)

	case fnTEQ:
		if cpu.GetReg(ri.Rs) == cpu.GetReg(ri.Rt) {
			cpu.raiseException(ExcTrap, 0)
		}
	case fnTNE:
		if cpu.GetReg(ri.Rs) != cpu.GetReg(ri.Rt) {
			cpu.raiseException(ExcTrap, 0)
		}
	case fnTGE:
		if int32(cpu.GetReg(ri.Rs)) >= int32(cpu.GetReg(ri.Rt)) {
			cpu.raiseException(ExcTrap, 0)
		}
	case fnTGEU:
		if cpu.GetReg(ri.Rs) >= cpu.GetReg(ri.Rt) {
			cpu.raiseException(ExcTrap, 0)
		}
	case fnTLT:
		if int32(cpu.GetReg(ri.Rs)) < int32(cpu.GetReg(ri.Rt)) {
			cpu.raiseException(ExcTrap, 0)
		}
	case fnTLTU:
		if cpu.GetReg(ri.Rs) < cpu.GetReg(ri.Rt) {
			cpu.raiseException(ExcTrap, 0)
		}

	default:
		cpu.raiseException(ExcReservedInstruction, 0)
	}

	return nil, false
}

// ---------------------------------------------------------------------
// REGIMM (op == 1): branches and trap-immediates keyed on rt
// ---------------------------------------------------------------------

type REGIMMInstruction struct {
	Rs        uint8
	Rt        uint8
	Immediate uint16
}

func (re *REGIMMInstruction) Decode(instr uint32) Instruction {
	return &REGIMMInstruction{
		Rs:        uint8((instr >> 21) & 0x1F),
		Rt:        uint8((instr >> 16) & 0x1F),
		Immediate: uint16(instr & 0xFFFF),
	}
}

func (re *REGIMMInstruction) Execute(cpu *CPU) (nextPC *uint32, delaySlot bool) {
	rs := int32(cpu.GetReg(re.Rs))
	offset := signExtend16(re.Immediate) << 2

	branch := func(taken bool) (*uint32, bool) {
		if !taken {
			return nil, false
		}
		target := cpu.PC() + offset
		return &target, true
	}

	switch re.Rt {
	case riBLTZ:
		return branch(rs < 0)
	case riBGEZ:
		return branch(rs >= 0)
	case riBLTZAL:
		cpu.Link(31)
		return branch(rs < 0)
	case riBGEZAL:
		cpu.Link(31)
		return branch(rs >= 0)

	case riTGEI:
		if rs >= int32(signExtend16(re.Immediate)) {
			cpu.raiseException(ExcTrap, 0)
		}
	case riTGEIU:
		if cpu.GetReg(re.Rs) >= signExtend16(re.Immediate) {
			cpu.raiseException(ExcTrap, 0)
		}
	case riTLTI:
		if rs < int32(signExtend16(re.Immediate)) {
			cpu.raiseException(ExcTrap, 0)
		}
	case riTLTIU:
		if cpu.GetReg(re.Rs) < signExtend16(re.Immediate) {
			cpu.raiseException(ExcTrap, 0)
		}
	case riTEQI:
		if cpu.GetReg(re.Rs) == signExtend16(re.Immediate) {
			cpu.raiseException(ExcTrap, 0)
		}
	case riTNEI:
		if cpu.GetReg(re.Rs) != signExtend16(re.Immediate) {
			cpu.raiseException(ExcTrap, 0)
		}

	default:
		cpu.raiseException(ExcReservedInstruction, 0)
	}

	return nil, false
}

// ---------------------------------------------------------------------
// I-type: arithmetic/logic immediates, branches, loads, stores
// ---------------------------------------------------------------------

type ITypeInstruction struct {
	Opcode    uint8
	Rs        uint8
	Rt        uint8
	Immediate uint16
}

func (ii *ITypeInstruction) Decode(instr uint32) Instruction {
	return &ITypeInstruction{
		Opcode:    uint8((instr >> 26) & 0x3F),
		Rs:        uint8((instr >> 21) & 0x1F),
		Rt:        uint8((instr >> 16) & 0x1F),
		Immediate: uint16(instr & 0xFFFF),
	}
}

func (ii *ITypeInstruction) effectiveAddr(cpu *CPU) uint32 {
	return cpu.GetReg(ii.Rs) + signExtend16(ii.Immediate)
}

func (ii *ITypeInstruction) Execute(cpu *CPU) (nextPC *uint32, delaySlot bool) {
	switch ii.Opcode {
	case opADDI:
		rs := int32(cpu.GetReg(ii.Rs))
		imm := int32(signExtend16(ii.Immediate))
		sum := rs + imm
		if utils.CheckAdditionOverflow(rs, imm, sum) {
			cpu.raiseException(ExcArithmeticOverflow, 0)
			return nil, false
		}
		cpu.SetReg(ii.Rt, uint32(sum))

	case opADDIU:
		cpu.SetReg(ii.Rt, cpu.GetReg(ii.Rs)+signExtend16(ii.Immediate))

	case opSLTI:
		if int32(cpu.GetReg(ii.Rs)) < int32(signExtend16(ii.Immediate)) {
			cpu.SetReg(ii.Rt, 1)
		} else {
			cpu.SetReg(ii.Rt, 0)
		}
	case opSLTIU:
		if cpu.GetReg(ii.Rs) < signExtend16(ii.Immediate) {
			cpu.SetReg(ii.Rt, 1)
		} else {
			cpu.SetReg(ii.Rt, 0)
		}

	case opANDI:
		cpu.SetReg(ii.Rt, cpu.GetReg(ii.Rs)&uint32(ii.Immediate))
	case opORI:
		cpu.SetReg(ii.Rt, cpu.GetReg(ii.Rs)|uint32(ii.Immediate))
	case opXORI:
		cpu.SetReg(ii.Rt, cpu.GetReg(ii.Rs)^uint32(ii.Immediate))
	case opLUI:
		cpu.SetReg(ii.Rt, uint32(ii.Immediate)<<16)

	case opBEQ:
		return ii.branch(cpu, cpu.GetReg(ii.Rs) == cpu.GetReg(ii.Rt))
	case opBNE:
		return ii.branch(cpu, cpu.GetReg(ii.Rs) != cpu.GetReg(ii.Rt))
	case opBLEZ:
		return ii.branch(cpu, int32(cpu.GetReg(ii.Rs)) <= 0)
	case opBGTZ:
		return ii.branch(cpu, int32(cpu.GetReg(ii.Rs)) > 0)

	case opLB:
		addr := ii.effectiveAddr(cpu)
		v := utils.SignExtend[uint32](uint32(readByte(cpu.bus, addr)), 8)
		cpu.SetReg(ii.Rt, v)
	case opLBU:
		addr := ii.effectiveAddr(cpu)
		cpu.SetReg(ii.Rt, uint32(readByte(cpu.bus, addr)))

	case opLH:
		addr := ii.effectiveAddr(cpu)
		if addr&1 != 0 {
			cpu.raiseException(ExcAddrErrorLoad, addr)
			return nil, false
		}
		v := utils.SignExtend[uint32](uint32(readHalfword(cpu.bus, addr)), 16)
		cpu.SetReg(ii.Rt, v)
	case opLHU:
		addr := ii.effectiveAddr(cpu)
		if addr&1 != 0 {
			cpu.raiseException(ExcAddrErrorLoad, addr)
			return nil, false
		}
		cpu.SetReg(ii.Rt, uint32(readHalfword(cpu.bus, addr)))

	case opLW:
		addr := ii.effectiveAddr(cpu)
		if addr&3 != 0 {
			cpu.raiseException(ExcAddrErrorLoad, addr)
			return nil, false
		}
		cpu.SetReg(ii.Rt, readWord(cpu.bus, addr))

	case opSB:
		addr := ii.effectiveAddr(cpu)
		writeByte(cpu.bus, addr, uint8(cpu.GetReg(ii.Rt)))
	case opSH:
		addr := ii.effectiveAddr(cpu)
		if addr&1 != 0 {
			cpu.raiseException(ExcAddrErrorStore, addr)
			return nil, false
		}
		writeHalfword(cpu.bus, addr, uint16(cpu.GetReg(ii.Rt)))
	case opSW:
		addr := ii.effectiveAddr(cpu)
		if addr&3 != 0 {
			cpu.raiseException(ExcAddrErrorStore, addr)
			return nil, false
		}
		writeWord(cpu.bus, addr, cpu.GetReg(ii.Rt))

	case opLWL:
		ii.execLWL(cpu)
	case opLWR:
		ii.execLWR(cpu)
	case opSWL:
		ii.execSWL(cpu)
	case opSWR:
		ii.execSWR(cpu)

	default:
		cpu.raiseException(ExcReservedInstruction, 0)
	}

	return nil, false
}

func (ii *ITypeInstruction) branch(cpu *CPU, taken bool) (*uint32, bool) {
	if !taken {
		return nil, false
	}
	offset := signExtend16(ii.Immediate) << 2
	// Step has already advanced PC, so cpu.PC() is the delay-slot address.
	target := cpu.PC() + offset
	return &target, true
}

func readByte(bus Bus, addr uint32) uint8 { return bus.ReadByte(addr) }
func writeByte(bus Bus, addr uint32, v uint8) { bus.WriteByte(addr, v) }

// execLWL/execLWR/execSWL/execSWR implement the unaligned word
// load/store family: they merge the addressed word with rt across the
// byte boundary at the low 2 bits of the effective address, honoring
// bus endianness (see SPEC_FULL.md §4.3).
func (ii *ITypeInstruction) execLWL(cpu *CPU) {
	addr := ii.effectiveAddr(cpu)
	aligned := addr &^ 3
	ba := addr & 3
	word := readWord(cpu.bus, aligned)
	rt := cpu.GetReg(ii.Rt)

	off := ba
	if cpu.bus.LittleEndian() {
		off = 3 - ba
	}

	var mask uint32
	switch off {
	case 0:
		mask = 0
	case 1:
		mask = 0x000000FF
	case 2:
		mask = 0x0000FFFF
	case 3:
		mask = 0x00FFFFFF
	}
	cpu.SetReg(ii.Rt, (rt&mask)|(word<<(off*8)))
}

func (ii *ITypeInstruction) execLWR(cpu *CPU) {
	addr := ii.effectiveAddr(cpu)
	aligned := addr &^ 3
	ba := addr & 3
	word := readWord(cpu.bus, aligned)
	rt := cpu.GetReg(ii.Rt)

	off := 3 - ba
	if cpu.bus.LittleEndian() {
		off = ba
	}

	var mask uint32
	switch off {
	case 0:
		mask = 0
	case 1:
		mask = 0xFF000000
	case 2:
		mask = 0xFFFF0000
	case 3:
		mask = 0xFFFFFF00
	}
	cpu.SetReg(ii.Rt, (rt&mask)|(word>>(off*8)))
}

func (ii *ITypeInstruction) execSWL(cpu *CPU) {
	addr := ii.effectiveAddr(cpu)
	aligned := addr &^ 3
	ba := addr & 3
	word := readWord(cpu.bus, aligned)
	rt := cpu.GetReg(ii.Rt)

	off := ba
	if cpu.bus.LittleEndian() {
		off = 3 - ba
	}

	var mask uint32
	switch off {
	case 0:
		mask = 0xFFFFFFFF
	case 1:
		mask = 0xFFFFFF00
	case 2:
		mask = 0xFFFF0000
	case 3:
		mask = 0xFF000000
	}
	merged := (word & mask) | (rt >> (off * 8))
	writeWord(cpu.bus, aligned, merged)
}

func (ii *ITypeInstruction) execSWR(cpu *CPU) {
	addr := ii.effectiveAddr(cpu)
	aligned := addr &^ 3
	ba := addr & 3
	word := readWord(cpu.bus, aligned)
	rt := cpu.GetReg(ii.Rt)

	off := 3 - ba
	if cpu.bus.LittleEndian() {
		off = ba
	}

	var mask uint32
	switch off {
	case 0:
		mask = 0xFFFFFFFF
	case 1:
		mask = 0x000000FF
	case 2:
		mask = 0x0000FFFF
	case 3:
		mask = 0x00FFFFFF
	}
	merged := (word & mask) | (rt << (off * 8))
	writeWord(cpu.bus, aligned, merged)
}

// ---------------------------------------------------------------------
// J-type
// ---------------------------------------------------------------------

type JTypeInstruction struct {
	Opcode uint8
	Addr   uint32
	Link   bool
}

func (ji *JTypeInstruction) Decode(instr uint32) Instruction {
	op := uint8((instr >> 26) & 0x3F)
	return &JTypeInstruction{
		Opcode: op,
		Addr:   instr & 0x3FFFFFF,
		Link:   op == opJAL,
	}
}

func (ji *JTypeInstruction) Execute(cpu *CPU) (nextPC *uint32, delaySlot bool) {
	if ji.Link {
		cpu.Link(31)
	}
	target := (cpu.PC() & 0xF0000000) | (ji.Addr << 2)
	return &target, true
}

// ---------------------------------------------------------------------
// COP0-3: register moves and raw operations
// ---------------------------------------------------------------------

// COPInstruction handles MFCz/MTCz/CFCz/CTCz and the raw COPz operation
// entry point, for z in {0,1,2,3}. For z==0 it additionally recognises
// the fixed TLB/ERET function codes.
type COPInstruction struct {
	Z      int
	Rs     uint8
	Rt     uint8
	Rd     uint8
	Sel    uint8
	Cofun  uint32
	Funct  uint8
	IsCofn bool // rs has bit 4 set: raw operation rather than register move
}

func (ci *COPInstruction) Decode(instr uint32) Instruction {
	op := (instr >> 26) & 0x3F
	rs := uint8((instr >> 21) & 0x1F)
	return &COPInstruction{
		Z:      int(op - opCOP0),
		Rs:     rs,
		Rt:     uint8((instr >> 16) & 0x1F),
		Rd:     uint8((instr >> 11) & 0x1F),
		Sel:    uint8(instr & 0x7),
		Cofun:  instr & 0x1FFFFFF,
		Funct:  uint8(instr & 0x3F),
		IsCofn: rs&0x10 != 0,
	}
}

func (ci *COPInstruction) Execute(cpu *CPU) (nextPC *uint32, delaySlot bool) {
	if ci.Z == 0 {
		return ci.executeCop0(cpu)
	}

	coproc := cpu.Coprocessor(ci.Z)
	if coproc == nil {
		cpu.raiseException(ExcCoProcUnusable, 0)
		return nil, false
	}

	if ci.IsCofn {
		coproc.Operation(ci.Cofun)
		return nil, false
	}

	switch ci.Rs {
	case cpMF:
		cpu.SetReg(ci.Rt, coproc.MoveFromReg(ci.Rd))
	case cpMT:
		coproc.MoveToReg(ci.Rd, cpu.GetReg(ci.Rt))
	case cpCF:
		cpu.SetReg(ci.Rt, coproc.MoveFromControl(ci.Rd))
	case cpCT:
		coproc.MoveToControl(ci.Rd, cpu.GetReg(ci.Rt))
	default:
		cpu.raiseException(ExcReservedInstruction, 0)
	}

	return nil, false
}

func (ci *COPInstruction) executeCop0(cpu *CPU) (nextPC *uint32, delaySlot bool) {
	if ci.IsCofn {
		switch ci.Funct {
		case cp0fnERET:
			// Operation performs the EXL/ERL bookkeeping and records the
			// resume target; MoveFromReg then reads it back.
			cpu.cop0.Operation(uint32(ci.Funct))
			target := cpu.cop0.MoveFromReg(eretTargetReg)
			return &target, false
		case cp0fnTLBR, cp0fnTLBWI, cp0fnTLBWR, cp0fnTLBP:
			cpu.cop0.Operation(uint32(ci.Funct))
		default:
			cpu.cop0.Operation(ci.Cofun)
		}
		return nil, false
	}

	combined := ci.Rd<<3 | ci.Sel
	switch ci.Rs {
	case cpMF:
		cpu.SetReg(ci.Rt, cpu.cop0.MoveFromReg(combined))
	case cpMT:
		cpu.cop0.MoveToReg(combined, cpu.GetReg(ci.Rt))
	default:
		cpu.raiseException(ExcReservedInstruction, 0)
	}
	return nil, false
}

// eretTargetReg is the carved-out combined (reg,sel) code the reference
// cp0 package uses to hand back the ERET resume address; see
// internal/cp0's regPseudoEretTarget.
const eretTargetReg = 31<<3 | 0

// ---------------------------------------------------------------------
// LWCz/SWCz: coprocessor data register loaded/stored via memory
// ---------------------------------------------------------------------

type CPMemInstruction struct {
	Z         int
	Rs        uint8
	Rt        uint8
	Immediate uint16
	Store     bool
}

func (cm *CPMemInstruction) Decode(instr uint32) Instruction {
	op := (instr >> 26) & 0x3F
	var z int
	var store bool
	switch op {
	case opLWC1:
		z, store = 1, false
	case opLWC2:
		z, store = 2, false
	case opLWC3:
		z, store = 3, false
	case opSWC1:
		z, store = 1, true
	case opSWC2:
		z, store = 2, true
	case opSWC3:
		z, store = 3, true
	}
	return &CPMemInstruction{
		Z:         z,
		Rs:        uint8((instr >> 21) & 0x1F),
		Rt:        uint8((instr >> 16) & 0x1F),
		Immediate: uint16(instr & 0xFFFF),
		Store:     store,
	}
}

func (cm *CPMemInstruction) Execute(cpu *CPU) (nextPC *uint32, delaySlot bool) {
	coproc := cpu.Coprocessor(cm.Z)
	if coproc == nil {
		cpu.raiseException(ExcCoProcUnusable, 0)
		return nil, false
	}

	addr := cpu.GetReg(cm.Rs) + signExtend16(cm.Immediate)
	if addr&3 != 0 {
		if cm.Store {
			cpu.raiseException(ExcAddrErrorStore, addr)
		} else {
			cpu.raiseException(ExcAddrErrorLoad, addr)
		}
		return nil, false
	}

	if cm.Store {
		writeWord(cpu.bus, addr, coproc.StoreToMem(cm.Rt))
	} else {
		coproc.LoadFromMem(cm.Rt, readWord(cpu.bus, addr))
	}
	return nil, false
}
