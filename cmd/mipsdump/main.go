// Command mipsdump is a static disassembler for MIPS I binaries: it
// accepts either an ELF executable or a flat raw binary and prints one
// line of assembly per 32-bit instruction word.
package main

import (
	"debug/elf"
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
)

func main() {
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Printf("usage: %s <mips32_binary_file>\n", os.Args[0])
		return
	}

	fileName := flag.Arg(0)

	elfFile, err := elf.Open(fileName)
	if err == nil {
		defer func() {
			if err := elfFile.Close(); err != nil {
				log.Printf("failed to close ELF file: %v", err)
			}
		}()
		disassembleELF(elfFile)
		return
	}

	file, err := os.Open(fileName)
	if err != nil {
		log.Fatalf("failed to open file: %v", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Printf("failed to close file: %v", err)
		}
	}()

	fmt.Println("not an ELF file, treating as raw binary")
	disassembleRaw(file)
}

func disassembleELF(elfFile *elf.File) {
	fmt.Printf("ELF file: %s\n", elfFile.Machine)
	fmt.Printf("entry point: 0x%08X\n", elfFile.Entry)
	fmt.Println()

	var order binary.ByteOrder = binary.BigEndian
	if elfFile.ByteOrder == binary.LittleEndian {
		order = binary.LittleEndian
	}
	fmt.Printf("byte order: %v (from ELF header)\n\n", order)

	textSection := elfFile.Section(".text")
	if textSection == nil {
		fmt.Println("warning: no .text section found")
		for _, section := range elfFile.Sections {
			if section.Flags&elf.SHF_EXECINSTR != 0 {
				fmt.Printf("found executable section: %s\n", section.Name)
				disassembleSection(section, order)
			}
		}
		return
	}

	fmt.Printf("disassembling .text (0x%08X - 0x%08X):\n", textSection.Addr, textSection.Addr+textSection.Size)
	disassembleSection(textSection, order)
}

func disassembleSection(section *elf.Section, order binary.ByteOrder) {
	data, err := section.Data()
	if err != nil {
		log.Printf("failed to read section %s: %v", section.Name, err)
		return
	}

	addr := section.Addr
	for i := 0; i+4 <= len(data); i += 4 {
		inst := order.Uint32(data[i : i+4])
		fmt.Printf("0x%08X: 0x%08X\t%s\n", addr+uint64(i), inst, disassemble(inst, uint32(addr+uint64(i))))
	}
}

func disassembleRaw(file *os.File) {
	var order binary.ByteOrder = binary.BigEndian
	fmt.Println("byte order: big-endian (forced for raw input)")

	if _, err := file.Seek(0, io.SeekStart); err != nil {
		log.Fatalf("failed to seek file: %v", err)
	}

	var offset int64
	for {
		var inst uint32
		if err := binary.Read(file, order, &inst); err != nil {
			break
		}
		fmt.Printf("0x%08X: 0x%08X\t%s\n", offset, inst, disassemble(inst, uint32(offset)))
		offset += 4
	}
}

func disassemble(inst uint32, pc uint32) string {
	op := inst >> 26

	switch op {
	case 0x0:
		return disassembleR(inst)
	case 0x1:
		return disassembleRegimm(inst, pc)
	case 0x2:
		addr := inst & 0x3FFFFFF
		target := ((pc + 4) & 0xF0000000) | (addr << 2)
		return fmt.Sprintf("j 0x%08X", target)
	case 0x3:
		addr := inst & 0x3FFFFFF
		target := ((pc + 4) & 0xF0000000) | (addr << 2)
		return fmt.Sprintf("jal 0x%08X", target)
	default:
		return disassembleI(op, inst, pc)
	}
}

func disassembleR(inst uint32) string {
	rs := (inst >> 21) & 0x1F
	rt := (inst >> 16) & 0x1F
	rd := (inst >> 11) & 0x1F
	shamt := (inst >> 6) & 0x1F
	funct := inst & 0x3F

	switch funct {
	case 0x20:
		return fmt.Sprintf("add $%d, $%d, $%d", rd, rs, rt)
	case 0x21:
		return fmt.Sprintf("addu $%d, $%d, $%d", rd, rs, rt)
	case 0x22:
		return fmt.Sprintf("sub $%d, $%d, $%d", rd, rs, rt)
	case 0x23:
		return fmt.Sprintf("subu $%d, $%d, $%d", rd, rs, rt)
	case 0x24:
		return fmt.Sprintf("and $%d, $%d, $%d", rd, rs, rt)
	case 0x25:
		return fmt.Sprintf("or $%d, $%d, $%d", rd, rs, rt)
	case 0x26:
		return fmt.Sprintf("xor $%d, $%d, $%d", rd, rs, rt)
	case 0x27:
		return fmt.Sprintf("nor $%d, $%d, $%d", rd, rs, rt)
	case 0x2A:
		return fmt.Sprintf("slt $%d, $%d, $%d", rd, rs, rt)
	case 0x2B:
		return fmt.Sprintf("sltu $%d, $%d, $%d", rd, rs, rt)
	case 0x0A:
		return fmt.Sprintf("movz $%d, $%d, $%d", rd, rs, rt)
	case 0x0B:
		return fmt.Sprintf("movn $%d, $%d, $%d", rd, rs, rt)
	case 0x00:
		return fmt.Sprintf("sll $%d, $%d, %d", rd, rt, shamt)
	case 0x02:
		return fmt.Sprintf("srl $%d, $%d, %d", rd, rt, shamt)
	case 0x03:
		return fmt.Sprintf("sra $%d, $%d, %d", rd, rt, shamt)
	case 0x04:
		return fmt.Sprintf("sllv $%d, $%d, $%d", rd, rt, rs)
	case 0x06:
		return fmt.Sprintf("srlv $%d, $%d, $%d", rd, rt, rs)
	case 0x07:
		return fmt.Sprintf("srav $%d, $%d, $%d", rd, rt, rs)
	case 0x08:
		return fmt.Sprintf("jr $%d", rs)
	case 0x09:
		return fmt.Sprintf("jalr $%d, $%d", rd, rs)
	case 0x10:
		return fmt.Sprintf("mfhi $%d", rd)
	case 0x11:
		return fmt.Sprintf("mthi $%d", rs)
	case 0x12:
		return fmt.Sprintf("mflo $%d", rd)
	case 0x13:
		return fmt.Sprintf("mtlo $%d", rs)
	case 0x18:
		return fmt.Sprintf("mult $%d, $%d", rs, rt)
	case 0x19:
		return fmt.Sprintf("multu $%d, $%d", rs, rt)
	case 0x1A:
		return fmt.Sprintf("div $%d, $%d", rs, rt)
	case 0x1B:
		return fmt.Sprintf("divu $%d, $%d", rs, rt)
	case 0x0C:
		return "syscall"
	case 0x0D:
		return "break"
	case 0x30:
		return fmt.Sprintf("tge $%d, $%d", rs, rt)
	case 0x31:
		return fmt.Sprintf("tgeu $%d, $%d", rs, rt)
	case 0x32:
		return fmt.Sprintf("tlt $%d, $%d", rs, rt)
	case 0x33:
		return fmt.Sprintf("tltu $%d, $%d", rs, rt)
	case 0x34:
		return fmt.Sprintf("teq $%d, $%d", rs, rt)
	case 0x36:
		return fmt.Sprintf("tne $%d, $%d", rs, rt)
	default:
		return fmt.Sprintf("unknown R-funct 0x%02X", funct)
	}
}

func disassembleI(op, inst uint32, pc uint32) string {
	rs := (inst >> 21) & 0x1F
	rt := (inst >> 16) & 0x1F
	imm := inst & 0xFFFF

	switch op {
	case 0x08:
		return fmt.Sprintf("addi $%d, $%d, %d", rt, rs, int16(imm))
	case 0x09:
		return fmt.Sprintf("addiu $%d, $%d, %d", rt, rs, int16(imm))
	case 0x0C:
		return fmt.Sprintf("andi $%d, $%d, %d", rt, rs, imm)
	case 0x0D:
		return fmt.Sprintf("ori $%d, $%d, %d", rt, rs, imm)
	case 0x0E:
		return fmt.Sprintf("xori $%d, $%d, %d", rt, rs, imm)
	case 0x0A:
		return fmt.Sprintf("slti $%d, $%d, %d", rt, rs, int16(imm))
	case 0x0B:
		return fmt.Sprintf("sltiu $%d, $%d, %d", rt, rs, int16(imm))
	case 0x0F:
		return fmt.Sprintf("lui $%d, 0x%04X", rt, imm)
	case 0x20:
		return fmt.Sprintf("lb $%d, %d($%d)", rt, int16(imm), rs)
	case 0x21:
		return fmt.Sprintf("lh $%d, %d($%d)", rt, int16(imm), rs)
	case 0x22:
		return fmt.Sprintf("lwl $%d, %d($%d)", rt, int16(imm), rs)
	case 0x23:
		return fmt.Sprintf("lw $%d, %d($%d)", rt, int16(imm), rs)
	case 0x24:
		return fmt.Sprintf("lbu $%d, %d($%d)", rt, int16(imm), rs)
	case 0x25:
		return fmt.Sprintf("lhu $%d, %d($%d)", rt, int16(imm), rs)
	case 0x26:
		return fmt.Sprintf("lwr $%d, %d($%d)", rt, int16(imm), rs)
	case 0x28:
		return fmt.Sprintf("sb $%d, %d($%d)", rt, int16(imm), rs)
	case 0x29:
		return fmt.Sprintf("sh $%d, %d($%d)", rt, int16(imm), rs)
	case 0x2A:
		return fmt.Sprintf("swl $%d, %d($%d)", rt, int16(imm), rs)
	case 0x2B:
		return fmt.Sprintf("sw $%d, %d($%d)", rt, int16(imm), rs)
	case 0x2E:
		return fmt.Sprintf("swr $%d, %d($%d)", rt, int16(imm), rs)
	case 0x31:
		return fmt.Sprintf("lwc1 $%d, %d($%d)", rt, int16(imm), rs)
	case 0x32:
		return fmt.Sprintf("lwc2 $%d, %d($%d)", rt, int16(imm), rs)
	case 0x33:
		return fmt.Sprintf("lwc3 $%d, %d($%d)", rt, int16(imm), rs)
	case 0x39:
		return fmt.Sprintf("swc1 $%d, %d($%d)", rt, int16(imm), rs)
	case 0x3A:
		return fmt.Sprintf("swc2 $%d, %d($%d)", rt, int16(imm), rs)
	case 0x3B:
		return fmt.Sprintf("swc3 $%d, %d($%d)", rt, int16(imm), rs)
	case 0x04:
		return fmt.Sprintf("beq $%d, $%d, 0x%08X", rs, rt, branchTarget(imm, pc))
	case 0x05:
		return fmt.Sprintf("bne $%d, $%d, 0x%08X", rs, rt, branchTarget(imm, pc))
	case 0x06:
		return fmt.Sprintf("blez $%d, 0x%08X", rs, branchTarget(imm, pc))
	case 0x07:
		return fmt.Sprintf("bgtz $%d, 0x%08X", rs, branchTarget(imm, pc))
	case 0x10:
		return disassembleCop(inst, 0)
	case 0x11:
		return disassembleCop(inst, 1)
	case 0x12:
		return disassembleCop(inst, 2)
	case 0x13:
		return disassembleCop(inst, 3)
	default:
		return fmt.Sprintf("unknown I-op 0x%02X", op)
	}
}

func branchTarget(imm uint32, pc uint32) uint32 {
	offset := int32(int16(imm)) << 2
	return pc + 4 + uint32(offset)
}

func disassembleRegimm(inst uint32, pc uint32) string {
	rs := (inst >> 21) & 0x1F
	rt := (inst >> 16) & 0x1F
	imm := inst & 0xFFFF
	target := branchTarget(imm, pc)

	switch rt {
	case 0x00:
		return fmt.Sprintf("bltz $%d, 0x%08X", rs, target)
	case 0x01:
		return fmt.Sprintf("bgez $%d, 0x%08X", rs, target)
	case 0x10:
		return fmt.Sprintf("bltzal $%d, 0x%08X", rs, target)
	case 0x11:
		return fmt.Sprintf("bgezal $%d, 0x%08X", rs, target)
	case 0x08:
		return fmt.Sprintf("tgei $%d, %d", rs, int16(imm))
	case 0x09:
		return fmt.Sprintf("tgeiu $%d, %d", rs, int16(imm))
	case 0x0A:
		return fmt.Sprintf("tlti $%d, %d", rs, int16(imm))
	case 0x0B:
		return fmt.Sprintf("tltiu $%d, %d", rs, int16(imm))
	case 0x0C:
		return fmt.Sprintf("teqi $%d, %d", rs, int16(imm))
	case 0x0E:
		return fmt.Sprintf("tnei $%d, %d", rs, int16(imm))
	default:
		return fmt.Sprintf("unknown regimm rt=0x%02X", rt)
	}
}

func disassembleCop(inst uint32, z int) string {
	rs := (inst >> 21) & 0x1F
	rt := (inst >> 16) & 0x1F
	rd := (inst >> 11) & 0x1F
	sel := inst & 0x7

	switch rs {
	case 0x00:
		return fmt.Sprintf("mfc%d $%d, $%d, %d", z, rt, rd, sel)
	case 0x02:
		return fmt.Sprintf("cfc%d $%d, $%d", z, rt, rd)
	case 0x04:
		return fmt.Sprintf("mtc%d $%d, $%d, %d", z, rt, rd, sel)
	case 0x06:
		return fmt.Sprintf("ctc%d $%d, $%d", z, rt, rd)
	case 0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17,
		0x18, 0x19, 0x1A, 0x1B, 0x1C, 0x1D, 0x1E, 0x1F:
		if z != 0 {
			return fmt.Sprintf("cop%d 0x%07X", z, inst&0x1FFFFFF)
		}
		switch inst & 0x3F {
		case 0x01:
			return "tlbr"
		case 0x02:
			return "tlbwi"
		case 0x06:
			return "tlbwr"
		case 0x08:
			return "tlbp"
		case 0x18:
			return "eret"
		default:
			return fmt.Sprintf("cop0-co funct=0x%02X", inst&0x3F)
		}
	default:
		return fmt.Sprintf("unknown cop%d rs=0x%02X", z, rs)
	}
}
