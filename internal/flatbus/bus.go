// Package flatbus provides a flat, byte-addressed memory bus: the
// concrete mips32.Bus used by tests and cmd/mipsmon. It is
// bounds-checked, has configurable endianness, and
// exposes a software-settable interrupt line so guest programs and
// embedders can exercise the Interrupt exception path without a real
// device behind the bus.
package flatbus

// Bus is a fixed-size byte-addressed memory with configurable
// endianness and a single software interrupt line.
type Bus struct {
	data         []byte
	littleEndian bool

	// pendingInterrupts is ORed into the return value of Clock on every
	// call, then cleared; SetInterrupt raises a line until Clock reports
	// it.
	pendingInterrupts uint8
}

// New creates a Bus of the given size. littleEndian selects the byte
// order used to compose halfword/word accesses.
func New(size uint32, littleEndian bool) *Bus {
	return &Bus{
		data:         make([]byte, size),
		littleEndian: littleEndian,
	}
}

// NewFromImage creates a Bus pre-loaded with image at address 0, sized
// to fit the image exactly if it is larger than size.
func NewFromImage(image []byte, size uint32, littleEndian bool) *Bus {
	if uint32(len(image)) > size {
		size = uint32(len(image))
	}
	b := New(size, littleEndian)
	copy(b.data, image)
	return b
}

// Len reports the size of the underlying byte slice.
func (b *Bus) Len() int { return len(b.data) }

// ReadByte implements mips32.Bus. An out-of-range address reads as 0
// rather than panicking. The core checks only alignment, not whether an
// address is mapped, so out-of-range accesses do reach the bus.
func (b *Bus) ReadByte(addr uint32) uint8 {
	if int(addr) >= len(b.data) {
		return 0
	}
	return b.data[addr]
}

// WriteByte implements mips32.Bus. Writes past the end are silently
// dropped, mirroring ReadByte's out-of-range behaviour.
func (b *Bus) WriteByte(addr uint32, val uint8) {
	if int(addr) >= len(b.data) {
		return
	}
	b.data[addr] = val
}

// LittleEndian implements mips32.Bus.
func (b *Bus) LittleEndian() bool { return b.littleEndian }

// Clock implements mips32.Bus. This reference bus has no timed devices
// of its own; it only reports interrupts raised via SetInterrupt.
func (b *Bus) Clock(cycles uint32) uint8 {
	_ = cycles
	mask := b.pendingInterrupts
	b.pendingInterrupts = 0
	return mask
}

// SetInterrupt raises (or clears) a line in the bitmask Clock will next
// report, for tests and the debug console to simulate an external
// device signalling the CPU.
func (b *Bus) SetInterrupt(mask uint8, raised bool) {
	if raised {
		b.pendingInterrupts |= mask
	} else {
		b.pendingInterrupts &^= mask
	}
}

// ReadHalfword implements mips32.WordBus.
func (b *Bus) ReadHalfword(addr uint32) uint16 {
	lo := b.ReadByte(addr)
	hi := b.ReadByte(addr + 1)
	if b.littleEndian {
		return uint16(lo) | uint16(hi)<<8
	}
	return uint16(hi) | uint16(lo)<<8
}

// WriteHalfword implements mips32.WordBus.
func (b *Bus) WriteHalfword(addr uint32, val uint16) {
	var lo, hi uint8
	if b.littleEndian {
		lo, hi = uint8(val), uint8(val>>8)
	} else {
		hi, lo = uint8(val), uint8(val>>8)
	}
	b.WriteByte(addr, lo)
	b.WriteByte(addr+1, hi)
}

// ReadWord implements mips32.WordBus.
func (b *Bus) ReadWord(addr uint32) uint32 {
	b0 := b.ReadByte(addr)
	b1 := b.ReadByte(addr + 1)
	b2 := b.ReadByte(addr + 2)
	b3 := b.ReadByte(addr + 3)
	if b.littleEndian {
		return uint32(b0) | uint32(b1)<<8 | uint32(b2)<<16 | uint32(b3)<<24
	}
	return uint32(b3) | uint32(b2)<<8 | uint32(b1)<<16 | uint32(b0)<<24
}

// WriteWord implements mips32.WordBus.
func (b *Bus) WriteWord(addr uint32, val uint32) {
	var b0, b1, b2, b3 uint8
	if b.littleEndian {
		b0, b1, b2, b3 = uint8(val), uint8(val>>8), uint8(val>>16), uint8(val>>24)
	} else {
		b3, b2, b1, b0 = uint8(val), uint8(val>>8), uint8(val>>16), uint8(val>>24)
	}
	b.WriteByte(addr, b0)
	b.WriteByte(addr+1, b1)
	b.WriteByte(addr+2, b2)
	b.WriteByte(addr+3, b3)
}
