// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package machine

import (
	"fmt"
	"io"
	"math/rand"
	"time"
)

func New(mem Memory, disp Display, in Input) *Machine {
	mc := &Machine{
		Memory:        mem,
		Display:       disp,
		Input:         in,
		Random:        rand.New(rand.NewSource(time.Now().UnixNano())),
		CyclesPerTick: DEFAULT_CYCLES_PER_TICK,
		Clock:         Clock{Frequency: DEFAULT_FREQUENCY},
	}

	mc.Reset()

	return mc
}

func (mc *MachineState) Reset() {
	for i := range mc.Registers {
		mc.Registers[i] = 0x00
	}

	mc.Program = MEMSPACE_PROGRAM
	mc.Index = 0x0000
	mc.Delay = 0
	mc.Sound = 0
	mc.Stack = mc.Stack[:0]
	mc.Waiting = false
	mc.KeyRegister = 0
}

// Reset restores the power-on state, including the font table. Loaded
// programs are lost.
func (mc *Machine) Reset() {
	mc.State.Reset()
	mc.Clock.Reset()
	mc.fault = nil

	mc.Memory.Reset()
	mc.Memory.WriteSeq(MEMSPACE_FONT, Font[:])

	if mc.Display != nil {
		mc.Display.Clear()
	}
}

func (mc *Machine) LoadProgram(rom []byte) error {
	if end := int(MEMSPACE_PROGRAM) + len(rom); end > mc.Memory.Size() {
		return fmt.Errorf(
			"program of %d bytes ends at %#04x: %w",
			len(rom), end, ErrAddressOutOfRange,
		)
	}

	mc.Memory.WriteSeq(MEMSPACE_PROGRAM, rom)

	return nil
}

func (mc *Machine) LoadBin(reader io.Reader) error {
	mc.Reset()

	rom, err := io.ReadAll(reader)

	if err != nil {
		return err
	}

	return mc.LoadProgram(rom)
}

// Fault returns the error that halted the machine, if any
func (mc *Machine) Fault() error {
	return mc.fault
}

func (mc *Machine) halt(kind FaultKind, pc uint16, opcode uint16, addr uint16) error {
	mc.fault = &Fault{
		Kind:    kind,
		Program: pc,
		Opcode:  opcode,
		Addr:    addr,
	}

	return mc.fault
}

// Checks that count bytes starting at addr are addressable
func (mc *Machine) span(pc uint16, opcode uint16, addr uint16, count int) error {
	if int(addr)+count > mc.Memory.Size() {
		bad := addr

		if int(addr) < mc.Memory.Size() {
			bad = uint16(mc.Memory.Size())
		}

		return mc.halt(AddressOutOfRange, pc, opcode, bad)
	}

	return nil
}

func (mc *Machine) read(addr uint16) uint8 {
	value := mc.Memory.Read(addr)

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return value
}

func (mc *Machine) write(addr uint16, value uint8) {
	mc.Memory.Write(addr, value)

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

func (mc *Machine) push(value uint16) {
	mc.State.Stack = append(mc.State.Stack, value)
}

func (mc *Machine) pop() (uint16, bool) {
	depth := len(mc.State.Stack)

	if depth == 0 {
		return 0, false
	}

	value := mc.State.Stack[depth-1]
	mc.State.Stack = mc.State.Stack[:depth-1]

	return value, true
}

func (mc *Machine) setFlag(set bool) {
	if set {
		mc.State.Registers[REG_FLAG] = 1
	} else {
		mc.State.Registers[REG_FLAG] = 0
	}
}

func (mc *Machine) skipIf(cond bool) {
	if cond {
		mc.State.Program += 2
	}
}

func (mc *Machine) pressed(key uint8) bool {
	return mc.Input != nil && mc.Input.IsPressed(key&0xF)
}

// Step executes a single instruction. While waiting on Fx0A it only polls
// the keypad and leaves PC untouched.
func (mc *Machine) Step() error {
	if mc.fault != nil {
		return mc.fault
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	if mc.State.Waiting {
		if mc.Input == nil {
			return nil
		}

		if key, ok := mc.Input.FirstPressed(); ok {
			mc.State.Registers[mc.State.KeyRegister] = key
			mc.State.Waiting = false
		}

		return nil
	}

	pc := mc.State.Program

	if err := mc.span(pc, 0x0000, pc, 2); err != nil {
		return err
	}

	opcode := uint16(mc.read(pc))<<8 | uint16(mc.read(pc+1))

	mc.State.Program += 2

	return mc.execute(pc, Decode(opcode))
}

func (mc *Machine) execute(pc uint16, in Instruction) error {
	regs := &mc.State.Registers
	x, y := in.X, in.Y

	switch in.Kind {
	// SYS  |0000    |nnn                     | Ignored machine code call
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case KindNOP:

	// CLS  |0000    |0000   |1110   |0000    | Clear display
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case KindCLS:
		mc.Display.Clear()

	// RET  |0000    |0000   |1110   |1110    | Return from subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case KindRET:
		addr, ok := mc.pop()

		if !ok {
			return mc.halt(StackUnderflow, pc, in.Opcode, 0)
		}

		mc.State.Program = addr

	// JP   |0001    |addr                    | Jump
	// CALL |0010    |addr                    | Call subroutine
	// JP   |1011    |addr                    | Jump offset by V0
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case KindJP:
		mc.State.Program = in.Addr

	case KindCALL:
		mc.push(mc.State.Program)
		mc.State.Program = in.Addr

	case KindJPV0:
		mc.State.Program = in.Addr + uint16(regs[0])

	// SE   |0011    |x      |kk              | Skip if Vx == kk
	// SNE  |0100    |x      |kk              | Skip if Vx != kk
	// SE   |0101    |x      |y      |0000    | Skip if Vx == Vy
	// SNE  |1001    |x      |y      |0000    | Skip if Vx != Vy
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case KindSEByte:
		mc.skipIf(regs[x] == in.Byte)

	case KindSNEByte:
		mc.skipIf(regs[x] != in.Byte)

	case KindSEReg:
		mc.skipIf(regs[x] == regs[y])

	case KindSNEReg:
		mc.skipIf(regs[x] != regs[y])

	// LD   |0110    |x      |kk              | Load immediate
	// ADD  |0111    |x      |kk              | Add immediate, VF untouched
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case KindLDByte:
		regs[x] = in.Byte

	case KindADDByte:
		regs[x] += in.Byte

	// LD   |1000    |x      |y      |0000    | Vx = Vy
	// OR   |1000    |x      |y      |0001    | Vx |= Vy
	// AND  |1000    |x      |y      |0010    | Vx &= Vy
	// XOR  |1000    |x      |y      |0011    | Vx ^= Vy
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case KindLDReg:
		regs[x] = regs[y]

	case KindOR:
		regs[x] |= regs[y]

	case KindAND:
		regs[x] &= regs[y]

	case KindXOR:
		regs[x] ^= regs[y]

	// ADD  |1000    |x      |y      |0100    | Vx += Vy, VF = carry
	// SUB  |1000    |x      |y      |0101    | Vx -= Vy, VF = not borrow
	// SUBN |1000    |x      |y      |0111    | Vy -= Vx, VF = not borrow
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	// The flag is written before the result, so a VF destination keeps
	// the result
	case KindADDReg:
		sum := uint16(regs[x]) + uint16(regs[y])
		mc.setFlag(sum > 0xFF)
		regs[x] = uint8(sum)

	case KindSUB:
		diff := regs[x] - regs[y]
		mc.setFlag(regs[x] > regs[y])
		regs[x] = diff

	case KindSUBN:
		// The result lands in Vy, not Vx
		diff := regs[y] - regs[x]
		mc.setFlag(regs[y] > regs[x])
		regs[y] = diff

	// SHR  |1000    |x      |y      |0110    | Vx >>= 1, VF = shifted out
	// SHL  |1000    |x      |y      |1110    | Vx <<= 1, VF = shifted out
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case KindSHR:
		result := regs[x] >> 1
		regs[REG_FLAG] = regs[x] & 0x01
		regs[x] = result

	case KindSHL:
		result := regs[x] << 1
		regs[REG_FLAG] = regs[x] >> 7
		regs[x] = result

	// LD   |1010    |addr                    | I = addr
	// RND  |1100    |x      |kk              | Vx = random & kk
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case KindLDI:
		mc.State.Index = in.Addr

	case KindRND:
		regs[x] = uint8(mc.Random.Intn(0x100)) & in.Byte

	// DRW  |1101    |x      |y      |n       | Draw n rows from I at Vx,Vy
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case KindDRW:
		rows := int(in.Nibble)

		if err := mc.span(pc, in.Opcode, mc.State.Index, rows); err != nil {
			return err
		}

		bits := make([]bool, 0, rows*SPRITE_WIDTH)

		for row := 0; row < rows; row++ {
			line := mc.read(mc.State.Index + uint16(row))

			for bit := 7; bit >= 0; bit-- {
				bits = append(bits, (line>>uint(bit))&0x1 == 1)
			}
		}

		mc.setFlag(mc.Display.DrawSprite(int(regs[x]), int(regs[y]), bits))

	// SKP  |1110    |x      |1001   |1110    | Skip if key Vx held
	// SKNP |1110    |x      |1010   |0001    | Skip if key Vx not held
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case KindSKP:
		mc.skipIf(mc.pressed(regs[x]))

	case KindSKNP:
		mc.skipIf(!mc.pressed(regs[x]))

	// LD   |1111    |x      |0000   |0111    | Vx = DT
	// LD   |1111    |x      |0000   |1010    | Vx = next held key
	// LD   |1111    |x      |0001   |0101    | DT = Vx
	// LD   |1111    |x      |0001   |1000    | ST = Vx
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case KindLDVDT:
		regs[x] = mc.State.Delay

	case KindLDK:
		mc.State.Waiting = true
		mc.State.KeyRegister = x

	case KindLDDTV:
		mc.State.Delay = regs[x]

	case KindLDSTV:
		mc.State.Sound = regs[x]

	// ADD  |1111    |x      |0001   |1110    | I += Vx, VF = 16 bit carry
	// LD   |1111    |x      |0010   |1001    | I = glyph address of Vx
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case KindADDI:
		sum := uint32(mc.State.Index) + uint32(regs[x])
		mc.State.Index = uint16(sum)
		mc.setFlag(sum > 0xFFFF)

	case KindLDF:
		mc.State.Index = MEMSPACE_FONT + uint16(regs[x])*FONT_GLYPH_SIZE

	// LD   |1111    |x      |0011   |0011    | BCD of Vx at I, I+1, I+2
	// LD   |1111    |x      |0101   |0101    | Store V0..Vx at I
	// LD   |1111    |x      |0110   |0101    | Load V0..Vx from I
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case KindLDBCD:
		if err := mc.span(pc, in.Opcode, mc.State.Index, 3); err != nil {
			return err
		}

		value := regs[x]
		mc.write(mc.State.Index, value/100)
		mc.write(mc.State.Index+1, (value%100)/10)
		mc.write(mc.State.Index+2, value%10)

	case KindSTORE:
		count := int(x) + 1

		if err := mc.span(pc, in.Opcode, mc.State.Index, count); err != nil {
			return err
		}

		mc.Memory.WriteSeq(mc.State.Index, regs[:count])

		if mc.Debugger != nil {
			for i := 0; i < count; i++ {
				mc.Debugger.Write(mc.State.Index+uint16(i), mc)
			}
		}

	case KindLOAD:
		count := int(x) + 1

		if err := mc.span(pc, in.Opcode, mc.State.Index, count); err != nil {
			return err
		}

		for i := 0; i < count; i++ {
			regs[i] = mc.read(mc.State.Index + uint16(i))
		}

	default:
		return mc.halt(UnknownOpcode, pc, in.Opcode, 0)
	}

	return nil
}

func (mc *Machine) DecrementTimers() {
	if mc.State.Delay > 0 {
		mc.State.Delay--
	}

	if mc.State.Sound > 0 {
		mc.State.Sound--
	}
}

// Tick runs CyclesPerTick instructions followed by one timer decrement. It
// assumes the caller invokes it at TIMER_FREQUENCY.
func (mc *Machine) Tick() error {
	for i := uint(0); i < mc.CyclesPerTick; i++ {
		if err := mc.Step(); err != nil {
			return err
		}
	}

	mc.DecrementTimers()

	return nil
}

// Run advances the machine by elapsed wall time at Clock.Frequency
func (mc *Machine) Run(elapsed time.Duration) error {
	return mc.Clock.Advance(elapsed, mc)
}
