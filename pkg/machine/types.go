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

// Memory is the byte addressable store the machine executes from. The
// machine bounds checks every address against Size before calling Read or
// Write, so implementations may index directly.
type Memory interface {
	Reset()
	Read(addr uint16) uint8
	Write(addr uint16, value uint8)
	WriteSeq(start uint16, values []uint8)
	Size() int
}

// Display is a monochrome surface. bits is a row-major bitmap SPRITE_WIDTH
// pixels wide and len(bits)/SPRITE_WIDTH rows tall. DrawSprite reports
// whether any set pixel was turned off.
type Display interface {
	Clear()
	DrawSprite(x, y int, bits []bool) bool
}

// Input reports the state of the 16 key keypad.
type Input interface {
	IsPressed(key uint8) bool
	FirstPressed() (uint8, bool)
}

// Random is satisfied by *rand.Rand
type Random interface {
	Intn(n int) int
}

type MachineState struct {
	Registers [NUM_REGS]uint8
	Program   uint16
	Index     uint16
	Delay     uint8
	Sound     uint8
	Stack     []uint16

	// Set by Fx0A until a key is held
	Waiting     bool
	KeyRegister uint8
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

type Machine struct {
	Memory   Memory
	Display  Display
	Input    Input
	Random   Random
	State    MachineState
	Debugger MachineDebugger

	CyclesPerTick uint
	Clock         Clock

	fault error
}
