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

package devices

import (
	"github.com/lassandro/gochip8/pkg/machine"
)

const RAM_LENGTH = machine.MEMSPACE_SIZE

// RAM is a flat byte store. Reads and writes outside RAM_LENGTH panic; the
// machine checks bounds before touching memory.
type RAM struct {
	mem [RAM_LENGTH]uint8
}

func (ram *RAM) Reset() {
	for i := range ram.mem {
		ram.mem[i] = 0x00
	}
}

func (ram *RAM) Read(addr uint16) uint8 {
	return ram.mem[addr]
}

func (ram *RAM) Write(addr uint16, value uint8) {
	ram.mem[addr] = value
}

func (ram *RAM) WriteSeq(start uint16, values []uint8) {
	copy(ram.mem[start:int(start)+len(values)], values)
}

func (ram *RAM) Size() int {
	return RAM_LENGTH
}

// Bytes exposes the backing array without counting as an access
func (ram *RAM) Bytes() []uint8 {
	return ram.mem[:]
}

// WatchedRAM counts every read and write per address, for the debugger's
// heat view.
type WatchedRAM struct {
	RAM

	Reads  [RAM_LENGTH]uint64
	Writes [RAM_LENGTH]uint64
}

func (ram *WatchedRAM) Read(addr uint16) uint8 {
	ram.Reads[addr]++
	return ram.RAM.Read(addr)
}

func (ram *WatchedRAM) Write(addr uint16, value uint8) {
	ram.Writes[addr]++
	ram.RAM.Write(addr, value)
}

func (ram *WatchedRAM) WriteSeq(start uint16, values []uint8) {
	ram.RAM.WriteSeq(start, values)

	for i := range values {
		ram.Writes[int(start)+i]++
	}
}

func (ram *WatchedRAM) ResetCounters() {
	for i := range ram.Reads {
		ram.Reads[i] = 0
		ram.Writes[i] = 0
	}
}
