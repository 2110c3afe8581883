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

package disasm

import (
	"fmt"
	"io"

	"github.com/lassandro/gochip8/pkg/machine"
)

// Line formats a single decoded word as "ADDR  OPCODE  TEXT"
func Line(addr uint16, opcode uint16) string {
	return fmt.Sprintf("%03X  %04X  %s", addr, opcode, machine.Decode(opcode))
}

// Disassemble writes one line per 16-bit word of rom, treating the first
// byte as living at origin. A trailing odd byte is emitted as data.
func Disassemble(w io.Writer, rom []byte, origin uint16) error {
	for i := 0; i+1 < len(rom); i += 2 {
		opcode := uint16(rom[i])<<8 | uint16(rom[i+1])

		if _, err := fmt.Fprintln(w, Line(origin+uint16(i), opcode)); err != nil {
			return err
		}
	}

	if len(rom)%2 == 1 {
		last := len(rom) - 1

		_, err := fmt.Fprintf(
			w, "%03X  %02X    DB %#02x\n", origin+uint16(last), rom[last], rom[last],
		)

		return err
	}

	return nil
}

// Memory disassembles count words of mem starting at addr, stopping at the
// end of mem.
func Memory(w io.Writer, mem []byte, addr uint16, count int) error {
	start := int(addr)

	if start >= len(mem) {
		return nil
	}

	end := start + count*2

	if end > len(mem) {
		end = len(mem)
	}

	return Disassemble(w, mem[start:end], addr)
}
