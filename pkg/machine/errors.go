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
	"errors"
	"fmt"
)

type FaultKind uint

const (
	UnknownOpcode FaultKind = iota
	StackUnderflow
	AddressOutOfRange
)

var (
	ErrUnknownOpcode     = errors.New("unknown opcode")
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrAddressOutOfRange = errors.New("address out of range")
)

func (kind FaultKind) String() string {
	switch kind {
	case UnknownOpcode:
		return "UnknownOpcode"
	case StackUnderflow:
		return "StackUnderflow"
	case AddressOutOfRange:
		return "AddressOutOfRange"
	default:
		return fmt.Sprintf("FaultKind(%d)", uint(kind))
	}
}

// Fault halts the machine. Program is the address the faulting instruction
// was fetched from; Addr is only meaningful for AddressOutOfRange.
type Fault struct {
	Kind    FaultKind
	Program uint16
	Opcode  uint16
	Addr    uint16
}

func (f *Fault) Error() string {
	switch f.Kind {
	case UnknownOpcode:
		return fmt.Sprintf(
			"%v %#04x at %#03x", ErrUnknownOpcode, f.Opcode, f.Program,
		)
	case StackUnderflow:
		return fmt.Sprintf(
			"%v: return (%#04x) at %#03x with empty stack",
			ErrStackUnderflow, f.Opcode, f.Program,
		)
	default:
		return fmt.Sprintf(
			"%v: %#04x (opcode %#04x at %#03x)",
			ErrAddressOutOfRange, f.Addr, f.Opcode, f.Program,
		)
	}
}

func (f *Fault) Unwrap() error {
	switch f.Kind {
	case UnknownOpcode:
		return ErrUnknownOpcode
	case StackUnderflow:
		return ErrStackUnderflow
	case AddressOutOfRange:
		return ErrAddressOutOfRange
	}

	return nil
}
