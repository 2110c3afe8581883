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
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindNOP
	KindCLS
	KindRET
	KindJP
	KindCALL
	KindSEByte
	KindSNEByte
	KindSEReg
	KindLDByte
	KindADDByte
	KindLDReg
	KindOR
	KindAND
	KindXOR
	KindADDReg
	KindSUB
	KindSHR
	KindSUBN
	KindSHL
	KindSNEReg
	KindLDI
	KindJPV0
	KindRND
	KindDRW
	KindSKP
	KindSKNP
	KindLDVDT
	KindLDK
	KindLDDTV
	KindLDSTV
	KindADDI
	KindLDF
	KindLDBCD
	KindSTORE
	KindLOAD
)

var kindNames = [...]string{
	KindUnknown: "???",
	KindNOP:     "SYS",
	KindCLS:     "CLS",
	KindRET:     "RET",
	KindJP:      "JP",
	KindCALL:    "CALL",
	KindSEByte:  "SE",
	KindSNEByte: "SNE",
	KindSEReg:   "SE",
	KindLDByte:  "LD",
	KindADDByte: "ADD",
	KindLDReg:   "LD",
	KindOR:      "OR",
	KindAND:     "AND",
	KindXOR:     "XOR",
	KindADDReg:  "ADD",
	KindSUB:     "SUB",
	KindSHR:     "SHR",
	KindSUBN:    "SUBN",
	KindSHL:     "SHL",
	KindSNEReg:  "SNE",
	KindLDI:     "LD",
	KindJPV0:    "JP",
	KindRND:     "RND",
	KindDRW:     "DRW",
	KindSKP:     "SKP",
	KindSKNP:    "SKNP",
	KindLDVDT:   "LD",
	KindLDK:     "LD",
	KindLDDTV:   "LD",
	KindLDSTV:   "LD",
	KindADDI:    "ADD",
	KindLDF:     "LD",
	KindLDBCD:   "LD",
	KindSTORE:   "LD",
	KindLOAD:    "LD",
}

func (kind Kind) String() string {
	if int(kind) < len(kindNames) {
		return kindNames[kind]
	}

	return kindNames[KindUnknown]
}

// Instruction is a decoded opcode. Only the operand fields relevant to Kind
// carry meaning, but all are always extracted.
type Instruction struct {
	Kind   Kind
	Opcode uint16
	Addr   uint16
	X      uint8
	Y      uint8
	Byte   uint8
	Nibble uint8
}

// Decode has no side effects and never fails; opcodes outside the
// instruction table decode to KindUnknown.
func Decode(opcode uint16) Instruction {
	in := Instruction{
		Opcode: opcode,
		Addr:   opcode & 0x0FFF,
		X:      uint8((opcode >> 8) & 0xF),
		Y:      uint8((opcode >> 4) & 0xF),
		Byte:   uint8(opcode & 0xFF),
		Nibble: uint8(opcode & 0xF),
	}

	switch opcode >> 12 {
	case OP_SYS:
		switch in.Byte {
		case 0x00:
			in.Kind = KindNOP
		case 0xE0:
			in.Kind = KindCLS
		case 0xEE:
			in.Kind = KindRET
		}

	case OP_JP:
		in.Kind = KindJP
	case OP_CALL:
		in.Kind = KindCALL
	case OP_SEB:
		in.Kind = KindSEByte
	case OP_SNEB:
		in.Kind = KindSNEByte
	case OP_SER:
		in.Kind = KindSEReg
	case OP_LDB:
		in.Kind = KindLDByte
	case OP_ADDB:
		in.Kind = KindADDByte

	case OP_ALU:
		switch in.Nibble {
		case 0x0:
			in.Kind = KindLDReg
		case 0x1:
			in.Kind = KindOR
		case 0x2:
			in.Kind = KindAND
		case 0x3:
			in.Kind = KindXOR
		case 0x4:
			in.Kind = KindADDReg
		case 0x5:
			in.Kind = KindSUB
		case 0x6:
			in.Kind = KindSHR
		case 0x7:
			in.Kind = KindSUBN
		case 0xE:
			in.Kind = KindSHL
		}

	case OP_SNER:
		in.Kind = KindSNEReg
	case OP_LDI:
		in.Kind = KindLDI
	case OP_JPV:
		in.Kind = KindJPV0
	case OP_RND:
		in.Kind = KindRND
	case OP_DRW:
		in.Kind = KindDRW

	case OP_KEY:
		switch in.Byte {
		case 0x9E:
			in.Kind = KindSKP
		case 0xA1:
			in.Kind = KindSKNP
		}

	case OP_MISC:
		switch in.Byte {
		case 0x07:
			in.Kind = KindLDVDT
		case 0x0A:
			in.Kind = KindLDK
		case 0x15:
			in.Kind = KindLDDTV
		case 0x18:
			in.Kind = KindLDSTV
		case 0x1E:
			in.Kind = KindADDI
		case 0x29:
			in.Kind = KindLDF
		case 0x33:
			in.Kind = KindLDBCD
		case 0x55:
			in.Kind = KindSTORE
		case 0x65:
			in.Kind = KindLOAD
		}
	}

	return in
}

func (in Instruction) String() string {
	name := in.Kind.String()

	switch in.Kind {
	case KindNOP, KindCLS, KindRET:
		return name
	case KindJP, KindCALL:
		return fmt.Sprintf("%s %#03x", name, in.Addr)
	case KindSEByte, KindSNEByte, KindLDByte, KindADDByte, KindRND:
		return fmt.Sprintf("%s V%X, %#02x", name, in.X, in.Byte)
	case KindSEReg, KindSNEReg, KindLDReg, KindOR, KindAND, KindXOR,
		KindADDReg, KindSUB, KindSUBN:
		return fmt.Sprintf("%s V%X, V%X", name, in.X, in.Y)
	case KindSHR, KindSHL, KindSKP, KindSKNP:
		return fmt.Sprintf("%s V%X", name, in.X)
	case KindLDI:
		return fmt.Sprintf("%s I, %#03x", name, in.Addr)
	case KindJPV0:
		return fmt.Sprintf("%s V0, %#03x", name, in.Addr)
	case KindDRW:
		return fmt.Sprintf("%s V%X, V%X, %d", name, in.X, in.Y, in.Nibble)
	case KindLDVDT:
		return fmt.Sprintf("%s V%X, DT", name, in.X)
	case KindLDK:
		return fmt.Sprintf("%s V%X, K", name, in.X)
	case KindLDDTV:
		return fmt.Sprintf("%s DT, V%X", name, in.X)
	case KindLDSTV:
		return fmt.Sprintf("%s ST, V%X", name, in.X)
	case KindADDI:
		return fmt.Sprintf("%s I, V%X", name, in.X)
	case KindLDF:
		return fmt.Sprintf("%s F, V%X", name, in.X)
	case KindLDBCD:
		return fmt.Sprintf("%s B, V%X", name, in.X)
	case KindSTORE:
		return fmt.Sprintf("%s [I], V%X", name, in.X)
	case KindLOAD:
		return fmt.Sprintf("%s V%X, [I]", name, in.X)
	default:
		return fmt.Sprintf("DW %#04x", in.Opcode)
	}
}
