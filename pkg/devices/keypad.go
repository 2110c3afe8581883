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

type Keypad struct {
	keys [machine.NUM_KEYS]bool
}

func (kp *Keypad) Press(key uint8) {
	kp.keys[key&0xF] = true
}

func (kp *Keypad) Release(key uint8) {
	kp.keys[key&0xF] = false
}

func (kp *Keypad) ReleaseAll() {
	for i := range kp.keys {
		kp.keys[i] = false
	}
}

func (kp *Keypad) IsPressed(key uint8) bool {
	return kp.keys[key&0xF]
}

// FirstPressed returns the lowest numbered key currently held
func (kp *Keypad) FirstPressed() (uint8, bool) {
	for i, down := range kp.keys {
		if down {
			return uint8(i), true
		}
	}

	return 0, false
}

// Keymap lays the hex keypad over the left side of a QWERTY keyboard:
//
//	1 2 3 C      1 2 3 4
//	4 5 6 D  ->  Q W E R
//	7 8 9 E      A S D F
//	A 0 B F      Z X C V
var Keymap = map[rune]uint8{
	'1': 0x1, '2': 0x2, '3': 0x3, '4': 0xC,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0xD,
	'a': 0x7, 's': 0x8, 'd': 0x9, 'f': 0xE,
	'z': 0xA, 'x': 0x0, 'c': 0xB, 'v': 0xF,
}
