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

const (
	SCREEN_WIDTH  = machine.SCREEN_WIDTH
	SCREEN_HEIGHT = machine.SCREEN_HEIGHT
)

type Screen struct {
	pixels [SCREEN_WIDTH * SCREEN_HEIGHT]bool
	dirty  bool
}

func (s *Screen) Clear() {
	for i := range s.pixels {
		s.pixels[i] = false
	}

	s.dirty = true
}

// DrawSprite XORs an 8 pixel wide bitmap onto the screen. Pixels falling
// off an edge wrap around to the opposite one.
func (s *Screen) DrawSprite(x, y int, bits []bool) bool {
	collision := false
	rows := len(bits) / machine.SPRITE_WIDTH

	for row := 0; row < rows; row++ {
		for col := 0; col < machine.SPRITE_WIDTH; col++ {
			if !bits[row*machine.SPRITE_WIDTH+col] {
				continue
			}

			pos := ((y+row)%SCREEN_HEIGHT)*SCREEN_WIDTH +
				(x+col)%SCREEN_WIDTH

			if s.pixels[pos] {
				collision = true
			}

			s.pixels[pos] = !s.pixels[pos]
		}
	}

	s.dirty = true

	return collision
}

func (s *Screen) Pixel(x, y int) bool {
	return s.pixels[(y%SCREEN_HEIGHT)*SCREEN_WIDTH+x%SCREEN_WIDTH]
}

// Pixels is row-major, SCREEN_WIDTH per row
func (s *Screen) Pixels() []bool {
	return s.pixels[:]
}

func (s *Screen) Dirty() bool {
	return s.dirty
}

func (s *Screen) ClearDirty() {
	s.dirty = false
}
