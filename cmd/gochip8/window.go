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

package main

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/lassandro/gochip8/pkg/devices"
	"github.com/lassandro/gochip8/pkg/machine"
)

var windowKeys = map[rune]ebiten.Key{
	'1': ebiten.KeyDigit1, '2': ebiten.KeyDigit2,
	'3': ebiten.KeyDigit3, '4': ebiten.KeyDigit4,
	'q': ebiten.KeyQ, 'w': ebiten.KeyW, 'e': ebiten.KeyE, 'r': ebiten.KeyR,
	'a': ebiten.KeyA, 's': ebiten.KeyS, 'd': ebiten.KeyD, 'f': ebiten.KeyF,
	'z': ebiten.KeyZ, 'x': ebiten.KeyX, 'c': ebiten.KeyC, 'v': ebiten.KeyV,
}

var (
	pixelOn  = [4]byte{0xE0, 0xE0, 0xE0, 0xFF}
	pixelOff = [4]byte{0x10, 0x10, 0x10, 0xFF}
)

type windowFrontend struct {
	mc     *machine.Machine
	screen *devices.Screen
	keypad *devices.Keypad
	beep   *beeper

	image  *ebiten.Image
	pixels []byte
	last   time.Time
}

func newWindowFrontend(
	mc *machine.Machine,
	screen *devices.Screen,
	keypad *devices.Keypad,
	beep *beeper,
	title string,
) (frontend, error) {
	scale := scalevar

	if scale < 1 {
		scale = 1
	}

	ebiten.SetWindowSize(
		machine.SCREEN_WIDTH*scale, machine.SCREEN_HEIGHT*scale,
	)
	ebiten.SetWindowTitle(title)
	ebiten.SetTPS(frameRate)

	return &windowFrontend{
		mc:     mc,
		screen: screen,
		keypad: keypad,
		beep:   beep,
		pixels: make([]byte, machine.SCREEN_WIDTH*machine.SCREEN_HEIGHT*4),
	}, nil
}

func (fe *windowFrontend) Run() error {
	fe.last = time.Now()

	if err := ebiten.RunGame(fe); err != nil && err != ebiten.Termination {
		return err
	}

	return nil
}

func (fe *windowFrontend) Update() error {
	if ebiten.IsKeyPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	pollInterrupt(fe.mc)

	if shouldexit {
		return ebiten.Termination
	}

	for r, key := range windowKeys {
		if ebiten.IsKeyPressed(key) {
			fe.keypad.Press(devices.Keymap[r])
		} else {
			fe.keypad.Release(devices.Keymap[r])
		}
	}

	// With -debug a break runs the stdin REPL in here; the window does not
	// repaint until it returns
	now := time.Now()
	err := advance(fe.mc, now.Sub(fe.last))
	fe.last = now

	fe.beep.Set(fe.mc.State.Sound > 0)

	return err
}

func (fe *windowFrontend) Draw(screen *ebiten.Image) {
	fresh := fe.image == nil

	if fresh {
		fe.image = ebiten.NewImage(machine.SCREEN_WIDTH, machine.SCREEN_HEIGHT)
	}

	if fresh || fe.screen.Dirty() {
		for i, on := range fe.screen.Pixels() {
			color := pixelOff

			if on {
				color = pixelOn
			}

			copy(fe.pixels[i*4:], color[:])
		}

		fe.image.WritePixels(fe.pixels)
		fe.screen.ClearDirty()
	}

	screen.DrawImage(fe.image, nil)
}

func (fe *windowFrontend) Layout(_, _ int) (int, int) {
	return machine.SCREEN_WIDTH, machine.SCREEN_HEIGHT
}

func (fe *windowFrontend) Close() {
	fe.beep.Set(false)
}
