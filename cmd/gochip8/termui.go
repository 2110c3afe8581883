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
	"bufio"
	"errors"
	"fmt"
	"os"
	"time"
	"unicode"

	"golang.org/x/term"

	"github.com/lassandro/gochip8/pkg/devices"
	"github.com/lassandro/gochip8/pkg/machine"
)

// Terminals report key presses but never releases
const keyHold = 100 * time.Millisecond

const frameRate = 60

const keyEscape = 0x1b

type termFrontend struct {
	mc     *machine.Machine
	screen *devices.Screen
	keypad *devices.Keypad
	beep   *beeper

	held [machine.NUM_KEYS]time.Time
	out  *bufio.Writer
}

func newTermFrontend(
	mc *machine.Machine,
	screen *devices.Screen,
	keypad *devices.Keypad,
	beep *beeper,
) (frontend, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) ||
		!term.IsTerminal(int(os.Stdout.Fd())) {
		return nil, errors.New("-term requires an interactive terminal")
	}

	width, height, err := term.GetSize(int(os.Stdout.Fd()))

	if err != nil {
		return nil, err
	}

	if width < machine.SCREEN_WIDTH || height < machine.SCREEN_HEIGHT/2+1 {
		return nil, fmt.Errorf(
			"terminal is %dx%d, need at least %dx%d",
			width, height, machine.SCREEN_WIDTH, machine.SCREEN_HEIGHT/2+1,
		)
	}

	return &termFrontend{
		mc:     mc,
		screen: screen,
		keypad: keypad,
		beep:   beep,
		out:    bufio.NewWriter(os.Stdout),
	}, nil
}

func (fe *termFrontend) Run() error {
	if err := enterRawTerm(); err != nil {
		return err
	}

	// Hide cursor, clear screen
	fe.out.WriteString("\x1b[?25l\x1b[2J")
	fe.render()

	ticker := time.NewTicker(time.Second / frameRate)
	defer ticker.Stop()

	buf := make([]byte, 64)
	last := time.Now()

	for !shouldexit {
		<-ticker.C

		now := time.Now()

		if fe.pollKeys(buf, now) {
			return nil
		}

		pollInterrupt(fe.mc)

		if shouldexit {
			break
		}

		if err := advance(fe.mc, now.Sub(last)); err != nil {
			return err
		}

		last = now

		fe.beep.Set(fe.mc.State.Sound > 0)

		if fe.screen.Dirty() {
			fe.render()
		}
	}

	return nil
}

// pollKeys presses every mapped key waiting on stdin and releases keys
// whose hold has run out. Reports true when a lone Escape was read.
func (fe *termFrontend) pollKeys(buf []byte, now time.Time) bool {
	keys := readKeys(buf)

	for i, b := range keys {
		if b == keyEscape && i == len(keys)-1 {
			return true
		}

		key, ok := devices.Keymap[unicode.ToLower(rune(b))]

		if !ok {
			continue
		}

		fe.keypad.Press(key)
		fe.held[key] = now.Add(keyHold)
	}

	for key := range fe.held {
		if !fe.held[key].IsZero() && now.After(fe.held[key]) {
			fe.keypad.Release(uint8(key))
			fe.held[key] = time.Time{}
		}
	}

	return false
}

// Two pixel rows per character cell
func (fe *termFrontend) render() {
	fe.out.WriteString("\x1b[H")

	for y := 0; y < machine.SCREEN_HEIGHT; y += 2 {
		for x := 0; x < machine.SCREEN_WIDTH; x++ {
			top := fe.screen.Pixel(x, y)
			bottom := fe.screen.Pixel(x, y+1)

			switch {
			case top && bottom:
				fe.out.WriteString("█")
			case top:
				fe.out.WriteString("▀")
			case bottom:
				fe.out.WriteString("▄")
			default:
				fe.out.WriteByte(' ')
			}
		}

		fe.out.WriteString("\r\n")
	}

	fe.out.Flush()
	fe.screen.ClearDirty()
}

func (fe *termFrontend) Close() {
	// Show cursor
	fe.out.WriteString("\x1b[?25h\r\n")
	fe.out.Flush()
	fe.beep.Set(false)
	exitRawTerm()
}
