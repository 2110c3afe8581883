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
	"time"
)

const timerPeriod = 1000.0 / TIMER_FREQUENCY

type Stepper interface {
	Step() error
	DecrementTimers()
}

// Clock converts irregular wall time deltas into whole instruction steps at
// Frequency and whole timer decrements at TIMER_FREQUENCY. Fractions carry
// over between calls.
type Clock struct {
	Frequency uint

	cycles float64
	timer  float64
}

func (clk *Clock) Reset() {
	clk.cycles = 0
	clk.timer = 0
}

func (clk *Clock) Advance(elapsed time.Duration, target Stepper) error {
	ms := float64(elapsed) / float64(time.Millisecond)

	clk.cycles += ms * float64(clk.Frequency) / 1000.0

	for clk.cycles >= 1.0 {
		clk.cycles -= 1.0

		if err := target.Step(); err != nil {
			return err
		}
	}

	clk.timer += ms

	for clk.timer >= timerPeriod {
		clk.timer -= timerPeriod
		target.DecrementTimers()
	}

	return nil
}
