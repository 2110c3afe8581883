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
	"encoding/binary"
	"math"
	"sync/atomic"

	"github.com/ebitengine/oto/v3"
)

const (
	beepSampleRate = 44100
	beepPitch      = 440
	beepVolume     = 0.15
)

// beeper plays a square wave for as long as it is switched on. A nil
// *beeper is silent.
type beeper struct {
	ctx    *oto.Context
	player *oto.Player
	active atomic.Bool
	phase  int
}

func newBeeper() (*beeper, error) {
	op := &oto.NewContextOptions{
		SampleRate:   beepSampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	}

	ctx, ready, err := oto.NewContext(op)

	if err != nil {
		return nil, err
	}

	<-ready

	b := &beeper{ctx: ctx}
	b.player = ctx.NewPlayer(b)
	b.player.Play()

	return b, nil
}

// Read fills p with float32 samples, silence while inactive
func (b *beeper) Read(p []byte) (int, error) {
	const half = beepSampleRate / beepPitch / 2

	n := len(p) / 4
	on := b.active.Load()

	for i := 0; i < n; i++ {
		var sample float32

		if on {
			sample = beepVolume

			if (b.phase/half)%2 == 1 {
				sample = -beepVolume
			}

			b.phase++
		}

		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(sample))
	}

	if !on {
		b.phase = 0
	}

	return n * 4, nil
}

func (b *beeper) Set(on bool) {
	if b == nil {
		return
	}

	b.active.Store(on)
}

func (b *beeper) Close() {
	if b == nil {
		return
	}

	b.active.Store(false)
	b.player.Close()
}
