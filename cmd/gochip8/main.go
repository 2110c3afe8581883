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
	"bytes"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/devices"
	"github.com/lassandro/gochip8/pkg/disasm"
	"github.com/lassandro/gochip8/pkg/machine"
)

var helpvar bool
var debugvar bool
var termvar bool
var tickvar bool
var mutevar bool
var statsvar bool
var cpsvar uint
var cyclesvar uint
var scalevar int
var seedvar int64

var shouldexit bool

// Set from the signal handler, consumed by the frontend loop
var interrupted atomic.Bool

const usage = "gochip8 [-debug] [-term] [-tick] [-cps hz] filename"

// Longest wall time handed to the machine in one frame. Pauses (debugger,
// window drags) would otherwise be replayed as a burst of instructions.
const maxFrame = 250 * time.Millisecond

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Starts the machine in a debug CLI")
	flag.BoolVar(&termvar, "term", false, "Renders to the terminal instead of a window")
	flag.BoolVar(
		&tickvar, "tick", false,
		"Runs a fixed number of cycles per 60Hz frame instead of "+
			"scheduling by elapsed time",
	)
	flag.BoolVar(&mutevar, "mute", false, "Disables the sound timer beep")
	flag.BoolVar(
		&statsvar, "statsview", false,
		"Serves runtime statistics at http://"+statsAddress+statsPath,
	)
	flag.UintVar(&cpsvar, "cps", machine.DEFAULT_FREQUENCY, "Instructions per second")
	flag.UintVar(
		&cyclesvar, "cycles", machine.DEFAULT_CYCLES_PER_TICK,
		"Instructions per frame when running with -tick",
	)
	flag.IntVar(&scalevar, "scale", 10, "Window zoom factor")
	flag.Int64Var(
		&seedvar, "seed", 0,
		"Seeds the random number instruction. Zero seeds from the clock",
	)
}

// frontend owns the machine for the lifetime of the program and is the only
// thing that advances it
type frontend interface {
	Run() error
	Close()
}

// advance moves the machine forward by one host frame
func advance(mc *machine.Machine, elapsed time.Duration) error {
	if tickvar {
		return mc.Tick()
	}

	if elapsed > maxFrame {
		elapsed = maxFrame
	}

	return mc.Run(elapsed)
}

func reportFault(rom string, err error) {
	var fault *machine.Fault

	if errors.As(err, &fault) {
		log.Printf("%s: %s fault", rom, fault.Kind)
		log.Printf("%s: %v", rom, err)
		log.Printf("%s: %s", rom, disasm.Line(fault.Program, fault.Opcode))
	} else {
		log.Printf("%s: %v", rom, err)
	}
}

func gochip8() int {
	flag.Parse()

	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	if len(args) != 1 {
		log.Println(usage)
		return 1
	}

	romData, err := os.ReadFile(args[0])

	if err != nil {
		log.Println(err)
		return 1
	}

	var ram devices.WatchedRAM
	var screen devices.Screen
	var keypad devices.Keypad

	mc := machine.New(&ram, &screen, &keypad)
	mc.Clock.Frequency = cpsvar
	mc.CyclesPerTick = cyclesvar

	if seedvar != 0 {
		mc.Random = rand.New(rand.NewSource(seedvar))
	}

	if err := mc.LoadBin(bytes.NewReader(romData)); err != nil {
		log.Printf("%s: %v", args[0], err)
		return 1
	}

	if statsvar {
		launchStatsview()
	}

	c := make(chan os.Signal, 1)
	defer close(c)

	signal.Notify(c, os.Interrupt)
	defer signal.Stop(c)

	go func() {
		for range c {
			interrupted.Store(true)
		}
	}()

	if debugvar {
		var dbg debugger.Debugger
		dbg.Break = true
		dbg.HandleBreak = handleBreak
		dbg.HandleRead = handleRead
		dbg.HandleWrite = handleWrite
		mc.Debugger = &dbg

		rom = romData
	}

	var beep *beeper

	if !mutevar {
		if beep, err = newBeeper(); err != nil {
			log.Printf("Sound disabled: %v", err)
			beep = nil
		} else {
			defer beep.Close()
		}
	}

	var fe frontend

	if termvar {
		fe, err = newTermFrontend(mc, &screen, &keypad, beep)
	} else {
		fe, err = newWindowFrontend(
			mc, &screen, &keypad, beep, filepath.Base(args[0]),
		)
	}

	if err != nil {
		log.Println(err)
		return 1
	}

	err = fe.Run()
	fe.Close()

	if err != nil {
		reportFault(args[0], err)
		return 1
	}

	return 0
}

// pollInterrupt turns Ctrl-C into a debugger break when debugging and into
// an exit otherwise
func pollInterrupt(mc *machine.Machine) {
	if !interrupted.Swap(false) {
		return
	}

	if dbg, ok := mc.Debugger.(*debugger.Debugger); ok {
		fmt.Println()
		dbg.Break = true
	} else {
		shouldexit = true
	}
}

func main() {
	os.Exit(gochip8())
}
