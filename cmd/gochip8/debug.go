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
	"bytes"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/devices"
	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
)

var lastcmd []string

// ROM image reloaded by the reset command
var rom []byte

// Accepts either hex (0x##) or base-10 (#12, 12)
func decodeValue(s string) (int, error) {
	if value, err := encoding.DecodeHex(s); err == nil {
		return int(value), nil
	}

	return encoding.DecodeInt(s)
}

func indexFormat(count int) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf("#%%0%dd: %%#04x", int64(digits)+1)
}

func debugBreak(dbg *debugger.Debugger, args []string) {
	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [0x###]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeAddr(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		if dbg.AddBreakpoint(addr) {
			fmt.Printf("Breakpoint added [%#04x]\n", addr)
		}

	case "l", "ls", "list":
		const usage = "break list"

		if len(args) != 0 {
			log.Println(usage)
			return
		}

		format := indexFormat(len(dbg.Breakpoints)) + "\n"

		for i, breakpoint := range dbg.Breakpoints {
			fmt.Printf(format, i, breakpoint.Addr)
		}

	case "r", "rm", "remove":
		const usage = "break remove [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Breakpoints)) {
			log.Println("Invalid breakpoint number")
			return
		}

		dbg.Breakpoints[i] = dbg.Breakpoints[len(dbg.Breakpoints)-1]
		dbg.Breakpoints = dbg.Breakpoints[:len(dbg.Breakpoints)-1]
		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = make([]debugger.Breakpoint, 0)
		fmt.Println("Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command\n", cmd)
	}
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|rm|clear]"

	if len(args) == 0 {
		log.Println(usage)
		return
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [0x###] [r|w|rw]"

		if len(args) != 2 {
			log.Println(usage)
			return
		}

		addr, err := encoding.DecodeAddr(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			log.Println(usage)
			return
		}

		if dbg.AddWatchpoint(addr, wtype) {
			fmt.Printf("Watchpoint added [%#04x] (%s)\n", addr, wtype)
		}

	case "l", "ls", "list":
		const usage = "watch list"

		if len(args) != 0 {
			log.Println(usage)
			return
		}

		format := indexFormat(len(dbg.Watchpoints)) + " %s\n"

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Printf(format, i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		const usage = "watch rm [#]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		i, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil {
			log.Println(err)
			return
		}

		if i < 0 || i >= int64(len(dbg.Watchpoints)) {
			log.Println("Invalid watchpoint number")
			return
		}

		dbg.Watchpoints[i] = dbg.Watchpoints[len(dbg.Watchpoints)-1]
		dbg.Watchpoints = dbg.Watchpoints[:len(dbg.Watchpoints)-1]
		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = make([]debugger.Watchpoint, 0)
		fmt.Println("Watchpoints reset")

	default:
		log.Printf("watch: '%s' is not a valid command\n", cmd)
	}
}

func debugReg(dbg *debugger.Debugger, mc *machine.MachineState, args []string) {
	const usage = "register [V#|PC|I|DT|ST] [value]"

	if len(args) == 0 {
		dbg.PrintRegs(mc)
		return
	}

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	value, err := decodeValue(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	name := strings.ToUpper(args[0])

	switch {
	case len(name) == 2 && name[0] == 'V':
		reg, err := encoding.DecodeKey(name[1:])

		if err != nil || value > math.MaxUint8 || value < 0 {
			log.Println(usage)
			return
		}

		mc.Registers[reg] = uint8(value)

	case name == "PC" || name == "I":
		if value >= machine.MEMSPACE_SIZE || value < 0 {
			log.Println("Address out of range")
			return
		}

		if name == "PC" {
			mc.Program = uint16(value)
		} else {
			mc.Index = uint16(value)
		}

	case name == "DT" || name == "ST":
		if value > math.MaxUint8 || value < 0 {
			log.Println(usage)
			return
		}

		if name == "DT" {
			mc.Delay = uint8(value)
		} else {
			mc.Sound = uint8(value)
		}

	default:
		log.Println("Invalid register")
		return
	}

	fmt.Printf("\033[1m%s:\033[0m %#02x\n", name, value)
}

func debugList(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "list [0x###] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	addr := mc.State.Program
	count := 8

	if len(args) > 0 {
		value, err := encoding.DecodeAddr(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		addr = value
	}

	if len(args) > 1 {
		value, err := encoding.DecodeInt(args[1])

		if err != nil {
			log.Println(err)
			return
		}

		count = value
	}

	dbg.PrintList(mc, addr, count)
}

func debugJump(mc *machine.MachineState, args []string) {
	const usage = "jump [0x###]"

	if len(args) != 1 {
		log.Println(usage)
		return
	}

	addr, err := encoding.DecodeAddr(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	if addr >= machine.MEMSPACE_SIZE {
		log.Println("Address out of range")
		return
	}

	mc.Program = addr
	fmt.Printf("\033[1mPC:\033[0m %#04x\n", addr)
}

func debugMemory(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "memory [0x###] [#]"

	if len(args) > 2 {
		log.Println(usage)
		return
	}

	addr := mc.State.Index
	count := 8

	if len(args) > 0 {
		value, err := encoding.DecodeAddr(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		addr = value
	}

	if len(args) > 1 {
		value, err := encoding.DecodeInt(args[1])

		if err != nil || value < 0 {
			log.Println(usage)
			return
		}

		count = value
	}

	dbg.PrintMem(mc, addr, uint16(count))
}

func debugSet(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "set [0x###] [value]"

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	addr, err := encoding.DecodeAddr(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	value, err := decodeValue(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	if int(addr) >= mc.Memory.Size() {
		log.Println("Address out of range")
		return
	}

	if value > math.MaxUint8 || value < 0 {
		log.Println(usage)
		return
	}

	mc.Memory.Write(addr, uint8(value))
	dbg.PrintMem(mc, addr, 1)
}

func debugHeat(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	const usage = "heat [#]"

	ram, ok := mc.Memory.(*devices.WatchedRAM)

	if !ok {
		fmt.Println("Memory access counting is unavailable")
		return
	}

	count := 16

	if len(args) > 1 {
		log.Println(usage)
		return
	}

	if len(args) == 1 {
		value, err := encoding.DecodeInt(args[0])

		if err != nil {
			log.Println(err)
			return
		}

		count = value
	}

	dbg.PrintHeat(ram, count)
}

func debugKey(mc *machine.Machine, args []string) {
	const usage = "key [0-F] [down|up]"

	keypad, ok := mc.Input.(*devices.Keypad)

	if !ok || len(args) == 0 || len(args) > 2 {
		log.Println(usage)
		return
	}

	key, err := encoding.DecodeKey(args[0])

	if err != nil {
		log.Println(err)
		return
	}

	if len(args) == 2 && (args[1] == "u" || args[1] == "up") {
		keypad.Release(key)
		fmt.Printf("Key %X released\n", key)
	} else {
		keypad.Press(key)
		fmt.Printf("Key %X pressed\n", key)
	}
}

func debugREPL(dbg *debugger.Debugger, mc *machine.Machine) {
	if termRaw {
		exitRawTerm()
		defer enterRawTerm()
	}

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		if !scanner.Scan() {
			fmt.Println()
			shouldexit = true
			return
		}

		args := strings.Fields(scanner.Text())

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = make([]string, len(args))
			copy(lastcmd, args)
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(dbg, &mc.State, args)

		case "l", "ls", "list":
			debugList(dbg, mc, args)

		case "j", "jmp", "jump":
			debugJump(&mc.State, args)

		case "m", "mem", "memory":
			debugMemory(dbg, mc, args)

		case "set":
			debugSet(dbg, mc, args)

		case "h", "heat":
			debugHeat(dbg, mc, args)

		case "k", "key":
			debugKey(mc, args)

		case "c", "continue":
			dbg.Break = false
			return

		case "n", "next":
			dbg.Break = true
			return

		case "q", "quit", "exit":
			shouldexit = true
			dbg.Break = false
			dbg.Breakpoints = nil
			dbg.Watchpoints = nil
			return

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			if err := mc.LoadBin(bytes.NewReader(rom)); err != nil {
				log.Println(err)
			} else {
				fmt.Println("Machine reset")
			}

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func handleBreak(dbg *debugger.Debugger, mc *machine.Machine) {
	if !dbg.Break {
		fmt.Println()
		fmt.Println("Program stopped")
	}

	dbg.PrintList(mc, mc.State.Program, 1)
	debugREPL(dbg, mc)
}

func handleRead(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped")
	dbg.PrintMem(mc, addr, 1)
	debugREPL(dbg, mc)
}

func handleWrite(addr uint16, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Println("Program stopped")
	dbg.PrintMem(mc, addr, 1)
	debugREPL(dbg, mc)
}
