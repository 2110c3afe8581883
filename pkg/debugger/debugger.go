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

package debugger

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/lassandro/gochip8/pkg/devices"
	"github.com/lassandro/gochip8/pkg/disasm"
	"github.com/lassandro/gochip8/pkg/machine"
)

func (dbg *Debugger) Step(mc *machine.Machine) {
	if dbg.Break {
		if dbg.HandleBreak != nil {
			dbg.HandleBreak(dbg, mc)
		}
		return
	}

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Program == breakpoint.Addr {
			if dbg.HandleBreak != nil {
				dbg.HandleBreak(dbg, mc)
			}
			break
		}
	}
}

func (dbg *Debugger) Read(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			if dbg.HandleRead != nil {
				dbg.HandleRead(addr, dbg, mc)
			}
			break
		}
	}
}

func (dbg *Debugger) Write(addr uint16, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			if dbg.HandleWrite != nil {
				dbg.HandleWrite(addr, dbg, mc)
			}
			break
		}
	}
}

// AddBreakpoint reports false if addr already has one
func (dbg *Debugger) AddBreakpoint(addr uint16) bool {
	for _, breakpoint := range dbg.Breakpoints {
		if breakpoint.Addr == addr {
			return false
		}
	}

	dbg.Breakpoints = append(dbg.Breakpoints, Breakpoint{addr})

	return true
}

// AddWatchpoint reports false if an identical watchpoint exists
func (dbg *Debugger) AddWatchpoint(addr uint16, wtype WatchpointType) bool {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Addr == addr && watchpoint.Type == wtype {
			return false
		}
	}

	dbg.Watchpoints = append(dbg.Watchpoints, Watchpoint{addr, wtype})

	return true
}

func (dbg *Debugger) out() io.Writer {
	if dbg.Out == nil {
		return os.Stdout
	}

	return dbg.Out
}

// Reads memory without going through the machine so watchpoints and
// access counters are left alone
func memoryBytes(mem machine.Memory) []uint8 {
	if view, ok := mem.(interface{ Bytes() []uint8 }); ok {
		return view.Bytes()
	}

	result := make([]uint8, mem.Size())

	for i := range result {
		result[i] = mem.Read(uint16(i))
	}

	return result
}

func (dbg *Debugger) PrintRegs(mc *machine.MachineState) {
	w := dbg.out()

	for i, register := range mc.Registers {
		fmt.Fprintf(w, "\033[1mV%X:\033[0m %#02x\t", i, register)
		if i%8 == 7 {
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintf(
		w,
		"\033[1mPC:\033[0m %#04x\t\033[1mI:\033[0m %#04x\t"+
			"\033[1mDT:\033[0m %#02x\t\033[1mST:\033[0m %#02x\n",
		mc.Program,
		mc.Index,
		mc.Delay,
		mc.Sound,
	)

	fmt.Fprintf(w, "\033[1mSP:\033[0m %d", len(mc.Stack))
	for i := len(mc.Stack) - 1; i >= 0; i-- {
		fmt.Fprintf(w, " %#04x", mc.Stack[i])
	}
	fmt.Fprintln(w)

	if mc.Waiting {
		fmt.Fprintf(w, "Waiting for key into V%X\n", mc.KeyRegister)
	}
}

func (dbg *Debugger) PrintMem(mc *machine.Machine, addr uint16, count uint16) {
	w := dbg.out()
	mem := memoryBytes(mc.Memory)

	for i := int(addr); i < int(addr)+int(count) && i < len(mem); i++ {
		if i == int(addr) {
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", i)
		} else if (i-int(addr))%8 == 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "\033[1m[%#04x]\033[0m ", i)
		}

		result := mem[i]

		if result == 0 {
			fmt.Fprintf(w, "\033[1;30m%#02x\033[0m ", result)
		} else {
			fmt.Fprintf(w, "%#02x ", result)
		}
	}

	fmt.Fprintln(w)
}

// PrintList disassembles count instructions from addr, marking PC and
// breakpoints
func (dbg *Debugger) PrintList(mc *machine.Machine, addr uint16, count int) {
	w := dbg.out()
	mem := memoryBytes(mc.Memory)

	for i := 0; i < count; i++ {
		at := int(addr) + i*2

		if at+1 >= len(mem) {
			break
		}

		marker := "  "

		if uint16(at) == mc.State.Program {
			marker = "=>"
		}

		for _, breakpoint := range dbg.Breakpoints {
			if breakpoint.Addr == uint16(at) {
				marker = marker[:1] + "*"
			}
		}

		opcode := uint16(mem[at])<<8 | uint16(mem[at+1])
		fmt.Fprintf(w, "%s %s\n", marker, disasm.Line(uint16(at), opcode))
	}
}

// PrintHeat lists the count most accessed addresses and resets the counters
func (dbg *Debugger) PrintHeat(ram *devices.WatchedRAM, count int) {
	w := dbg.out()

	type heat struct {
		addr   int
		reads  uint64
		writes uint64
	}

	var hot []heat

	for addr := range ram.Reads {
		if ram.Reads[addr] > 0 || ram.Writes[addr] > 0 {
			hot = append(hot, heat{addr, ram.Reads[addr], ram.Writes[addr]})
		}
	}

	sort.Slice(hot, func(i, j int) bool {
		a := hot[i].reads + hot[i].writes
		b := hot[j].reads + hot[j].writes

		if a == b {
			return hot[i].addr < hot[j].addr
		}

		return a > b
	})

	if len(hot) > count {
		hot = hot[:count]
	}

	for _, entry := range hot {
		fmt.Fprintf(
			w, "\033[1m[%#04x]\033[0m R:%d W:%d\n",
			entry.addr, entry.reads, entry.writes,
		)
	}

	ram.ResetCounters()
}
