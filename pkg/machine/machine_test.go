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

package machine_test

import (
	"errors"
	"testing"

	"github.com/lassandro/gochip8/pkg/devices"
	"github.com/lassandro/gochip8/pkg/machine"
)

type testMachineState struct {
	Registers [16]uint8
	Program   uint16
	Index     uint16
	Delay     uint8
	Sound     uint8
	Stack     []uint16
	Waiting   bool
	Memory    map[uint16]uint8
}

type testCase struct {
	Name   string
	Steps  uint
	Keys   []uint8
	Random []int
	Input  testMachineState
	Output testMachineState
}

// Replays a fixed sequence in place of a random source
type sequence struct {
	values []int
	next   int
}

func (seq *sequence) Intn(n int) int {
	if len(seq.values) == 0 {
		return 0
	}

	value := seq.values[seq.next%len(seq.values)] % n
	seq.next++

	return value
}

// Counts the instructions the machine attempts
type stepCounter struct {
	steps  uint
	reads  uint
	writes uint
}

func (sc *stepCounter) Step(mc *machine.Machine) {
	sc.steps++
}

func (sc *stepCounter) Read(addr uint16, mc *machine.Machine) {
	sc.reads++
}

func (sc *stepCounter) Write(addr uint16, mc *machine.Machine) {
	sc.writes++
}

func newTestMachine(test *testCase) (*machine.Machine, *devices.RAM, *devices.Screen) {
	var ram devices.RAM
	var screen devices.Screen
	var keypad devices.Keypad

	for _, key := range test.Keys {
		keypad.Press(key)
	}

	mc := machine.New(&ram, &screen, &keypad)
	mc.Random = &sequence{values: test.Random}

	mc.State.Registers = test.Input.Registers
	mc.State.Program = test.Input.Program
	mc.State.Index = test.Input.Index
	mc.State.Delay = test.Input.Delay
	mc.State.Sound = test.Input.Sound
	mc.State.Stack = append([]uint16(nil), test.Input.Stack...)
	mc.State.Waiting = test.Input.Waiting

	for addr, value := range test.Input.Memory {
		ram.Write(addr, value)
	}

	return mc, &ram, &screen
}

func testMachineSuccess(t *testing.T, test *testCase) {
	if test.Input.Memory == nil && test.Output.Memory == nil {
		panic("No memory maps provided")
	}

	mc, ram, _ := newTestMachine(test)

	if test.Steps == 0 {
		test.Steps = 1
	}

	for i := uint(0); i < test.Steps; i++ {
		if err := mc.Step(); err != nil {
			t.Fatalf("Unexpected fault\nhave:%v", err)
		}
	}

	for i := 0; i < 16; i++ {
		want := test.Output.Registers[i]
		have := mc.State.Registers[i]
		if have != want {
			t.Errorf(
				"Register mismatch"+
					"\nwant:%#02x (test.Output.Registers[%d])\nhave:%#02x",
				want,
				i,
				have,
			)
		}
	}

	if mc.State.Program != test.Output.Program {
		t.Errorf(
			"Program register mismatch"+
				"\nwant:%#04x (test.Output.Program)\nhave:%#04x",
			test.Output.Program,
			mc.State.Program,
		)
	}

	if mc.State.Index != test.Output.Index {
		t.Errorf(
			"Index register mismatch"+
				"\nwant:%#04x (test.Output.Index)\nhave:%#04x",
			test.Output.Index,
			mc.State.Index,
		)
	}

	if mc.State.Delay != test.Output.Delay {
		t.Errorf(
			"Delay timer mismatch\nwant:%d (test.Output.Delay)\nhave:%d",
			test.Output.Delay,
			mc.State.Delay,
		)
	}

	if mc.State.Sound != test.Output.Sound {
		t.Errorf(
			"Sound timer mismatch\nwant:%d (test.Output.Sound)\nhave:%d",
			test.Output.Sound,
			mc.State.Sound,
		)
	}

	if mc.State.Waiting != test.Output.Waiting {
		t.Errorf(
			"Waiting state mismatch\nwant:%t (test.Output.Waiting)\nhave:%t",
			test.Output.Waiting,
			mc.State.Waiting,
		)
	}

	if len(mc.State.Stack) != len(test.Output.Stack) {
		t.Errorf(
			"Stack depth mismatch\nwant:%d (test.Output.Stack)\nhave:%d",
			len(test.Output.Stack),
			len(mc.State.Stack),
		)
	} else {
		for i, want := range test.Output.Stack {
			if have := mc.State.Stack[i]; have != want {
				t.Errorf(
					"Stack mismatch"+
						"\nwant:%#04x (test.Output.Stack[%d])\nhave:%#04x",
					want,
					i,
					have,
				)
			}
		}
	}

	for i, value := range ram.Bytes() {
		addr := uint16(i)
		input, expectingInput := test.Input.Memory[addr]
		output, expectingOutput := test.Output.Memory[addr]

		if expectingOutput {
			// Value was supposed to change
			if value != output {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#02x (test.Output.Memory[%#04x])\nhave:%#02x",
					output,
					addr,
					value,
				)
			}
		} else if expectingInput {
			// Value was supposed to remain
			if value != input {
				t.Fatalf(
					"Memory value mismatch"+
						"\nwant:%#02x (test.Input.Memory[%#04x])\nhave:%#02x",
					input,
					addr,
					value,
				)
			}
		} else if addr < uint16(len(machine.Font)) {
			if value != machine.Font[addr] {
				t.Fatalf(
					"Font table changed"+
						"\nwant:%#02x (machine.Font[%#04x])\nhave:%#02x",
					machine.Font[addr],
					addr,
					value,
				)
			}
		} else if value != 0 {
			// Value was expected to remain unitialized
			t.Fatalf(
				"Memory unexpectedly changed"+
					"\nwant:0x00 (test.Output.Memory[%#04x])\nhave:%#02x",
				addr,
				value,
			)
		}
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testMachineSuccess(t, &test)
			})
		}
	})
}

type faultCase struct {
	Name  string
	Want  error
	Fault machine.Fault
	Input testMachineState
}

func testFault(t *testing.T, tests []faultCase) {
	t.Run("Fault", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				mc, _, _ := newTestMachine(&testCase{Input: test.Input})

				err := mc.Step()

				if !errors.Is(err, test.Want) {
					t.Fatalf("Fault mismatch\nwant:%v\nhave:%v", test.Want, err)
				}

				var fault *machine.Fault
				if !errors.As(err, &fault) {
					t.Fatalf("Fault type mismatch\nhave:%T", err)
				}

				if *fault != test.Fault {
					t.Errorf(
						"Fault detail mismatch\nwant:%+v\nhave:%+v",
						test.Fault,
						*fault,
					)
				}

				// The machine stays halted until reset
				if again := mc.Step(); again != err {
					t.Errorf("Halted machine resumed\nhave:%v", again)
				}

				mc.Reset()

				if mc.Fault() != nil {
					t.Errorf("Reset left fault\nhave:%v", mc.Fault())
				}
			})
		}
	})
}

// SYS  |0000    |nnn                     | Ignored machine code call
// CLS  |0000    |0000   |1110   |0000    | Clear display
// RET  |0000    |0000   |1110   |1110    | Return from subroutine
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestSystem(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "SYS ignored",
			Input: testMachineState{
				Program: 0x200,
				Memory:  map[uint16]uint8{0x200: 0x03, 0x201: 0x00},
			},
			Output: testMachineState{Program: 0x202},
		},
		{
			Name: "RET pops",
			Input: testMachineState{
				Program: 0x300,
				Stack:   []uint16{0x202, 0x40A},
				Memory:  map[uint16]uint8{0x300: 0x00, 0x301: 0xEE},
			},
			Output: testMachineState{
				Program: 0x40A,
				Stack:   []uint16{0x202},
			},
		},
		{
			Name:  "CALL then RET",
			Steps: 2,
			Input: testMachineState{
				Program: 0x200,
				Memory: map[uint16]uint8{
					0x200: 0x23, 0x201: 0x00,
					0x300: 0x00, 0x301: 0xEE,
				},
			},
			Output: testMachineState{Program: 0x202},
		},
	})

	testFault(t, []faultCase{
		{
			Name: "RET empty stack",
			Want: machine.ErrStackUnderflow,
			Fault: machine.Fault{
				Kind:    machine.StackUnderflow,
				Program: 0x200,
				Opcode:  0x00EE,
			},
			Input: testMachineState{
				Program: 0x200,
				Memory:  map[uint16]uint8{0x200: 0x00, 0x201: 0xEE},
			},
		},
		{
			Name: "SYS low byte",
			Want: machine.ErrUnknownOpcode,
			Fault: machine.Fault{
				Kind:    machine.UnknownOpcode,
				Program: 0x200,
				Opcode:  0x0123,
			},
			Input: testMachineState{
				Program: 0x200,
				Memory:  map[uint16]uint8{0x200: 0x01, 0x201: 0x23},
			},
		},
	})
}

func TestClear(t *testing.T) {
	mc, ram, screen := newTestMachine(&testCase{
		Input: testMachineState{Program: 0x200},
	})

	screen.DrawSprite(0, 0, []bool{true, true, true, true, true, true, true, true})
	ram.WriteSeq(0x200, []uint8{0x00, 0xE0})

	if err := mc.Step(); err != nil {
		t.Fatal(err)
	}

	for i, pixel := range screen.Pixels() {
		if pixel {
			t.Fatalf("Pixel %d still set after CLS", i)
		}
	}
}

// JP   |0001    |addr                    | Jump
// CALL |0010    |addr                    | Call subroutine
// JP   |1011    |addr                    | Jump offset by V0
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestJump(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "JP",
			Input: testMachineState{
				Program: 0x200,
				Memory:  map[uint16]uint8{0x200: 0x1A, 0x201: 0xBC},
			},
			Output: testMachineState{Program: 0xABC},
		},
		{
			Name: "CALL pushes return address",
			Input: testMachineState{
				Program: 0x204,
				Stack:   []uint16{0x210},
				Memory:  map[uint16]uint8{0x204: 0x24, 0x205: 0x56},
			},
			Output: testMachineState{
				Program: 0x456,
				Stack:   []uint16{0x210, 0x206},
			},
		},
		{
			Name: "JP V0",
			Input: testMachineState{
				Program:   0x200,
				Registers: [16]uint8{0: 0x05},
				Memory:    map[uint16]uint8{0x200: 0xB3, 0x201: 0x00},
			},
			Output: testMachineState{
				Program:   0x305,
				Registers: [16]uint8{0: 0x05},
			},
		},
	})
}

// SE   |0011    |x      |kk              | Skip if Vx == kk
// SNE  |0100    |x      |kk              | Skip if Vx != kk
// SE   |0101    |x      |y      |0000    | Skip if Vx == Vy
// SNE  |1001    |x      |y      |0000    | Skip if Vx != Vy
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestSkip(t *testing.T) {
	skip := func(name string, hi, lo uint8, regs [16]uint8, taken bool) testCase {
		want := uint16(0x202)
		if taken {
			want = 0x204
		}

		return testCase{
			Name: name,
			Input: testMachineState{
				Program:   0x200,
				Registers: regs,
				Memory:    map[uint16]uint8{0x200: hi, 0x201: lo},
			},
			Output: testMachineState{Program: want, Registers: regs},
		}
	}

	testSuccess(t, []testCase{
		skip("SE byte equal", 0x31, 0x42, [16]uint8{1: 0x42}, true),
		skip("SE byte differ", 0x31, 0x42, [16]uint8{1: 0x41}, false),
		skip("SNE byte equal", 0x41, 0x42, [16]uint8{1: 0x42}, false),
		skip("SNE byte differ", 0x41, 0x42, [16]uint8{1: 0x41}, true),
		skip("SE reg equal", 0x52, 0x30, [16]uint8{2: 7, 3: 7}, true),
		skip("SE reg differ", 0x52, 0x30, [16]uint8{2: 7, 3: 8}, false),
		skip("SNE reg equal", 0x92, 0x30, [16]uint8{2: 7, 3: 7}, false),
		skip("SNE reg differ", 0x92, 0x30, [16]uint8{2: 7, 3: 8}, true),
	})
}

// LD   |0110    |x      |kk              | Load immediate
// ADD  |0111    |x      |kk              | Add immediate, VF untouched
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestLoadAdd(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LD byte",
			Input: testMachineState{
				Program:   0x200,
				Registers: [16]uint8{5: 0xCA},
				Memory:    map[uint16]uint8{0x200: 0x65, 0x201: 0x17},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]uint8{5: 0x17},
			},
		},
		{
			Name: "ADD byte wraps without carry",
			Input: testMachineState{
				Program:   0x200,
				Registers: [16]uint8{5: 0xFF, 0xF: 0x07},
				Memory:    map[uint16]uint8{0x200: 0x75, 0x201: 0x02},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]uint8{5: 0x01, 0xF: 0x07},
			},
		},
	})
}

// LD   |1000    |x      |y      |0000    | Vx = Vy
// OR   |1000    |x      |y      |0001    | Vx |= Vy
// AND  |1000    |x      |y      |0010    | Vx &= Vy
// XOR  |1000    |x      |y      |0011    | Vx ^= Vy
// SHR  |1000    |x      |y      |0110    | Vx >>= 1, VF = shifted out
// SHL  |1000    |x      |y      |1110    | Vx <<= 1, VF = shifted out
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestLogic(t *testing.T) {
	logic := func(name string, lo uint8, in, out [16]uint8) testCase {
		return testCase{
			Name: name,
			Input: testMachineState{
				Program:   0x200,
				Registers: in,
				Memory:    map[uint16]uint8{0x200: 0x81, 0x201: lo},
			},
			Output: testMachineState{Program: 0x202, Registers: out},
		}
	}

	testSuccess(t, []testCase{
		logic("LD reg", 0x20,
			[16]uint8{1: 0x0F, 2: 0xF0}, [16]uint8{1: 0xF0, 2: 0xF0}),
		logic("OR", 0x21,
			[16]uint8{1: 0x0C, 2: 0x30}, [16]uint8{1: 0x3C, 2: 0x30}),
		logic("AND", 0x22,
			[16]uint8{1: 0x0C, 2: 0x3C}, [16]uint8{1: 0x0C, 2: 0x3C}),
		logic("XOR", 0x23,
			[16]uint8{1: 0xFF, 2: 0x0F}, [16]uint8{1: 0xF0, 2: 0x0F}),
		logic("SHR odd", 0x06,
			[16]uint8{1: 0x05}, [16]uint8{1: 0x02, 0xF: 1}),
		logic("SHR even", 0x06,
			[16]uint8{1: 0x04, 0xF: 1}, [16]uint8{1: 0x02}),
		logic("SHL high", 0x0E,
			[16]uint8{1: 0x81}, [16]uint8{1: 0x02, 0xF: 1}),
		logic("SHL low", 0x0E,
			[16]uint8{1: 0x41, 0xF: 1}, [16]uint8{1: 0x82}),
		logic("SUBN writes Vy", 0x27,
			[16]uint8{1: 0x10, 2: 0x30}, [16]uint8{1: 0x10, 2: 0x20, 0xF: 1}),
		logic("SUBN borrow", 0x27,
			[16]uint8{1: 0x30, 2: 0x10}, [16]uint8{1: 0x30, 2: 0xE0}),
	})

	// With VF as the destination the result overwrites the flag
	flagDest := func(name string, hi, lo uint8, in, out [16]uint8) testCase {
		return testCase{
			Name: name,
			Input: testMachineState{
				Program:   0x200,
				Registers: in,
				Memory:    map[uint16]uint8{0x200: hi, 0x201: lo},
			},
			Output: testMachineState{Program: 0x202, Registers: out},
		}
	}

	testSuccess(t, []testCase{
		flagDest("ADD into VF", 0x8F, 0x14,
			[16]uint8{1: 3, 0xF: 10}, [16]uint8{1: 3, 0xF: 13}),
		flagDest("ADD carry into VF", 0x8F, 0x14,
			[16]uint8{1: 0xFF, 0xF: 2}, [16]uint8{1: 0xFF, 0xF: 1}),
		flagDest("SUB into VF", 0x8F, 0x15,
			[16]uint8{1: 3, 0xF: 10}, [16]uint8{1: 3, 0xF: 7}),
		flagDest("SUBN into VF", 0x81, 0xF7,
			[16]uint8{1: 3, 0xF: 10}, [16]uint8{1: 3, 0xF: 7}),
		flagDest("SHR VF", 0x8F, 0x06,
			[16]uint8{0xF: 0x05}, [16]uint8{0xF: 0x02}),
		flagDest("SHL VF", 0x8F, 0x0E,
			[16]uint8{0xF: 0x41}, [16]uint8{0xF: 0x82}),
	})

	testFault(t, []faultCase{
		{
			Name: "ALU 8xyF",
			Want: machine.ErrUnknownOpcode,
			Fault: machine.Fault{
				Kind:    machine.UnknownOpcode,
				Program: 0x200,
				Opcode:  0x812F,
			},
			Input: testMachineState{
				Program: 0x200,
				Memory:  map[uint16]uint8{0x200: 0x81, 0x201: 0x2F},
			},
		},
	})
}

// ADD  |1000    |x      |y      |0100    | Vx += Vy, VF = carry
// SUB  |1000    |x      |y      |0101    | Vx -= Vy, VF = not borrow
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestArithmetic(t *testing.T) {
	var ram devices.RAM
	var screen devices.Screen
	var keypad devices.Keypad

	mc := machine.New(&ram, &screen, &keypad)

	run := func(lo uint8, a, b uint8) (uint8, uint8) {
		mc.State.Program = 0x200
		mc.State.Registers[1] = a
		mc.State.Registers[2] = b
		ram.WriteSeq(0x200, []uint8{0x81, lo})

		if err := mc.Step(); err != nil {
			t.Fatal(err)
		}

		return mc.State.Registers[1], mc.State.Registers[0xF]
	}

	for a := 0; a < 0x100; a++ {
		for b := 0; b < 0x100; b++ {
			sum, carry := run(0x24, uint8(a), uint8(b))

			if sum != uint8((a+b)%0x100) {
				t.Fatalf("ADD %d+%d\nwant:%d\nhave:%d", a, b, (a+b)%0x100, sum)
			}

			if (carry == 1) != (a+b > 0xFF) || carry > 1 {
				t.Fatalf("ADD %d+%d carry\nhave:%d", a, b, carry)
			}

			diff, notBorrow := run(0x25, uint8(a), uint8(b))

			if diff != uint8((a-b+0x100)%0x100) {
				t.Fatalf("SUB %d-%d\nwant:%d\nhave:%d", a, b, (a-b+0x100)%0x100, diff)
			}

			if (notBorrow == 1) != (a > b) || notBorrow > 1 {
				t.Fatalf("SUB %d-%d flag\nhave:%d", a, b, notBorrow)
			}
		}
	}
}

// LD   |1010    |addr                    | I = addr
// ADD  |1111    |x      |0001   |1110    | I += Vx, VF = 16 bit carry
// LD   |1111    |x      |0010   |1001    | I = glyph address of Vx
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestIndex(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LD I",
			Input: testMachineState{
				Program: 0x200,
				Memory:  map[uint16]uint8{0x200: 0xA1, 0x201: 0x23},
			},
			Output: testMachineState{Program: 0x202, Index: 0x123},
		},
		{
			Name: "ADD I",
			Input: testMachineState{
				Program:   0x200,
				Index:     0x0FF0,
				Registers: [16]uint8{3: 0x20, 0xF: 1},
				Memory:    map[uint16]uint8{0x200: 0xF3, 0x201: 0x1E},
			},
			Output: testMachineState{
				Program:   0x202,
				Index:     0x1010,
				Registers: [16]uint8{3: 0x20},
			},
		},
		{
			Name: "ADD I carry",
			Input: testMachineState{
				Program:   0x200,
				Index:     0xFFFF,
				Registers: [16]uint8{3: 0x02},
				Memory:    map[uint16]uint8{0x200: 0xF3, 0x201: 0x1E},
			},
			Output: testMachineState{
				Program:   0x202,
				Index:     0x0001,
				Registers: [16]uint8{3: 0x02, 0xF: 1},
			},
		},
		{
			Name: "LD F",
			Input: testMachineState{
				Program:   0x200,
				Registers: [16]uint8{4: 0xB},
				Memory:    map[uint16]uint8{0x200: 0xF4, 0x201: 0x29},
			},
			Output: testMachineState{
				Program:   0x202,
				Index:     0x0037,
				Registers: [16]uint8{4: 0xB},
			},
		},
	})
}

// LD   |1111    |x      |0011   |0011    | BCD of Vx at I, I+1, I+2
// LD   |1111    |x      |0101   |0101    | Store V0..Vx at I
// LD   |1111    |x      |0110   |0101    | Load V0..Vx from I
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestMemory(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "LD B",
			Input: testMachineState{
				Program:   0x200,
				Index:     0x300,
				Registers: [16]uint8{6: 156},
				Memory:    map[uint16]uint8{0x200: 0xF6, 0x201: 0x33},
			},
			Output: testMachineState{
				Program:   0x202,
				Index:     0x300,
				Registers: [16]uint8{6: 156},
				Memory:    map[uint16]uint8{0x300: 1, 0x301: 5, 0x302: 6},
			},
		},
		{
			Name: "Store V0..V2",
			Input: testMachineState{
				Program:   0x200,
				Index:     0x400,
				Registers: [16]uint8{0: 0xAA, 1: 0xBB, 2: 0xCC, 3: 0xDD},
				Memory:    map[uint16]uint8{0x200: 0xF2, 0x201: 0x55},
			},
			Output: testMachineState{
				Program:   0x202,
				Index:     0x400,
				Registers: [16]uint8{0: 0xAA, 1: 0xBB, 2: 0xCC, 3: 0xDD},
				Memory:    map[uint16]uint8{0x400: 0xAA, 0x401: 0xBB, 0x402: 0xCC},
			},
		},
		{
			Name: "Load V0..V1",
			Input: testMachineState{
				Program:   0x200,
				Index:     0x400,
				Registers: [16]uint8{2: 0x77},
				Memory: map[uint16]uint8{
					0x200: 0xF1, 0x201: 0x65,
					0x400: 0x11, 0x401: 0x22, 0x402: 0x33,
				},
			},
			Output: testMachineState{
				Program:   0x202,
				Index:     0x400,
				Registers: [16]uint8{0: 0x11, 1: 0x22, 2: 0x77},
			},
		},
	})

	testFault(t, []faultCase{
		{
			Name: "LD B past end",
			Want: machine.ErrAddressOutOfRange,
			Fault: machine.Fault{
				Kind:    machine.AddressOutOfRange,
				Program: 0x200,
				Opcode:  0xF033,
				Addr:    0x1000,
			},
			Input: testMachineState{
				Program: 0x200,
				Index:   0xFFE,
				Memory:  map[uint16]uint8{0x200: 0xF0, 0x201: 0x33},
			},
		},
		{
			Name: "Store beyond memory",
			Want: machine.ErrAddressOutOfRange,
			Fault: machine.Fault{
				Kind:    machine.AddressOutOfRange,
				Program: 0x200,
				Opcode:  0xF155,
				Addr:    0x2000,
			},
			Input: testMachineState{
				Program: 0x200,
				Index:   0x2000,
				Memory:  map[uint16]uint8{0x200: 0xF1, 0x201: 0x55},
			},
		},
		{
			Name: "Fetch past end",
			Want: machine.ErrAddressOutOfRange,
			Fault: machine.Fault{
				Kind:    machine.AddressOutOfRange,
				Program: 0xFFF,
				Addr:    0x1000,
			},
			Input: testMachineState{
				Program: 0xFFF,
				Memory:  map[uint16]uint8{},
			},
		},
	})
}

func TestStoreLoadRoundTrip(t *testing.T) {
	var ram devices.RAM
	var screen devices.Screen
	var keypad devices.Keypad

	mc := machine.New(&ram, &screen, &keypad)

	want := [16]uint8{
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0x77,
		0x88, 0x99, 0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF,
	}

	mc.State.Registers = want
	mc.State.Index = 0x500
	ram.WriteSeq(0x200, []uint8{0xFF, 0x55, 0xFF, 0x65})

	if err := mc.Step(); err != nil {
		t.Fatal(err)
	}

	mc.State.Registers = [16]uint8{}

	if err := mc.Step(); err != nil {
		t.Fatal(err)
	}

	if mc.State.Registers != want {
		t.Errorf("Round trip mismatch\nwant:%x\nhave:%x", want, mc.State.Registers)
	}
}

// RND  |1100    |x      |kk              | Vx = random & kk
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestRandom(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "RND masked",
			Steps:  2,
			Random: []int{0xAB, 0x1FF},
			Input: testMachineState{
				Program: 0x200,
				Memory: map[uint16]uint8{
					0x200: 0xC1, 0x201: 0x0F,
					0x202: 0xC2, 0x203: 0xF0,
				},
			},
			Output: testMachineState{
				Program:   0x204,
				Registers: [16]uint8{1: 0x0B, 2: 0xF0},
			},
		},
	})
}

// DRW  |1101    |x      |y      |n       | Draw n rows from I at Vx,Vy
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestDraw(t *testing.T) {
	mc, ram, screen := newTestMachine(&testCase{
		Input: testMachineState{
			Program:   0x200,
			Index:     0x300,
			Registers: [16]uint8{0: 62, 1: 31},
		},
	})

	// Draw twice, then once more over a clear screen
	ram.WriteSeq(0x200, []uint8{0xD0, 0x12, 0xD0, 0x12})
	ram.WriteSeq(0x300, []uint8{0b1100_0001, 0b1000_0000})

	if err := mc.Step(); err != nil {
		t.Fatal(err)
	}

	if mc.State.Registers[0xF] != 0 {
		t.Errorf("Collision on empty screen")
	}

	// Wraps to the opposite edges
	for _, p := range [][2]int{{62, 31}, {63, 31}, {5, 31}, {62, 0}} {
		if !screen.Pixel(p[0], p[1]) {
			t.Errorf("Pixel (%d,%d) not set", p[0], p[1])
		}
	}

	if screen.Pixel(0, 31) || screen.Pixel(63, 0) {
		t.Errorf("Unexpected pixel set")
	}

	if err := mc.Step(); err != nil {
		t.Fatal(err)
	}

	if mc.State.Registers[0xF] != 1 {
		t.Errorf("Redraw did not collide")
	}

	for i, pixel := range screen.Pixels() {
		if pixel {
			t.Fatalf("Pixel %d set after XOR redraw", i)
		}
	}

	testFault(t, []faultCase{
		{
			Name: "DRW past end",
			Want: machine.ErrAddressOutOfRange,
			Fault: machine.Fault{
				Kind:    machine.AddressOutOfRange,
				Program: 0x200,
				Opcode:  0xD125,
				Addr:    0x1000,
			},
			Input: testMachineState{
				Program: 0x200,
				Index:   0xFFE,
				Memory:  map[uint16]uint8{0x200: 0xD1, 0x201: 0x25},
			},
		},
	})
}

// SKP  |1110    |x      |1001   |1110    | Skip if key Vx held
// SKNP |1110    |x      |1010   |0001    | Skip if key Vx not held
// LD   |1111    |x      |0000   |1010    | Vx = next held key
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestKeys(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "SKP held",
			Keys: []uint8{0xA},
			Input: testMachineState{
				Program:   0x200,
				Registers: [16]uint8{3: 0xA},
				Memory:    map[uint16]uint8{0x200: 0xE3, 0x201: 0x9E},
			},
			Output: testMachineState{
				Program:   0x204,
				Registers: [16]uint8{3: 0xA},
			},
		},
		{
			Name: "SKP released",
			Keys: []uint8{0xB},
			Input: testMachineState{
				Program:   0x200,
				Registers: [16]uint8{3: 0xA},
				Memory:    map[uint16]uint8{0x200: 0xE3, 0x201: 0x9E},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]uint8{3: 0xA},
			},
		},
		{
			Name: "SKNP released",
			Input: testMachineState{
				Program:   0x200,
				Registers: [16]uint8{3: 0xA},
				Memory:    map[uint16]uint8{0x200: 0xE3, 0x201: 0xA1},
			},
			Output: testMachineState{
				Program:   0x204,
				Registers: [16]uint8{3: 0xA},
			},
		},
		{
			Name:  "LD K waits",
			Steps: 3,
			Input: testMachineState{
				Program: 0x200,
				Memory:  map[uint16]uint8{0x200: 0xF5, 0x201: 0x0A},
			},
			Output: testMachineState{
				Program: 0x202,
				Waiting: true,
			},
		},
		{
			Name:  "LD K resumes with lowest key",
			Steps: 2,
			Keys:  []uint8{0xC, 0x7},
			Input: testMachineState{
				Program: 0x200,
				Memory:  map[uint16]uint8{0x200: 0xF5, 0x201: 0x0A},
			},
			Output: testMachineState{
				Program:   0x202,
				Registers: [16]uint8{5: 0x7},
			},
		},
	})

	testFault(t, []faultCase{
		{
			Name: "E family",
			Want: machine.ErrUnknownOpcode,
			Fault: machine.Fault{
				Kind:    machine.UnknownOpcode,
				Program: 0x200,
				Opcode:  0xE300,
			},
			Input: testMachineState{
				Program: 0x200,
				Memory:  map[uint16]uint8{0x200: 0xE3, 0x201: 0x00},
			},
		},
		{
			Name: "F family",
			Want: machine.ErrUnknownOpcode,
			Fault: machine.Fault{
				Kind:    machine.UnknownOpcode,
				Program: 0x200,
				Opcode:  0xF3FF,
			},
			Input: testMachineState{
				Program: 0x200,
				Memory:  map[uint16]uint8{0x200: 0xF3, 0x201: 0xFF},
			},
		},
	})
}

// LD   |1111    |x      |0000   |0111    | Vx = DT
// LD   |1111    |x      |0001   |0101    | DT = Vx
// LD   |1111    |x      |0001   |1000    | ST = Vx
// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
func TestTimers(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:  "Load and read timers",
			Steps: 3,
			Input: testMachineState{
				Program:   0x200,
				Delay:     0x09,
				Registers: [16]uint8{1: 0x30, 2: 0x40},
				Memory: map[uint16]uint8{
					0x200: 0xF0, 0x201: 0x07,
					0x202: 0xF1, 0x203: 0x15,
					0x204: 0xF2, 0x205: 0x18,
				},
			},
			Output: testMachineState{
				Program:   0x206,
				Delay:     0x30,
				Sound:     0x40,
				Registers: [16]uint8{0: 0x09, 1: 0x30, 2: 0x40},
			},
		},
	})
}

func TestTick(t *testing.T) {
	var counter stepCounter

	mc, ram, _ := newTestMachine(&testCase{
		Input: testMachineState{Program: 0x200, Delay: 100, Sound: 30},
	})
	mc.Debugger = &counter

	// JP 0x200
	ram.WriteSeq(0x200, []uint8{0x12, 0x00})

	for i := 0; i < 60; i++ {
		if err := mc.Tick(); err != nil {
			t.Fatal(err)
		}
	}

	if counter.steps != 600 {
		t.Errorf("Step count mismatch\nwant:600\nhave:%d", counter.steps)
	}

	if mc.State.Delay != 40 {
		t.Errorf("Delay timer mismatch\nwant:40\nhave:%d", mc.State.Delay)
	}

	if mc.State.Sound != 0 {
		t.Errorf("Sound timer mismatch\nwant:0\nhave:%d", mc.State.Sound)
	}
}

func TestReset(t *testing.T) {
	var ram devices.RAM
	var screen devices.Screen
	var keypad devices.Keypad

	mc := machine.New(&ram, &screen, &keypad)

	if err := mc.LoadProgram([]uint8{0x00, 0xE0}); err != nil {
		t.Fatal(err)
	}

	ram.WriteSeq(0x000, []uint8{0xDE, 0xAD})
	mc.State.Registers[4] = 9
	mc.State.Index = 0x345
	mc.State.Stack = []uint16{0x222}
	mc.State.Waiting = true
	mc.State.Delay = 3

	for i := 0; i < 2; i++ {
		mc.Reset()

		if mc.State.Program != machine.MEMSPACE_PROGRAM {
			t.Errorf("Program mismatch\nwant:%#04x\nhave:%#04x",
				machine.MEMSPACE_PROGRAM, mc.State.Program)
		}

		if mc.State.Registers != [16]uint8{} || mc.State.Index != 0 ||
			len(mc.State.Stack) != 0 || mc.State.Waiting ||
			mc.State.Delay != 0 || mc.State.Sound != 0 {
			t.Errorf("State not cleared\nhave:%+v", mc.State)
		}

		for addr, want := range machine.Font {
			if have := ram.Read(uint16(addr)); have != want {
				t.Fatalf("Font mismatch at %#04x\nwant:%#02x\nhave:%#02x",
					addr, want, have)
			}
		}

		if have := ram.Read(0x200); have != 0 {
			t.Errorf("Program survived reset\nhave:%#02x", have)
		}
	}
}

func TestLoadProgram(t *testing.T) {
	var ram devices.RAM

	mc := machine.New(&ram, &devices.Screen{}, &devices.Keypad{})

	fits := make([]uint8, machine.MEMSPACE_SIZE-int(machine.MEMSPACE_PROGRAM))
	fits[len(fits)-1] = 0x99

	if err := mc.LoadProgram(fits); err != nil {
		t.Fatalf("Program should fit\nhave:%v", err)
	}

	if have := ram.Read(0xFFF); have != 0x99 {
		t.Errorf("Last byte mismatch\nwant:0x99\nhave:%#02x", have)
	}

	err := mc.LoadProgram(append(fits, 0x00))

	if !errors.Is(err, machine.ErrAddressOutOfRange) {
		t.Errorf("Oversized program\nwant:%v\nhave:%v",
			machine.ErrAddressOutOfRange, err)
	}
}

func TestDebuggerHooks(t *testing.T) {
	var counter stepCounter

	mc, ram, _ := newTestMachine(&testCase{
		Input: testMachineState{Program: 0x200, Index: 0x300},
	})
	mc.Debugger = &counter

	// LD [I], V2 ; LD V1, [I]
	ram.WriteSeq(0x200, []uint8{0xF2, 0x55, 0xF1, 0x65})

	for i := 0; i < 2; i++ {
		if err := mc.Step(); err != nil {
			t.Fatal(err)
		}
	}

	if counter.steps != 2 || counter.writes != 3 || counter.reads != 4+2 {
		t.Errorf("Hook counts mismatch\nhave:%+v", counter)
	}
}
