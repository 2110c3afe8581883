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
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/lassandro/gochip8/pkg/disasm"
	"github.com/lassandro/gochip8/pkg/encoding"
	"github.com/lassandro/gochip8/pkg/machine"
)

var helpvar bool
var outvar string
var originvar string
var startvar string
var countvar int

const usage = "gochip8-dis [-origin 0x200] [-start 0x### -count #] [-out outfile] filename"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.StringVar(
		&outvar, "out", "",
		"Writes the listing to a file instead of stdout",
	)
	flag.StringVar(
		&originvar, "origin", "0x200",
		"Address the first byte of the ROM is loaded at",
	)
	flag.StringVar(
		&startvar, "start", "",
		"Address to start listing from, used with -count",
	)
	flag.IntVar(
		&countvar, "count", 0,
		"Number of instructions to list. Zero lists the whole ROM",
	)
}

// listing writes the disassembly of rom loaded at origin. A positive count
// lists that many words from start within the loaded image instead.
func listing(w io.Writer, rom []byte, origin uint16, start string, count int) error {
	if int(origin)+len(rom) > machine.MEMSPACE_SIZE {
		return fmt.Errorf(
			"ROM of %d bytes does not fit at %#04x", len(rom), origin,
		)
	}

	if count <= 0 {
		return disasm.Disassemble(w, rom, origin)
	}

	from := origin

	if start != "" {
		var err error

		if from, err = encoding.DecodeAddr(start); err != nil {
			return err
		}
	}

	image := make([]byte, machine.MEMSPACE_SIZE)
	copy(image[origin:], rom)

	return disasm.Memory(w, image, from, count)
}

func gochip8_dis() int {
	flag.Parse()

	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	var input io.Reader

	if stat, _ := os.Stdin.Stat(); stat.Mode()&os.ModeCharDevice == 0 {
		input = os.Stdin
		log.SetPrefix("\033[1m<stdin>:\033[0m ")
	} else {
		if len(args) != 1 {
			log.Println(usage)
			return 1
		}

		file, err := os.Open(args[0])

		if err != nil {
			log.Println(err)
			return 1
		}

		defer file.Close()

		filename := filepath.Base(file.Name())

		if stat, err := file.Stat(); err != nil {
			log.Println(err)
			return 1
		} else if stat.IsDir() {
			log.Printf("%s is not a valid ROM file", filename)
			return 1
		}

		input = file
		log.SetPrefix(fmt.Sprintf("\033[1m%s:\033[0m ", filename))
	}

	origin, err := encoding.DecodeAddr(originvar)

	if err != nil {
		log.Println(err)
		return 1
	}

	rom, err := io.ReadAll(input)

	if err != nil {
		log.Println(err)
		return 1
	}

	var output io.Writer = os.Stdout

	if outvar != "" {
		file, err := os.Create(outvar)

		if err != nil {
			log.Println("Error creating output file")
			log.Println(err)
			return 1
		}

		defer file.Close()
		output = file
	}

	writer := bufio.NewWriter(output)

	err = listing(writer, rom, origin, startvar, countvar)

	if err == nil {
		err = writer.Flush()
	}

	if err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(gochip8_dis())
}
