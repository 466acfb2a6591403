// The rv64mir-translate tool reads a flat RV64I instruction stream, builds
// one MIR region from it, and logs the region's success flag, block count
// and branch-targets table (not the MIR instructions): one call into
// internal/driver per
// invocation, grounded on mewmew-x/cmd/x/main.go's shape (flag parsing, a
// colored debug logger, github.com/pkg/errors wrapping at the process
// boundary, one exit-worthy error per top-level failure).
package main

import (
	"encoding/binary"
	"flag"
	"io/ioutil"
	"log"
	"os"
	"strconv"

	"github.com/kr/pretty"
	"github.com/mewkiz/pkg/term"
	"github.com/pkg/errors"

	"github.com/rv64mir/region/internal/driver"
	"github.com/rv64mir/region/internal/region"
	"github.com/rv64mir/region/internal/regionapi"
)

var dbg = log.New(os.Stderr, term.MagentaBold("rv64mir-translate:")+" ", 0)

func main() {
	var (
		startPCStr string
		quiet      bool
		maxInsns   int
	)
	flag.StringVar(&startPCStr, "start-pc", "0x0", "guest address of the first instruction")
	flag.BoolVar(&quiet, "q", false, "suppress non-error messages")
	flag.IntVar(&maxInsns, "max-instructions", 0, "per-region instruction cap (0 = no cap)")
	flag.Parse()

	if quiet {
		dbg.SetOutput(ioutil.Discard)
	}

	if flag.NArg() != 1 {
		log.Fatal("usage: rv64mir-translate [flags] <raw-rv64-instruction-stream>")
	}

	startPC, err := strconv.ParseUint(startPCStr, 0, 64)
	if err != nil {
		log.Fatalf("%+v", errors.Wrapf(err, "parse -start-pc %q", startPCStr))
	}

	if err := translate(flag.Arg(0), startPC, maxInsns); err != nil {
		log.Fatalf("%+v", err)
	}
}

func translate(path string, startPC uint64, maxInsns int) error {
	dbg.Printf("translate(path = %q, startPC = %#x)\n", path, startPC)

	raw, err := ioutil.ReadFile(path)
	if err != nil {
		return errors.WithStack(err)
	}
	if len(raw)%4 != 0 {
		return errors.Errorf("%s: length %d is not a multiple of 4 bytes", path, len(raw))
	}

	words := make([]uint32, len(raw)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(raw[i*4:])
	}
	mem := &flatMemory{base: startPC, words: words}

	cfg := region.DefaultConfig
	cfg.MaxInstructions = maxInsns

	res, err := driver.CompileRegion(mem, startPC, regionapi.DefaultThreadStateOffsets, cfg)
	if err != nil {
		return errors.Wrap(err, "compile region")
	}

	dbg.Printf("region success = %v, blocks = %d\n", res.Success, res.Container.BlockCount())
	for _, e := range res.Entries {
		dbg.Printf("%# v\n", pretty.Formatter(e))
	}
	return nil
}

// flatMemory is a GuestMemory backed by a PC-indexed instruction-word
// slice, the same flat-array convention bassosimone-risc32's VM.M uses.
type flatMemory struct {
	base  uint64
	words []uint32
}

func (m *flatMemory) FetchInstruction(pc uint64) (uint32, error) {
	idx := (pc - m.base) / 4
	if pc < m.base || idx >= uint64(len(m.words)) {
		return 0, errors.Errorf("pc %#x out of bounds", pc)
	}
	return m.words[idx], nil
}
