// Command ectrace generates range coder trace vectors and checks them against the decoder.
//
// Usage:
//
//	ectrace gen -variant mixed_v1 -n 1000 -seed 1 -o mixed.vec
//	ectrace verify mixed.vec skewed.vec
//	ectrace dump -ops mixed.vec
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/kr/pretty"
	"github.com/pkg/errors"

	"github.com/thesyncim/entdec/internal/testsignal"
	"github.com/thesyncim/entdec/internal/trace"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("ectrace: ")
	if err := run(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: ectrace gen|verify|dump [flags]")
	}
	switch args[0] {
	case "gen":
		return runGen(args[1:], stdout)
	case "verify":
		return runVerify(args[1:], stdout)
	case "dump":
		return runDump(args[1:], stdout)
	default:
		return errors.Errorf("unknown command %q", args[0])
	}
}

func runGen(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	variant := fs.String("variant", testsignal.VariantMixedV1, "Op stream variant")
	n := fs.Int("n", 1000, "Number of ops")
	seed := fs.Int64("seed", 1, "Generator seed")
	bufSize := fs.Int("buf", 0, "Packet buffer size in bytes (default 8 bytes per op)")
	out := fs.String("o", "", "Output file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return errors.New("gen: -o is required")
	}
	if *bufSize <= 0 {
		*bufSize = 8**n + 64
	}

	ops, err := testsignal.GenerateVariant(*variant, *seed, *n)
	if err != nil {
		return errors.Wrap(err, "gen")
	}
	v, err := trace.Record(*variant, ops, *bufSize)
	if err != nil {
		return errors.Wrap(err, "gen")
	}
	v.Variant = *variant
	v.Seed = *seed
	if err := os.WriteFile(*out, trace.Marshal(v), 0o644); err != nil {
		return errors.Wrap(err, "gen")
	}
	fmt.Fprintf(stdout, "%s: %d ops, %d bytes, sha256 %s\n", *out, len(v.Ops), len(v.Packet), testsignal.HashBytes(v.Packet))
	return nil
}

func runVerify(args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("verify: no files")
	}
	failed := 0
	for _, path := range args {
		v, err := readVector(path)
		if err == nil {
			err = trace.Replay(v)
		}
		if err != nil {
			fmt.Fprintf(stdout, "FAIL %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(stdout, "ok   %s (%d ops)\n", path, len(v.Ops))
	}
	if failed > 0 {
		return errors.Errorf("verify: %d of %d vectors failed", failed, len(args))
	}
	return nil
}

func runDump(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	showOps := fs.Bool("ops", false, "Print every op")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("dump: expected one file")
	}
	v, err := readVector(fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "name:    %s\n", v.Name)
	fmt.Fprintf(stdout, "variant: %s\n", v.Variant)
	fmt.Fprintf(stdout, "seed:    %d\n", v.Seed)
	fmt.Fprintf(stdout, "packet:  %d bytes, sha256 %s\n", len(v.Packet), testsignal.HashBytes(v.Packet))
	counts := make(map[trace.OpKind]int)
	for _, op := range v.Ops {
		counts[op.Kind]++
	}
	fmt.Fprintf(stdout, "ops:     %d %# v\n", len(v.Ops), pretty.Formatter(counts))
	if *showOps {
		if len(v.Tells) != len(v.Ops) {
			return errors.Wrapf(trace.ErrMalformed, "%d tells for %d ops", len(v.Tells), len(v.Ops))
		}
		for i := range v.Ops {
			fmt.Fprintf(stdout, "%5d tell=%-6d %# v\n", i, v.Tells[i], pretty.Formatter(v.Ops[i]))
		}
	}
	return nil
}

func readVector(path string) (*trace.Vector, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	v, err := trace.Unmarshal(b)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return v, nil
}
