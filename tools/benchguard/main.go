// Command benchguard runs the range coder benchmarks and fails when any of
// them exceeds the limits in its JSON config.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

type limits struct {
	MaxNsOp     float64 `json:"max_ns_op"`
	MaxBOp      float64 `json:"max_b_op"`
	MaxAllocsOp float64 `json:"max_allocs_op"`
}

type guardConfig struct {
	Package    string            `json:"package"`
	BenchRegex string            `json:"bench_regex"`
	Count      int               `json:"count"`
	Benchtime  string            `json:"benchtime"`
	CPU        int               `json:"cpu"`
	Tags       string            `json:"tags,omitempty"`
	Benchmarks map[string]limits `json:"benchmarks"`
}

// metrics is one benchmark result row, or the median of several.
type metrics struct {
	NsOp     float64
	BOp      float64
	AllocsOp float64
}

func main() {
	cfgPath := flag.String("config", "tools/bench_guardrails.json", "path to bench guardrails config")
	flag.Parse()

	cfg, err := loadConfig(*cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	out, err := runBench(cfg)
	if err != nil {
		fatalf("run benchmark command: %v", err)
	}
	results, err := parseBenchmarkOutput(out)
	if err != nil {
		fatalf("parse benchmark output: %v", err)
	}

	if violations := evaluate(cfg, results, os.Stdout); len(violations) > 0 {
		for _, v := range violations {
			fmt.Fprintln(os.Stderr, "benchguard:", v)
		}
		os.Exit(1)
	}
	fmt.Println("benchguard: all configured benchmarks are within guardrails")
}

func loadConfig(path string) (*guardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	var cfg guardConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "load config %s", path)
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return &cfg, nil
}

func validateConfig(cfg *guardConfig) error {
	switch {
	case cfg.Package == "":
		return errors.New("package must be set")
	case cfg.BenchRegex == "":
		return errors.New("bench_regex must be set")
	case cfg.Count <= 0:
		return errors.New("count must be > 0")
	case cfg.CPU <= 0:
		return errors.New("cpu must be > 0")
	case cfg.Benchtime == "":
		return errors.New("benchtime must be set")
	case len(cfg.Benchmarks) == 0:
		return errors.New("benchmarks must be non-empty")
	}
	return nil
}

func benchArgs(cfg *guardConfig) []string {
	args := []string{"test", "-run", "^$"}
	if cfg.Tags != "" {
		args = append(args, "-tags", cfg.Tags)
	}
	return append(args,
		"-bench", cfg.BenchRegex,
		"-benchmem",
		"-count", strconv.Itoa(cfg.Count),
		"-benchtime", cfg.Benchtime,
		"-cpu", strconv.Itoa(cfg.CPU),
		cfg.Package,
	)
}

func runBench(cfg *guardConfig) ([]byte, error) {
	cmd := exec.Command("go", benchArgs(cfg)...)
	cmd.Env = append(os.Environ(), "GOMAXPROCS=1")

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	fmt.Print(buf.String())
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return buf.Bytes(), nil
}

var benchLineRe = regexp.MustCompile(`^(Benchmark\S+?)(?:-\d+)?\s+\d+\s+([0-9.eE+\-]+)\s+ns/op\s+([0-9.eE+\-]+)\s+B/op\s+([0-9.eE+\-]+)\s+allocs/op$`)

func parseBenchmarkOutput(out []byte) (map[string][]metrics, error) {
	result := make(map[string][]metrics)
	for _, line := range strings.Split(string(out), "\n") {
		m := benchLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		var vals [3]float64
		for i, unit := range []string{"ns/op", "B/op", "allocs/op"} {
			v, err := strconv.ParseFloat(m[2+i], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "parse %s for %s", unit, m[1])
			}
			vals[i] = v
		}
		result[m[1]] = append(result[m[1]], metrics{NsOp: vals[0], BOp: vals[1], AllocsOp: vals[2]})
	}
	if len(result) == 0 {
		return nil, errors.New("no benchmark rows parsed")
	}
	return result, nil
}

// evaluate compares the median of each configured benchmark against its
// limits, writing one summary line per benchmark to w.
func evaluate(cfg *guardConfig, results map[string][]metrics, w io.Writer) []string {
	var violations []string
	names := make([]string, 0, len(cfg.Benchmarks))
	for name := range cfg.Benchmarks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		lim := cfg.Benchmarks[name]
		rows := results[name]
		if len(rows) == 0 {
			violations = append(violations, fmt.Sprintf("missing benchmark in output: %s", name))
			continue
		}
		got := medianMetrics(rows)
		fmt.Fprintf(w, "benchguard: %-24s ns/op=%.1f (max %.1f), B/op=%.1f (max %.1f), allocs/op=%.1f (max %.1f)\n",
			name, got.NsOp, lim.MaxNsOp, got.BOp, lim.MaxBOp, got.AllocsOp, lim.MaxAllocsOp)
		for _, c := range []struct {
			unit     string
			got, max float64
		}{
			{"ns/op", got.NsOp, lim.MaxNsOp},
			{"B/op", got.BOp, lim.MaxBOp},
			{"allocs/op", got.AllocsOp, lim.MaxAllocsOp},
		} {
			if c.got > c.max {
				violations = append(violations, fmt.Sprintf("%s %s regression: measured %.1f > max %.1f", name, c.unit, c.got, c.max))
			}
		}
	}
	return violations
}

func medianMetrics(rows []metrics) metrics {
	pick := func(f func(metrics) float64) float64 {
		vals := make([]float64, len(rows))
		for i, r := range rows {
			vals[i] = f(r)
		}
		return median(vals)
	}
	return metrics{
		NsOp:     pick(func(m metrics) float64 { return m.NsOp }),
		BOp:      pick(func(m metrics) float64 { return m.BOp }),
		AllocsOp: pick(func(m metrics) float64 { return m.AllocsOp }),
	}
}

func median(values []float64) float64 {
	sort.Float64s(values)
	n := len(values)
	if n%2 == 1 {
		return values[n/2]
	}
	return (values[n/2-1] + values[n/2]) / 2
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "benchguard: "+format+"\n", args...)
	os.Exit(2)
}
