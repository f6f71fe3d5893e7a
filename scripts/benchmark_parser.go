package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// BenchmarkResult represents a parsed benchmark result.
type BenchmarkResult struct {
	Name        string
	Operation   string
	Mode        string // "safe", "unsafe", or "" for mode-independent benchmarks
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// ComparisonResult compares the safe and unsafe shrink modes of one operation.
type ComparisonResult struct {
	Operation    string
	SafeNs       float64
	UnsafeNs     float64
	Speedup      float64 // safe ns / unsafe ns
	SafeAllocs   int64
	UnsafeAllocs int64
	SafeOnly     bool
}

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

func main() {
	flag.Parse()

	// Read benchmark output
	var scanner *bufio.Scanner
	var inputF *os.File
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening input file: %v\n", err)
			os.Exit(1)
		}
		inputF = f
		scanner = bufio.NewScanner(f)
	} else {
		scanner = bufio.NewScanner(os.Stdin)
	}

	results := parseBenchmarks(scanner)

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	comparisons := generateComparisons(results)

	if !*quiet {
		fmt.Fprintf(os.Stderr, "Generated %d comparisons\n", len(comparisons))
	}

	report := generateMarkdownReport(comparisons)

	// Write output
	if *outputFile != "" {
		err := os.WriteFile(*outputFile, []byte(report), 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			if inputF != nil {
				inputF.Close()
			}
			os.Exit(1)
		}
		if !*quiet {
			fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
		}
	} else {
		fmt.Fprint(os.Stdout, report)
	}

	// Close input file if opened
	if inputF != nil {
		inputF.Close()
	}
}

func parseBenchmarks(scanner *bufio.Scanner) []BenchmarkResult {
	var results []BenchmarkResult

	// Regex to parse benchmark output lines
	// BenchmarkAllocFreeTail/safe-8    10000    1245 ns/op    0 B/op    0 allocs/op
	benchmarkRegex := regexp.MustCompile(
		`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+B/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
	)

	for scanner.Scan() {
		line := scanner.Text()

		// Try to parse as JSON (from -json flag)
		var testEvent map[string]any
		if err := json.Unmarshal([]byte(line), &testEvent); err == nil {
			if output, ok := testEvent["Output"].(string); ok {
				line = output
			}
		}

		matches := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if matches == nil {
			continue
		}

		name := matches[1]
		iterations, _ := strconv.Atoi(matches[2])
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)

		var bytesPerOp int64
		var allocsPerOp int64

		if matches[4] != "" {
			bytesPerOp, _ = strconv.ParseInt(matches[4], 10, 64)
		}
		if matches[5] != "" {
			allocsPerOp, _ = strconv.ParseInt(matches[5], 10, 64)
		}

		operation, mode := splitBenchmarkName(name)

		results = append(results, BenchmarkResult{
			Name:        name,
			Operation:   operation,
			Mode:        mode,
			Iterations:  iterations,
			NsPerOp:     nsPerOp,
			BytesPerOp:  bytesPerOp,
			AllocsPerOp: allocsPerOp,
		})
	}

	return results
}

// splitBenchmarkName extracts the operation and shrink mode from a benchmark
// name. Mode-split benchmarks look like BenchmarkResizeAcrossPage/unsafe-8;
// flat ones like BenchmarkAlloc-8.
func splitBenchmarkName(name string) (operation, mode string) {
	parts := strings.Split(name, "/")
	operation = strings.TrimPrefix(parts[0], "Benchmark")

	// Strip the -N GOMAXPROCS suffix from the last part
	last := parts[len(parts)-1]
	if dashIdx := strings.LastIndex(last, "-"); dashIdx > 0 {
		last = last[:dashIdx]
	}

	if len(parts) == 1 {
		// Flat benchmark: the stripped first part is the operation
		if dashIdx := strings.LastIndex(operation, "-"); dashIdx > 0 {
			operation = operation[:dashIdx]
		}
		return operation, ""
	}

	if last == "safe" || last == "unsafe" {
		return operation, last
	}
	return operation, ""
}

func generateComparisons(results []BenchmarkResult) []ComparisonResult {
	grouped := make(map[string]map[string]BenchmarkResult)

	for _, result := range results {
		if grouped[result.Operation] == nil {
			grouped[result.Operation] = make(map[string]BenchmarkResult)
		}
		key := result.Mode
		if key == "" {
			key = "safe"
		}
		grouped[result.Operation][key] = result
	}

	var comparisons []ComparisonResult

	for operation, modes := range grouped {
		safe, hasSafe := modes["safe"]
		unsafeRes, hasUnsafe := modes["unsafe"]

		switch {
		case hasSafe && hasUnsafe:
			comparisons = append(comparisons, ComparisonResult{
				Operation:    operation,
				SafeNs:       safe.NsPerOp,
				UnsafeNs:     unsafeRes.NsPerOp,
				Speedup:      safe.NsPerOp / unsafeRes.NsPerOp,
				SafeAllocs:   safe.AllocsPerOp,
				UnsafeAllocs: unsafeRes.AllocsPerOp,
			})
		case hasSafe:
			comparisons = append(comparisons, ComparisonResult{
				Operation:  operation,
				SafeNs:     safe.NsPerOp,
				SafeAllocs: safe.AllocsPerOp,
				SafeOnly:   true,
			})
		}
	}

	sort.Slice(comparisons, func(i, j int) bool {
		return comparisons[i].Operation < comparisons[j].Operation
	})

	return comparisons
}

func generateMarkdownReport(comparisons []ComparisonResult) string {
	var sb strings.Builder

	sb.WriteString("# Arena Benchmark Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format("2006-01-02 15:04:05")))

	// Summary statistics
	compared := 0
	totalSpeedup := 0.0
	for _, comp := range comparisons {
		if !comp.SafeOnly {
			compared++
			totalSpeedup += comp.Speedup
		}
	}

	avgSpeedup := 0.0
	if compared > 0 {
		avgSpeedup = totalSpeedup / float64(compared)
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Total operations**: %d\n", len(comparisons)))
	sb.WriteString(fmt.Sprintf("- **Mode-split** (safe vs unsafe shrink): %d\n", compared))
	if compared > 0 {
		sb.WriteString(fmt.Sprintf("- **Average unsafe-mode speedup**: **%.2fx**\n", avgSpeedup))
	}
	sb.WriteString("\n")

	// Detailed results table
	sb.WriteString("## Detailed Results\n\n")
	sb.WriteString("| Operation | safe (ns/op) | unsafe (ns/op) | Speedup | Allocs |\n")
	sb.WriteString("|-----------|--------------|----------------|---------|--------|\n")

	for _, comp := range comparisons {
		if comp.SafeOnly {
			sb.WriteString(fmt.Sprintf("| %s | %s | *N/A* | *mode-independent* | %s |\n",
				comp.Operation,
				humanize.CommafWithDigits(comp.SafeNs, 1),
				humanize.Comma(comp.SafeAllocs),
			))
			continue
		}

		indicator := "✓"
		if comp.Speedup < 1.0 {
			indicator = "✗"
		}

		sb.WriteString(fmt.Sprintf("| %s | %s | %s | **%.2fx** %s | %s vs %s |\n",
			comp.Operation,
			humanize.CommafWithDigits(comp.SafeNs, 1),
			humanize.CommafWithDigits(comp.UnsafeNs, 1),
			comp.Speedup,
			indicator,
			humanize.Comma(comp.SafeAllocs),
			humanize.Comma(comp.UnsafeAllocs),
		))
	}

	sb.WriteString("\n")

	// Notes
	sb.WriteString("## Notes\n\n")
	sb.WriteString("- **Speedup > 1.0**: unsafe shrink mode is faster ✓\n")
	sb.WriteString("- **Speedup < 1.0**: unsafe shrink mode is slower ✗\n")
	sb.WriteString("- Unsafe mode skips page decommit on shrink and pays a memset instead\n")
	sb.WriteString("- Mode-independent benchmarks never shrink the arena\n")

	return sb.String()
}
