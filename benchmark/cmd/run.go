package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type BenchmarkResult struct {
	Name       string  `json:"name"`
	Framework  string  `json:"framework"`
	Category   string  `json:"category"`
	Scenario   string  `json:"scenario"`
	Iterations int64   `json:"iterations"`
	NsPerOp    float64 `json:"ns_per_op"`
	BytesPerOp int64   `json:"bytes_per_op"`
	AllocsOp   int64   `json:"allocs_per_op"`
}

type CategoryResults struct {
	Category string
	Results  []BenchmarkResult
}

var frameworkColors = map[string]text.Colors{
	"Stitch": {text.FgGreen, text.Bold},
	"Wire":   {text.FgCyan},
	"Do":     {text.FgYellow},
	"Dig":    {text.FgMagenta},
	"Fx":     {text.FgBlue},
}

var categoryOrder = []string{
	"Build_Simple", "Build_Chain",
	"Invoke_Singleton", "Invoke_Chain", "Invoke_Unique", "Invoke_Session",
	"Named_10",
	"Lifecycle_10", "Lifecycle_50",
}

var categoryTitles = map[string]string{
	"Build_Simple":     "Injector Build (Simple)",
	"Build_Chain":      "Injector Build (Dependency Chain)",
	"Invoke_Singleton": "Resolution (Singleton)",
	"Invoke_Chain":     "Resolution (Shared Chain)",
	"Invoke_Unique":    "Resolution (Unique Chain)",
	"Invoke_Session":   "Resolution (Session Chain)",
	"Named_10":         "Named Bindings (10 services)",
	"Lifecycle_10":     "Build, Preload and Close (10 services)",
	"Lifecycle_50":     "Build, Preload and Close (50 services)",
}

func main() {
	jsonOut := slices.Contains(os.Args[1:], "--json")

	benchDir := ".."
	for _, arg := range os.Args[1:] {
		if arg != "--json" {
			benchDir = arg
		}
	}

	fmt.Println(text.Colors{text.FgCyan, text.Bold}.Sprint("Stitch DI Benchmark Suite"))
	fmt.Println(text.Faint.Sprint("Running benchmarks..."))
	fmt.Println()

	cmd := exec.Command("go", "test", "-bench=.", "-benchmem", "-count=3", "-benchtime=100ms")
	cmd.Dir = benchDir
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "Benchmark failed: %s\n", string(exitErr.Stderr))
		}
		os.Exit(1)
	}

	results := parseResults(output)
	grouped := groupByCategory(results)

	for _, cat := range grouped {
		printCategory(cat)
	}
	printSummary(grouped)

	if jsonOut {
		if err := exportJSON(results); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write results: %v\n", err)
			os.Exit(1)
		}
	}
}

var (
	benchPattern = regexp.MustCompile(`^Benchmark(\w+)-\d+\s+(\d+)\s+([\d.]+) ns/op\s+(\d+) B/op\s+(\d+) allocs/op`)
	namePattern  = regexp.MustCompile(`^([^_]+)_([^_]+)_(\w+)$`)
)

// parseResults averages repeated runs of the same benchmark.
func parseResults(output []byte) []BenchmarkResult {
	seen := make(map[string][]BenchmarkResult)
	var order []string

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		matches := benchPattern.FindStringSubmatch(scanner.Text())
		if matches == nil {
			continue
		}

		name := matches[1]
		parts := namePattern.FindStringSubmatch(name)
		if parts == nil {
			continue
		}

		iterations, _ := strconv.ParseInt(matches[2], 10, 64)
		nsPerOp, _ := strconv.ParseFloat(matches[3], 64)
		bytesPerOp, _ := strconv.ParseInt(matches[4], 10, 64)
		allocsOp, _ := strconv.ParseInt(matches[5], 10, 64)

		if _, ok := seen[name]; !ok {
			order = append(order, name)
		}
		seen[name] = append(
			seen[name], BenchmarkResult{
				Name:       name,
				Category:   parts[1],
				Scenario:   parts[2],
				Framework:  parts[3],
				Iterations: iterations,
				NsPerOp:    nsPerOp,
				BytesPerOp: bytesPerOp,
				AllocsOp:   allocsOp,
			},
		)
	}

	results := make([]BenchmarkResult, 0, len(order))
	for _, name := range order {
		runs := seen[name]

		var totalNs float64
		var totalBytes, totalAllocs int64
		for _, r := range runs {
			totalNs += r.NsPerOp
			totalBytes += r.BytesPerOp
			totalAllocs += r.AllocsOp
		}
		count := float64(len(runs))

		avg := runs[0]
		avg.NsPerOp = totalNs / count
		avg.BytesPerOp = int64(float64(totalBytes) / count)
		avg.AllocsOp = int64(float64(totalAllocs) / count)
		results = append(results, avg)
	}
	return results
}

func groupByCategory(results []BenchmarkResult) []CategoryResults {
	groups := make(map[string][]BenchmarkResult)
	var extra []string
	for _, r := range results {
		key := r.Category + "_" + r.Scenario
		if _, ok := groups[key]; !ok && !slices.Contains(categoryOrder, key) {
			extra = append(extra, key)
		}
		groups[key] = append(groups[key], r)
	}

	var ordered []CategoryResults
	for _, key := range append(slices.Clone(categoryOrder), extra...) {
		rs, ok := groups[key]
		if !ok {
			continue
		}
		slices.SortFunc(
			rs, func(a, b BenchmarkResult) int {
				switch {
				case a.NsPerOp < b.NsPerOp:
					return -1
				case a.NsPerOp > b.NsPerOp:
					return 1
				default:
					return 0
				}
			},
		)
		ordered = append(ordered, CategoryResults{Category: key, Results: rs})
	}
	return ordered
}

func printCategory(cat CategoryResults) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle(formatCategoryTitle(cat.Category))
	t.AppendHeader(table.Row{"Framework", "Time/op", "", "B/op", "Allocs/op", "Relative"})
	t.SetColumnConfigs(
		[]table.ColumnConfig{
			{Number: 2, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
			{Number: 5, Align: text.AlignRight},
		},
	)

	fastest := cat.Results[0].NsPerOp
	for i, r := range cat.Results {
		relative := "fastest"
		if i > 0 && fastest > 0 {
			relative = fmt.Sprintf("%.1fx slower", r.NsPerOp/fastest)
		}

		t.AppendRow(
			table.Row{
				colorize(r.Framework),
				formatNs(r.NsPerOp),
				makeBar(r.NsPerOp, fastest, 20),
				r.BytesPerOp,
				r.AllocsOp,
				text.Faint.Sprint(relative),
			},
		)
	}

	t.Render()
	fmt.Println()
}

func formatCategoryTitle(cat string) string {
	if title, ok := categoryTitles[cat]; ok {
		return title
	}
	return strings.ReplaceAll(cat, "_", " ")
}

func colorize(framework string) string {
	if colors, ok := frameworkColors[framework]; ok {
		return colors.Sprint(framework)
	}
	return framework
}

func makeBar(value, fastest float64, width int) string {
	if fastest == 0 {
		return strings.Repeat("█", width)
	}

	ratio := min(value/fastest, 10)
	filled := min(max(int(float64(width)/ratio), 1), width)

	return text.FgGreen.Sprint(strings.Repeat("█", filled)) +
		text.FgRed.Sprint(strings.Repeat("░", width-filled))
}

func formatNs(ns float64) string {
	if ns >= 1_000_000 {
		return fmt.Sprintf("%.2f ms", ns/1_000_000)
	}
	if ns >= 1_000 {
		return fmt.Sprintf("%.2f µs", ns/1_000)
	}
	return fmt.Sprintf("%.0f ns", ns)
}

func printSummary(groups []CategoryResults) {
	wins := make(map[string]int)
	for _, cat := range groups {
		wins[cat.Results[0].Framework]++
	}

	type frameworkWins struct {
		name string
		wins int
	}

	sorted := make([]frameworkWins, 0, len(wins))
	for name, count := range wins {
		sorted = append(sorted, frameworkWins{name, count})
	}
	slices.SortFunc(
		sorted, func(a, b frameworkWins) int {
			if a.wins != b.wins {
				return b.wins - a.wins
			}
			return strings.Compare(a.name, b.name)
		},
	)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.SetTitle("Summary")
	t.AppendHeader(table.Row{"#", "Framework", "Wins", ""})
	for i, fw := range sorted {
		t.AppendRow(
			table.Row{
				i + 1,
				colorize(fw.name),
				fmt.Sprintf("%d/%d", fw.wins, len(groups)),
				text.FgGreen.Sprint(strings.Repeat("█", fw.wins*3)),
			},
		)
	}
	t.AppendFooter(table.Row{"", "Compared", "", "stitch, google/wire, samber/do, uber/dig, uber/fx"})
	t.Render()
}

func exportJSON(results []BenchmarkResult) error {
	output := struct {
		Benchmarks []BenchmarkResult `json:"benchmarks"`
	}{
		Benchmarks: results,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile("benchmark_results.json", data, 0o644)
}
