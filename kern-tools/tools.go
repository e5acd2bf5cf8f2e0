package main

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/npillmayer/otcompact/internal/fontload"
	"github.com/npillmayer/otcompact/ot"
	"github.com/npillmayer/otcompact/otkern"
	"github.com/pterm/pterm"
	"github.com/thatisuday/commando"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func main() {
	commando.
		SetExecutableName("kern-tools").
		SetVersion("v0.0.1").
		SetDescription("CLI for compacting pair-kerning data into GPOS lookups.")

	commando.
		Register(nil).
		AddFlag("verbose,V", "display additional output", commando.Bool, nil)

	commando.
		Register("compact").
		SetDescription("Compact a kerning pair file into a serialized GPOS pair adjustment lookup.").
		SetShortDescription("compact kerning pairs").
		AddArgument("pairs", "kerning pair file path", "").
		AddFlag("output,o", "output file for the lookup bytes", commando.String, "lookup.bin").
		AddFlag("glyphs,g", "glyph count for glyph ID validation (0 disables)", commando.Int, 0).
		AddFlag("flag,f", "lookupFlag word for the lookup header", commando.Int, 0).
		SetAction(runCompactCommand)

	commando.
		Register("report").
		SetDescription("Compact one or more kerning pair files and write a CSV size report.").
		SetShortDescription("size report").
		AddArgument("pairs...", "kerning pair file paths", "").
		AddFlag("output,o", "output CSV file", commando.String, "kern-report.csv").
		SetAction(runReportCommand)

	commando.
		Register("extract").
		SetDescription("Extract kerning pairs from a font's legacy kern table into a pair file.").
		SetShortDescription("extract kern pairs").
		AddArgument("font", "OpenType font file path", "").
		AddFlag("output,o", "output pair file", commando.String, "pairs.txt").
		SetAction(runExtractCommand)

	commando.Parse(nil)
}

func runCompactCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	pairsPath := strings.TrimSpace(args["pairs"].Value)
	if pairsPath == "" {
		fatalf("pair file path is required")
	}
	pairs, err := readPairFile(pairsPath)
	if err != nil {
		fatalf("%v", err)
	}
	opts := otkern.Options{
		GlyphCount: mustFlagInt(flags["glyphs"], "glyphs"),
		LookupFlag: uint16(mustFlagInt(flags["flag"], "flag")),
	}
	result, err := otkern.Compact(pairs, opts)
	if err != nil {
		fatalf("compaction failed: %v", err)
	}
	outPath := mustFlagString(flags["output"], "output")
	if err := os.WriteFile(outPath, result.Bytes, 0o644); err != nil {
		fatalf("cannot write lookup: %v", err)
	}
	printReport(pairsPath, result.Report)
	pterm.Info.Printf("wrote %s (%d bytes)\n", outPath, len(result.Bytes))
}

func printReport(name string, r otkern.Report) {
	_ = pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"File", "Pairs", "Subtables", "Format 2", "Before", "After", "Saved"},
		{name,
			strconv.Itoa(r.Pairs),
			strconv.Itoa(r.Subtables),
			strconv.Itoa(r.Format2),
			strconv.Itoa(r.BytesBefore),
			strconv.Itoa(r.BytesAfter),
			fmt.Sprintf("%.1f%%", r.Saved()*100)},
	}).Render()
}

func runReportCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	paths := strings.Split(args["pairs"].Value, ",")
	outPath := mustFlagString(flags["output"], "output")
	f, err := os.Create(outPath)
	if err != nil {
		fatalf("cannot create report: %v", err)
	}
	defer f.Close()
	// BOM-prefixed UTF-8 keeps spreadsheet applications from mangling the file
	bw := bufio.NewWriter(f)
	tw := transform.NewWriter(bw, unicode.UTF8BOM.NewEncoder())
	w := csv.NewWriter(tw)
	_ = w.Write([]string{"File", "Pairs", "Subtables", "Size before (B)", "Size after (B)", "Change"})
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		pairs, err := readPairFile(path)
		if err != nil {
			fatalf("%v", err)
		}
		result, err := otkern.Compact(pairs, otkern.Options{})
		if err != nil {
			fatalf("compaction of %s failed: %v", path, err)
		}
		r := result.Report
		_ = w.Write([]string{
			path,
			strconv.Itoa(r.Pairs),
			strconv.Itoa(r.Subtables),
			strconv.Itoa(r.BytesBefore),
			strconv.Itoa(r.BytesAfter),
			fmt.Sprintf("%+.1f%%", -r.Saved()*100),
		})
		pterm.Info.Printf("%s: %d -> %d bytes\n", path, r.BytesBefore, r.BytesAfter)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fatalf("cannot write report: %v", err)
	}
	if err := tw.Close(); err != nil {
		fatalf("cannot write report: %v", err)
	}
	if err := bw.Flush(); err != nil {
		fatalf("cannot write report: %v", err)
	}
	pterm.Info.Printf("wrote %s\n", outPath)
}

func runExtractCommand(args map[string]commando.ArgValue, flags map[string]commando.FlagValue) {
	fontPath := strings.TrimSpace(args["font"].Value)
	if fontPath == "" {
		fatalf("font path is required")
	}
	font, err := fontload.LoadOpenTypeFont(fontPath)
	if err != nil {
		fatalf("cannot load font %s: %v", fontPath, err)
	}
	pairs, err := font.KernPairs()
	if err != nil {
		fatalf("%v", err)
	}
	outPath := mustFlagString(flags["output"], "output")
	f, err := os.Create(outPath)
	if err != nil {
		fatalf("cannot create pair file: %v", err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# kerning pairs of %s (%d glyphs)\n", font.Fontname, font.GlyphCount())
	for _, p := range pairs {
		fmt.Fprintf(w, "%d %d %d\n", p.Left, p.Right, p.Adjust.XAdvance)
	}
	if err := w.Flush(); err != nil {
		fatalf("cannot write pair file: %v", err)
	}
	pterm.Info.Printf("wrote %s (%d pairs)\n", outPath, len(pairs))
}

// readPairFile reads a kerning pair file: one pair per line as whitespace
// separated integers "left right xAdvance [xPlacement yPlacement yAdvance]",
// '#' starts a comment.
func readPairFile(path string) ([]otkern.Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var pairs []otkern.Pair
	scanner := bufio.NewScanner(f)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 || len(fields) > 6 {
			return nil, fmt.Errorf("%s:%d: expected 3 to 6 fields, have %d", path, lineno, len(fields))
		}
		nums := make([]int64, len(fields))
		for i, field := range fields {
			n, err := strconv.ParseInt(field, 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %v", path, lineno, err)
			}
			nums[i] = n
		}
		if nums[0] < 0 || nums[0] > 0xffff || nums[1] < 0 || nums[1] > 0xffff {
			return nil, fmt.Errorf("%s:%d: glyph ID out of range", path, lineno)
		}
		p := otkern.Pair{
			Left:   ot.GlyphIndex(nums[0]),
			Right:  ot.GlyphIndex(nums[1]),
			Adjust: otkern.Kern(int16(nums[2])),
		}
		if len(nums) > 3 {
			p.Adjust.XPlacement = int16(nums[3])
		}
		if len(nums) > 4 {
			p.Adjust.YPlacement = int16(nums[4])
		}
		if len(nums) > 5 {
			p.Adjust.YAdvance = int16(nums[5])
		}
		pairs = append(pairs, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}

func mustFlagInt(flag commando.FlagValue, name string) int {
	n, err := flag.GetInt()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	return n
}

func mustFlagString(flag commando.FlagValue, name string) string {
	s, err := flag.GetString()
	if err != nil {
		fatalf("invalid --%s flag: %v", name, err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		fatalf("--%s must not be empty", name)
	}
	return s
}

func fatalf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, "kern-tools: "+format+"\n", args...)
	os.Exit(1)
}
