package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/npillmayer/otcompact/internal/fontload"
	"github.com/npillmayer/otcompact/ot"
	"github.com/npillmayer/otcompact/otkern"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

// tracer traces with key 'otcompact.kern'
func tracer() tracing.Trace {
	return tracing.Select("otcompact.kern")
}

func main() {
	initDisplay()

	// set up logging
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":      "go",
		"trace.otcompact.kern": "Info",
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		fmt.Printf("error configuring tracing")
		os.Exit(1)
	}
	tracing.SetTraceSelector(trace2go.Selector())

	// command line flags
	tlevel := flag.String("trace", "Info", "Trace level [Debug|Info|Error]")
	pairfile := flag.String("pairs", "", "Kerning pair file to load")
	fontname := flag.String("font", "", "Font to extract kern pairs from")
	flag.Parse()
	tracer().SetTraceLevel(tracing.LevelError) // will set the correct level later
	pterm.Info.Println("Welcome to the kerning compaction CLI")
	//
	// set up REPL
	repl, err := readline.New("kern > ")
	if err != nil {
		tracer().Errorf(err.Error())
		os.Exit(3)
	}
	intp := &Intp{repl: repl}
	//
	// load pairs to work on
	if *pairfile != "" {
		if err := intp.loadPairs(*pairfile); err != nil {
			tracer().Errorf(err.Error())
			os.Exit(4)
		}
	} else if *fontname != "" {
		if err := intp.loadFont(*fontname); err != nil {
			tracer().Errorf(err.Error())
			os.Exit(4)
		}
	}
	//
	// start receiving commands
	pterm.Info.Println("Quit with <ctrl>D")
	switch *tlevel {
	case "Debug":
		tracer().SetTraceLevel(tracing.LevelDebug)
	case "Info":
		tracer().SetTraceLevel(tracing.LevelInfo)
	case "Error":
		tracer().SetTraceLevel(tracing.LevelError)
	default:
		tracer().Errorf("Invalid trace level: %s", *tlevel)
		os.Exit(5)
	}
	tracer().Infof("Trace level is %s", *tlevel)
	intp.REPL() // go into interactive mode
}

// We use pterm for moderately fancy output.
func initDisplay() {
	pterm.EnableDebugMessages()
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

// Intp is our interpreter object
type Intp struct {
	repl       *readline.Instance
	pairs      []otkern.Pair
	glyphCount int
	result     *otkern.Result
	lookup     *ot.PairLookup // decoded view of result.Bytes
}

func (intp *Intp) String() string {
	if intp == nil {
		return "()"
	}
	s := fmt.Sprintf("( pairs=%d", len(intp.pairs))
	if intp.result != nil {
		s += fmt.Sprintf(" lookup=%dB subtables=%d", len(intp.result.Bytes), intp.result.Report.Subtables)
	}
	return s + " )"
}

// REPL starts interactive mode.
func (intp *Intp) REPL() {
	for {
		pterm.Println(intp.String())
		line, err := intp.repl.Readline()
		if err != nil { // io.EOF
			break
		}
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		quit, err := intp.execute(line)
		if err != nil {
			pterm.Error.Println(err)
			continue
		}
		if quit {
			break
		}
	}
	pterm.Info.Println("Good bye!")
}

func (intp *Intp) execute(line string) (bool, error) {
	args := strings.Fields(line)
	switch args[0] {
	case "quit":
		return true, nil
	case "help":
		return false, helpOp()
	case "load":
		if len(args) < 2 {
			return false, errors.New("usage: load <pairfile>")
		}
		return false, intp.loadPairs(args[1])
	case "font":
		if len(args) < 2 {
			return false, errors.New("usage: font <fontfile>")
		}
		return false, intp.loadFont(args[1])
	case "compact":
		return false, intp.compactOp(args[1:])
	case "subtables":
		return false, intp.subtablesOp()
	case "pair":
		return false, intp.pairOp(args[1:])
	case "report":
		return false, intp.reportOp()
	case "write":
		if len(args) < 2 {
			return false, errors.New("usage: write <file>")
		}
		return false, intp.writeOp(args[1])
	}
	return false, fmt.Errorf("unknown command '%s', try 'help'", args[0])
}

func helpOp() error {
	pterm.Println(`Commands:
  load <pairfile>    load kerning pairs from a text file
  font <fontfile>    extract kerning pairs from a font's kern table
  compact [flag]     compact loaded pairs into a GPOS lookup
  subtables          list subtables of the compacted lookup
  pair <l> <r>       show the adjustment a pair decodes to
  report             show the size report
  write <file>       write the lookup bytes to a file
  quit               exit (or <ctrl>D)`)
	return nil
}

// --- Pair Loading -----------------------------------------------------

func (intp *Intp) loadPairs(path string) error {
	pairs, err := readPairFile(path)
	if err != nil {
		return err
	}
	intp.pairs = pairs
	intp.glyphCount = 0
	intp.result = nil
	intp.lookup = nil
	tracer().Infof("loaded %d pairs from %s", len(pairs), path)
	return nil
}

func (intp *Intp) loadFont(path string) error {
	font, err := fontload.LoadOpenTypeFont(path)
	if err != nil {
		return err
	}
	tracer().Infof("loaded SFNT font = %s", font.Fontname)
	pairs, err := font.KernPairs()
	if err != nil {
		return err
	}
	intp.pairs = pairs
	intp.glyphCount = font.GlyphCount()
	intp.result = nil
	intp.lookup = nil
	pterm.Printf("%d kern pairs, %d glyphs\n", len(pairs), intp.glyphCount)
	return nil
}

// ----------------------------------------------------------------------

func (intp *Intp) compactOp(args []string) error {
	if len(intp.pairs) == 0 {
		return errNoPairs
	}
	opts := otkern.Options{GlyphCount: intp.glyphCount}
	if len(args) > 0 {
		n, err := strconv.ParseUint(args[0], 0, 16)
		if err != nil {
			return fmt.Errorf("invalid lookupFlag: %v", err)
		}
		opts.LookupFlag = uint16(n)
	}
	result, err := otkern.Compact(intp.pairs, opts)
	if err != nil {
		return err
	}
	intp.result = result
	intp.lookup, err = ot.ParsePairLookup(result.Bytes)
	if err != nil {
		return err
	}
	pterm.Printf("compacted into %d bytes\n", len(result.Bytes))
	return nil
}

func (intp *Intp) subtablesOp() error {
	if intp.lookup == nil {
		return errNoLookup
	}
	data := pterm.TableData{{"#", "Format", "Covered", "Classes", "Pair sets"}}
	for i, sub := range intp.lookup.Subtables {
		classes, pairSets := "-", "-"
		if sub.Format == 2 {
			classes = fmt.Sprintf("%dx%d", sub.Class1Count, sub.Class2Count)
		} else {
			pairSets = strconv.Itoa(len(sub.PairSets))
		}
		data = append(data, []string{
			strconv.Itoa(i),
			strconv.Itoa(int(sub.Format)),
			strconv.Itoa(sub.Coverage.Len()),
			classes,
			pairSets,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func (intp *Intp) pairOp(args []string) error {
	if intp.lookup == nil {
		return errNoLookup
	}
	if len(args) < 2 {
		return errors.New("usage: pair <left> <right>")
	}
	left, err := strconv.ParseUint(args[0], 10, 16)
	if err != nil {
		return err
	}
	right, err := strconv.ParseUint(args[1], 10, 16)
	if err != nil {
		return err
	}
	adjustments, err := intp.lookup.PairAdjustments()
	if err != nil {
		return err
	}
	gp := ot.GlyphPair{Left: ot.GlyphIndex(left), Right: ot.GlyphIndex(right)}
	vr, ok := adjustments[gp]
	if !ok {
		pterm.Printf("pair (%d,%d): no adjustment\n", left, right)
		return nil
	}
	pterm.Printf("pair (%d,%d): xpla=%d ypla=%d xadv=%d yadv=%d\n",
		left, right, vr.XPlacement, vr.YPlacement, vr.XAdvance, vr.YAdvance)
	return nil
}

func (intp *Intp) reportOp() error {
	if intp.result == nil {
		return errNoLookup
	}
	r := intp.result.Report
	return pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Pairs", "Subtables", "Format 2", "Before", "After", "Saved"},
		{strconv.Itoa(r.Pairs),
			strconv.Itoa(r.Subtables),
			strconv.Itoa(r.Format2),
			strconv.Itoa(r.BytesBefore),
			strconv.Itoa(r.BytesAfter),
			fmt.Sprintf("%.1f%%", r.Saved()*100)},
	}).Render()
}

func (intp *Intp) writeOp(path string) error {
	if intp.result == nil {
		return errNoLookup
	}
	if err := os.WriteFile(path, intp.result.Bytes, 0o644); err != nil {
		return err
	}
	pterm.Printf("wrote %s (%d bytes)\n", path, len(intp.result.Bytes))
	return nil
}

var errNoPairs = errors.New("no pairs loaded, use 'load' or 'font'")
var errNoLookup = errors.New("no compacted lookup, run 'compact' first")

// readPairFile reads a kerning pair file, the same format kern-tools uses:
// "left right xAdvance [xPlacement yPlacement yAdvance]" per line, '#'
// starts a comment. Pairs come back sorted for stable listings.
func readPairFile(path string) ([]otkern.Pair, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var pairs []otkern.Pair
	for lineno, line := range strings.Split(string(content), "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 || len(fields) > 6 {
			return nil, fmt.Errorf("%s:%d: expected 3 to 6 fields, have %d", path, lineno+1, len(fields))
		}
		nums := make([]int64, len(fields))
		for i, field := range fields {
			if nums[i], err = strconv.ParseInt(field, 10, 32); err != nil {
				return nil, fmt.Errorf("%s:%d: %v", path, lineno+1, err)
			}
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
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Left != pairs[j].Left {
			return pairs[i].Left < pairs[j].Left
		}
		return pairs[i].Right < pairs[j].Right
	})
	return pairs, nil
}
