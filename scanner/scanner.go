// Package scanner reads the concatenation of the parser's token header and the
// VDBE source listing and extracts the pieces the opcode generator needs:
// token values, case-line declarations with their property comments, and the
// operand usage and synopsis from each opcode's documentation block.
//
// Lines that match none of the recognised forms are ignored.
package scanner

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	log "github.com/colorfulnotion/opcodeh/log"
	"github.com/colorfulnotion/opcodeh/opcodes"
)

// Options selects the naming conventions of the input.
type Options struct {
	TokenPrefix  string
	OpcodePrefix string
	// Withheld names are skipped at their declaration point. The allocator
	// re-appends them as specials.
	Withheld []string
}

// DefaultOptions matches parse.h and vdbe.c.
func DefaultOptions() Options {
	return Options{
		TokenPrefix:  "TK_",
		OpcodePrefix: "OP_",
		Withheld:     []string{"OP_Abortable"},
	}
}

// Listing is the result of a scan.
type Listing struct {
	Tokens opcodes.TokenTable
	// Instructions are the declared opcodes in declaration order.
	Instructions []*opcodes.Instruction
	// Dropped names documentation blocks that no declaration matched.
	Dropped []string
	Lines   int

	docs map[string]*doc
}

type doc struct {
	paramUsage uint8
	synopsis   string
	hasSyn     bool
}

// Scanner holds the compiled line grammar for one set of Options.
type Scanner struct {
	opts     Options
	token    *regexp.Regexp
	opcode   *regexp.Regexp
	synopsis *regexp.Regexp
	decl     *regexp.Regexp
	comment  *regexp.Regexp
	withheld map[string]bool
}

// New compiles the line grammar for opts.
func New(opts Options) *Scanner {
	s := &Scanner{
		opts:     opts,
		token:    regexp.MustCompile(`^#define ` + regexp.QuoteMeta(opts.TokenPrefix) + `(\w+)\s+(\d+)`),
		opcode:   regexp.MustCompile(`^.. Opcode:\s+(\w+)`),
		synopsis: regexp.MustCompile(`^.. Synopsis:\s+(.*)`),
		decl:     regexp.MustCompile(`^case\s+(` + regexp.QuoteMeta(opts.OpcodePrefix) + `\w+):`),
		comment:  regexp.MustCompile(`/\*\s*(.*?)\s*\*/`),
		withheld: make(map[string]bool, len(opts.Withheld)),
	}
	for _, name := range opts.Withheld {
		s.withheld[name] = true
	}
	return s
}

// Scan reads r to the end and returns the listing.
func (s *Scanner) Scan(r io.Reader) (*Listing, error) {
	l := &Listing{Tokens: opcodes.TokenTable{}, docs: make(map[string]*doc)}
	docs := l.docs
	declared := make(map[string]bool)
	var current string

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		l.Lines++
		line := strings.TrimRight(sc.Text(), " \t\r")

		if m := s.token.FindStringSubmatch(line); m != nil {
			v, err := strconv.Atoi(m[2])
			if err != nil {
				log.Debug(log.ScanMonitoring, "token value out of range", "line", l.Lines, "token", m[1])
				continue
			}
			l.Tokens[s.opts.TokenPrefix+m[1]] = v
			continue
		}

		if m := s.opcode.FindStringSubmatch(line); m != nil {
			current = s.opts.OpcodePrefix + m[1]
			docs[current] = &doc{paramUsage: paramUsage(line)}
			continue
		}

		if m := s.synopsis.FindStringSubmatch(line); m != nil {
			if current != "" {
				d := docs[current]
				d.synopsis = strings.TrimSpace(m[1])
				d.hasSyn = true
			}
			continue
		}

		if m := s.decl.FindStringSubmatch(line); m != nil {
			name := m[1]
			if s.withheld[name] {
				log.Trace(log.ScanMonitoring, "withheld declaration", "line", l.Lines, "opcode", name)
				continue
			}
			if declared[name] {
				log.Debug(log.ScanMonitoring, "repeated declaration ignored", "line", l.Lines, "opcode", name)
				continue
			}
			declared[name] = true
			var annotation string
			if c := s.comment.FindStringSubmatch(line); c != nil {
				annotation = c[1]
			}
			l.Instructions = append(l.Instructions, opcodes.NewInstruction(name, annotation))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan listing at line %d: %w", l.Lines+1, err)
	}

	s.attachDocs(l, docs)
	log.Debug(log.ScanMonitoring, "scan done", "lines", l.Lines, "tokens", len(l.Tokens), "opcodes", len(l.Instructions), "dropped", len(l.Dropped))
	return l, nil
}

// attachDocs documents the declared opcodes and records the documentation
// blocks that belong to neither a declaration nor a withheld name.
func (s *Scanner) attachDocs(l *Listing, docs map[string]*doc) {
	l.Document(l.Instructions)
	for name := range docs {
		if s.withheld[name] {
			continue
		}
		if _, ok := l.find(name); !ok {
			l.Dropped = append(l.Dropped, name)
		}
	}
	slices.Sort(l.Dropped)
}

// Document copies operand usage and synopsis onto every instruction whose
// name has a documentation block. Specials created after the scan are
// documented this way too, and their names leave Dropped.
func (l *Listing) Document(instrs []*opcodes.Instruction) {
	documented := make(map[string]bool, len(instrs))
	for _, ins := range instrs {
		d, ok := l.docs[ins.Name]
		if !ok {
			continue
		}
		documented[ins.Name] = true
		ins.ParamUsage = d.paramUsage
		if d.hasSyn {
			ins.Synopsis = d.synopsis
		}
	}
	l.Dropped = slices.DeleteFunc(l.Dropped, func(name string) bool { return documented[name] })
}

func (l *Listing) find(name string) (*opcodes.Instruction, bool) {
	for _, ins := range l.Instructions {
		if ins.Name == name {
			return ins, true
		}
	}
	return nil, false
}

// paramUsage sets bit i-1 for every operand Pi named on the line.
func paramUsage(line string) uint8 {
	var m uint8
	for i := 1; i <= 5; i++ {
		if strings.Contains(line, "P"+strconv.Itoa(i)) {
			m |= 1 << (i - 1)
		}
	}
	return m
}
