package hierarchy

import (
	"context"
	"sort"

	"github.com/porticoestate/location-hierarchy/internal/debug"
)

// Options tunes an Analyzer
type Options struct {
	// NameEvidence enables loc2 candidates parsed from stored loc3 names
	NameEvidence bool
	// InheritBuildingNumber lends rows without a bygningsnr the number
	// used by the other rows at their address
	InheritBuildingNumber bool
	MaxLoc2NameLength     int
	AuditTable        string
	ExcludeTables     []string
	Debug             bool
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		NameEvidence:      true,
		MaxLoc2NameLength: DefaultMaxLoc2NameLength,
		AuditTable:        DefaultAuditTable,
	}
}

// Result is the outcome of one analysis
type Result struct {
	Loc1               string            `json:"loc1,omitempty" yaml:"loc1,omitempty"`
	RunTag             string            `json:"run_tag,omitempty" yaml:"run_tag,omitempty"`
	Statistics         Statistics        `json:"statistics" yaml:"statistics"`
	Issues             []Issue           `json:"issues" yaml:"issues"`
	Warnings           []Warning         `json:"warnings" yaml:"warnings"`
	SQL                Batches           `json:"sql_statements" yaml:"sql_statements"`
	FixedLocationCodes map[string]string `json:"fixed_location_codes" yaml:"fixed_location_codes"`
}

// Clean reports whether the stored hierarchy needs no change
func (r *Result) Clean() bool {
	return len(r.Issues) == 0
}

// Analyzer runs load, resolve, detect and emit against a Source
type Analyzer struct {
	src  Source
	opts Options
}

// NewAnalyzer creates an analyzer reading from src
func NewAnalyzer(src Source, opts Options) *Analyzer {
	return &Analyzer{src: src, opts: opts}
}

// Analyze computes the corrective script for one loc1, or for every site
// when loc1 is empty.
func (a *Analyzer) Analyze(ctx context.Context, loc1 string) (*Result, error) {
	debug.DebugHeader(a.opts.Debug, "Analyze "+scopeLabel(loc1))

	loader := NewLoader(a.src, NewStreetNames(), a.opts.Debug)
	snap, err := loader.Load(ctx, loc1)
	if err != nil {
		return nil, err
	}
	tables, err := loader.LoadTables(ctx)
	if err != nil {
		return nil, err
	}

	findings, stats, err := a.plan(snap)
	if err != nil {
		return nil, err
	}
	return a.result(loc1, findings, stats, tables), nil
}

// AnalyzeEach analyzes every loc1 on its own and combines the outcome into
// one script. Each site is loaded and resolved separately so only one site
// is held in memory at a time.
func (a *Analyzer) AnalyzeEach(ctx context.Context) (*Result, error) {
	debug.DebugHeader(a.opts.Debug, "Analyze each loc1")

	loc1s, err := a.src.ListLoc1(ctx)
	if err != nil {
		return nil, &DataAccessError{Op: "list loc1", Err: err}
	}
	sort.Strings(loc1s)

	loader := NewLoader(a.src, NewStreetNames(), a.opts.Debug)
	tables, err := loader.LoadTables(ctx)
	if err != nil {
		return nil, err
	}

	combined := &Findings{}
	var stats Statistics
	for _, loc1 := range loc1s {
		snap, err := loader.Load(ctx, loc1)
		if err != nil {
			return nil, err
		}
		findings, s, err := a.plan(snap)
		if err != nil {
			return nil, err
		}
		combined.Merge(findings)
		stats = stats.Add(s)
		debug.DebugOutput(a.opts.Debug, "loc1 %s: %d issues", loc1, len(findings.Issues))
	}
	return a.result("", combined, stats, tables), nil
}

func (a *Analyzer) plan(snap *Snapshot) (*Findings, Statistics, error) {
	keys := AssignBuildingKeys(snap.Leaves, a.opts.InheritBuildingNumber)

	var mapper Loc2Candidates = DisabledLoc2Mapper{}
	if a.opts.NameEvidence {
		mapper = NewNameEvidenceMapper(snap.Leaves, keys, snap.Level3, snap.Streets)
	}

	resolver := NewResolver(snap, keys, mapper, a.opts.Debug)
	assignment, err := resolver.Resolve()
	if err != nil {
		return nil, Statistics{}, err
	}

	detector := NewDetector(NewNameSynthesizer(snap.Streets, a.opts.MaxLoc2NameLength))
	findings := detector.Detect(snap, keys, assignment)
	findings.Warnings = append(append([]Warning(nil), resolver.Warnings()...), findings.Warnings...)

	stats := collectStatistics(snap, keys, assignment, findings)
	if a.opts.Debug {
		counts := make(map[string]int)
		for kind, n := range CountIssues(findings.Issues) {
			counts[string(kind)] = n
		}
		debug.DebugCounts(a.opts.Debug, "Issues", counts)
	}
	return findings, stats, nil
}

func (a *Analyzer) result(loc1 string, f *Findings, stats Statistics, tables map[string][]string) *Result {
	emitter := NewEmitter(a.opts.AuditTable, a.opts.ExcludeTables)
	res := &Result{
		Loc1:               loc1,
		Statistics:         stats,
		Issues:             append([]Issue{}, f.Issues...),
		Warnings:           append([]Warning{}, f.Warnings...),
		SQL:                emitter.Emit(f, tables),
		FixedLocationCodes: make(map[string]string, len(f.Corrections)),
	}
	if len(f.Corrections) > 0 {
		res.RunTag = RunTag(f.Corrections)
	}
	for _, c := range f.Corrections {
		res.FixedLocationCodes[c.OldLocationCode] = c.NewLocationCode
	}
	return res
}
