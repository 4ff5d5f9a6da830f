package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"murphy/internal/timeline"
)

// #region constants

const (
	sectionSep = "---"
	recordSep  = "##"
	fieldSep   = "|"

	// upstreamPrefix marks a gateway sentinel message in place of model
	// output. The gateway guarantees this prefix on final failure.
	upstreamPrefix = "Error:"
)

var (
	scoreRe = regexp.MustCompile(`\[\s*Stress:\s*(\d{1,2})\s*,\s*Deviation:\s*(\d{1,2})\s*,\s*Feasibility:\s*(\d{1,2})\s*\]`)
	// optionMarkerRe strips "Option N:" style or numbered-list prefixes when
	// recovering option text without scores.
	optionMarkerRe = regexp.MustCompile(`(?i)^\s*(?:option\s*\d+\s*[:.)-]\s*|\d+\s*[.)]\s*)`)
)

// #endregion constants

// #region parser

// Parser converts raw model output into typed stage records. It holds no
// mutable state: Parse is pure and idempotent.
type Parser struct {
	mode ResponseMode
}

// New creates a parser for the given response mode.
func New(mode ResponseMode) *Parser {
	return &Parser{mode: mode}
}

// Mode reports the configured response mode.
func (p *Parser) Mode() ResponseMode {
	return p.mode
}

// Parse extracts the typed records a stage expects from raw model output.
// A raw text starting with the gateway's failure prefix short-circuits to
// UpstreamError before any parsing.
func (p *Parser) Parse(raw string, stage Stage) (Records, error) {
	if strings.HasPrefix(strings.TrimSpace(raw), upstreamPrefix) {
		return Records{}, &UpstreamError{Raw: strings.TrimSpace(raw)}
	}
	if p.mode == ModeStructured {
		return parseStructured(raw, stage)
	}
	return parseDelimited(raw, stage)
}

// #endregion parser

// #region delimited

func parseDelimited(raw string, stage Stage) (Records, error) {
	sections := splitSections(raw)

	want := 2
	if stage == StageDashboard || stage == StageRefine {
		want = 3
	}
	if len(sections) < want {
		return Records{}, &StructureError{
			Raw:    raw,
			Reason: fmt.Sprintf("stage %s expects %d sections, got %d", stage, want, len(sections)),
		}
	}

	var rec Records
	switch stage {
	case StageScenarios:
		rec.Problems = parseProblems(sections[0])
		rec.Scenarios = parseScenarios(sections[1])
	case StageDashboard, StageRefine:
		rec.Problems = parseProblems(sections[0])
		rec.Improvements = parseImprovements(sections[1])
		rec.RevisedPlan = strings.TrimSpace(sections[2])
	case StageFollowup:
		rec.Tasks = parseTasks(sections[0])
		rec.Advice = strings.TrimSpace(sections[1])
	}
	return rec, nil
}

func splitSections(raw string) []string {
	parts := strings.Split(raw, sectionSep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// #endregion delimited

// #region record-parsing

// splitRecords yields the field slices of every record fragment that carries
// at least one field separator. Fragments without one are noise, not errors.
func splitRecords(section string) [][]string {
	var records [][]string
	for _, frag := range strings.Split(section, recordSep) {
		if !strings.Contains(frag, fieldSep) {
			continue
		}
		fields := strings.Split(frag, fieldSep)
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		records = append(records, fields)
	}
	return records
}

func parseProblems(section string) []timeline.Problem {
	var out []timeline.Problem
	for _, f := range splitRecords(section) {
		out = append(out, timeline.Problem{Title: f[0], Description: f[1]})
	}
	return out
}

func parseImprovements(section string) []timeline.Improvement {
	var out []timeline.Improvement
	for _, f := range splitRecords(section) {
		out = append(out, timeline.Improvement{Title: f[0], Description: f[1]})
	}
	return out
}

// parseScenarios requires at least 5 fields per record: title, description,
// and three option blocks. Shorter records are dropped.
func parseScenarios(section string) []timeline.Scenario {
	var out []timeline.Scenario
	for _, f := range splitRecords(section) {
		if len(f) < 5 {
			continue
		}
		sc := timeline.Scenario{Title: f[0], Description: f[1]}
		for _, block := range f[2:5] {
			sc.Options = append(sc.Options, parseOption(block))
		}
		out = append(out, sc)
	}
	return out
}

// parseTasks requires title, duration, and instruction fields.
func parseTasks(section string) []timeline.FollowupTask {
	var out []timeline.FollowupTask
	for _, f := range splitRecords(section) {
		if len(f) < 3 {
			continue
		}
		out = append(out, timeline.FollowupTask{Title: f[0], Duration: f[1], Instruction: f[2]})
	}
	return out
}

// #endregion record-parsing

// #region options

// parseOption extracts the option text and its bracketed scores. When score
// extraction fails the fallback recovers bare option text without scores.
func parseOption(block string) timeline.Option {
	m := scoreRe.FindStringSubmatchIndex(block)
	if m == nil {
		return timeline.Option{Text: recoverOptionText(block)}
	}

	text := strings.TrimSpace(block[:m[0]] + block[m[1]:])
	text = optionMarkerRe.ReplaceAllString(text, "")

	stress, _ := strconv.Atoi(block[m[2]:m[3]])
	deviation, _ := strconv.Atoi(block[m[4]:m[5]])
	feasibility, _ := strconv.Atoi(block[m[6]:m[7]])

	return timeline.Option{
		Text: strings.TrimSpace(text),
		Scores: timeline.OptionScores{
			Stress:      stress,
			Deviation:   deviation,
			Feasibility: feasibility,
		},
	}
}

// recoverOptionText strips "Option N:" or numbered-list markers so at least
// the option text survives a malformed score block.
func recoverOptionText(block string) string {
	return strings.TrimSpace(optionMarkerRe.ReplaceAllString(strings.TrimSpace(block), ""))
}

// #endregion options
