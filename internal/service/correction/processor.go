package correction

import (
	"regexp"
	"strings"
)

// Stage names, in pipeline order.
const (
	StageCleanup    = "cleanup"
	StageHomophones = "homophones"
	StageGrammar    = "grammar"
	StageTechnical  = "technical"
)

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	sentenceStartRe = regexp.MustCompile(`(?:^|[.!?]\s+)\p{Ll}`)
	dollarsRe       = regexp.MustCompile(`(\d) dollars\b`)
	percentRe       = regexp.MustCompile(`(\d) percent\b`)
	fillerRe        = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoteAll(fillers), "|") + `)\b`)
	missingSpaceRe  = regexp.MustCompile(`([.!?])([A-Z])`)
	doubleNegRe     = regexp.MustCompile(`(?i)\b(don't|cannot|can't)\s+(no|none|nothing|never|nobody)\b`)
)

// Stage is one named rewriting pass.
type Stage struct {
	Name  string
	Apply func(string) string
}

// StageOutput is the text produced by a single stage.
type StageOutput struct {
	Stage string `json:"stage"`
	Text  string `json:"text"`
}

// Processor runs the fixed four-stage pipeline. A Processor is immutable
// once built and safe for concurrent use.
type Processor struct {
	homophones []Rule
	technical  []Rule
	stages     []Stage
}

// Option customizes a Processor.
type Option func(*options)

type options struct {
	extraTerms Dictionary
}

// WithExtraTerms appends entries to the technical-term stage of the
// processor being built. Built-in dictionaries are left untouched.
func WithExtraTerms(d Dictionary) Option {
	return func(o *options) {
		o.extraTerms = append(o.extraTerms, d.clone()...)
	}
}

// New builds a processor over the built-in dictionaries.
func New(opts ...Option) *Processor {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	technical := append(technicalTerms.clone(), o.extraTerms...)
	p := &Processor{
		homophones: compileRules(homophones, false),
		technical:  compileRules(technical, true),
	}
	p.stages = []Stage{
		{Name: StageCleanup, Apply: cleanup},
		{Name: StageHomophones, Apply: func(s string) string { return applyRules(p.homophones, s) }},
		{Name: StageGrammar, Apply: grammar},
		{Name: StageTechnical, Apply: func(s string) string { return applyRules(p.technical, s) }},
	}
	return p
}

var defaultProcessor = New()

// Process runs raw through the default processor.
func Process(raw string) string {
	return defaultProcessor.Process(raw)
}

// Process rewrites one raw transcript segment. It never fails; text that
// matches nothing passes through with only whitespace normalized.
func (p *Processor) Process(raw string) string {
	text := raw
	for _, st := range p.stages {
		text = st.Apply(text)
	}
	return text
}

// Trace returns the output of every stage in order. The last element is
// what Process returns.
func (p *Processor) Trace(raw string) []StageOutput {
	out := make([]StageOutput, 0, len(p.stages))
	text := raw
	for _, st := range p.stages {
		text = st.Apply(text)
		out = append(out, StageOutput{Stage: st.Name, Text: text})
	}
	return out
}

// Stages returns the stage names in the order they run.
func (p *Processor) Stages() []string {
	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.Name
	}
	return names
}

// HomophoneRules returns the compiled homophone rules.
func (p *Processor) HomophoneRules() []Rule {
	return append([]Rule(nil), p.homophones...)
}

// TechnicalRules returns the compiled technical-term rules.
func (p *Processor) TechnicalRules() []Rule {
	return append([]Rule(nil), p.technical...)
}

func applyRules(rules []Rule, text string) string {
	for _, r := range rules {
		text = r.Apply(text)
	}
	return text
}

func cleanup(text string) string {
	text = collapseSpaces(text)
	text = capitalizeSentences(text)
	text = dollarsRe.ReplaceAllString(text, "$1$$")
	text = percentRe.ReplaceAllString(text, "$1%")
	text = fillerRe.ReplaceAllString(text, "")
	return collapseSpaces(text)
}

func grammar(text string) string {
	text = missingSpaceRe.ReplaceAllString(text, "$1 $2")
	text = doubleNegRe.ReplaceAllStringFunc(text, rewriteDoubleNegative)
	return capitalizeSentences(text)
}

// rewriteDoubleNegative only knows two phrasings; every other combination
// is returned unchanged.
func rewriteDoubleNegative(match string) string {
	m := doubleNegRe.FindStringSubmatch(match)
	if m == nil {
		return match
	}
	neg, obj := strings.ToLower(m[1]), strings.ToLower(m[2])
	switch {
	case neg == "don't" && obj == "nothing":
		return "do something"
	case neg == "can't" && obj == "never":
		return "can never"
	}
	return match
}

func collapseSpaces(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

func capitalizeSentences(text string) string {
	return sentenceStartRe.ReplaceAllStringFunc(text, strings.ToUpper)
}

func quoteAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = regexp.QuoteMeta(w)
	}
	return out
}
