package correction

import (
	"strings"
	"testing"
)

func TestHomophoneRules_ReplaceWithFixedCase(t *testing.T) {
	for _, r := range New().HomophoneRules() {
		if r.PreserveCase {
			t.Errorf("homophone rule %q should not preserve case", r.Variant)
		}
		in := "say " + r.Variant + " now"
		if got, want := r.Apply(in), "say "+r.Canonical+" now"; got != want {
			t.Errorf("rule %q: Apply(%q) = %q, want %q", r.Variant, in, got, want)
		}
		upper := "SAY " + strings.ToUpper(r.Variant) + " NOW"
		if got, want := r.Apply(upper), "SAY "+r.Canonical+" NOW"; got != want {
			t.Errorf("rule %q: Apply(%q) = %q, want %q", r.Variant, upper, got, want)
		}
	}
}

func TestTechnicalRules_PreserveCasePattern(t *testing.T) {
	for _, r := range New().TechnicalRules() {
		if !r.PreserveCase {
			t.Errorf("technical rule %q should preserve case", r.Variant)
		}
		lower := "say " + r.Variant + " now"
		if got, want := r.Apply(lower), "say "+r.Canonical+" now"; got != want {
			t.Errorf("rule %q: Apply(%q) = %q, want %q", r.Variant, lower, got, want)
		}
		upper := "SAY " + strings.ToUpper(r.Variant) + " NOW"
		if got, want := r.Apply(upper), "SAY "+strings.ToUpper(r.Canonical)+" NOW"; got != want {
			t.Errorf("rule %q: Apply(%q) = %q, want %q", r.Variant, upper, got, want)
		}
	}
}

func TestRules_WholeWordOnly(t *testing.T) {
	p := New()
	rules := append(p.HomophoneRules(), p.TechnicalRules()...)
	for _, r := range rules {
		embedded := "x" + r.Variant + "x"
		if r.Matches(embedded) {
			t.Errorf("rule %q should not match inside %q", r.Variant, embedded)
		}
	}
}

func TestRules_VariantsMatchedLiterally(t *testing.T) {
	var apiRule *Rule
	for _, r := range New().HomophoneRules() {
		if r.Variant == "a.p.i" {
			r := r
			apiRule = &r
		}
	}
	if apiRule == nil {
		t.Fatal("expected a homophone rule for 'a.p.i'")
	}
	if apiRule.Matches("axpxi") {
		t.Error("dots in variants must not act as wildcards")
	}
	if !apiRule.Matches("the a.p.i works") {
		t.Error("expected literal match for 'a.p.i'")
	}
}

func TestRule_NonWordEdge(t *testing.T) {
	rules := compileRules(Dictionary{{Canonical: "C++", Variants: []string{"c++"}}}, true)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	r := rules[0]

	tests := []struct {
		in   string
		want string
	}{
		{"c++", "C++"},
		{"i know c++ well", "i know C++ well"},
		{"i know c++, java", "i know C++, java"},
		{"c++x", "c++x"},
		{"abc++", "abc++"},
	}
	for _, tt := range tests {
		if got := r.Apply(tt.in); got != tt.want {
			t.Errorf("Apply(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMatchCase(t *testing.T) {
	tests := []struct {
		match, canonical, want string
	}{
		{"JAVASCRIPT", "JavaScript", "JAVASCRIPT"},
		{"Javascript", "JavaScript", "JavaScript"},
		{"javascript", "JavaScript", "JavaScript"},
		{"Hash table", "Hash Table", "Hash Table"},
		{"api", "API", "API"},
		{"Mongo db", "MongoDB", "MongoDB"},
		{"graphql", "GraphQL", "GraphQL"},
	}
	for _, tt := range tests {
		if got := matchCase(tt.match, tt.canonical); got != tt.want {
			t.Errorf("matchCase(%q, %q) = %q, want %q", tt.match, tt.canonical, got, tt.want)
		}
	}
}

func TestCompileRules_SkipsBlankVariants(t *testing.T) {
	rules := compileRules(Dictionary{{Canonical: "Go", Variants: []string{"", "  ", "golang"}}}, true)
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(rules))
	}
	if rules[0].Variant != "golang" {
		t.Errorf("expected variant 'golang', got %q", rules[0].Variant)
	}
}

func TestDictionaries_ReturnCopies(t *testing.T) {
	h := Homophones()
	h[0].Variants[0] = "mutated"
	if Homophones()[0].Variants[0] != "there" {
		t.Error("Homophones() must return a copy")
	}

	tt := TechnicalTerms()
	tt[0].Canonical = "mutated"
	if TechnicalTerms()[0].Canonical != "JavaScript" {
		t.Error("TechnicalTerms() must return a copy")
	}

	f := Fillers()
	f[0] = "mutated"
	if Fillers()[0] != "um" {
		t.Error("Fillers() must return a copy")
	}
}
