package correction

import (
	"strings"
	"sync"
	"testing"
)

func TestProcess_Empty(t *testing.T) {
	for _, in := range []string{"", " ", "\t\n  "} {
		if got := Process(in); got != "" {
			t.Errorf("Process(%q) = %q, want empty", in, got)
		}
	}
}

func TestProcess_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"fillers removed, language kept", "um so i think javascript is like the best", "So i think JavaScript is the best"},
		{"databases", "i want to learn sequel and mongo db", "I want to learn SQL and MongoDB"},
		{"api and rest", "the api uses rest", "The API uses REST"},
		{"homophone their", "there going to use boolean logic", "Their going to use boolean logic"},
		{"dollars", "it costs 5 dollars", "It costs 5$"},
		{"percent", "we grew 50 percent", "We grew 50%"},
		{"double negative rewritten", "i don't nothing wrong", "I do something wrong"},
		{"can't never", "you can't never stop", "You can never stop"},
		{"other double negative kept", "i can't no longer wait", "I can't no longer wait"},
		{"space after punctuation", "hello.World", "Hello. World"},
		{"c plus plus", "i know c plus plus and c++ well", "I know C++ and C++ well"},
		{"parameter", "my function takes a perimeter", "My function takes a parameter"},
		{"data structures", "store it in a hashtable or a linked list", "Store it in a Hash Table or a LinkedList"},
		{"all caps preserved", "I USE MONGODB", "I USE MONGODB"},
		{"capitalized preserved", "Mongo db is fast", "MongoDB is fast"},
		{"capitalized camel case", "Typescript rocks", "TypeScript rocks"},
		{"whitespace collapsed", "  the   cash   is\tcold ", "The cache is cold"},
		{"sentence starts", "first. second! third? fourth", "First. Second! Third? Fourth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Process(tt.in); got != tt.want {
				t.Errorf("Process(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestProcess_FillersAreWholeWords(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"i likely know", "I likely know"},
		{"bring an umbrella", "Bring an umbrella"},
		{"UM I MEAN it works", "It works"},
		{"you know it is actually fine", "It is fine"},
	}

	for _, tt := range tests {
		if got := Process(tt.in); got != tt.want {
			t.Errorf("Process(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestProcess_FillersAbsentFromOutput(t *testing.T) {
	inputs := []string{
		"um i would use a queue",
		"uh the like button",
		"so you know it scales",
		"i mean the cache works",
		"actually recursion is fine",
	}
	for _, in := range inputs {
		out := " " + strings.ToLower(Process(in)) + " "
		for _, f := range Fillers() {
			if strings.Contains(out, " "+f+" ") {
				t.Errorf("Process(%q) = %q still contains filler %q", in, out, f)
			}
		}
	}
}

// Homophones run before technical terms, so a homophone variant inside a
// technical phrase wins.
func TestProcess_StageOrderDecidesOverlaps(t *testing.T) {
	got := Process("i use graph q l")
	if got != "I use graph queue l" {
		t.Errorf("expected homophone stage to claim 'q', got %q", got)
	}

	got = Process("sql is great")
	if got != "SQL is great" {
		t.Errorf("expected technical stage to have the final say on 'sequel', got %q", got)
	}
}

// Grammar splits upper-case dotted acronyms before the technical stage
// runs, so only the lower-case spelling is normalised.
func TestProcess_GrammarSplitsUpperCaseDottedTerms(t *testing.T) {
	if got := Process("I KNOW H.T.M.L"); got != "I KNOW H. T. M. L" {
		t.Errorf("expected dotted acronym split by grammar, got %q", got)
	}
	if got := Process("i know h.t.m.l"); got != "I know HTML" {
		t.Errorf("expected lower-case dotted acronym normalised, got %q", got)
	}
}

func TestProcess_Idempotent(t *testing.T) {
	inputs := []string{
		"um so i think javascript is like the best",
		"i want to learn sequel and mongo db",
		"the api uses rest",
		"there going to use boolean logic",
		"it costs 5 dollars and 50 percent more",
		"i don't nothing wrong. you can't never stop",
		"hello.World",
		"i know c plus plus and c++ well",
		"a.p.i design with graph q l",
		"store it in a hashtable or a linked list",
		"I USE MONGODB",
		"they're using re-act with type script on a w s",
		"ok. um yes the q is empty",
	}

	for _, in := range inputs {
		once := Process(in)
		twice := Process(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q -> %q", in, once, twice)
		}
	}
}

// A technical term glued to a period is capitalized by the last stage, so
// only a second pass sees the missing space.
func TestProcess_NotIdempotentForTermAfterPeriod(t *testing.T) {
	once := Process("i saved the file.java yesterday")
	if once != "I saved the file.Java yesterday" {
		t.Fatalf("unexpected first pass: %q", once)
	}
	if twice := Process(once); twice != "I saved the file. Java yesterday" {
		t.Errorf("unexpected second pass: %q", twice)
	}
}

func TestProcessor_Trace(t *testing.T) {
	p := New()
	in := "um the api uses rest"

	trace := p.Trace(in)
	wantStages := []string{StageCleanup, StageHomophones, StageGrammar, StageTechnical}
	if len(trace) != len(wantStages) {
		t.Fatalf("expected %d stages, got %d", len(wantStages), len(trace))
	}
	for i, st := range wantStages {
		if trace[i].Stage != st {
			t.Errorf("stage %d: expected %s, got %s", i, st, trace[i].Stage)
		}
	}
	// Capitalization runs before filler removal inside cleanup.
	if trace[0].Text != "the api uses rest" {
		t.Errorf("unexpected cleanup output: %q", trace[0].Text)
	}
	if trace[2].Text != "The api uses rest" {
		t.Errorf("unexpected grammar output: %q", trace[2].Text)
	}
	if last := trace[len(trace)-1].Text; last != p.Process(in) {
		t.Errorf("last trace entry %q differs from Process %q", last, p.Process(in))
	}
}

func TestProcessor_Stages(t *testing.T) {
	got := New().Stages()
	want := []string{StageCleanup, StageHomophones, StageGrammar, StageTechnical}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected stages %v, got %v", want, got)
	}
}

func TestProcessor_WithExtraTerms(t *testing.T) {
	p := New(WithExtraTerms(Dictionary{
		{Canonical: "Kubernetes", Variants: []string{"cooper netties", "kubernetes"}},
	}))

	if got := p.Process("we deploy on cooper netties"); got != "We deploy on Kubernetes" {
		t.Errorf("expected extra term applied, got %q", got)
	}
	if got := Process("we deploy on cooper netties"); got != "We deploy on cooper netties" {
		t.Errorf("default processor must not see extra terms, got %q", got)
	}
}

func TestProcess_Concurrent(t *testing.T) {
	in := "um i want to learn sequel and mongo db"
	want := Process(in)

	var wg sync.WaitGroup
	errs := make(chan string, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := Process(in); got != want {
				errs <- got
			}
		}()
	}
	wg.Wait()
	close(errs)

	for got := range errs {
		t.Errorf("concurrent Process returned %q, want %q", got, want)
	}
}
