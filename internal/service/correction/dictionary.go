// Package correction rewrites raw speech-to-text segments into cleaner,
// terminology-correct transcript text.
package correction

// Entry maps one canonical term to the mis-transcriptions that should be
// rewritten to it.
type Entry struct {
	Canonical string   `yaml:"canonical"`
	Variants  []string `yaml:"variants"`
}

// Dictionary is an ordered list of entries. Order only matters for
// readability: entries target disjoint variants.
type Dictionary []Entry

// clone returns a deep copy so callers can never mutate package tables.
func (d Dictionary) clone() Dictionary {
	out := make(Dictionary, len(d))
	for i, e := range d {
		out[i] = Entry{
			Canonical: e.Canonical,
			Variants:  append([]string(nil), e.Variants...),
		}
	}
	return out
}

// homophones are general mis-hearings common in technical interviews.
// Replacements use the canonical spelling as written.
var homophones = Dictionary{
	{Canonical: "their", Variants: []string{"there", "they're"}},
	{Canonical: "queue", Variants: []string{"q", "cue"}},
	{Canonical: "algorithm", Variants: []string{"outro rhythm", "al gore rhythm"}},
	{Canonical: "boolean", Variants: []string{"bullion", "boolean"}},
	{Canonical: "cache", Variants: []string{"cash"}},
	{Canonical: "parameter", Variants: []string{"perimeter"}},
	{Canonical: "function", Variants: []string{"function"}},
	{Canonical: "integer", Variants: []string{"inter jur", "interger"}},
	{Canonical: "syntax", Variants: []string{"sin tax", "sin tacks"}},
	{Canonical: "api", Variants: []string{"a.p.i", "apie"}},
	{Canonical: "sequel", Variants: []string{"sql"}},
	{Canonical: "JavaScript", Variants: []string{"java script", "java scripts", "javascript"}},
	{Canonical: "Python", Variants: []string{"pie thon", "python"}},
	{Canonical: "React", Variants: []string{"re-act", "react"}},
}

// technicalTerms covers languages, web stack, data structures, algorithms,
// databases, cloud and API vocabulary. Replacements keep the case pattern
// of the matched text.
var technicalTerms = Dictionary{
	// Programming languages
	{Canonical: "JavaScript", Variants: []string{"java script", "java scripts", "javascript"}},
	{Canonical: "TypeScript", Variants: []string{"type script", "typescript"}},
	{Canonical: "Python", Variants: []string{"pie thon", "python"}},
	{Canonical: "Java", Variants: []string{"java"}},
	{Canonical: "C++", Variants: []string{"c plus plus", "c++", "cplusplus", "see plus plus"}},

	// Web development
	{Canonical: "HTML", Variants: []string{"h.t.m.l", "html", "h t m l"}},
	{Canonical: "CSS", Variants: []string{"c.s.s", "css", "c s s"}},
	{Canonical: "React", Variants: []string{"re act", "react"}},
	{Canonical: "Angular", Variants: []string{"angular"}},
	{Canonical: "Vue", Variants: []string{"view", "vue"}},

	// Data structures
	{Canonical: "Array", Variants: []string{"array", "arrays"}},
	{Canonical: "Object", Variants: []string{"object", "objects"}},
	{Canonical: "LinkedList", Variants: []string{"linked list", "link list"}},
	{Canonical: "Hash Table", Variants: []string{"hash table", "hashtable"}},

	// Algorithms
	{Canonical: "Recursion", Variants: []string{"recursion", "re-cursion"}},
	{Canonical: "Algorithm", Variants: []string{"algorithm", "algo rhythm"}},
	{Canonical: "Dynamic Programming", Variants: []string{"dynamic programming", "dynamic-programming"}},

	// Databases
	{Canonical: "SQL", Variants: []string{"s.q.l", "sequel", "sql"}},
	{Canonical: "MongoDB", Variants: []string{"mongo db", "mongodb", "mongo"}},
	{Canonical: "Database", Variants: []string{"data base", "database"}},

	// Cloud
	{Canonical: "AWS", Variants: []string{"a.w.s", "aws", "a w s"}},
	{Canonical: "Azure", Variants: []string{"azure", "as your"}},

	// Concepts
	{Canonical: "API", Variants: []string{"a.p.i", "api", "a p i"}},
	{Canonical: "REST", Variants: []string{"rest", "r.e.s.t", "r e s t"}},
	{Canonical: "GraphQL", Variants: []string{"graph q l", "graphql", "graph-q-l"}},
}

// fillers are dropped from every segment as whole words or phrases.
var fillers = []string{"um", "uh", "like", "you know", "i mean", "actually"}

// Homophones returns a copy of the built-in homophone dictionary.
func Homophones() Dictionary {
	return homophones.clone()
}

// TechnicalTerms returns a copy of the built-in technical dictionary.
func TechnicalTerms() Dictionary {
	return technicalTerms.clone()
}

// Fillers returns the filler words and phrases removed during cleanup.
func Fillers() []string {
	return append([]string(nil), fillers...)
}
