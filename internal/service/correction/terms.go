package correction

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTerm is returned for a terms file entry without a canonical
// form or without variants.
var ErrInvalidTerm = errors.New("invalid term entry")

type termsFile struct {
	Terms Dictionary `yaml:"terms"`
}

// LoadTerms reads additional technical terms from a YAML file:
//
//	terms:
//	  - canonical: Kubernetes
//	    variants: [cooper netties, kubernetes]
func LoadTerms(path string) (Dictionary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read terms file: %w", err)
	}
	return ParseTerms(data)
}

// ParseTerms decodes and validates a YAML terms document.
func ParseTerms(data []byte) (Dictionary, error) {
	var f termsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse terms file: %w", err)
	}

	for i, e := range f.Terms {
		if strings.TrimSpace(e.Canonical) == "" {
			return nil, fmt.Errorf("term %d: %w: empty canonical", i, ErrInvalidTerm)
		}
		n := 0
		for _, v := range e.Variants {
			if strings.TrimSpace(v) != "" {
				n++
			}
		}
		if n == 0 {
			return nil, fmt.Errorf("term %d (%s): %w: no variants", i, e.Canonical, ErrInvalidTerm)
		}
	}
	return f.Terms, nil
}
