// Package responder picks canned support replies for customer messages.
package responder

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRules []byte

type Rule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Reply    string   `yaml:"reply"`
}

type RuleSet struct {
	Rules    []Rule   `yaml:"rules"`
	Fallback []string `yaml:"fallback"`
}

type Responder struct {
	rules    []Rule
	fallback []string
	pick     func(n int) int
}

func New(set RuleSet) (*Responder, error) {
	if len(set.Fallback) == 0 {
		return nil, errors.New("at least one fallback reply is required")
	}
	rules := make([]Rule, 0, len(set.Rules))
	for i, rule := range set.Rules {
		if rule.Reply == "" {
			return nil, fmt.Errorf("rule %d (%s): empty reply", i, rule.Name)
		}
		keywords := make([]string, 0, len(rule.Keywords))
		for _, k := range rule.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				keywords = append(keywords, k)
			}
		}
		if len(keywords) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no keywords", i, rule.Name)
		}
		rule.Keywords = keywords
		rules = append(rules, rule)
	}
	return &Responder{
		rules:    rules,
		fallback: set.Fallback,
		pick:     rand.IntN,
	}, nil
}

func Parse(data []byte) (*Responder, error) {
	var set RuleSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return New(set)
}

// Load reads rules from path, or the built-in rules when path is empty.
func Load(path string) (*Responder, error) {
	if path == "" {
		return Parse(defaultRules)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return Parse(data)
}

func Default() *Responder {
	r, err := Parse(defaultRules)
	if err != nil {
		panic(err)
	}
	return r
}

// Classify returns the reply of the first matching rule, or a random fallback.
func (r *Responder) Classify(text string) string {
	lower := strings.ToLower(text)
	for _, rule := range r.rules {
		for _, k := range rule.Keywords {
			if strings.Contains(lower, k) {
				return rule.Reply
			}
		}
	}
	return r.fallback[r.pick(len(r.fallback))]
}

// Fallback returns a copy of the fallback pool.
func (r *Responder) Fallback() []string {
	return append([]string(nil), r.fallback...)
}

// Reply returns the reply of the named rule.
func (r *Responder) Reply(name string) (string, bool) {
	for _, rule := range r.rules {
		if rule.Name == name {
			return rule.Reply, true
		}
	}
	return "", false
}
