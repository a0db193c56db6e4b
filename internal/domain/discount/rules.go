package discount

import (
	"encoding/json"
	"os"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ruleFile is the on-disk shape of a discount rules file, as produced by
// cmd/discount-ingest.
type ruleFile struct {
	Rules []ruleEntry `json:"rules"`
}

type ruleEntry struct {
	Code  string          `json:"code"`
	Title string          `json:"title"`
	Type  EffectType      `json:"type"`
	Value decimal.Decimal `json:"value"`
}

// LoadRules reads additional discount rules from a JSON file.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read rules file %s", path)
	}

	var f ruleFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse rules file %s", path)
	}

	rules := make([]Rule, 0, len(f.Rules))
	for _, e := range f.Rules {
		r := Rule{Code: e.Code, Title: e.Title, Type: e.Type, Value: e.Value}
		if err := r.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}

// WriteRules writes a discount rules file in the format LoadRules reads.
func WriteRules(path string, rules []Rule) error {
	f := ruleFile{Rules: make([]ruleEntry, 0, len(rules))}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return err
		}
		f.Rules = append(f.Rules, ruleEntry{Code: r.Code, Title: r.Title, Type: r.Type, Value: r.Value})
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal rules")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "write rules file %s", path)
	}
	return nil
}
