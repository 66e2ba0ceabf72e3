// Package rules translates validation rules into the JSON Schema keywords that express them.
//
// A rule usually maps to several candidate keywords because its meaning depends on the type of
// the value it validates: "min:3" is a minimum length for strings, a minimum item count for
// arrays and a minimum value for numbers. Callers apply every candidate the target schema supports.
package rules

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/speakeasy-api/dtoschema/descriptor"
	"github.com/speakeasy-api/dtoschema/errors"
	"github.com/speakeasy-api/dtoschema/schema"
	"github.com/speakeasy-api/dtoschema/sequencedmap"
)

const (
	// ErrUnknownRule is returned for rules no translation is registered for.
	ErrUnknownRule = errors.Error("unknown rule")
	// ErrInvalidRuleArgument is returned when a rule's arguments cannot be translated.
	ErrInvalidRuleArgument = errors.Error("invalid rule argument")
)

// Fact is a candidate keyword value derived from a rule.
type Fact struct {
	Keyword string
	Value   any
}

// Translator turns a rule into candidate keyword facts.
type Translator interface {
	Translate(r descriptor.Rule) ([]Fact, error)
}

// TranslatorFunc adapts a function to a Translator.
type TranslatorFunc func(r descriptor.Rule) ([]Fact, error)

func (f TranslatorFunc) Translate(r descriptor.Rule) ([]Fact, error) {
	return f(r)
}

// Func translates the arguments of one rule.
type Func func(args []string) ([]Fact, error)

// Registry is a Translator dispatching on the rule name. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

var _ Translator = (*Registry)(nil)

// NewRegistry returns a registry holding the built-in translations.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Func, len(builtins))}
	for name, fn := range builtins {
		r.funcs[name] = fn
	}
	return r
}

// Register adds or replaces the translation of a rule.
func (r *Registry) Register(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.funcs[strings.ToLower(name)] = fn
}

// Translate returns the facts for a rule. Presence and type rules such as "required" or "string"
// translate to no facts. Rules without a translation fail with ErrUnknownRule.
func (r *Registry) Translate(rule descriptor.Rule) ([]Fact, error) {
	if presenceRules[rule.Name] {
		return nil, nil
	}

	r.mu.RLock()
	fn, ok := r.funcs[rule.Name]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrUnknownRule.Wrapf("%q", rule.Name)
	}

	facts, err := fn(rule.Args)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", rule, err)
	}
	return facts, nil
}

var defaultRegistry = NewRegistry()

// Translate translates a rule with the built-in translations.
func Translate(rule descriptor.Rule) ([]Fact, error) {
	return defaultRegistry.Translate(rule)
}

// presenceRules constrain presence or are already expressed by the declared type.
var presenceRules = map[string]bool{
	"required":  true,
	"nullable":  true,
	"sometimes": true,
	"present":   true,
	"filled":    true,
	"bail":      true,
	"string":    true,
	"integer":   true,
	"numeric":   true,
	"boolean":   true,
	"array":     true,
}

const (
	patternULID       = `^[0-7][0-9A-HJKMNP-TV-Za-hjkmnp-tv-z]{25}$`
	patternIP         = `^(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)(?:\.(?:25[0-5]|2[0-4]\d|1?\d?\d)){3}|[0-9A-Fa-f:.]*:[0-9A-Fa-f:.]*)$`
	patternAlpha      = `^[\p{L}\p{M}]+$`
	patternAlphaNum   = `^[\p{L}\p{M}\p{N}]+$`
	patternAlphaDash  = `^[\p{L}\p{M}\p{N}_-]+$`
	patternLowercase  = `^[^\p{Lu}]*$`
	patternUppercase  = `^[^\p{Ll}]*$`
	patternHexColor   = `^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`
	patternMACAddress = `^(?:[0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}$`
	patternTimezone   = `^(?:UTC|[A-Z][A-Za-z_]+(?:/[A-Za-z0-9_+-]+)+)$`
)

var builtins = map[string]Func{
	"min":            bound(minimumKeywords),
	"max":            bound(maximumKeywords),
	"gte":            bound(minimumKeywords),
	"lte":            bound(maximumKeywords),
	"gt":             exclusive(schema.KeywordExclusiveMinimum, minimumKeywords, 1),
	"lt":             exclusive(schema.KeywordExclusiveMaximum, maximumKeywords, -1),
	"between":        between,
	"size":           size,
	"regex":          regex,
	"not_regex":      notRegex,
	"email":          constant(schema.KeywordFormat, "email"),
	"url":            constant(schema.KeywordFormat, "uri"),
	"uuid":           constant(schema.KeywordFormat, "uuid"),
	"ipv4":           constant(schema.KeywordFormat, "ipv4"),
	"ipv6":           constant(schema.KeywordFormat, "ipv6"),
	"date":           constant(schema.KeywordFormat, "date"),
	"ulid":           constant(schema.KeywordPattern, patternULID),
	"ip":             constant(schema.KeywordPattern, patternIP),
	"alpha":          constant(schema.KeywordPattern, patternAlpha),
	"alpha_num":      constant(schema.KeywordPattern, patternAlphaNum),
	"alpha_dash":     constant(schema.KeywordPattern, patternAlphaDash),
	"lowercase":      constant(schema.KeywordPattern, patternLowercase),
	"uppercase":      constant(schema.KeywordPattern, patternUppercase),
	"hex_color":      constant(schema.KeywordPattern, patternHexColor),
	"mac_address":    constant(schema.KeywordPattern, patternMACAddress),
	"timezone":       constant(schema.KeywordPattern, patternTimezone),
	"distinct":       constant(schema.KeywordUniqueItems, true),
	"json":           constant(schema.KeywordContentMediaType, "application/json"),
	"accepted":       constant(schema.KeywordEnum, []any{true, 1, "1", "yes", "on", "true"}),
	"declined":       constant(schema.KeywordEnum, []any{false, 0, "0", "no", "off", "false"}),
	"digits":         digits,
	"digits_between": digitsBetween,
	"min_digits":     minDigits,
	"max_digits":     maxDigits,
	"starts_with":    affix("^(?:%s)"),
	"ends_with":      affix("(?:%s)$"),
	"in":             in,
	"not_in":         notIn,
	"multiple_of":    multipleOf,
}

var (
	minimumKeywords = boundKeywords{
		value:  schema.KeywordMinimum,
		counts: []string{schema.KeywordMinLength, schema.KeywordMinItems, schema.KeywordMinProperties},
	}
	maximumKeywords = boundKeywords{
		value:  schema.KeywordMaximum,
		counts: []string{schema.KeywordMaxLength, schema.KeywordMaxItems, schema.KeywordMaxProperties},
	}
)

// boundKeywords are the keywords bounding numbers by value and strings, arrays and objects by size.
type boundKeywords struct {
	value  string
	counts []string
}

// facts bounds numbers by n and sizes by n shifted by countOffset. Sizes are skipped when n is not
// a whole number or the shifted size is negative.
func (b boundKeywords) facts(n float64, valueKeyword string, countOffset int64) []Fact {
	var facts []Fact

	if isWhole(n) {
		if count := int64(n) + countOffset; count >= 0 {
			for _, kw := range b.counts {
				facts = append(facts, Fact{Keyword: kw, Value: count})
			}
		}
	}

	return append(facts, Fact{Keyword: valueKeyword, Value: numberValue(n)})
}

func bound(b boundKeywords) Func {
	return func(args []string) ([]Fact, error) {
		n, err := singleNumber(args)
		if err != nil {
			return nil, err
		}
		return b.facts(n, b.value, 0), nil
	}
}

func exclusive(valueKeyword string, b boundKeywords, countOffset int64) Func {
	return func(args []string) ([]Fact, error) {
		n, err := singleNumber(args)
		if err != nil {
			return nil, err
		}
		return b.facts(n, valueKeyword, countOffset), nil
	}
}

func between(args []string) ([]Fact, error) {
	if len(args) != 2 {
		return nil, ErrInvalidRuleArgument.Wrapf("expected 2 arguments, got %d", len(args))
	}
	lo, err := parseNumber(args[0])
	if err != nil {
		return nil, err
	}
	hi, err := parseNumber(args[1])
	if err != nil {
		return nil, err
	}
	if lo > hi {
		return nil, ErrInvalidRuleArgument.Wrapf("lower bound %v is greater than upper bound %v", lo, hi)
	}

	return append(minimumKeywords.facts(lo, minimumKeywords.value, 0), maximumKeywords.facts(hi, maximumKeywords.value, 0)...), nil
}

func size(args []string) ([]Fact, error) {
	n, err := singleNumber(args)
	if err != nil {
		return nil, err
	}
	return append(minimumKeywords.facts(n, minimumKeywords.value, 0), maximumKeywords.facts(n, maximumKeywords.value, 0)...), nil
}

func constant(keyword string, value any) Func {
	return func([]string) ([]Fact, error) {
		return []Fact{{Keyword: keyword, Value: value}}, nil
	}
}

func regex(args []string) ([]Fact, error) {
	pattern, err := singlePattern(args)
	if err != nil {
		return nil, err
	}
	return []Fact{{Keyword: schema.KeywordPattern, Value: pattern}}, nil
}

// notRegex scopes the negated pattern to strings so values of other types still validate.
func notRegex(args []string) ([]Fact, error) {
	pattern, err := singlePattern(args)
	if err != nil {
		return nil, err
	}
	not := sequencedmap.New(
		sequencedmap.NewElem[string, any](schema.KeywordType, string(schema.TypeString)),
		sequencedmap.NewElem[string, any](schema.KeywordPattern, pattern),
	)
	return []Fact{{Keyword: schema.KeywordNot, Value: not}}, nil
}

func digits(args []string) ([]Fact, error) {
	n, err := singleCount(args)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrInvalidRuleArgument.Wrapf("digit count must be positive")
	}
	return []Fact{
		{Keyword: schema.KeywordPattern, Value: fmt.Sprintf(`^\d{%d}$`, n)},
		{Keyword: schema.KeywordMinimum, Value: lowestWithDigits(n)},
		{Keyword: schema.KeywordMaximum, Value: highestWithDigits(n)},
	}, nil
}

func digitsBetween(args []string) ([]Fact, error) {
	if len(args) != 2 {
		return nil, ErrInvalidRuleArgument.Wrapf("expected 2 arguments, got %d", len(args))
	}
	lo, err := parseCount(args[0])
	if err != nil {
		return nil, err
	}
	hi, err := parseCount(args[1])
	if err != nil {
		return nil, err
	}
	if lo == 0 || lo > hi {
		return nil, ErrInvalidRuleArgument.Wrapf("invalid digit range %d-%d", lo, hi)
	}
	return []Fact{
		{Keyword: schema.KeywordPattern, Value: fmt.Sprintf(`^\d{%d,%d}$`, lo, hi)},
		{Keyword: schema.KeywordMinimum, Value: lowestWithDigits(lo)},
		{Keyword: schema.KeywordMaximum, Value: highestWithDigits(hi)},
	}, nil
}

func minDigits(args []string) ([]Fact, error) {
	n, err := singleCount(args)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrInvalidRuleArgument.Wrapf("digit count must be positive")
	}
	return []Fact{
		{Keyword: schema.KeywordPattern, Value: fmt.Sprintf(`^\d{%d,}$`, n)},
		{Keyword: schema.KeywordMinimum, Value: lowestWithDigits(n)},
	}, nil
}

func maxDigits(args []string) ([]Fact, error) {
	n, err := singleCount(args)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrInvalidRuleArgument.Wrapf("digit count must be positive")
	}
	return []Fact{
		{Keyword: schema.KeywordPattern, Value: fmt.Sprintf(`^\d{1,%d}$`, n)},
		{Keyword: schema.KeywordMaximum, Value: highestWithDigits(n)},
	}, nil
}

func affix(format string) Func {
	return func(args []string) ([]Fact, error) {
		if len(args) == 0 {
			return nil, ErrInvalidRuleArgument.Wrapf("expected at least 1 argument")
		}
		quoted := make([]string, 0, len(args))
		for _, a := range args {
			quoted = append(quoted, regexp.QuoteMeta(a))
		}
		return []Fact{{Keyword: schema.KeywordPattern, Value: fmt.Sprintf(format, strings.Join(quoted, "|"))}}, nil
	}
}

func in(args []string) ([]Fact, error) {
	if len(args) == 0 {
		return nil, ErrInvalidRuleArgument.Wrapf("expected at least 1 argument")
	}
	return []Fact{{Keyword: schema.KeywordEnum, Value: enumValues(args)}}, nil
}

func notIn(args []string) ([]Fact, error) {
	if len(args) == 0 {
		return nil, ErrInvalidRuleArgument.Wrapf("expected at least 1 argument")
	}
	not := sequencedmap.New(sequencedmap.NewElem[string, any](schema.KeywordEnum, enumValues(args)))
	return []Fact{{Keyword: schema.KeywordNot, Value: not}}, nil
}

func multipleOf(args []string) ([]Fact, error) {
	n, err := singleNumber(args)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, ErrInvalidRuleArgument.Wrapf("%v is not strictly positive", n)
	}
	return []Fact{{Keyword: schema.KeywordMultipleOf, Value: numberValue(n)}}, nil
}

// enumValues lists every argument as a string and, when it is numeric, also as a number, so the
// values match both string and numeric properties.
func enumValues(args []string) []any {
	values := make([]any, 0, len(args))
	for _, a := range args {
		values = append(values, a)
		if n, err := strconv.ParseFloat(a, 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
			values = append(values, numberValue(n))
		}
	}
	return values
}

// singlePattern extracts the expression from a delimited pattern such as "/^[a-z]+$/i".
// The "i" flag becomes an inline case-insensitivity flag; other flags are dropped.
func singlePattern(args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", ErrInvalidRuleArgument.Wrapf("expected a single pattern")
	}
	raw := args[0]

	delim := raw[0]
	end := strings.LastIndexByte(raw, delim)
	if isAlphaNumeric(delim) || delim == '\\' || end <= 0 {
		return "", ErrInvalidRuleArgument.Wrapf("pattern %q is not delimited", raw)
	}

	pattern := raw[1:end]
	if strings.Contains(raw[end+1:], "i") {
		pattern = "(?i)" + pattern
	}

	if _, err := regexp.Compile(pattern); err != nil {
		return "", ErrInvalidRuleArgument.Wrap(err)
	}
	return pattern, nil
}

func isAlphaNumeric(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func singleNumber(args []string) (float64, error) {
	if len(args) != 1 {
		return 0, ErrInvalidRuleArgument.Wrapf("expected 1 argument, got %d", len(args))
	}
	return parseNumber(args[0])
}

func parseNumber(s string) (float64, error) {
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, ErrInvalidRuleArgument.Wrapf("%q is not a number", s)
	}
	return n, nil
}

func singleCount(args []string) (uint64, error) {
	if len(args) != 1 {
		return 0, ErrInvalidRuleArgument.Wrapf("expected 1 argument, got %d", len(args))
	}
	return parseCount(args[0])
}

func parseCount(s string) (uint64, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, ErrInvalidRuleArgument.Wrapf("%q is not a digit count", s)
	}
	return n, nil
}

func isWhole(n float64) bool {
	return n == math.Trunc(n) && math.Abs(n) < 1<<53
}

// numberValue keeps whole numbers integral so they render without a fraction.
func numberValue(n float64) any {
	if isWhole(n) {
		return int64(n)
	}
	return n
}

func lowestWithDigits(n uint64) any {
	if n == 1 {
		return int64(0)
	}
	return numberValue(math.Pow10(int(n) - 1))
}

func highestWithDigits(n uint64) any {
	return numberValue(math.Pow10(int(n)) - 1)
}
