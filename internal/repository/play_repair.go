package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"options-trading/pkg/logger"
	"os"
	"regexp"
	"strings"
)

type corruptionReason string

const (
	corruptionNone            corruptionReason = ""
	corruptionEmpty           corruptionReason = "empty_content"
	corruptionNoClosingBrace  corruptionReason = "missing_closing_delimiter"
	corruptionMidAttribute    corruptionReason = "cut_mid_attribute"
	corruptionEntryPremiumCut corruptionReason = "cut_after_entry_premium"
	corruptionBraceImbalance  corruptionReason = "brace_imbalance"
	corruptionParseFailure    corruptionReason = "parse_failure"
)

var (
	midAttributePattern    = regexp.MustCompile(`"[A-Za-z0-9_]+"\s*:\s*$`)
	entryPremiumCutPattern = regexp.MustCompile(`"entry_premium"\s*:\s*-?[0-9.eE+]*\s*$`)
)

// detectCorruption applies the structural heuristics in priority order and
// returns the most specific reason found, or corruptionNone for a sound
// document.
func detectCorruption(raw []byte) corruptionReason {
	content := strings.TrimSpace(string(raw))
	if content == "" {
		return corruptionEmpty
	}
	if !strings.HasSuffix(content, "}") {
		// Sub-classify the truncation so repair can pick the right strategy.
		if entryPremiumCutPattern.MatchString(content) {
			return corruptionEntryPremiumCut
		}
		if midAttributePattern.MatchString(content) {
			return corruptionMidAttribute
		}
		return corruptionNoClosingBrace
	}
	open, closed := countBraces(content)
	if open != closed {
		return corruptionBraceImbalance
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &probe); err != nil {
		return corruptionParseFailure
	}
	return corruptionNone
}

// countBraces counts curly braces outside of string literals.
func countBraces(content string) (open, closed int) {
	inString := false
	escaped := false
	for _, r := range content {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				open++
			}
		case '}':
			if !inString {
				closed++
			}
		}
	}
	return open, closed
}

// countBrackets counts square brackets outside of string literals.
func countBrackets(content string) (open, closed int) {
	inString := false
	escaped := false
	for _, r := range content {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '[':
			if !inString {
				open++
			}
		case ']':
			if !inString {
				closed++
			}
		}
	}
	return open, closed
}

// playRepairer applies structural-only repair. It never invents business
// values; numeric placeholders it writes are recognizably fake.
type playRepairer struct {
	store *playStoreRepository
	log   *logger.Logger
}

func newPlayRepairer(store *playStoreRepository, log *logger.Logger) *playRepairer {
	return &playRepairer{store: store, log: log}
}

// Placeholder values backfilled by repair. They are deliberately
// implausible so a human reviewing an integrity=false record spots them.
const (
	PlaceholderStrike     = "0.0"
	PlaceholderExpiration = "2099-12-31"
)

// Repair tries the strategies in fixed order until one yields a document
// that parses. The original bytes are never modified on failure.
func (rp *playRepairer) Repair(raw []byte, reason corruptionReason) ([]byte, error) {
	content := strings.TrimSpace(string(raw))
	if reason == corruptionEmpty {
		return nil, fmt.Errorf("empty record has no structure to recover")
	}

	strategies := []func(string) ([]byte, bool){
		rp.repairMidAttribute,
		rp.repairEntryPremiumCut,
		rp.repairExtraClosers,
		rp.repairBalanceBraces,
	}
	for _, strategy := range strategies {
		if fixed, ok := strategy(content); ok {
			return fixed, nil
		}
	}
	return nil, fmt.Errorf("all repair strategies failed (reason: %s)", reason)
}

// repairMidAttribute handles a document cut right after a key and colon:
// substitute null for the missing value and close the open scopes.
func (rp *playRepairer) repairMidAttribute(content string) ([]byte, bool) {
	if !midAttributePattern.MatchString(content) {
		return nil, false
	}
	fixed := content + "null" + closingSuffix(content)
	return validate(fixed)
}

// repairEntryPremiumCut handles the known truncation right after the entry
// premium value: keep the valid prefix, close it, and backfill only the
// structurally required fields with placeholders.
func (rp *playRepairer) repairEntryPremiumCut(content string) ([]byte, bool) {
	loc := entryPremiumCutPattern.FindStringIndex(content)
	if loc == nil {
		return nil, false
	}
	matched := strings.TrimSpace(content[loc[0]:])
	prefix := content
	if !completeNumberAfterColon(matched) {
		// The premium value itself was cut, drop the dangling key.
		prefix = strings.TrimSpace(content[:loc[0]])
		prefix = strings.TrimSuffix(prefix, ",")
	}
	candidate := prefix + closingSuffix(prefix)

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return nil, false
	}
	rp.backfillStructuralFields(doc)
	fixed, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, false
	}
	return fixed, true
}

// repairExtraClosers removes surplus trailing close braces, the known
// duplicate-suffix corruption pattern.
func (rp *playRepairer) repairExtraClosers(content string) ([]byte, bool) {
	open, closed := countBraces(content)
	if closed <= open {
		return nil, false
	}
	fixed := content
	for i := 0; i < closed-open; i++ {
		fixed = strings.TrimSpace(fixed)
		if !strings.HasSuffix(fixed, "}") {
			return nil, false
		}
		fixed = fixed[:len(fixed)-1]
	}
	return validate(fixed)
}

// repairBalanceBraces is the last resort: append or trim braces until the
// counts match.
func (rp *playRepairer) repairBalanceBraces(content string) ([]byte, bool) {
	open, closed := countBraces(content)
	switch {
	case open > closed:
		return validate(content + closingSuffix(content))
	case closed > open:
		fixed := content
		for i := 0; i < closed-open; i++ {
			fixed = strings.TrimSpace(fixed)
			if !strings.HasSuffix(fixed, "}") {
				return nil, false
			}
			fixed = fixed[:len(fixed)-1]
		}
		return validate(fixed)
	}
	return nil, false
}

// backfillStructuralFields adds the top-level keys a play document must
// carry so it can round-trip through the model. Placeholder values only;
// the reference template from closed plays supplies key names, never data.
func (rp *playRepairer) backfillStructuralFields(doc map[string]interface{}) {
	for _, key := range rp.expectedTopLevelKeys() {
		if _, ok := doc[key]; ok {
			continue
		}
		switch key {
		case "status":
			doc[key] = map[string]interface{}{
				"play_status":     "NEW",
				"position_exists": false,
			}
		case "strike_price":
			doc[key] = PlaceholderStrike
		case "contract_expiration_date":
			doc[key] = PlaceholderExpiration
		case "contracts":
			doc[key] = 0
		case "integrity":
			doc[key] = false
		default:
			doc[key] = nil
		}
	}
	doc["integrity"] = false
}

// expectedTopLevelKeys derives the key set from a reference closed play when
// one exists, falling back to the static model layout.
func (rp *playRepairer) expectedTopLevelKeys() []string {
	static := []string{
		"symbol", "trade_type", "strike_price", "contract_expiration_date",
		"entry", "take_profit", "stop_loss", "contracts", "play_class",
		"status", "integrity",
	}
	if rp.store == nil {
		return static
	}
	names, err := rp.store.List(context.Background(), FolderClosed)
	if err != nil || len(names) == 0 {
		return static
	}
	raw, err := os.ReadFile(rp.store.path(FolderClosed, names[0]))
	if err != nil {
		return static
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return static
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	return keys
}

// completeNumberAfterColon reports whether the matched "entry_premium"
// fragment carries a fully written numeric value.
func completeNumberAfterColon(fragment string) bool {
	idx := strings.Index(fragment, ":")
	if idx < 0 {
		return false
	}
	value := strings.TrimSpace(fragment[idx+1:])
	if value == "" {
		return false
	}
	var probe float64
	return json.Unmarshal([]byte(value), &probe) == nil
}

// closingSuffix returns the brackets and braces needed to close every scope
// still open at the end of content.
func closingSuffix(content string) string {
	openBr, closedBr := countBrackets(content)
	openCu, closedCu := countBraces(content)
	var sb strings.Builder
	for i := 0; i < openBr-closedBr; i++ {
		sb.WriteString("]")
	}
	for i := 0; i < openCu-closedCu; i++ {
		sb.WriteString("}")
	}
	return sb.String()
}

func validate(candidate string) ([]byte, bool) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(candidate), &probe); err != nil {
		return nil, false
	}
	return []byte(candidate), true
}
