package metadata

import (
	"regexp"
	"strings"
)

// Signal names surfaced in derived metadata.
const (
	SignalTechnical   = "hasTechnicalTerms"
	SignalWiring      = "hasWiringTerms"
	SignalSafety      = "hasSafetyTerms"
	SignalPartNumbers = "hasPartNumbers"
	SignalQuantities  = "hasQuantities"
)

const maxListedTokens = 10

var (
	partNumberRegex = regexp.MustCompile(`\b[A-Z]{2,}[-_]?\d{2,}[A-Z0-9-]*\b`)
	quantityRegex   = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s?(?:k?V|m?A|kA|kW|W|Hz|bar|Nm)\b`)
)

// keywordClass is one row of the classification table: a label and the
// vocabulary that triggers it.
type keywordClass struct {
	label    string
	keywords []string
}

// tagClasses maps disjoint vocabulary classes onto chunk tags. Matching is
// case-insensitive substring over the whole chunk.
var tagClasses = []keywordClass{
	{"doors", []string{"door", "gateway", "entrance", "leaf", "portal"}},
	{"hvac", []string{"hvac", "air conditioning", "ventilation", "climate", "heating", "compressor"}},
	{"traction", []string{"traction", "motor", "inverter", "propulsion", "drive"}},
	{"braking", []string{"brake", "braking", "retarder", "caliper", "pneumatic"}},
	{"signaling", []string{"signal", "signalling", "signaling", "atp", "balise", "interlocking"}},
	{"electrical", []string{"voltage", "current", "electrical", "circuit", "power supply", "transformer"}},
	{"safety", []string{"safety", "hazard", "warning", "danger", "caution", "emergency", "lockout"}},
	{"control", []string{"control", "plc", "controller", "logic", "command", "automation"}},
	{"components", []string{"component", "assembly", "part number", "spare", "module"}},
	{"sensors", []string{"sensor", "detector", "transducer", "encoder", "thermocouple"}},
	{"wiring", []string{"wiring", "wire", "cable", "harness", "connector", "terminal", "conductor"}},
	{"maintenance", []string{"maintenance", "inspection", "overhaul", "lubrication", "service interval", "replace"}},
}

var signalClasses = []keywordClass{
	{SignalTechnical, []string{"voltage", "current", "circuit", "relay", "resistance", "torque", "pressure", "specification"}},
	{SignalWiring, []string{"wiring", "wire", "cable", "harness", "connector", "terminal", "conductor"}},
	{SignalSafety, []string{"safety", "hazard", "warning", "danger", "caution", "emergency"}},
}

// Extract derives the scoring signals and tags for a chunk of text. It is a
// pure function over a fixed rule table: the same text always yields the same
// metadata and the same tag order.
func Extract(text string) (map[string]any, []string) {
	lower := strings.ToLower(text)

	meta := make(map[string]any, len(signalClasses)+4)
	for _, class := range signalClasses {
		meta[class.label] = containsAny(lower, class.keywords)
	}

	partNumbers := dedupe(partNumberRegex.FindAllString(text, maxListedTokens))
	meta[SignalPartNumbers] = len(partNumbers) > 0
	if len(partNumbers) > 0 {
		meta["partNumbers"] = partNumbers
	}

	quantities := dedupe(quantityRegex.FindAllString(text, maxListedTokens))
	meta[SignalQuantities] = len(quantities) > 0
	if len(quantities) > 0 {
		meta["quantities"] = quantities
	}

	var tags []string
	for _, class := range tagClasses {
		if containsAny(lower, class.keywords) {
			tags = append(tags, class.label)
		}
	}
	return meta, tags
}

func containsAny(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func dedupe(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Flag reports whether a boolean signal is set in derived metadata.
func Flag(meta map[string]any, name string) bool {
	v, ok := meta[name]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}
