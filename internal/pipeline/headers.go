package pipeline

import "strings"

// FieldAliases is one canonical field with its ordered list of accepted
// header spellings. Earlier aliases win over later ones.
type FieldAliases struct {
	Field   string
	Aliases []string
}

// HeaderMap maps canonical field names to the raw header chosen for them.
// An absent entry (or empty string) means the field stayed unresolved and
// every row gets its default value.
type HeaderMap map[string]string

// ResolveHeaders picks a raw header for each canonical field. Resolution runs
// three tiers per field, and a tier is exhausted for the whole alias list
// before the next one is tried:
//
//  1. exact match, case-insensitive
//  2. match after stripping everything non-alphanumeric from both sides
//  3. the normalized header contains the normalized alias
//
// Tier 3 is a last resort; "total amount" containing "amount" is exactly the
// kind of hit it can make, which is why it runs after the stricter tiers.
// The mapping is computed once per table, not per row.
func ResolveHeaders(headers []string, fields []FieldAliases) HeaderMap {
	out := HeaderMap{}
	for _, f := range fields {
		out[f.Field] = resolveField(headers, f.Aliases)
	}
	return out
}

func resolveField(headers []string, aliases []string) string {
	for _, alias := range aliases {
		for _, header := range headers {
			if strings.EqualFold(strings.TrimSpace(header), alias) {
				return header
			}
		}
	}

	for _, alias := range aliases {
		want := normalizeHeaderKey(alias)
		if want == "" {
			continue
		}
		for _, header := range headers {
			if normalizeHeaderKey(header) == want {
				return header
			}
		}
	}

	for _, alias := range aliases {
		want := normalizeHeaderKey(alias)
		if want == "" {
			continue
		}
		for _, header := range headers {
			if strings.Contains(normalizeHeaderKey(header), want) {
				return header
			}
		}
	}

	return ""
}

// normalizeHeaderKey lowercases and keeps only letters and digits, so
// "Amount (Inc. Surcharge)" and "Amount(Inc. Surcharge)" compare equal.
func normalizeHeaderKey(input string) string {
	out := strings.Builder{}
	for _, r := range strings.ToLower(input) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			out.WriteRune(r)
		}
	}
	return out.String()
}
