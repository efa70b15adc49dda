package domain

import (
	"slices"
	"strings"
)

// Intelligence is the accumulated evidence for a session. Each field has set
// semantics: entries are unique and kept sorted.
type Intelligence struct {
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhoneNumbers       []string `json:"phoneNumbers"`
	PhishingLinks      []string `json:"phishingLinks"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// Merge returns the field-by-field union of i and other. Neither input is modified.
func (i Intelligence) Merge(other Intelligence) Intelligence {
	return Intelligence{
		BankAccounts:       union(i.BankAccounts, other.BankAccounts),
		UPIIDs:             union(i.UPIIDs, other.UPIIDs),
		PhoneNumbers:       union(i.PhoneNumbers, other.PhoneNumbers),
		PhishingLinks:      union(i.PhishingLinks, other.PhishingLinks),
		SuspiciousKeywords: union(i.SuspiciousKeywords, other.SuspiciousKeywords),
	}
}

// Normalize returns i with every field deduplicated and sorted.
func (i Intelligence) Normalize() Intelligence {
	return Intelligence{}.Merge(i)
}

// HasActionable reports whether the record holds a bank account, payment
// handle, or link: the evidence that lets an engagement wrap up early.
func (i Intelligence) HasActionable() bool {
	return len(i.BankAccounts) > 0 || len(i.UPIIDs) > 0 || len(i.PhishingLinks) > 0
}

// Size returns the total number of entries across all fields.
func (i Intelligence) Size() int {
	return len(i.BankAccounts) + len(i.UPIIDs) + len(i.PhoneNumbers) +
		len(i.PhishingLinks) + len(i.SuspiciousKeywords)
}

// Clone returns a deep copy.
func (i Intelligence) Clone() Intelligence {
	return Intelligence{
		BankAccounts:       slices.Clone(i.BankAccounts),
		UPIIDs:             slices.Clone(i.UPIIDs),
		PhoneNumbers:       slices.Clone(i.PhoneNumbers),
		PhishingLinks:      slices.Clone(i.PhishingLinks),
		SuspiciousKeywords: slices.Clone(i.SuspiciousKeywords),
	}
}

func union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	for _, s := range b {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
