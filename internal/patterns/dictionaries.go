// Package patterns holds the static signal vocabulary used by the scorer.
package patterns

import (
	"regexp"
	"strings"
)

var (
	// URLPattern matches links with an explicit scheme
	URLPattern = regexp.MustCompile(`https?://\S+`)
	// PhonePattern matches long digit runs that look like phone numbers
	PhonePattern = regexp.MustCompile(`\+?[0-9]{10,}`)
)

// Dictionary is an ordered list of lower-case substrings
type Dictionary []string

// PatternSet groups the dictionaries by signal category
type PatternSet struct {
	Spam        Dictionary `json:"spam" toml:"spam" yaml:"spam"`
	Phishing    Dictionary `json:"phishing" toml:"phishing" yaml:"phishing"`
	Financial   Dictionary `json:"financial" toml:"financial" yaml:"financial"`
	Urgency     Dictionary `json:"urgency" toml:"urgency" yaml:"urgency"`
	SenderFlags Dictionary `json:"sender_flags" toml:"sender_flags" yaml:"sender_flags"`
	Shorteners  Dictionary `json:"shorteners" toml:"shorteners" yaml:"shorteners"`
}

var spamKeywords = Dictionary{
	"congratulations",
	"you have won",
	"you've won",
	"winner",
	"prize",
	"lottery",
	"jackpot",
	"free gift",
	"free",
	"claim",
	"click here",
	"limited time",
	"act now",
	"offer expires",
	"exclusive deal",
	"cash reward",
	"reward",
	"bonus",
	"risk free",
	"guaranteed",
	"selected",
	"promo",
	"discount",
	"unsubscribe",
}

// Brand names and account-verb vocabulary typical of impersonation
var phishingKeywords = Dictionary{
	"verify",
	"verification",
	"suspended",
	"account",
	"password",
	"login",
	"log in",
	"sign in",
	"confirm your",
	"update your",
	"security alert",
	"unusual activity",
	"locked",
	"bank",
	"secure",
	"ssn",
	"pin code",
	"otp",
	"paypal",
	"apple id",
	"amazon",
	"netflix",
	"mtn",
	"vodafone",
	"momo",
	"mobile money",
}

var financialKeywords = Dictionary{
	"$",
	"payment",
	"transfer",
	"loan",
	"credit",
	"debit",
	"card",
	"wallet",
	"invoice",
	"refund",
	"cash",
	"money",
	"ghs",
	"cedis",
	"usd",
	"bitcoin",
	"crypto",
}

var urgencyWords = Dictionary{
	"urgent",
	"immediate",
	"now",
	"quick",
	"fast",
	"hurry",
	"asap",
	"emergency",
}

var senderFlags = Dictionary{
	"noreply",
	"no-reply",
	"donotreply",
	"support",
	"security",
	"admin",
	"system",
}

var shortenerDomains = Dictionary{
	"bit.ly",
	"tinyurl.com",
	"goo.gl",
	"t.co",
	"ow.ly",
	"is.gd",
	"buff.ly",
	"cutt.ly",
	"rebrand.ly",
	"shorturl.at",
}

var defaultSet = PatternSet{
	Spam:        spamKeywords,
	Phishing:    phishingKeywords,
	Financial:   financialKeywords,
	Urgency:     urgencyWords,
	SenderFlags: senderFlags,
	Shorteners:  shortenerDomains,
}

// Default returns a copy of the built-in pattern set
func Default() PatternSet {
	return defaultSet.Clone()
}

// Clone returns a deep copy of the set
func (ps PatternSet) Clone() PatternSet {
	return PatternSet{
		Spam:        ps.Spam.clone(),
		Phishing:    ps.Phishing.clone(),
		Financial:   ps.Financial.clone(),
		Urgency:     ps.Urgency.clone(),
		SenderFlags: ps.SenderFlags.clone(),
		Shorteners:  ps.Shorteners.clone(),
	}
}

// Extend returns a new set with the other set's entries appended.
// Entries are trimmed, lower-cased and de-duplicated.
func (ps PatternSet) Extend(other PatternSet) PatternSet {
	return PatternSet{
		Spam:        ps.Spam.merge(other.Spam),
		Phishing:    ps.Phishing.merge(other.Phishing),
		Financial:   ps.Financial.merge(other.Financial),
		Urgency:     ps.Urgency.merge(other.Urgency),
		SenderFlags: ps.SenderFlags.merge(other.SenderFlags),
		Shorteners:  ps.Shorteners.merge(other.Shorteners),
	}
}

// Dictionaries returns the dictionaries keyed by name
func (ps PatternSet) Dictionaries() map[string]Dictionary {
	return map[string]Dictionary{
		"spam":         ps.Spam,
		"phishing":     ps.Phishing,
		"financial":    ps.Financial,
		"urgency":      ps.Urgency,
		"sender_flags": ps.SenderFlags,
		"shorteners":   ps.Shorteners,
	}
}

// Matches returns the entries found as substrings of lowered text
func (d Dictionary) Matches(lowered string) []string {
	var hits []string
	for _, entry := range d {
		if strings.Contains(lowered, entry) {
			hits = append(hits, entry)
		}
	}
	return hits
}

// Count returns how many entries appear in lowered text
func (d Dictionary) Count(lowered string) int {
	count := 0
	for _, entry := range d {
		if strings.Contains(lowered, entry) {
			count++
		}
	}
	return count
}

// ContainsAny reports whether any entry appears in lowered text
func (d Dictionary) ContainsAny(lowered string) bool {
	for _, entry := range d {
		if strings.Contains(lowered, entry) {
			return true
		}
	}
	return false
}

func (d Dictionary) clone() Dictionary {
	out := make(Dictionary, len(d))
	copy(out, d)
	return out
}

func (d Dictionary) merge(extra Dictionary) Dictionary {
	out := make(Dictionary, 0, len(d)+len(extra))
	seen := make(map[string]struct{}, len(d)+len(extra))
	for _, list := range []Dictionary{d, extra} {
		for _, entry := range list {
			entry = strings.ToLower(strings.TrimSpace(entry))
			if entry == "" {
				continue
			}
			if _, ok := seen[entry]; ok {
				continue
			}
			seen[entry] = struct{}{}
			out = append(out, entry)
		}
	}
	return out
}
