package whitelist

import (
	"strings"

	"go.uber.org/zap"
)

// Checker decides whether alerts for a sender should be suppressed.
// Entries are either exact sender IDs ("MyBank", "+233201234567",
// "alerts@bank.com") or bare email domains ("bank.com").
type Checker struct {
	senders map[string]struct{}
	domains map[string]struct{}
	logger  *zap.Logger
}

// NewChecker creates a new whitelist checker
func NewChecker(entries []string, logger *zap.Logger) *Checker {
	c := &Checker{
		senders: make(map[string]struct{}),
		domains: make(map[string]struct{}),
		logger:  logger,
	}

	for _, entry := range entries {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		c.senders[entry] = struct{}{}
		if !strings.Contains(entry, "@") && strings.Contains(entry, ".") {
			c.domains[strings.TrimPrefix(entry, ".")] = struct{}{}
		}
	}

	if len(c.senders) > 0 && logger != nil {
		logger.Info("Initialized trusted sender list",
			zap.Int("senders", len(c.senders)),
			zap.Int("domains", len(c.domains)))
	}

	return c
}

// IsWhitelisted reports whether the sender, or its email domain, is trusted
func (c *Checker) IsWhitelisted(sender string) bool {
	sender = strings.ToLower(strings.TrimSpace(sender))
	if sender == "" || len(c.senders) == 0 {
		return false
	}

	if _, ok := c.senders[sender]; ok {
		c.debug("Sender is whitelisted", sender)
		return true
	}

	at := strings.LastIndex(sender, "@")
	if at < 0 {
		return false
	}
	domain := strings.TrimSuffix(sender[at+1:], ">")

	if _, ok := c.domains[domain]; ok {
		c.debug("Domain is whitelisted", sender)
		return true
	}

	return false
}

func (c *Checker) debug(msg, sender string) {
	if c.logger != nil {
		c.logger.Debug(msg, zap.String("sender", sender))
	}
}
