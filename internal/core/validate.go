package core

import (
	"fmt"
	"net"
	"regexp"
	"strings"
)

// Condition fields and operators accepted by the rule engine.
const (
	FieldPath   = "path"
	FieldQuery  = "query"
	FieldBody   = "body"
	FieldHeader = "header"

	OpContains = "contains"
	OpRegex    = "regex"
	OpEquals   = "equals"
)

var ruleFields = map[string]bool{
	FieldPath:   true,
	FieldQuery:  true,
	FieldBody:   true,
	FieldHeader: true,
}

var ruleOperators = map[string]bool{
	OpContains: true,
	OpRegex:    true,
	OpEquals:   true,
}

// Regex for validating domain names (alphanumeric, hyphens, dots).
// Enforces: start/end alphanumeric, max 63 chars per label, no spaces.
var domainRegex = regexp.MustCompile(`^(?i)[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail checks email format before credentials leave the client.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidateDomainName checks a domain name before it is submitted.
func ValidateDomainName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("domain name is required")
	}
	if !domainRegex.MatchString(name) || !strings.Contains(name, ".") {
		return fmt.Errorf("invalid domain name %q", name)
	}
	return nil
}

// Validate checks a single condition against the closed field/operator sets.
// A regex operand must compile, so a broken pattern fails here instead of
// inside the rule engine.
func (c Condition) Validate() error {
	if !ruleFields[c.Field] {
		return fmt.Errorf("unknown condition field %q", c.Field)
	}
	if !ruleOperators[c.Operator] {
		return fmt.Errorf("unknown condition operator %q", c.Operator)
	}
	if c.Value == "" {
		return fmt.Errorf("condition value is required")
	}
	if c.Operator == OpRegex {
		if _, err := regexp.Compile(c.Value); err != nil {
			return fmt.Errorf("invalid regex %q: %w", c.Value, err)
		}
	}
	return nil
}

// Validate checks a rule before submission. Conditions are ANDed by the
// engine, so an empty list would match everything and is rejected.
func (in RuleInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("rule name is required")
	}
	if len(in.Conditions) == 0 {
		return fmt.Errorf("at least one condition is required")
	}
	for i, c := range in.Conditions {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("condition %d: %w", i+1, err)
		}
	}
	if in.OnMatch.ScoreAdd < 0 || in.OnMatch.ScoreAdd > 100 {
		return fmt.Errorf("score_add must be between 0 and 100")
	}
	if !in.OnMatch.HardBlock && in.OnMatch.ScoreAdd == 0 {
		return fmt.Errorf("rule must either hard-block or add score")
	}
	return nil
}

// Validate mirrors the gateway's DNS record checks so bad input fails
// before a round trip: A=IPv4, AAAA=IPv6, CNAME/MX/NS=FQDN (not an IP),
// TXT capped at 2048 bytes, TTL 60-86400 with 0 meaning server default.
func (in DNSRecordInput) Validate() error {
	if in.DomainID == "" {
		return fmt.Errorf("domain_id is required")
	}
	typ := strings.ToUpper(strings.TrimSpace(in.Type))
	content := strings.TrimSpace(in.Content)
	if typ == "" || content == "" {
		return fmt.Errorf("type and content are required")
	}
	if in.TTL != 0 && (in.TTL < 60 || in.TTL > 86400) {
		return fmt.Errorf("ttl must be between 60 and 86400 seconds")
	}

	switch typ {
	case "A":
		ip := net.ParseIP(content)
		if ip == nil || ip.To4() == nil {
			return fmt.Errorf("content must be a valid IPv4 address")
		}
	case "AAAA":
		ip := net.ParseIP(content)
		if ip == nil || ip.To4() != nil {
			return fmt.Errorf("content must be a valid IPv6 address")
		}
	case "CNAME":
		content = strings.TrimSuffix(content, ".")
		if net.ParseIP(content) != nil {
			return fmt.Errorf("CNAME content must be a domain name, not an IP address")
		}
		if !domainRegex.MatchString(content) {
			return fmt.Errorf("invalid domain format in CNAME content")
		}
	case "MX", "NS":
		content = strings.TrimSuffix(content, ".")
		if !domainRegex.MatchString(content) {
			return fmt.Errorf("invalid domain format")
		}
	case "TXT":
		if len(content) > 2048 {
			return fmt.Errorf("TXT record too long")
		}
	default:
		return fmt.Errorf("unsupported record type %q", typ)
	}
	return nil
}
