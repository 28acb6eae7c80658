package core

import "time"

// --- User & Auth Models ---

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthCheck is the payload of GET /api/auth/check.
type AuthCheck struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user,omitempty"`
}

// LoginResult is the payload of POST /api/auth/login.
type LoginResult struct {
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}

// --- Domain & DNS Models ---

const (
	DomainStatusActive  = "active"
	DomainStatusPending = "pending_verification"
)

type Domain struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Nameservers []string  `json:"nameservers"`
	Status      string    `json:"status"`
	TargetIP    string    `json:"target_ip,omitempty"`
	Proxied     bool      `json:"proxied,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Active reports whether DNS and rule editing is legal for the domain.
func (d Domain) Active() bool { return d.Status == DomainStatusActive }

type DNSRecord struct {
	ID        string    `json:"id"`
	DomainID  string    `json:"domain_id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Content   string    `json:"content"`
	TTL       int       `json:"ttl"`
	Proxied   bool      `json:"proxied"`
	OriginSSL bool      `json:"origin_ssl"`
	CreatedAt time.Time `json:"created_at"`
}

// DNSRecordInput is the body of POST /api/dns/records. TTL 0 lets the
// gateway pick its default (300).
type DNSRecordInput struct {
	DomainID string `json:"domain_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	TTL      int    `json:"ttl,omitempty"`
	Proxied  bool   `json:"proxied"`
}

// VerifyResult is the payload of POST /api/domains/verify. Status echoes
// the domain status after the registrar check ("active" on success).
type VerifyResult struct {
	Status       string   `json:"status"`
	Message      string   `json:"message"`
	FoundRecords []string `json:"found_records,omitempty"`
}

// --- Rule Models ---

type Rule struct {
	ID         string      `json:"id"`
	OwnerID    string      `json:"owner_id,omitempty"`
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
	OnMatch    MatchAction `json:"on_match"`
	Enabled    bool        `json:"enabled"`
}

// Global reports whether the rule belongs to the shared read-only set.
func (r Rule) Global() bool { return r.OwnerID == "" }

type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

type MatchAction struct {
	ScoreAdd  int      `json:"score_add,omitempty"`
	Tags      []string `json:"tags"`
	HardBlock bool     `json:"hard_block"`
}

// RuleInput is the body of POST /api/rules/custom/add.
type RuleInput struct {
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
	OnMatch    MatchAction `json:"on_match"`
}

// ToggleInput is the body of POST /api/rules/toggle. DomainID narrows the
// toggle to one domain; empty means account-wide.
type ToggleInput struct {
	RuleID   string `json:"id"`
	DomainID string `json:"domain_id,omitempty"`
	Enabled  bool   `json:"enabled"`
}

// --- Log Models ---

const (
	ActionBlocked = "Blocked"
	ActionFlagged = "Flagged"

	SourceRuleEngine = "Rule Engine"
	SourceMLEngine   = "ML Engine"
	SourceHybrid     = "Hybrid"
)

type FullRequest struct {
	Method  string              `json:"method"`
	URL     string              `json:"url"`
	Headers map[string][]string `json:"headers"`
	Body    string              `json:"body,omitempty"`
}

// AttackLog is one immutable security event. The same shape arrives from
// the paginated fetch and from the live stream; stream events may lack an
// ID when the gateway broadcasts before the database insert finishes.
type AttackLog struct {
	ID         string      `json:"_id,omitempty"`
	UserID     string      `json:"user_id,omitempty"`
	DomainID   string      `json:"domain_id,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	IP         string      `json:"ip"`
	Path       string      `json:"request_path"`
	Reason     string      `json:"reason"`
	Action     string      `json:"action"`
	Source     string      `json:"source"`
	Tags       []string    `json:"tags"`
	Score      int         `json:"score,omitempty"`
	Confidence float64     `json:"ml_confidence,omitempty"`
	Request    FullRequest `json:"request"`
	Trigger    string      `json:"trigger_payload,omitempty"`
}

type Pagination struct {
	CurrentPage int64 `json:"current_page"`
	TotalPages  int64 `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	PerPage     int64 `json:"per_page"`
}

// LogPage is the payload of GET /api/logs/secure.
type LogPage struct {
	Data       []AttackLog `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// --- System Status Models ---

type ComponentStatus struct {
	Status  string `json:"status"`
	CPU     string `json:"cpu"`
	Memory  string `json:"memory"`
	Network string `json:"network"`
}

// SystemStatus is the payload of GET /api/status: one snapshot per named
// subsystem. Polled, never cached.
type SystemStatus struct {
	Gateway  ComponentStatus `json:"gateway"`
	Database ComponentStatus `json:"database"`
	MLScorer ComponentStatus `json:"ml_scorer"`
}
