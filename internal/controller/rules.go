package controller

import (
	"context"
	"sync"

	"minishield-dashboard/internal/core"
	"minishield-dashboard/internal/gateway"
	"minishield-dashboard/internal/logger"
	"minishield-dashboard/internal/notify"
)

// Rules drives the rule screen. Global rules are read-only apart from the
// enable toggle; custom rules get full CRUD.
type Rules struct {
	client   *gateway.Client
	notifier notify.Notifier
	log      *logger.Logger

	mu     sync.Mutex
	global []core.Rule
	custom []core.Rule

	seq    uint64
	latest uint64
}

func NewRules(client *gateway.Client, notifier notify.Notifier, log *logger.Logger) *Rules {
	if notifier == nil {
		notifier = notify.Discard{}
	}
	if log == nil {
		log = logger.New("rules")
	}
	return &Rules{client: client, notifier: notifier, log: log}
}

// Global returns a copy of the global rule collection.
func (r *Rules) Global() []core.Rule {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyRules(r.global)
}

// Custom returns a copy of the custom rule collection.
func (r *Rules) Custom() []core.Rule {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyRules(r.custom)
}

// Refresh re-fetches both collections, optionally scoped to one domain.
// Stale responses are discarded.
func (r *Rules) Refresh(ctx context.Context, domainID string) error {
	r.mu.Lock()
	r.seq++
	token := r.seq
	r.latest = token
	r.mu.Unlock()

	global, err := r.client.GlobalRules(ctx, domainID)
	if err != nil {
		return err
	}
	custom, err := r.client.CustomRules(ctx, domainID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.latest {
		return nil
	}
	r.global = global
	r.custom = custom
	return nil
}

// AddCustom validates and submits a new custom rule, then re-fetches the
// custom collection so server-assigned ids land locally.
func (r *Rules) AddCustom(ctx context.Context, in core.RuleInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	if err := r.client.AddCustomRule(ctx, in); err != nil {
		return err
	}

	custom, err := r.client.CustomRules(ctx, "")
	if err != nil {
		r.log.Errorf("refreshing custom rules: %v", err)
	} else {
		r.mu.Lock()
		r.custom = custom
		r.mu.Unlock()
	}

	r.notifier.Notify(notify.LevelSuccess, "Rule added")
	return nil
}

// DeleteCustom removes a custom rule and drops it from the cached list.
func (r *Rules) DeleteCustom(ctx context.Context, ruleID string) error {
	if err := r.client.DeleteCustomRule(ctx, ruleID); err != nil {
		return err
	}

	r.mu.Lock()
	kept := r.custom[:0]
	for _, rule := range r.custom {
		if rule.ID != ruleID {
			kept = append(kept, rule)
		}
	}
	r.custom = kept
	r.mu.Unlock()

	r.notifier.Notify(notify.LevelSuccess, "Rule deleted")
	return nil
}

// Toggle flips a rule's enabled flag, mirroring the change locally in
// whichever collection holds the rule.
func (r *Rules) Toggle(ctx context.Context, in core.ToggleInput) error {
	if err := r.client.ToggleRule(ctx, in); err != nil {
		return err
	}

	r.mu.Lock()
	for _, list := range [][]core.Rule{r.global, r.custom} {
		for i := range list {
			if list[i].ID == in.RuleID {
				list[i].Enabled = in.Enabled
			}
		}
	}
	r.mu.Unlock()
	return nil
}

func copyRules(in []core.Rule) []core.Rule {
	out := make([]core.Rule, len(in))
	copy(out, in)
	return out
}
