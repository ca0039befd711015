package director

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/openstudio/director-go/internal/errors"
)

// RuleSnapshot is an immutable, priority-sorted view of the enabled rules.
// An evaluation captures one snapshot at its start and uses it throughout,
// so an admin update mid-evaluation can never produce a torn read.
type RuleSnapshot struct {
	Version int64
	Rules   []SwitchingRule // enabled rules, ascending priority
}

// RuleStore holds versioned switching rules behind an atomically swapped
// snapshot. Reads are lock-free; updates serialize on a writer mutex and
// install a fresh snapshot.
type RuleStore struct {
	current atomic.Pointer[RuleSnapshot]

	writeMu sync.Mutex
	all     map[string]SwitchingRule // every rule, enabled or not
}

// RuleUpdate carries the mutable fields of updateSwitchingRule. Nil fields
// are left unchanged.
type RuleUpdate struct {
	Priority        *int
	Enabled         *bool
	MinConfidence   *float64
	CooldownSeconds *float64
	Condition       *Condition
	Action          *Action
}

// NewRuleStore creates a rule store seeded with the given rules.
func NewRuleStore(rules []SwitchingRule) *RuleStore {
	rs := &RuleStore{
		all: make(map[string]SwitchingRule, len(rules)),
	}
	for _, rule := range rules {
		rs.all[rule.RuleID] = rule
	}
	rs.installSnapshot(1)
	return rs
}

// DefaultRules returns the seeded rule set a fresh deployment starts with.
// The silence fallback carries the highest priority value so any other
// matching rule pre-empts it.
func DefaultRules() []SwitchingRule {
	return []SwitchingRule{
		{
			RuleID:          "speaker-change",
			Priority:        10,
			Enabled:         true,
			MinConfidence:   0.30,
			CooldownSeconds: 2.0,
			Condition:       Condition{Kind: ConditionSpeakerChange},
			Action:          Action{Kind: ActionSwitchToSpeaker},
		},
		{
			RuleID:          "audio-level",
			Priority:        20,
			Enabled:         true,
			MinConfidence:   0.40,
			CooldownSeconds: 2.0,
			Condition:       Condition{Kind: ConditionAudioLevel},
			Action:          Action{Kind: ActionSwitchToSpeaker},
		},
		{
			RuleID:          "engagement",
			Priority:        30,
			Enabled:         true,
			MinConfidence:   0.35,
			CooldownSeconds: 3.0,
			Condition:       Condition{Kind: ConditionEngagement},
			Action:          Action{Kind: ActionSwitchToHighestEngagement},
		},
		{
			RuleID:          "silence-fallback",
			Priority:        100,
			Enabled:         true,
			MinConfidence:   0.20,
			CooldownSeconds: 5.0,
			Condition:       Condition{Kind: ConditionSilence, Threshold: 5.0},
			Action:          Action{Kind: ActionSwitchToFixedCamera},
		},
	}
}

// Snapshot returns the current immutable rule snapshot.
func (rs *RuleStore) Snapshot() *RuleSnapshot {
	return rs.current.Load()
}

// AllRules returns a copy of every stored rule, enabled or not, sorted by
// ascending priority, together with the current snapshot version.
func (rs *RuleStore) AllRules() ([]SwitchingRule, int64) {
	rs.writeMu.Lock()
	defer rs.writeMu.Unlock()

	rules := make([]SwitchingRule, 0, len(rs.all))
	for _, rule := range rs.all {
		rules = append(rules, rule)
	}
	sortRules(rules)
	return rules, rs.current.Load().Version
}

// UpdateRule applies the given field updates to a rule and installs a new
// snapshot. The previous snapshot stays valid for in-flight evaluations.
func (rs *RuleStore) UpdateRule(ruleID string, update RuleUpdate) (SwitchingRule, error) {
	rs.writeMu.Lock()
	defer rs.writeMu.Unlock()

	rule, exists := rs.all[ruleID]
	if !exists {
		return SwitchingRule{}, errors.New(ErrRuleNotFound).
			Component("director").
			Category(errors.CategoryRuleStore).
			Context("rule_id", ruleID).
			Build()
	}

	if update.Priority != nil {
		rule.Priority = *update.Priority
	}
	if update.Enabled != nil {
		rule.Enabled = *update.Enabled
	}
	if update.MinConfidence != nil {
		if *update.MinConfidence < 0 || *update.MinConfidence > 1 {
			return SwitchingRule{}, errors.Newf("min confidence must be within [0, 1]: %f", *update.MinConfidence).
				Component("director").
				Category(errors.CategoryRuleStore).
				Context("rule_id", ruleID).
				Build()
		}
		rule.MinConfidence = *update.MinConfidence
	}
	if update.CooldownSeconds != nil {
		if *update.CooldownSeconds < 0 {
			return SwitchingRule{}, errors.Newf("cooldown must not be negative: %f", *update.CooldownSeconds).
				Component("director").
				Category(errors.CategoryRuleStore).
				Context("rule_id", ruleID).
				Build()
		}
		rule.CooldownSeconds = *update.CooldownSeconds
	}
	if update.Condition != nil {
		if !validConditionKind(update.Condition.Kind) {
			return SwitchingRule{}, errors.Newf("unknown condition kind %q", update.Condition.Kind).
				Component("director").
				Category(errors.CategoryRuleStore).
				Context("rule_id", ruleID).
				Build()
		}
		rule.Condition = *update.Condition
	}
	if update.Action != nil {
		if !validActionKind(update.Action.Kind) {
			return SwitchingRule{}, errors.Newf("unknown action kind %q", update.Action.Kind).
				Component("director").
				Category(errors.CategoryRuleStore).
				Context("rule_id", ruleID).
				Build()
		}
		rule.Action = *update.Action
	}

	rs.all[ruleID] = rule
	rs.installSnapshot(rs.current.Load().Version + 1)
	return rule, nil
}

// installSnapshot rebuilds the enabled-rules snapshot. Caller must hold
// writeMu, except during construction.
func (rs *RuleStore) installSnapshot(version int64) {
	enabled := make([]SwitchingRule, 0, len(rs.all))
	for _, rule := range rs.all {
		if rule.Enabled {
			enabled = append(enabled, rule)
		}
	}
	sortRules(enabled)
	rs.current.Store(&RuleSnapshot{Version: version, Rules: enabled})
}

// validConditionKind reports whether the kind is one of the closed condition
// variants. Rules with an unknown kind would never match, so updates carrying
// one are rejected instead of silently installed.
func validConditionKind(kind ConditionKind) bool {
	switch kind {
	case ConditionSpeakerChange, ConditionAudioLevel, ConditionEngagement, ConditionSilence:
		return true
	default:
		return false
	}
}

// validActionKind reports whether the kind is one of the closed action
// variants.
func validActionKind(kind ActionKind) bool {
	switch kind {
	case ActionSwitchToSpeaker, ActionSwitchToHighestEngagement, ActionSwitchToFixedCamera:
		return true
	default:
		return false
	}
}

// sortRules orders rules by ascending priority, then rule id for a stable,
// deterministic order when priorities collide.
func sortRules(rules []SwitchingRule) {
	slices.SortFunc(rules, func(a, b SwitchingRule) int {
		if a.Priority != b.Priority {
			return a.Priority - b.Priority
		}
		if a.RuleID < b.RuleID {
			return -1
		}
		if a.RuleID > b.RuleID {
			return 1
		}
		return 0
	})
}
