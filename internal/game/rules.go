// internal/game/rules.go
package game

import (
	"fmt"

	"github.com/jason-s-yu/mau/pkg/types"
)

// Rule keys understood by the engine.
const (
	RuleTwistHand         = "twist_hand"
	RuleRotateCards       = "rotate_cards"
	RuleTakeUntilCover    = "take_until_cover"
	RuleSingleShotgun     = "single_shotgun"
	RuleShotgun           = "shotgun"
	RuleWild              = "wild"
	RuleAutoChooseColor   = "auto_choose_color"
	RuleChooseRandomColor = "choose_random_color"
	RuleRandomColor       = "random_color"
	RuleDebugCards        = "debug_cards"
	RuleSideEffect        = "side_effect"
	RuleIntervention      = "intervention"
)

// Rule is a togglable game mode.
type Rule struct {
	Key  string
	Name string
}

// Rules is the catalog of game modes, in display order.
var Rules = []Rule{
	{RuleTwistHand, "Twist hands"},
	{RuleRotateCards, "Rotate hands"},
	{RuleTakeUntilCover, "Take until cover"},
	{RuleSingleShotgun, "Shared shotgun"},
	{RuleShotgun, "Shotgun"},
	{RuleWild, "Wild deck"},
	{RuleAutoChooseColor, "Auto color"},
	{RuleChooseRandomColor, "Random wild color"},
	{RuleRandomColor, "What color next"},
	{RuleDebugCards, "Debug cards"},
	{RuleSideEffect, "Side effect"},
	{RuleIntervention, "Intervention"},
}

// IsRule reports whether key names a rule from the catalog.
func IsRule(key string) bool {
	for _, r := range Rules {
		if r.Key == key {
			return true
		}
	}
	return false
}

// RuleSet is the set of enabled rule keys.
type RuleSet map[string]bool

// NewRuleSet validates keys against the catalog.
func NewRuleSet(keys []string) (RuleSet, error) {
	rs := make(RuleSet, len(keys))
	for _, k := range keys {
		if !IsRule(k) {
			return nil, fmt.Errorf("unknown rule %q", k)
		}
		rs[k] = true
	}
	return rs, nil
}

// Has reports whether a rule is enabled.
func (rs RuleSet) Has(key string) bool {
	return rs[key]
}

// Keys returns enabled keys in catalog order.
func (rs RuleSet) Keys() []string {
	keys := []string{}
	for _, r := range Rules {
		if rs[r.Key] {
			keys = append(keys, r.Key)
		}
	}
	return keys
}

// Data lists the full catalog with the status of each rule.
func (rs RuleSet) Data() []types.RoomRule {
	res := make([]types.RoomRule, 0, len(Rules))
	for _, r := range Rules {
		res = append(res, types.RoomRule{Key: r.Key, Name: r.Name, Status: rs[r.Key]})
	}
	return res
}
