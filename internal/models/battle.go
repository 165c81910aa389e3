package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Side identifies one of the two combatant positions. Position 1 is the first
// uploaded image, position 2 the second; it is not a ranking.
type Side int

const (
	SideFirst  Side = 1
	SideSecond Side = 2
)

// Valid reports whether s references one of the two combatant positions.
func (s Side) Valid() bool {
	return s == SideFirst || s == SideSecond
}

// UnmarshalJSON accepts integral numbers and numeric strings. Anything else
// decodes to the zero Side instead of failing, the answer is model output and
// is not enum-checked here.
func (s *Side) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	raw = strings.Trim(raw, `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || f != float64(int(f)) {
		*s = 0
		return nil
	}
	*s = Side(int(f))
	return nil
}

// BattleStats holds the six attributes of a combatant, each nominally 0-100.
type BattleStats struct {
	Strength     float64 `json:"strength"`
	Speed        float64 `json:"speed"`
	Defense      float64 `json:"defense"`
	Agility      float64 `json:"agility"`
	Intelligence float64 `json:"intelligence"`
	Stamina      float64 `json:"stamina"`
}

// Named returns the stats in display order keyed by their JSON names.
func (s BattleStats) Named() []NamedStat {
	return []NamedStat{
		{Name: "strength", Value: s.Strength},
		{Name: "speed", Value: s.Speed},
		{Name: "defense", Value: s.Defense},
		{Name: "agility", Value: s.Agility},
		{Name: "intelligence", Value: s.Intelligence},
		{Name: "stamina", Value: s.Stamina},
	}
}

type NamedStat struct {
	Name  string
	Value float64
}

// Combatant is one of the two analyzed entities.
type Combatant struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Stats       BattleStats `json:"stats"`
	Strengths   []string    `json:"strengths"`
	Weaknesses  []string    `json:"weaknesses"`
}

// Scenario is a situational comparison naming the side with the advantage.
type Scenario struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Advantage   Side   `json:"advantage"`
}

// BattleResult is the structured outcome of one analysis.
//
// Raw holds the exact JSON object the model answered with. When set,
// MarshalJSON emits it verbatim so conforming answers pass through unchanged,
// including keys this struct does not know about.
type BattleResult struct {
	Combatant1     Combatant       `json:"combatant1"`
	Combatant2     Combatant       `json:"combatant2"`
	Winner         Side            `json:"winner"`
	WinProbability float64         `json:"winProbability"`
	Scenarios      []Scenario      `json:"scenarios"`
	Verdict        string          `json:"verdict"`
	Raw            json.RawMessage `json:"-"`
}

type battleResultAlias BattleResult

// MarshalJSON implements json.Marshaler.
func (r BattleResult) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(battleResultAlias(r))
}

// Combatant returns the combatant at the given position. Any value other than
// SideFirst yields the second combatant.
func (r *BattleResult) Combatant(side Side) Combatant {
	if side == SideFirst {
		return r.Combatant1
	}
	return r.Combatant2
}

// WinnerCombatant returns the combatant the verdict names as winner.
func (r *BattleResult) WinnerCombatant() Combatant {
	return r.Combatant(r.Winner)
}

// LoserCombatant returns the other combatant.
func (r *BattleResult) LoserCombatant() Combatant {
	if r.Winner == SideFirst {
		return r.Combatant2
	}
	return r.Combatant1
}
