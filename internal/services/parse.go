package services

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"battle-arena/internal/models"
)

var (
	jsonFencePattern    = regexp.MustCompile("```json\\s*([\\s\\S]*?)\\s*```")
	genericFencePattern = regexp.MustCompile("```\\s*([\\s\\S]*?)\\s*```")
)

// requiredKeys must be present and truthy in every answer.
var requiredKeys = []string{"combatant1", "combatant2", "winner"}

// extractJSONText strips a markdown code fence around the answer. A ```json
// fence wins over a bare ``` fence; unfenced text is returned unchanged.
func extractJSONText(text string) string {
	if m := jsonFencePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := genericFencePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

// parseBattleResult turns the model's answer into a BattleResult. Only the
// presence of the required keys is checked unless strict is set.
func parseBattleResult(text string, strict bool) (*models.BattleResult, error) {
	jsonText := strings.TrimSpace(extractJSONText(text))

	var parsed any
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return nil, &AnalysisError{Kind: KindMalformedResponse, Err: err}
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, &AnalysisError{Kind: KindInvalidStructure, Detail: "answer is not a JSON object"}
	}
	var missing []string
	for _, key := range requiredKeys {
		if !truthy(obj[key]) {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, &AnalysisError{Kind: KindInvalidStructure, Detail: "missing " + strings.Join(missing, ", ")}
	}

	var result models.BattleResult
	mistyped := decodeLenient([]byte(jsonText), &result)
	result.Raw = json.RawMessage(jsonText)

	if strict {
		problems := mistyped
		for i := range problems {
			problems[i] = "unexpected type for " + problems[i]
		}
		problems = append(problems, strictProblems(&result)...)
		if len(problems) > 0 {
			return nil, &AnalysisError{Kind: KindInvalidStructure, Detail: strings.Join(problems, "; ")}
		}
	}
	return &result, nil
}

// decodeLenient fills result field by field. A field whose JSON type does not
// fit stays at its zero value and its path is returned; Raw still carries the
// answer unchanged.
func decodeLenient(data []byte, result *models.BattleResult) []string {
	if err := json.Unmarshal(data, result); err == nil {
		return nil
	}
	*result = models.BattleResult{}

	var mistyped []string
	top := decodeObject(data, "", &mistyped)
	decodeCombatant(top["combatant1"], "combatant1", &result.Combatant1, &mistyped)
	decodeCombatant(top["combatant2"], "combatant2", &result.Combatant2, &mistyped)
	decodeField(top, "winner", "winner", &result.Winner, &mistyped)
	decodeField(top, "winProbability", "winProbability", &result.WinProbability, &mistyped)
	decodeField(top, "verdict", "verdict", &result.Verdict, &mistyped)

	if raw, ok := top["scenarios"]; ok && !isNull(raw) {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			mistyped = append(mistyped, "scenarios")
		}
		for i, item := range items {
			path := fmt.Sprintf("scenarios[%d]", i)
			fields := decodeObject(item, path, &mistyped)
			var sc models.Scenario
			decodeField(fields, "title", path+".title", &sc.Title, &mistyped)
			decodeField(fields, "description", path+".description", &sc.Description, &mistyped)
			decodeField(fields, "advantage", path+".advantage", &sc.Advantage, &mistyped)
			result.Scenarios = append(result.Scenarios, sc)
		}
	}
	return mistyped
}

func decodeCombatant(raw json.RawMessage, path string, c *models.Combatant, mistyped *[]string) {
	if raw == nil || isNull(raw) {
		return
	}
	fields := decodeObject(raw, path, mistyped)
	decodeField(fields, "name", path+".name", &c.Name, mistyped)
	decodeField(fields, "description", path+".description", &c.Description, mistyped)
	decodeField(fields, "strengths", path+".strengths", &c.Strengths, mistyped)
	decodeField(fields, "weaknesses", path+".weaknesses", &c.Weaknesses, mistyped)

	if statsRaw, ok := fields["stats"]; ok && !isNull(statsRaw) {
		stats := decodeObject(statsRaw, path+".stats", mistyped)
		for _, f := range []struct {
			key string
			dst *float64
		}{
			{"strength", &c.Stats.Strength},
			{"speed", &c.Stats.Speed},
			{"defense", &c.Stats.Defense},
			{"agility", &c.Stats.Agility},
			{"intelligence", &c.Stats.Intelligence},
			{"stamina", &c.Stats.Stamina},
		} {
			decodeField(stats, f.key, path+".stats."+f.key, f.dst, mistyped)
		}
	}
}

// decodeObject splits a JSON object into its members. A non-object is
// reported under path and yields no members.
func decodeObject(raw json.RawMessage, path string, mistyped *[]string) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		if path != "" {
			*mistyped = append(*mistyped, path)
		}
		return nil
	}
	return fields
}

func decodeField(fields map[string]json.RawMessage, key, path string, dst any, mistyped *[]string) {
	raw, ok := fields[key]
	if !ok || isNull(raw) {
		return
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		*mistyped = append(*mistyped, path)
	}
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

// truthy follows JavaScript truthiness for decoded JSON values.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}

func strictProblems(r *models.BattleResult) []string {
	var problems []string
	inRange := func(v float64) bool { return v >= 0 && v <= 100 }

	for i, c := range []models.Combatant{r.Combatant1, r.Combatant2} {
		for _, s := range c.Stats.Named() {
			if !inRange(s.Value) {
				problems = append(problems, fmt.Sprintf("combatant%d.stats.%s out of range: %v", i+1, s.Name, s.Value))
			}
		}
	}
	if !r.Winner.Valid() {
		problems = append(problems, fmt.Sprintf("winner must be 1 or 2, got %d", r.Winner))
	}
	if !inRange(r.WinProbability) {
		problems = append(problems, fmt.Sprintf("winProbability out of range: %v", r.WinProbability))
	}
	for i, sc := range r.Scenarios {
		if !sc.Advantage.Valid() {
			problems = append(problems, fmt.Sprintf("scenarios[%d].advantage must be 1 or 2, got %d", i, sc.Advantage))
		}
	}
	return problems
}
