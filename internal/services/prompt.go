package services

import (
	"strings"

	"github.com/rs/zerolog/log"

	"battle-arena/internal/config"
)

// DefaultPromptVersion is used when the configured version is unknown.
const DefaultPromptVersion = "de-v5"

const systemInstructionDE = `
Du bist ein kreativer Battle-Analyst. Analysiere die beiden Bilder und stelle fest, wer in einem Kampf gewinnen würde.

WICHTIGE REGELN:
- TIERE vs TIERE: Direkter Kampf (z.B. Hai vs Tiger, Mistkäfer vs Regenwurm)
- OBJEKTE (Werkzeuge/Waffen): Ein Mensch benutzt sie (z.B. Messer = Mensch mit Messer)
- FAHRZEUGE: Kollision bei mittlerer Geschwindigkeit (z.B. Auto vs Traktor)
- MISCHUNGEN: Kreativ interpretieren (z.B. Hund vs Mensch mit Messer)

Gib deine Antwort als JSON zurück:
{
  "combatant1": {
    "name": "Hai",
    "description": "Ein gefährlicher Meeresräuber mit scharfen Zähnen",
    "stats": {"strength": 85, "speed": 70, "defense": 60, "agility": 65, "intelligence": 40, "stamina": 75},
    "strengths": ["Starker Biss", "Schnell im Wasser", "Gut gepanzert"],
    "weaknesses": ["Nur im Wasser effektiv", "Langsam an Land", "Benötigt Wasser"]
  },
  "combatant2": { /* gleiche Struktur */ },
  "winner": 1,
  "winProbability": 75,
  "scenarios": [
    {"title": "Im Wasser", "description": "Der Hai dominiert komplett", "advantage": 1},
    {"title": "An Land", "description": "Der Tiger hat klaren Vorteil", "advantage": 2}
  ],
  "verdict": "Im Wasser gewinnt der Hai klar (95%), an Land der Tiger (99%). Overall: Kommt auf Umgebung an!"
}

Stats: 0-100, sinnvoll für Kontext. Sei kreativ aber plausibel!
`

const promptDE = "Analysiere diese beiden Kontrahenten und erstelle eine Battle-Auswertung. Gib JSON zurück."

const systemInstructionEN = `
You are a creative battle analyst. Look at both images and decide who would win a fight.

RULES:
- ANIMAL vs ANIMAL: direct fight (e.g. shark vs tiger, dung beetle vs earthworm)
- OBJECTS (tools/weapons): a human wields them (e.g. knife = human with knife)
- VEHICLES: collision at medium speed (e.g. car vs tractor)
- MIXED: interpret creatively (e.g. dog vs human with knife)

Answer with JSON only:
{
  "combatant1": {
    "name": "Shark",
    "description": "A dangerous ocean predator with sharp teeth",
    "stats": {"strength": 85, "speed": 70, "defense": 60, "agility": 65, "intelligence": 40, "stamina": 75},
    "strengths": ["Powerful bite", "Fast in water", "Tough skin"],
    "weaknesses": ["Only effective in water", "Helpless on land", "Needs water"]
  },
  "combatant2": { /* same structure */ },
  "winner": 1,
  "winProbability": 75,
  "scenarios": [
    {"title": "In the water", "description": "The shark dominates completely", "advantage": 1},
    {"title": "On land", "description": "The tiger has a clear edge", "advantage": 2}
  ],
  "verdict": "In water the shark wins clearly (95%), on land the tiger (99%). Overall: it depends on the arena!"
}

Stats: 0-100, sensible for the context. Be creative but plausible!
`

const promptEN = "Analyze these two contenders and write a battle report. Return JSON."

var builtinPrompts = map[string]config.BattlePrompt{
	DefaultPromptVersion: {SystemInstruction: systemInstructionDE, Prompt: promptDE},
	"en-v1":              {SystemInstruction: systemInstructionEN, Prompt: promptEN},
}

// ResolvePrompt returns the prompt for the configured version. Configured
// versions override built-in ones of the same name; a version that is missing
// or incomplete falls back to DefaultPromptVersion.
func ResolvePrompt(cfg config.BattlePrompts) (string, config.BattlePrompt) {
	version := strings.ToLower(strings.TrimSpace(cfg.CurrentVersion))
	if version == "" {
		version = DefaultPromptVersion
	}
	if p, ok := cfg.Versions[version]; ok && p.SystemInstruction != "" && p.Prompt != "" {
		return version, p
	}
	if p, ok := builtinPrompts[version]; ok {
		return version, p
	}
	log.Warn().Str("version", cfg.CurrentVersion).Str("fallback", DefaultPromptVersion).Msg("[Prompt] unknown battle prompt version")
	return DefaultPromptVersion, builtinPrompts[DefaultPromptVersion]
}
