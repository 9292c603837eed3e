package agent

import (
	"github.com/lucasnoah/mediawar/internal/dossier"
	"github.com/lucasnoah/mediawar/internal/gateway"
)

// CandidateCount is how many topics a scout pass must return.
const CandidateCount = 4

var candidatesSchema = gateway.MustSchema("candidates", `{
  "type": "array",
  "minItems": 4,
  "maxItems": 4,
  "items": {
    "type": "object",
    "properties": {
      "title": {"type": "string"},
      "hook": {"type": "string"},
      "narrativeAngle": {"type": "string"},
      "viralFactor": {"type": "string"}
    },
    "required": ["title", "hook", "viralFactor"]
  }
}`)

var dossierSchema = gateway.MustSchema("dossier", dossier.Schema)

// timecode is requested but always recomputed.
var blocksSchema = gateway.MustSchema("script", `{
  "type": "array",
  "minItems": 1,
  "items": {
    "type": "object",
    "properties": {
      "timecode": {"type": "string"},
      "visualCue": {"type": "string"},
      "overlayFX": {"type": "string"},
      "audioScript": {"type": "string"},
      "russianScript": {"type": "string"},
      "blockType": {"type": "string", "enum": ["HOOK", "INTRO", "BODY", "TRANSITION", "SALES", "OUTRO"]}
    },
    "required": ["timecode", "visualCue", "audioScript", "russianScript", "blockType"]
  }
}`)
