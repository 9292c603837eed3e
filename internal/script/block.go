package script

// BlockType classifies a script block by its narrative role.
type BlockType string

const (
	BlockHook       BlockType = "HOOK"
	BlockIntro      BlockType = "INTRO"
	BlockBody       BlockType = "BODY"
	BlockTransition BlockType = "TRANSITION"
	BlockSales      BlockType = "SALES"
	BlockOutro      BlockType = "OUTRO"
)

// BlockTypes lists the recognized block types in narrative order.
var BlockTypes = []BlockType{BlockHook, BlockIntro, BlockBody, BlockTransition, BlockSales, BlockOutro}

// Block is one timed unit of the final script.
type Block struct {
	Timecode      string    `json:"timecode"`
	VisualCue     string    `json:"visualCue"`
	OverlayFX     string    `json:"overlayFX"`
	AudioScript   string    `json:"audioScript"`
	RussianScript string    `json:"russianScript"`
	BlockType     BlockType `json:"blockType"`
	ImageURL      string    `json:"imageUrl,omitempty"`
}

// Clone returns a copy of blocks that shares no backing array with the input.
func Clone(blocks []Block) []Block {
	if blocks == nil {
		return nil
	}
	out := make([]Block, len(blocks))
	copy(out, blocks)
	return out
}
