package director

import "lyricvideo/internal/llm"

const (
	firstMaxTokens = 500
	nextMaxTokens  = 800

	// NegativePrompt 禁止画面文字与重复构图
	NegativePrompt = "text overlay, korean text, english text, " +
		"subtitles, words, letters, captions, typography, " +
		"same composition, same angle, same pose, identical framing"
)

var firstTemplate = llm.NewTemplate("first_prompt", `Visual style: {{.visual_style}}
Story context: {{.story}}
{{if .characters}}
Character designs (reference portraits will be attached to the request):
{{range .characters}}- {{.Role}}: {{.Prompt}}
{{end}}
Keep each character's face, hairstyle and outfit identical to these designs, but do NOT copy the portrait pose or framing.
{{end}}
First lyric line: "{{.english}} / {{.korean}}"

Create an opening image that captures the emotion and action of this line.
Image specs: 1080x1080 pixels (square format, 1:1).

CRITICAL RULES:
- NO speech bubbles
- NO text overlays
- NO Korean or English words in the image
- NO split-screen layouts
- START your prompt with a specific camera angle (wide shot, close-up, etc.)
- Focus on visual storytelling through character expression and body language

Respond with ONLY the Seedream prompt text, starting with the camera angle.
Example format: "Wide establishing shot, confused young traveler standing..."`)

var nextTemplate = llm.NewTemplate("next_prompt", `You're creating image #{{.line_number}} of {{.total_lines}} in a cinematic lyric video sequence.

Base visual style: {{.visual_style}}
Story context: {{.story}}
{{if .characters}}
Character designs (reference portraits are attached to every request):
{{range .characters}}- {{.Role}}: {{.Prompt}}
{{end}}{{end}}
Previous prompts (STYLE REFERENCE ONLY, never reuse their framing):
{{range $i, $p := .history}}{{$i}}. {{$p}}
{{end}}
Current lyric: "{{.english}} / {{.korean}}"

YOUR MISSION: Create a visually DISTINCT shot that maintains style but varies composition dramatically.

WHAT TO KEEP:
- Art style and color palette
- Character identity: faces, hairstyles and outfits exactly as designed

WHAT MUST CHANGE:
- Camera angle and framing must differ from EVERY previous prompt
- Character pose and gesture
- Composition, and location if the lyric suggests a scene change
{{if .conversation}}
This segment is a conversation between the two characters. If the current line addresses another person, keep BOTH characters visible in the frame.
{{end}}
ABSOLUTE RULES:
- NO speech bubbles
- NO text in image
- NO Korean/English words visible
- NO split-screen layouts
- NO same pose as any previous prompt

CAMERA VARIETY OPTIONS: close-up, wide/establishing shot, bird's eye view, low angle, profile/side view, dutch angle, POV shot, medium shot.

Respond in JSON:
{
  "creative_reasoning": "Why this specific angle/pose works for this lyric and how it differs from previous shots",
  "seedream_prompt": "START with camera angle, then scene description. NO text/bubbles.",
  "use_previous_as_reference": false
}`)
