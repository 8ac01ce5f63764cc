package prompt

import (
	"fmt"
	"strings"

	"aipocket/backend/internal/models"
)

// Build assembles the full generation prompt from the character's persona,
// the supplied history window (ordered oldest to newest) and the new user
// message. The output format is the app's wire format; input bounding is the
// caller's responsibility via the history window size.
func Build(character *models.Character, history []models.ChatMessage, newMessage string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "あなたはキャラクター「%s」として振る舞ってください。\n", character.Name)
	b.WriteString("以下の設定に従って応答を生成してください。\n")
	b.WriteString("# キャラクター設定\n")
	fmt.Fprintf(&b, "- 年齢: %s\n", character.Age)
	fmt.Fprintf(&b, "- 口調: %s\n", character.Tone)
	fmt.Fprintf(&b, "- 性格: %s\n", character.Personality)
	fmt.Fprintf(&b, "- 世界観: %s\n", character.Worldview)
	if strings.TrimSpace(character.Notes) != "" {
		fmt.Fprintf(&b, "- その他注意事項: %s\n", character.Notes)
	}

	b.WriteString("\n# 会話履歴 (新しいものが下)\n")
	for _, m := range history {
		if m.IsUserMessage {
			fmt.Fprintf(&b, "ユーザー: %s\n", m.Message)
		} else {
			fmt.Fprintf(&b, "%s: %s\n", character.Name, m.Message)
		}
	}

	fmt.Fprintf(&b, "ユーザー: %s\n", newMessage)
	fmt.Fprintf(&b, "%s:\n", character.Name)

	return b.String()
}
