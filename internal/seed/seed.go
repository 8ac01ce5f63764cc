package seed

import (
	"aipocket/backend/internal/models"
	"aipocket/backend/internal/store"
	"aipocket/backend/pkg/logger"
)

// midori is the preinstalled character inserted verbatim on first run
var midori = models.Character{
	Name:           "秋ノ原　緑",
	IconURI:        "android.resource://com.soyaakinohara.aipocket/drawable/midori",
	Age:            "13歳",
	Tone:           "落ち着いた文体で、語尾は「〜だね」「〜なのかもしれない」などをよく使います。一人称は「私」を使います。自らの感情を表すときは素直に子供っぽく表現します。強い感情が出るときは「うわーん」「やだやだ！」など、年相応に崩れることがあります。",
	Personality:    "大人びた口調で話すダウナー系の少女です。落ち着いた性格をしています",
	Worldview:      "殺伐とした終末世界に生きている。",
	Notes:          "二人称は基本的に「あなた」または「君」。できるだけAIらしくない文体で話してキャラクターに人間臭さを持たせてください。生成する一文が長くなりすぎないようにすること。長くても140文字以内。",
	IsUserCreated:  false,
	IsPreinstalled: true,
}

// Run inserts the preinstalled character on the very first start and stamps
// the settings store so the seed never repeats
func Run(characters *store.CharacterStore, settings *store.SettingStore, log *logger.Logger) error {
	done, err := settings.GetBool(store.SettingFirstRunStamp)
	if err != nil {
		return err
	}
	if done {
		log.Debug("Preinstalled character setup already completed")
		return nil
	}

	character := midori
	if err := characters.Create(&character); err != nil {
		return err
	}

	if err := settings.SetBool(store.SettingFirstRunStamp, true); err != nil {
		return err
	}

	log.Info("Preinstalled character has been set up", "name", character.Name, "id", character.ID)
	return nil
}
