package agent

import (
	"context"
	"strings"

	"github.com/louisbranch/ludos/internal/narrative/prompt"
)

const polisherSystem = "你是一位文学叙事大师。请将原始交互日志转化为生动的叙事散文。直接输出叙事文本。"

// MemoryDossier is one character's serialized memory handed to the polisher,
// private state included.
type MemoryDossier struct {
	CharacterID string
	Content     string
}

// Polisher turns a raw interaction log into literary narrative prose. Unlike
// the characters it reads every private dossier, so inner monologue in the
// output can be accurate instead of invented.
type Polisher struct {
	completer Completer
}

// NewPolisher builds a polisher on the given completion client.
func NewPolisher(completer Completer) *Polisher {
	return &Polisher{completer: completer}
}

// Polish rewrites the raw log as narrative prose. An empty log is replaced
// by a placeholder before the call; a blank model output degrades to the raw
// log behind a failure notice, so the stage always yields readable text.
func (p *Polisher) Polish(ctx context.Context, rawLog string, dossiers []MemoryDossier, sceneInfo string) (string, error) {
	if strings.TrimSpace(rawLog) == "" {
		rawLog = "（无交互记录）"
	}

	blocks := make([]string, 0, len(dossiers))
	for _, dossier := range dossiers {
		blocks = append(blocks, "【"+dossier.CharacterID+"】\n"+dossier.Content)
	}

	user, err := prompt.Polisher(prompt.PolisherParams{
		RawLog:            rawLog,
		CharacterDossiers: strings.Join(blocks, "\n"),
		SceneInfo:         sceneInfo,
	})
	if err != nil {
		return "", err
	}

	polished, err := p.completer.Complete(ctx, Request{
		System:      polisherSystem,
		User:        user,
		Temperature: 0.8,
		Retries:     2,
	})
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(polished) == "" {
		return "（润色失败，原始日志如下）\n\n" + rawLog, nil
	}
	return polished, nil
}
