package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sashabaranov/go-openai"

	"github.com/latestcomment/go-interview-room/internal/models"
)

// Participant produces exactly one message per turn from a read-only copy of
// the conversation so far.
type Participant interface {
	Name() string
	Produce(ctx context.Context, history []models.Message) (models.Message, error)
}

type InputSource interface {
	RequestInput(ctx context.Context) (string, error)
}

type AssistantParticipant struct {
	name   string
	system string
	model  ChatModel
}

func NewAssistantParticipant(name, system string, model ChatModel) *AssistantParticipant {
	return &AssistantParticipant{name: name, system: system, model: model}
}

func (p *AssistantParticipant) Name() string { return p.name }

func (p *AssistantParticipant) Produce(ctx context.Context, history []models.Message) (models.Message, error) {
	messages := append(
		[]ChatMessage{{Role: openai.ChatMessageRoleSystem, Content: p.system}},
		lo.Map(history, func(m models.Message, _ int) ChatMessage {
			if m.Source == p.name {
				return ChatMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Content}
			}
			return ChatMessage{Role: openai.ChatMessageRoleUser, Name: m.Source, Content: m.Content}
		})...,
	)

	content, err := p.model.Complete(ctx, messages)
	if err != nil {
		return models.Message{}, errors.Wrapf(err, "%s", p.name)
	}
	return models.Message{Source: p.name, Content: content}, nil
}

type HumanParticipant struct {
	name  string
	input InputSource
}

func NewHumanParticipant(name string, input InputSource) *HumanParticipant {
	return &HumanParticipant{name: name, input: input}
}

func (p *HumanParticipant) Name() string { return p.name }

func (p *HumanParticipant) Produce(ctx context.Context, _ []models.Message) (models.Message, error) {
	content, err := p.input.RequestInput(ctx)
	if err != nil {
		return models.Message{}, errors.Wrapf(err, "%s", p.name)
	}
	return models.Message{Source: p.name, Content: content}, nil
}
