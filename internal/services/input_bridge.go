package services

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/latestcomment/go-interview-room/internal/models"
)

// InputBridge turns the human participant's turn into one prompt frame and
// one reply frame. A client that goes away is answered with the termination
// sentinel so the conversation ends on its own terms. Cancellation is an
// error, the client is still there.
type InputBridge struct {
	channel  FrameChannel
	session  *models.Session
	sentinel string
}

func NewInputBridge(channel FrameChannel, session *models.Session, sentinel string) *InputBridge {
	return &InputBridge{channel: channel, session: session, sentinel: sentinel}
}

func (b *InputBridge) RequestInput(ctx context.Context) (string, error) {
	b.session.Status = models.StatusAwaitingInput
	defer func() { b.session.Status = models.StatusActive }()

	if err := b.channel.Send(models.TagTurn, models.TurnUser); err != nil {
		log.Info().Err(err).Str("session_id", b.session.SessionId.String()).Msg("client disconnected before input request")
		return b.sentinel, nil
	}
	text, err := b.channel.Receive(ctx)
	if errors.Is(err, ErrChannelClosed) {
		log.Info().Err(err).Str("session_id", b.session.SessionId.String()).Msg("client disconnected during input wait")
		return b.sentinel, nil
	}
	if err != nil {
		return "", errors.Wrap(err, "await candidate input")
	}
	return text, nil
}
