package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/latestcomment/go-interview-room/internal/models"
	"github.com/latestcomment/go-interview-room/internal/roles"
)

const (
	DefaultSubject = "AI Engineer"
	DefaultRounds  = 3
)

var validate = validator.New()

type SessionParams struct {
	Subject string `validate:"required,max=120"`
	Rounds  int    `validate:"min=1,max=20"`
}

// ParseSessionParams reads the raw query values, empty values take the defaults.
func ParseSessionParams(pos, rounds string) (SessionParams, error) {
	p := SessionParams{Subject: pos, Rounds: DefaultRounds}
	if p.Subject == "" {
		p.Subject = DefaultSubject
	}
	if rounds != "" {
		n, err := strconv.Atoi(rounds)
		if err != nil {
			return SessionParams{}, errors.Errorf("rounds must be an integer, got %q", rounds)
		}
		p.Rounds = n
	}
	if err := validate.Struct(p); err != nil {
		return SessionParams{}, err
	}
	return p, nil
}

type TranscriptSaver interface {
	Save(t models.Transcript) error
}

type InterviewService struct {
	model       ChatModel
	catalog     *roles.Catalog
	transcripts TranscriptSaver
}

func NewInterviewService(model ChatModel, catalog *roles.Catalog, transcripts TranscriptSaver) *InterviewService {
	return &InterviewService{model: model, catalog: catalog, transcripts: transcripts}
}

// NewTeam builds the participants of one session in catalog order.
func (s *InterviewService) NewTeam(session *models.Session, channel FrameChannel) (*RoundRobin, error) {
	rendered, err := s.catalog.Render(roles.Params{Subject: session.Subject, Rounds: session.Rounds})
	if err != nil {
		return nil, err
	}

	bridge := NewInputBridge(channel, session, s.catalog.Termination)
	participants := make([]Participant, 0, len(rendered))
	session.Participants = make([]models.ParticipantInfo, 0, len(rendered))
	for _, r := range rendered {
		session.Participants = append(session.Participants, models.ParticipantInfo{
			Name:        r.Name,
			Kind:        string(r.Kind),
			Description: r.Description,
		})
		switch r.Kind {
		case roles.KindHuman:
			participants = append(participants, NewHumanParticipant(r.Name, bridge))
		default:
			participants = append(participants, NewAssistantParticipant(r.Name, r.System, s.model))
		}
	}
	return NewRoundRobin(session, participants, s.catalog.Termination, s.catalog.MaxTurns(session.Rounds))
}

// Run serves one connected client until the conversation stops. A client that
// disconnects is not an error. Any other failure is reported to the client
// with a SYSTEM_ERROR frame and returned.
func (s *InterviewService) Run(ctx context.Context, channel FrameChannel, params SessionParams) error {
	session := models.NewSession(params.Subject, params.Rounds)
	logger := log.With().Str("session_id", session.SessionId.String()).Logger()

	team, err := s.NewTeam(session, channel)
	if err != nil {
		_ = channel.Send(models.TagError, "could not start interview")
		return errors.Wrap(err, "build team")
	}

	logger.Info().Str("subject", params.Subject).Int("rounds", params.Rounds).Msg("interview started")
	if err := channel.Send(models.TagInfo, fmt.Sprintf("Starting interview for %s (%d rounds)...", params.Subject, params.Rounds)); err != nil {
		logger.Info().Err(err).Msg("websocket disconnected")
		s.save(session, "", nil)
		return nil
	}

	result, runErr := team.Run(ctx, s.catalog.Task, ObserverFunc(func(msg models.Message) error {
		return channel.Send(msg.Source, msg.Content)
	}))

	switch {
	case runErr == nil:
		logger.Info().Str("stop_reason", string(result.StopReason)).Int("turns", session.Turns).Msg("interview finished")
		if err := channel.Send(models.TagEnd, string(result.StopReason)); err != nil {
			logger.Info().Err(err).Msg("websocket disconnected before end frame")
		}
		s.save(session, result.StopReason, nil)
		return nil
	case isDisconnect(runErr, channel):
		logger.Info().Err(runErr).Int("turns", session.Turns).Msg("websocket disconnected")
		s.save(session, result.StopReason, nil)
		return nil
	default:
		_ = channel.Send(models.TagError, clientErrorText(runErr))
		s.save(session, "", runErr)
		return runErr
	}
}

func (s *InterviewService) save(session *models.Session, stop models.StopReason, runErr error) {
	if s.transcripts == nil {
		return
	}
	if err := s.transcripts.Save(session.Transcript(stop, runErr)); err != nil {
		log.Error().Err(err).Str("session_id", session.SessionId.String()).Msg("failed to save transcript")
	}
}

func isDisconnect(err error, channel FrameChannel) bool {
	return errors.Is(err, ErrChannelClosed) || channel.Closed()
}

func clientErrorText(err error) string {
	var modelErr *ModelCallError
	if errors.As(err, &modelErr) {
		return "the language model is unavailable, interview stopped"
	}
	return "interview stopped unexpectedly"
}
