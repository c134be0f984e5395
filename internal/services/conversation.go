package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/latestcomment/go-interview-room/internal/models"
)

// TaskSource is the history source of the seed task.
const TaskSource = "user"

type Observer interface {
	OnMessage(msg models.Message) error
}

type ObserverFunc func(msg models.Message) error

func (f ObserverFunc) OnMessage(msg models.Message) error { return f(msg) }

type TaskResult struct {
	StopReason models.StopReason
	Messages   []models.Message
}

// RoundRobin drives participants in fixed cyclic order, one at a time.
type RoundRobin struct {
	session      *models.Session
	participants []Participant
	termination  string
	maxTurns     int
}

func NewRoundRobin(session *models.Session, participants []Participant, termination string, maxTurns int) (*RoundRobin, error) {
	if len(participants) == 0 {
		return nil, errors.New("round robin needs at least one participant")
	}
	if maxTurns < 1 {
		return nil, errors.Errorf("max turns must be positive, got %d", maxTurns)
	}
	return &RoundRobin{
		session:      session,
		participants: participants,
		termination:  termination,
		maxTurns:     maxTurns,
	}, nil
}

// Run seeds the history with task (when not empty) and takes turns until the
// termination marker shows up or the turn budget is spent. Every produced
// message reaches observer before the stop check. When observer fails the
// result still carries the stop reason of that turn, if any.
func (r *RoundRobin) Run(ctx context.Context, task string, observer Observer) (TaskResult, error) {
	if task != "" {
		r.session.Append(TaskSource, task)
	}

	for {
		if err := ctx.Err(); err != nil {
			r.session.Status = models.StatusTerminated
			return TaskResult{}, err
		}

		p := r.participants[r.session.Turns%len(r.participants)]
		msg, err := p.Produce(ctx, r.session.History())
		if err != nil {
			r.session.Status = models.StatusTerminated
			return TaskResult{}, errors.Wrapf(err, "turn %d", r.session.Turns+1)
		}

		stored := r.session.Append(p.Name(), msg.Content)
		r.session.Turns++

		var emitErr error
		if observer != nil {
			emitErr = observer.OnMessage(stored)
		}

		reason, stop := r.stopReason(stored)
		switch {
		case emitErr == nil && !stop:
			continue
		case emitErr == nil, errors.Is(emitErr, ErrChannelClosed) && stop:
			// a client gone on the terminating turn still ends the run normally
			r.session.Status = models.StatusTerminated
			return TaskResult{StopReason: reason, Messages: r.session.History()}, nil
		default:
			r.session.Status = models.StatusTerminated
			return TaskResult{StopReason: reason, Messages: r.session.History()}, errors.Wrapf(emitErr, "emit turn %d", r.session.Turns)
		}
	}
}

func (r *RoundRobin) stopReason(msg models.Message) (models.StopReason, bool) {
	if r.termination != "" && strings.Contains(msg.Content, r.termination) {
		return models.StopTextMention, true
	}
	if r.session.Turns >= r.maxTurns {
		return models.StopMaxTurns, true
	}
	return "", false
}
