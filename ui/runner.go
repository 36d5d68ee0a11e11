package ui

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chatdesk/models"
	"chatdesk/network"
)

// MessageStore is the backend surface the UI drives.
type MessageStore interface {
	ListMessages(ctx context.Context) ([]models.Message, error)
	CreateMessage(ctx context.Context, body string) (string, error)
	UpdateMessage(ctx context.Context, id, body string) error
	DeleteMessage(ctx context.Context, id string) error
}

// Journal records writes and failures for later inspection. It never feeds
// back into State.
type Journal interface {
	BeginWrite(op, requestID, messageID string) error
	FinishWrite(requestID, messageID string, failure error) error
	RecordFailure(op, messageID string, failure error) error
}

// Runner executes effects against a MessageStore and turns each outcome into
// the Action that reports it.
type Runner struct {
	store   MessageStore
	journal Journal
	logger  *zap.Logger

	newRequestID func() string
}

// NewRunner wires a runner. journal and logger may be nil.
func NewRunner(store MessageStore, journal Journal, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		store:        store,
		journal:      journal,
		logger:       logger,
		newRequestID: uuid.NewString,
	}
}

// Run performs one effect. It blocks for the duration of a single round trip.
func (r *Runner) Run(ctx context.Context, effect Effect) Action {
	switch effect.Kind {
	case EffectList:
		messages, err := r.store.ListMessages(ctx)
		if err != nil {
			r.fail(network.OpList, "", err)
			return ListFailed{Err: err}
		}
		r.logger.Debug("messages loaded", zap.Int("count", len(messages)))
		return ListLoaded{Messages: messages}

	case EffectCreate:
		requestID := r.begin(network.OpCreate, "")
		id, err := r.store.CreateMessage(network.WithRequestID(ctx, requestID), effect.Body)
		r.finish(requestID, id, err)
		if err != nil {
			r.fail(network.OpCreate, id, err)
		}
		return SendFinished{ID: id, Err: err}

	case EffectUpdate:
		requestID := r.begin(network.OpUpdate, effect.ID)
		err := r.store.UpdateMessage(network.WithRequestID(ctx, requestID), effect.ID, effect.Body)
		r.finish(requestID, "", err)
		if err != nil {
			r.fail(network.OpUpdate, effect.ID, err)
		}
		return WriteFinished{Op: network.OpUpdate, ID: effect.ID, Err: err}

	case EffectDelete:
		requestID := r.begin(network.OpDelete, effect.ID)
		err := r.store.DeleteMessage(network.WithRequestID(ctx, requestID), effect.ID)
		r.finish(requestID, "", err)
		if err != nil {
			r.fail(network.OpDelete, effect.ID, err)
		}
		return WriteFinished{Op: network.OpDelete, ID: effect.ID, Err: err}
	}

	r.logger.Warn("unknown effect", zap.Stringer("kind", effect.Kind))
	return nil
}

func (r *Runner) begin(op, messageID string) string {
	requestID := r.newRequestID()
	if r.journal != nil {
		if err := r.journal.BeginWrite(op, requestID, messageID); err != nil {
			r.logger.Warn("journal begin write failed", zap.String("request_id", requestID), zap.Error(err))
		}
	}
	return requestID
}

func (r *Runner) finish(requestID, messageID string, failure error) {
	if r.journal == nil {
		return
	}
	if err := r.journal.FinishWrite(requestID, messageID, failure); err != nil {
		r.logger.Warn("journal finish write failed", zap.String("request_id", requestID), zap.Error(err))
	}
}

func (r *Runner) fail(op, messageID string, err error) {
	r.logger.Error("message backend call failed",
		zap.String("op", op),
		zap.String("message_id", messageID),
		zap.Int("status", network.StatusCode(err)),
		zap.Error(err),
	)
	if r.journal != nil {
		if jerr := r.journal.RecordFailure(op, messageID, err); jerr != nil {
			r.logger.Warn("journal record failure failed", zap.Error(jerr))
		}
	}
}
