package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/shaiso/scauto/internal/mq"
	"github.com/shaiso/scauto/internal/runsheet"
	"github.com/shaiso/scauto/internal/telemetry"
)

// handleFlowcellPending обрабатывает flowcell.pending.
//
// Битые сообщения и run sheet уходят в DLQ, прерванная обработка возвращается в очередь.
func (d *Daemon) handleFlowcellPending(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.FlowcellPendingPayload](&delivery.Message)
	if err != nil {
		return fmt.Errorf("%w: %v", mq.ErrReject, err)
	}
	if payload.Flowcell == "" {
		return fmt.Errorf("%w: empty flowcell", mq.ErrReject)
	}

	logger := telemetry.WithFlowcell(d.logger, payload.Flowcell).With("message_id", delivery.Message.ID)
	ctx = telemetry.WithLogger(ctx, logger)
	logger.Debug("received flowcell.pending event")

	_, err = d.RunFlowcell(ctx, payload.Flowcell, payload.RunSheet)
	return classify(ctx, err)
}

// classify решает судьбу сообщения по ошибке RunFlowcell.
func classify(ctx context.Context, err error) error {
	logger := telemetry.FromContext(ctx)

	switch {
	case err == nil:
		return nil

	case errors.Is(err, ErrFlowcellSkipped),
		errors.Is(err, ErrFlowcellActive),
		errors.Is(err, ErrFlowcellArchived):
		logger.Info("flowcell not processed", "reason", err)
		return nil

	case errors.Is(err, ErrArchive):
		logger.Error("flowcell archiving failed", "error", err)
		return err

	case errors.Is(err, os.ErrNotExist),
		errors.Is(err, runsheet.ErrMalformedSheet),
		errors.Is(err, runsheet.ErrEmptySheet),
		errors.Is(err, runsheet.ErrInvalidRow),
		errors.Is(err, ErrEmptyBatch):
		logger.Error("flowcell rejected", "error", err)
		return fmt.Errorf("%w: %w", mq.ErrReject, err)

	default:
		logger.Error("flowcell processing failed", "error", err)
		return err
	}
}
