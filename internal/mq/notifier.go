package mq

import (
	"context"

	"github.com/shaiso/scauto/internal/domain"
)

// MessagePublisher — то, что нужно Notifier от Publisher.
type MessagePublisher interface {
	Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error
}

// Notifier публикует события завершения образцов и flowcell.
type Notifier struct {
	pub MessagePublisher
}

// NewNotifier создаёт Notifier поверх publisher.
func NewNotifier(pub MessagePublisher) *Notifier {
	return &Notifier{pub: pub}
}

// SampleCompleted публикует sample.completed.
func (n *Notifier) SampleCompleted(ctx context.Context, run *domain.FlowcellRun, sample *domain.SampleRun) error {
	payload := SampleCompletedPayload{
		RunID:      run.ID,
		Flowcell:   sample.Flowcell,
		SampleID:   sample.SampleID,
		Chemistry:  sample.Chemistry,
		Status:     sample.Status,
		ExitCode:   sample.ExitCode,
		RemotePath: sample.RemotePath,
		Annotated:  sample.Annotated,
		Error:      sample.Error,
	}
	return n.pub.Publish(ctx, ExchangeSamples, RoutingKeyCompleted, NewMessage(MessageTypeSampleCompleted, payload))
}

// FlowcellCompleted публикует flowcell.completed.
func (n *Notifier) FlowcellCompleted(ctx context.Context, run *domain.FlowcellRun) error {
	payload := FlowcellCompletedPayload{
		RunID:            run.ID,
		Flowcell:         run.Flowcell,
		Status:           run.Status,
		Samples:          run.Samples,
		Processed:        run.Processed,
		Failed:           run.Failed,
		Skipped:          run.Skipped,
		Annotated:        run.Annotated,
		AnnotationFailed: run.AnnotationFailed,
		DurationSeconds:  run.Duration().Seconds(),
		Error:            run.Error,
	}
	return n.pub.Publish(ctx, ExchangeFlowcells, RoutingKeyCompleted, NewMessage(MessageTypeFlowcellCompleted, payload))
}
