package aws

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/imishinist/go-callbag"
	ssync "github.com/imishinist/go-callbag/sync"
)

// ReceiveMessageAPI is the part of *sqs.Client the source needs.
type ReceiveMessageAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
}

var _ ReceiveMessageAPI = (*sqs.Client)(nil)

type QueueMessage[T any] struct {
	// ReceiptHandle is nil when BodyHandler failed, so the message is left
	// for redelivery.
	ReceiptHandle *string
	Body          *T
}

type SQSSourceConfig[T any] struct {
	QueueURL string

	MaxNumberOfMessages int
	WaitTimeSeconds     int

	BodyHandler func(*string) (*T, error)
}

// NewSQSSource returns a pull-aware source of queue messages. Each session
// receives in its own goroutine and only calls ReceiveMessage when a pull
// request is outstanding and the messages of the previous receive are used
// up. A receive error ends the session with that error; ending the session
// from the sink cancels the receive in flight.
func NewSQSSource[T any](ctx context.Context, client ReceiveMessageAPI, config *SQSSourceConfig[T]) callbag.Source[QueueMessage[T]] {
	return func(r callbag.Request[QueueMessage[T]]) {
		if err := r.Type.Validate(); err != nil {
			callbag.Violate(callbag.RoleSource, r.Type, err)
			return
		}
		if r.Type != callbag.Start {
			callbag.Violate(callbag.RoleSource, r.Type, callbag.ErrNotStarted)
			return
		}
		if r.Sink == nil {
			callbag.Violate(callbag.RoleSource, r.Type, callbag.ErrMissingSink)
			return
		}

		s := &sqsSession[T]{
			client: client,
			config: config,
			sink:   r.Sink,
			demand: ssync.NewDemand(),
		}
		ctx, cancel := context.WithCancel(ctx)
		r.Sink.Start(func(r callbag.Request[QueueMessage[T]]) {
			switch r.Type {
			case callbag.Data:
				s.demand.Add(1)
			case callbag.End:
				s.demand.Close()
				cancel()
			case callbag.Start:
				callbag.Violate(callbag.RoleTalkback, r.Type, callbag.ErrDoubleStart)
			default:
				callbag.Violate(callbag.RoleTalkback, r.Type, r.Type.Validate())
			}
		})
		go func() {
			defer cancel()
			s.receive(ctx)
		}()
	}
}

type sqsSession[T any] struct {
	client ReceiveMessageAPI
	config *SQSSourceConfig[T]
	sink   callbag.Sink[QueueMessage[T]]
	demand *ssync.Demand

	buffer []QueueMessage[T]
}

func (s *sqsSession[T]) receive(ctx context.Context) {
	for {
		if err := s.demand.Acquire(ctx); err != nil {
			if !errors.Is(err, ssync.ErrClosed) {
				s.end(err)
			}
			return
		}

		for len(s.buffer) == 0 {
			result, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
				QueueUrl:            &s.config.QueueURL,
				MaxNumberOfMessages: int32(s.config.MaxNumberOfMessages),
				WaitTimeSeconds:     int32(s.config.WaitTimeSeconds),
			})
			if err != nil {
				s.end(fmt.Errorf("sqs: receive message: %w", err))
				return
			}

			for _, message := range result.Messages {
				var receiptHandle *string
				body, err := s.config.BodyHandler(message.Body)
				if err == nil {
					receiptHandle = message.ReceiptHandle
				}
				s.buffer = append(s.buffer, QueueMessage[T]{
					ReceiptHandle: receiptHandle,
					Body:          body,
				})
			}
		}

		m := s.buffer[0]
		s.buffer = s.buffer[1:]
		if s.demand.Closed() {
			return
		}
		s.sink.Data(m)
	}
}

// end terminates the session from the source side unless the sink already did.
func (s *sqsSession[T]) end(err error) {
	if s.demand.Close() {
		s.sink.End(err)
	}
}
