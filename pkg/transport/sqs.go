package transport

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
)

// SendMessageAPI is the part of the SQS client the transport uses.
type SendMessageAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQS delivers messages with SendMessage calls run on a worker pool.
type SQS struct {
	api  SendMessageAPI
	pool *workerPool
}

// Dial builds an SQS transport bound to opts.Endpoint. It is a Factory.
func Dial(ctx context.Context, opts Options) (Transport, error) {
	return DialSQS(ctx, opts)
}

// DialSQS is Dial returning the concrete type. Extra option functions are
// applied to the SQS client after the endpoint settings.
func DialSQS(ctx context.Context, opts Options, optFns ...func(*sqs.Options)) (*SQS, error) {
	if opts.Credentials == nil {
		return nil, errors.New("no credentials provider")
	}
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(opts.Endpoint.Region),
		config.WithCredentialsProvider(opts.Credentials),
	)
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}

	fns := []func(*sqs.Options){func(o *sqs.Options) {
		o.BaseEndpoint = aws.String(opts.Endpoint.BaseURL())
		if opts.MaxAttempts > 0 {
			o.RetryMaxAttempts = opts.MaxAttempts
		}
	}}
	fns = append(fns, optFns...)

	return NewSQS(sqs.NewFromConfig(cfg, fns...), opts.Concurrency), nil
}

// NewSQS wraps an existing client. concurrency bounds in-flight sends;
// zero means one goroutine per send.
func NewSQS(api SendMessageAPI, concurrency int) *SQS {
	return &SQS{api: api, pool: newWorkerPool(concurrency)}
}

func (t *SQS) SendAsync(queueURL, body string, done func(Result)) {
	t.pool.submit(func(ctx context.Context) {
		out, err := t.api.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:    aws.String(queueURL),
			MessageBody: aws.String(body),
		})
		if err != nil {
			done(Result{Err: describe(ctx, err)})
			return
		}
		done(Result{MessageID: aws.ToString(out.MessageId)})
	}, func(err error) {
		done(Result{Err: err})
	})
}

func (t *SQS) Drain(ctx context.Context) error {
	return t.pool.drain(ctx)
}

func (t *SQS) Shutdown() {
	t.pool.shutdown()
}

func describe(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return errors.Wrap(ErrShutdown, err.Error())
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return errors.Wrapf(err, "SQS error %s", apiErr.ErrorCode())
	}
	return errors.Wrap(err, "sending message")
}
