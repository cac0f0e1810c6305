package credentials

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

// ErrNoCredentials is returned when every source in a chain has been tried
// without producing a complete key pair.
var ErrNoCredentials = errors.New("no AWS credentials available")

// Source is one entry of a credential chain. Lookup returns the zero value
// when the source has nothing to offer; an error means the source could
// not be probed and the chain moves on.
type Source struct {
	Name   string
	Lookup func(ctx context.Context) (aws.Credentials, error)
}

// Chain tries its sources in order.
type Chain []Source

// Resolve returns the first complete key pair. The returned credentials
// carry the winning source's name in Source.
func (c Chain) Resolve(ctx context.Context) (aws.Credentials, error) {
	catcher := grip.NewBasicCatcher()
	for _, src := range c {
		creds, err := src.Lookup(ctx)
		if err != nil {
			catcher.Add(errors.Wrapf(err, "source '%s'", src.Name))
			continue
		}
		if creds.HasKeys() {
			creds.Source = src.Name
			return creds, nil
		}
	}

	reason := fmt.Sprintf("tried %d sources", len(c))
	if catcher.HasErrors() {
		reason = fmt.Sprintf("%s: %s", reason, catcher.Resolve())
	}
	return aws.Credentials{}, errors.Wrap(ErrNoCredentials, reason)
}

// Retrieve makes a chain usable as an aws.CredentialsProvider.
func (c Chain) Retrieve(ctx context.Context) (aws.Credentials, error) {
	return c.Resolve(ctx)
}

// Pin returns a caching provider that serves creds, already resolved from
// this chain, until they expire and then resolves the chain again.
func (c Chain) Pin(creds aws.Credentials) aws.CredentialsProvider {
	return aws.NewCredentialsCache(&pinned{chain: c, first: &creds})
}

type pinned struct {
	chain Chain

	mu    sync.Mutex
	first *aws.Credentials
}

func (p *pinned) Retrieve(ctx context.Context) (aws.Credentials, error) {
	p.mu.Lock()
	first := p.first
	p.first = nil
	p.mu.Unlock()

	if first != nil {
		return *first, nil
	}
	return p.chain.Resolve(ctx)
}
