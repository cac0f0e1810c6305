package transport

import (
	"net/url"
	"strings"

	"github.com/pkg/errors"
)

// DefaultRegion is used when neither the configuration nor the queue host
// names a region.
const DefaultRegion = "us-east-1"

// Endpoint is a parsed queue URL.
type Endpoint struct {
	QueueURL string
	Scheme   string
	Host     string
	Region   string
}

// BaseURL is the service endpoint the client talks to: the scheme and host
// of the queue URL.
func (e Endpoint) BaseURL() string {
	return e.Scheme + "://" + e.Host
}

// ParseEndpoint validates queueURL. A non-empty region wins over the one
// found in the host.
func ParseEndpoint(queueURL, region string) (Endpoint, error) {
	if queueURL == "" {
		return Endpoint{}, errors.Wrap(ErrMalformedEndpoint, "queue URL is empty")
	}
	u, err := url.Parse(queueURL)
	if err != nil {
		return Endpoint{}, errors.Wrapf(ErrMalformedEndpoint, "'%s': %s", queueURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Endpoint{}, errors.Wrapf(ErrMalformedEndpoint, "'%s': unsupported scheme '%s'", queueURL, u.Scheme)
	}
	if u.Host == "" {
		return Endpoint{}, errors.Wrapf(ErrMalformedEndpoint, "'%s': missing host", queueURL)
	}

	if region == "" {
		region = regionFromHost(u.Hostname())
	}
	if region == "" {
		region = DefaultRegion
	}

	return Endpoint{
		QueueURL: queueURL,
		Scheme:   u.Scheme,
		Host:     u.Host,
		Region:   region,
	}, nil
}

// regionFromHost understands sqs.<region>.amazonaws.com[.cn] and the legacy
// <region>.queue.amazonaws.com form.
func regionFromHost(host string) string {
	parts := strings.Split(host, ".")
	if len(parts) < 4 {
		return ""
	}
	switch {
	case parts[0] == "sqs" && parts[2] == "amazonaws":
		return parts[1]
	case parts[1] == "queue" && parts[2] == "amazonaws":
		return parts[0]
	}
	return ""
}
