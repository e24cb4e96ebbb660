package reporting

import (
	"os"

	"github.com/bassista/create_gh_repo/internal/logger"
	honeybadger "github.com/honeybadger-io/honeybadger-go"
)

// Option adjusts the Honeybadger configuration before the client is built.
type Option func(*honeybadger.Configuration)

// WithEndpoint sends notices to endpoint instead of api.honeybadger.io.
func WithEndpoint(endpoint string) Option {
	return func(c *honeybadger.Configuration) { c.Endpoint = endpoint }
}

// Reporter sends failures to Honeybadger. The zero value is disabled and
// every method is a no-op.
type Reporter struct {
	client *honeybadger.Client
}

// FromEnv enables reporting when HONEYBADGER_API_KEY is set. GO_ENV names
// the environment.
func FromEnv(opts ...Option) *Reporter {
	return New(os.Getenv("HONEYBADGER_API_KEY"), os.Getenv("GO_ENV"), opts...)
}

// New returns a Reporter for apiKey, or a disabled one when apiKey is empty.
func New(apiKey, env string, opts ...Option) *Reporter {
	if apiKey == "" {
		logger.WithComponent("reporting").Debug("Honeybadger is not active. To enable error reporting, set the HONEYBADGER_API_KEY environment variable.")
		return &Reporter{}
	}

	cfg := honeybadger.Configuration{APIKey: apiKey, Env: env}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger.WithComponent("reporting").Debug("Honeybadger error reporting is enabled.")
	return &Reporter{client: honeybadger.New(cfg)}
}

// Enabled reports whether notices are sent anywhere.
func (r *Reporter) Enabled() bool {
	return r != nil && r.client != nil
}

// Notify queues err with the given tags. Nil errors are ignored.
func (r *Reporter) Notify(err error, tags ...string) {
	if !r.Enabled() || err == nil {
		return
	}
	if _, nerr := r.client.Notify(err, honeybadger.Tags(tags)); nerr != nil {
		logger.WithComponent("reporting").Warnf("cannot notify Honeybadger: %v", nerr)
		return
	}
	logger.WithComponent("reporting").Debugf("Honeybadger notified: %v", err)
}

// Flush blocks until queued notices are sent. Call it before exiting.
func (r *Reporter) Flush() {
	if !r.Enabled() {
		return
	}
	r.client.Flush()
}
