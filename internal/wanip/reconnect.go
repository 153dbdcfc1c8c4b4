package wanip

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrReconnectTimeout is returned by Reconnect when the gateway does not
// report Connected within the configured max wait.
var ErrReconnectTimeout = errors.New("wanip: timeout waiting for connected state")

// ReconnectConfig bounds the blocking reconnect cycle.
type ReconnectConfig struct {
	// SettleDelay is waited after ForceTermination before the first
	// status poll. The FRITZ!Box needs a moment to actually drop the
	// connection; polling earlier reports Connected for the old link.
	SettleDelay time.Duration

	// PollInterval between GetStatusInfo calls.
	PollInterval time.Duration

	// MaxWait bounds the whole polling phase.
	MaxWait time.Duration
}

func (c ReconnectConfig) withDefaults() ReconnectConfig {
	if c.SettleDelay == 0 {
		c.SettleDelay = 10 * time.Second
	}
	if c.PollInterval == 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.MaxWait == 0 {
		c.MaxWait = 2 * time.Minute
	}
	return c
}

// Reconnect forces a WAN termination and blocks until the gateway
// reports Connected again, the max wait elapses or ctx is cancelled.
// Success does not guarantee that the external IP address changed; most
// providers hand out a new one, some re-assign the old lease.
func (c *Client) Reconnect(ctx context.Context, conf ReconnectConfig) error {
	conf = conf.withDefaults()

	if err := c.ForceTermination(ctx); err != nil {
		return errors.Wrap(err, "force termination error")
	}

	log.WithField("delay", conf.SettleDelay).Info("wanip: waiting for termination to settle")
	if err := sleep(ctx, conf.SettleDelay); err != nil {
		return err
	}

	deadline := time.Now().Add(conf.MaxWait)
	for {
		si, err := c.StatusInfo(ctx)
		if err != nil {
			return errors.Wrap(err, "get status info error")
		}

		if si.ConnectionStatus.Connected() {
			log.Info("wanip: gateway reports connected")
			return nil
		}

		if time.Now().After(deadline) {
			return ErrReconnectTimeout
		}

		log.WithField("status", si.ConnectionStatus).Info("wanip: reconnect pending")
		if err := sleep(ctx, conf.PollInterval); err != nil {
			return err
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
