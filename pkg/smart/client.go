// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and prysm contributors
//
// SPDX-License-Identifier: Apache-2.0

package smart

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client is the entry point for health queries and self-tests. Create it once
// with New and release it with Close.
type Client struct {
	backend Backend
	logger  zerolog.Logger

	mu     sync.Mutex
	closed bool
}

type Option func(*Client)

func WithBackend(b Backend) Option {
	return func(c *Client) { c.backend = b }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New checks the backend's dependencies and returns a ready client.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	c := &Client{logger: log.Logger}
	for _, o := range opts {
		o(c)
	}
	if c.backend == nil {
		return nil, invalidArgf("new client", "no backend configured")
	}
	if err := c.backend.Check(ctx); err != nil {
		return nil, classify("new client", err)
	}
	c.logger = c.logger.With().Str("backend", c.backend.Name()).Logger()
	c.logger.Debug().Msg("smart client initialized")
	return c, nil
}

// BackendName names the backend serving this client.
func (c *Client) BackendName() string { return c.backend.Name() }

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.backend.Close()
}

func (c *Client) ctx(ctx context.Context, device string) context.Context {
	return c.logger.With().Str("device", device).Logger().WithContext(ctx)
}

// IsTechAvail reports whether the backend supports every operation class of
// mode on tech. The error explains why not.
func (c *Client) IsTechAvail(tech Tech, mode TechMode) (bool, error) {
	if err := c.backend.TechAvail(tech, mode); err != nil {
		return false, err
	}
	return true, nil
}

// ATAGetInfo reads the health report of an ATA device.
func (c *Client) ATAGetInfo(ctx context.Context, device string, extra ...ExtraArg) (*AtaHealth, error) {
	if err := c.backend.TechAvail(TechATA, ModeInfo); err != nil {
		return nil, err
	}
	h, err := c.backend.ATAGetInfo(c.ctx(ctx, device), device, extra)
	if err != nil {
		c.logger.Debug().Err(err).Str("device", device).Msg("ata get info failed")
		return nil, classify("ata get info", err)
	}
	return h, nil
}

// ATAGetInfoFromData decodes a bare SMART data page or a tagged blob.
func (c *Client) ATAGetInfoFromData(data []byte) (*AtaHealth, error) {
	h, err := DecodeATAHealth(data)
	if err != nil {
		return nil, err
	}
	c.logger.Debug().Int("attributes", len(h.Attributes)).Msg("ata data decoded")
	return h, nil
}

// SCSIGetInfo reads the health report of a SCSI/SAS device.
func (c *Client) SCSIGetInfo(ctx context.Context, device string, extra ...ExtraArg) (*ScsiHealth, error) {
	if err := c.backend.TechAvail(TechSCSI, ModeInfo); err != nil {
		return nil, err
	}
	h, err := c.backend.SCSIGetInfo(c.ctx(ctx, device), device, extra)
	if err != nil {
		c.logger.Debug().Err(err).Str("device", device).Msg("scsi get info failed")
		return nil, classify("scsi get info", err)
	}
	return h, nil
}

// SetEnabled enables or disables SMART on the device.
func (c *Client) SetEnabled(ctx context.Context, device string, enabled bool, extra ...ExtraArg) error {
	if err := c.backend.SetEnabled(c.ctx(ctx, device), device, enabled, extra); err != nil {
		return classify("set smart enabled", err)
	}
	c.logger.Info().Str("device", device).Bool("enabled", enabled).Msg("smart state changed")
	return nil
}

// DeviceSelfTest requests op and returns as soon as the device accepted it.
// Poll ATAGetInfo or SCSIGetInfo for progress.
func (c *Client) DeviceSelfTest(ctx context.Context, device string, op SelfTestOp, extra ...ExtraArg) (SelfTestState, error) {
	state, err := c.backend.SelfTest(c.ctx(ctx, device), device, op, extra)
	if err != nil {
		return state, classify("device self-test", err)
	}
	c.logger.Info().Str("device", device).Str("op", op.String()).Str("state", state.String()).Msg("self-test requested")
	return state, nil
}
