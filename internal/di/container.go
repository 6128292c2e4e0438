// Package di wires the nftmarketd services into a sarulabs container.
package di

import (
	"fmt"

	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"

	"github.com/LeJamon/goNFTMarket/internal/config"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/server/api/jsonrpc"
	"github.com/LeJamon/goNFTMarket/internal/storage/eventstore"
	"github.com/LeJamon/goNFTMarket/internal/world"
)

// Service names.
const (
	ServiceConfig     = "config"
	ServiceLogger     = "logger"
	ServiceClock      = "clock"
	ServiceState      = "state"
	ServiceEventStore = "eventstore"
	ServiceRecorder   = "eventstore.recorder"
	ServiceHost       = "host"
	ServiceWorld      = "world"
	ServiceRPC        = "rpc"
)

// Container resolves services lazily. Close releases them in reverse
// build order.
type Container struct {
	ctn    di.Container
	config *config.Config
}

// New builds a container for cfg.
func New(cfg *config.Config) (*Container, error) {
	builder, err := di.NewBuilder()
	if err != nil {
		return nil, err
	}
	if err := builder.Add(NewProvider(cfg).Definitions()...); err != nil {
		return nil, fmt.Errorf("register services: %w", err)
	}
	return &Container{ctn: builder.Build(), config: cfg}, nil
}

func (c *Container) get(name string, out interface{}) error {
	obj, err := c.ctn.SafeGet(name)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", name, err)
	}
	switch dst := out.(type) {
	case **zap.Logger:
		*dst = obj.(*zap.Logger)
	case **host.Host:
		*dst = obj.(*host.Host)
	case **world.World:
		*dst = obj.(*world.World)
	case **jsonrpc.Server:
		*dst = obj.(*jsonrpc.Server)
	case **eventstore.Recorder:
		*dst = obj.(*eventstore.Recorder)
	case *eventstore.Store:
		*dst = obj.(eventstore.Store)
	default:
		return fmt.Errorf("resolve %s: unsupported target %T", name, out)
	}
	return nil
}

// Config returns the configuration the container was built from.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the process logger.
func (c *Container) Logger() (*zap.Logger, error) {
	var l *zap.Logger
	return l, c.get(ServiceLogger, &l)
}

// Host returns the execution host.
func (c *Container) Host() (*host.Host, error) {
	var h *host.Host
	return h, c.get(ServiceHost, &h)
}

// World returns the bootstrapped world.
func (c *Container) World() (*world.World, error) {
	var w *world.World
	return w, c.get(ServiceWorld, &w)
}

// RPC returns the JSON-RPC handler.
func (c *Container) RPC() (*jsonrpc.Server, error) {
	var s *jsonrpc.Server
	return s, c.get(ServiceRPC, &s)
}

// EventStore returns the receipt history, or nil when it is disabled.
func (c *Container) EventStore() (eventstore.Store, error) {
	if !c.config.Events.Enabled {
		return nil, nil
	}
	var s eventstore.Store
	return s, c.get(ServiceEventStore, &s)
}

// Close releases every built service.
func (c *Container) Close() error {
	return c.ctn.Delete()
}
