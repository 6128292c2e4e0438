package di

import (
	"context"
	"fmt"

	"github.com/sarulabs/di/v2"
	"go.uber.org/zap"

	"github.com/LeJamon/goNFTMarket/internal/config"
	"github.com/LeJamon/goNFTMarket/internal/core/host"
	"github.com/LeJamon/goNFTMarket/internal/core/state"
	"github.com/LeJamon/goNFTMarket/internal/log"
	"github.com/LeJamon/goNFTMarket/internal/server/api/jsonrpc"
	"github.com/LeJamon/goNFTMarket/internal/storage/eventstore"
	"github.com/LeJamon/goNFTMarket/internal/world"
)

// Provider produces the service definitions for a configuration.
type Provider struct {
	config   *config.Config
	closeLog func() error
}

// NewProvider creates a new service provider.
func NewProvider(cfg *config.Config) *Provider {
	return &Provider{config: cfg}
}

// base is an opened state backend with its closer.
type base struct {
	view  state.View
	close func() error
}

// Definitions returns every service definition. The event store and
// recorder are only defined when history is enabled.
func (p *Provider) Definitions() []di.Def {
	defs := []di.Def{
		{
			Name:  ServiceConfig,
			Build: func(di.Container) (interface{}, error) { return p.config, nil },
		},
		p.loggerDef(),
		p.clockDef(),
		p.stateDef(),
		p.hostDef(),
		p.worldDef(),
		p.rpcDef(),
	}
	if p.config.Events.Enabled {
		defs = append(defs, p.eventStoreDef(), p.recorderDef())
	}
	return defs
}

func (p *Provider) loggerDef() di.Def {
	return di.Def{
		Name: ServiceLogger,
		Build: func(di.Container) (interface{}, error) {
			l := p.config.Log
			logger, closeFn, err := log.NewLogger(log.Options{
				Level:   l.Level,
				File:    l.File,
				Console: l.Console,
				Color:   l.Color,
			})
			if err != nil {
				return nil, err
			}
			p.closeLog = closeFn
			return logger, nil
		},
		Close: func(interface{}) error {
			return p.closeLog()
		},
	}
}

func (p *Provider) clockDef() di.Def {
	return di.Def{
		Name: ServiceClock,
		Build: func(di.Container) (interface{}, error) {
			if !p.config.Chain.ManualClock {
				return (*host.ManualClock)(nil), nil
			}
			return host.NewManualClock(world.DefaultTime), nil
		},
	}
}

func (p *Provider) stateDef() di.Def {
	return di.Def{
		Name: ServiceState,
		Build: func(di.Container) (interface{}, error) {
			view, closeFn, err := state.OpenBase(context.Background(), p.config.State.Backend, p.config.State.Path)
			if err != nil {
				return nil, fmt.Errorf("open %s state: %w", p.config.State.Backend, err)
			}
			return &base{view: view, close: closeFn}, nil
		},
		Close: func(obj interface{}) error {
			return obj.(*base).close()
		},
	}
}

func (p *Provider) eventStoreDef() di.Def {
	return di.Def{
		Name: ServiceEventStore,
		Build: func(ctn di.Container) (interface{}, error) {
			cfg := p.config.Events.Config
			store, err := eventstore.New(&cfg)
			if err != nil {
				return nil, err
			}
			ctx, cancel := context.WithTimeout(context.Background(), cfg.DefaultTimeout)
			defer cancel()
			if err := store.Open(ctx); err != nil {
				return nil, err
			}
			return eventstore.Store(store), nil
		},
		Close: func(obj interface{}) error {
			return obj.(eventstore.Store).Close(context.Background())
		},
	}
}

func (p *Provider) recorderDef() di.Def {
	return di.Def{
		Name: ServiceRecorder,
		Build: func(ctn di.Container) (interface{}, error) {
			store, err := ctn.SafeGet(ServiceEventStore)
			if err != nil {
				return nil, err
			}
			logger, err := ctn.SafeGet(ServiceLogger)
			if err != nil {
				return nil, err
			}
			h, err := ctn.SafeGet(ServiceHost)
			if err != nil {
				return nil, err
			}
			rec := eventstore.NewRecorder(store.(eventstore.Store), p.config.Events.QueueSize, logger.(*zap.Logger))
			rec.Attach(h.(*host.Host))
			return rec, nil
		},
		Close: func(obj interface{}) error {
			ctx, cancel := context.WithTimeout(context.Background(), p.config.Server.ShutdownGrace)
			defer cancel()
			return obj.(*eventstore.Recorder).Close(ctx)
		},
	}
}

func (p *Provider) hostDef() di.Def {
	return di.Def{
		Name: ServiceHost,
		Build: func(ctn di.Container) (interface{}, error) {
			b, err := ctn.SafeGet(ServiceState)
			if err != nil {
				return nil, err
			}
			logger, err := ctn.SafeGet(ServiceLogger)
			if err != nil {
				return nil, err
			}
			clock, err := ctn.SafeGet(ServiceClock)
			if err != nil {
				return nil, err
			}

			opts := []host.Option{host.WithLogger(logger.(*zap.Logger))}
			if c := clock.(*host.ManualClock); c != nil {
				opts = append(opts, host.WithClock(c))
			}
			if limit := p.config.Chain.BlockGasLimit; limit > 0 {
				opts = append(opts, host.WithBlockGasLimit(limit))
			}
			return host.New(b.(*base).view, p.config.Chain.ProbeCacheSize, opts...)
		},
	}
}

func (p *Provider) worldDef() di.Def {
	return di.Def{
		Name: ServiceWorld,
		Build: func(ctn di.Container) (interface{}, error) {
			h, err := ctn.SafeGet(ServiceHost)
			if err != nil {
				return nil, err
			}
			logger, err := ctn.SafeGet(ServiceLogger)
			if err != nil {
				return nil, err
			}
			clock, err := ctn.SafeGet(ServiceClock)
			if err != nil {
				return nil, err
			}
			// Attach the recorder first so genesis deployments are kept.
			if p.config.Events.Enabled {
				if _, err := ctn.SafeGet(ServiceRecorder); err != nil {
					return nil, err
				}
			}

			g, err := p.config.Genesis.Load()
			if err != nil {
				return nil, err
			}
			m := p.config.Marketplace
			return world.Bootstrap(h.(*host.Host), g, world.Options{
				Deployer:       m.Deployer,
				FeeReceiver:    m.FeeReceiver,
				FeeBps:         m.FeeBps,
				Refunds:        m.Refunds(),
				RecoveryGasCap: m.RecoveryGasCap,
				Clock:          clock.(*host.ManualClock),
				Logger:         logger.(*zap.Logger),
			})
		},
	}
}

func (p *Provider) rpcDef() di.Def {
	return di.Def{
		Name: ServiceRPC,
		Build: func(ctn di.Container) (interface{}, error) {
			w, err := ctn.SafeGet(ServiceWorld)
			if err != nil {
				return nil, err
			}
			logger, err := ctn.SafeGet(ServiceLogger)
			if err != nil {
				return nil, err
			}
			opts := jsonrpc.Options{
				QuoteCacheTTL: p.config.Server.QuoteCacheTTL,
				MaxBodyBytes:  p.config.Server.MaxBodyBytes,
				Logger:        logger.(*zap.Logger),
			}
			if p.config.Events.Enabled {
				store, err := ctn.SafeGet(ServiceEventStore)
				if err != nil {
					return nil, err
				}
				opts.Events = store.(eventstore.Store)
			}
			wd := w.(*world.World)
			s := jsonrpc.NewServer(wd, opts)
			s.InvalidateOn(wd.Host)
			return s, nil
		},
	}
}
