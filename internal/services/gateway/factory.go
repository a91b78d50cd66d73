package gateway

import (
	"context"
	"fmt"

	"tourvista/config"
)

// Factory creates gateway instances based on provider type. When the
// process-wide simulation mode is on it hands out deterministic stubs
// instead; callers cannot tell the difference.
type Factory struct {
	cfg *config.Config
}

func NewFactory(cfg *config.Config) *Factory {
	return &Factory{cfg: cfg}
}

func (f *Factory) CreateGateway(ctx context.Context, provider Provider) (Gateway, error) {
	if f.cfg.SimulateGateways {
		return NewSimulator(provider), nil
	}

	switch provider {
	case ProviderBkash:
		return NewBkashAdapter(ctx, &f.cfg.Bkash)

	case ProviderNagad:
		return NewNagadAdapter(ctx, &f.cfg.Nagad)

	default:
		return nil, fmt.Errorf("unsupported gateway provider: %s", provider)
	}
}

func (f *Factory) SupportedProviders() []Provider {
	return []Provider{ProviderBkash, ProviderNagad}
}

// Registry manages the configured gateway instances.
type Registry struct {
	gateways map[Provider]Gateway
	factory  *Factory
}

func NewRegistry(factory *Factory) *Registry {
	return &Registry{
		gateways: make(map[Provider]Gateway),
		factory:  factory,
	}
}

func (r *Registry) Register(ctx context.Context, provider Provider) error {
	gw, err := r.factory.CreateGateway(ctx, provider)
	if err != nil {
		return fmt.Errorf("failed to create %s gateway: %w", provider, err)
	}
	r.gateways[provider] = gw
	return nil
}

func (r *Registry) Get(provider Provider) (Gateway, error) {
	gw, exists := r.gateways[provider]
	if !exists {
		return nil, fmt.Errorf("gateway provider %s not registered", provider)
	}
	return gw, nil
}

func (r *Registry) Available() []Provider {
	providers := make([]Provider, 0, len(r.gateways))
	for provider := range r.gateways {
		providers = append(providers, provider)
	}
	return providers
}
