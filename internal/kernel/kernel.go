package kernel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/vk/composegrid/internal/catalog"
	"github.com/vk/composegrid/internal/commission"
	"github.com/vk/composegrid/internal/config"
	"github.com/vk/composegrid/internal/ctxlog"
	"github.com/vk/composegrid/internal/hcl_adapter"
	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/model"
	"github.com/vk/composegrid/internal/profile"
	"github.com/vk/composegrid/internal/runtime"
	"github.com/vk/composegrid/internal/targets"
	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds decommissioning and server shutdown.
const shutdownTimeout = 10 * time.Second

// Kernel encapsulates a deployment's dependencies, configuration, and lifecycle.
type Kernel struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *runtime.Registry
	catalog  *catalog.Catalog
	loader   *hcl_adapter.Loader
	block    *hcl_adapter.Block
	root     *model.ContainmentModel
}

// New loads the configured block and builds its model tree. Without modules
// the core modules are registered. Targets from the block and from the
// targets file are applied before New returns.
func New(ctx context.Context, outW io.Writer, cfg *config.Config, modules ...runtime.Module) (*Kernel, error) {
	logger := newLogger(cfg.Log.Level, cfg.Log.Format, outW)
	ctx = ctxlog.WithLogger(ctx, logger)
	logger.Debug("Logger configured successfully.")

	reg := runtime.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	reg.RegisterModules(modules...)
	logger.Debug("All Go modules registered.", "count", len(modules))

	// Types declared in blocks shadow the ones modules ship.
	base := catalog.New(nil)
	if err := reg.PopulateCatalog(base); err != nil {
		return nil, err
	}
	cat := catalog.New(base)

	k := &Kernel{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		catalog:  cat,
		loader:   hcl_adapter.NewLoader(),
	}
	k.loader.OnType = k.registerType

	block, err := k.loader.Load(ctx, cfg.Block.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load block: %w", err)
	}
	k.block = block
	for _, td := range block.Types {
		if err := cat.Register(td.Type, td.Packaged...); err != nil {
			return nil, fmt.Errorf("failed to register type: %w", err)
		}
	}
	logger.Debug("Block loaded.", "files", len(block.Files), "types", len(block.Types))

	if err := reg.Validate(cat.Types()); err != nil {
		return nil, err
	}
	logger.Debug("Registry validation passed.")

	directives := block.Targets
	if cfg.Block.Targets != "" {
		fromFile, err := targets.Load(cfg.Block.Targets)
		if err != nil {
			return nil, err
		}
		directives = append(directives, fromFile...)
	}

	root, err := model.NewRoot(ctx, k.system(), block.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to build model tree: %w", err)
	}
	k.root = root
	if len(directives) > 0 {
		applied := root.ApplyTargets(ctx, directives)
		logger.Debug("Targets applied.", "applied", applied, "total", len(directives))
	}
	return k, nil
}

// registerType adds a type declared by an included block.
func (k *Kernel) registerType(td hcl_adapter.TypeDefinition) error {
	if err := k.registry.Validate([]*meta.Type{td.Type}); err != nil {
		return err
	}
	return k.catalog.Register(td.Type, td.Packaged...)
}

func (k *Kernel) system() *model.System {
	sys := &model.System{
		Catalog:            k.catalog,
		Activator:          k.registry,
		Entries:            k.registry,
		Blocks:             k.loader,
		Logger:             k.logger,
		DeploymentTimeout:  k.cfg.Commission.Timeout,
		ContainmentTimeout: k.cfg.Commission.ContainmentTimeout,
	}
	if k.cfg.Commission.Teardown == config.TeardownReverse {
		sys.Teardown = model.ReverseTeardown{}
	}
	if k.cfg.Commission.QueueSize > 0 {
		sys.CommissionerOptions = append(sys.CommissionerOptions, commission.WithQueueSize(k.cfg.Commission.QueueSize))
	}
	return sys
}

// Root returns the root container. This is primarily for testing.
func (k *Kernel) Root() *model.ContainmentModel {
	return k.root
}

// Registry returns the kernel's registry. This is primarily for testing.
func (k *Kernel) Registry() *runtime.Registry {
	return k.registry
}

// Run commissions the root container and keeps it, and the introspection
// server when enabled, alive until ctx ends. The tree is then decommissioned.
func (k *Kernel) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, k.logger)
	k.logger.Debug("Kernel.Run method started.")

	g, gctx := errgroup.WithContext(ctx)

	if k.cfg.Health.Port > 0 {
		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", k.cfg.Health.Port),
			Handler:           k.Routes(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			k.logger.Info("🩺 Introspection server starting", "address", fmt.Sprintf("http://localhost%s/health", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("introspection server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()
			k.logger.Debug("Shutting down introspection server...")
			return srv.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		if err := k.root.Commission(gctx); err != nil {
			return fmt.Errorf("commissioning failed: %w", err)
		}
		k.logger.Info("🚀 Block commissioned.", "path", k.cfg.Block.Path)

		<-gctx.Done()
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := k.root.Decommission(dctx); err != nil {
			return fmt.Errorf("decommissioning failed: %w", err)
		}
		k.logger.Info("🏁 Block decommissioned.")
		return nil
	})

	err := g.Wait()
	k.logger.Debug("Kernel.Run method finished.")
	return err
}

// PartitionPlan is the startup order of one partition.
type PartitionPlan struct {
	Partition string
	Startup   []string
}

// Plan assembles the tree and returns the startup order of every partition,
// parents before children, without commissioning anything.
func (k *Kernel) Plan(ctx context.Context) ([]PartitionPlan, error) {
	ctx = ctxlog.WithLogger(ctx, k.logger)
	if err := k.root.Assemble(ctx, nil); err != nil {
		return nil, err
	}
	var plans []PartitionPlan
	if err := collectPlans(k.root.Graph(), &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

func collectPlans(g *model.DependencyGraph, out *[]PartitionPlan) error {
	startup, err := g.StartupGraph()
	if err != nil {
		return fmt.Errorf("partition %s: %w", g.Partition(), err)
	}
	plan := PartitionPlan{Partition: g.Partition(), Startup: make([]string, 0, len(startup))}
	for _, m := range startup {
		plan.Startup = append(plan.Startup, m.Path())
	}
	*out = append(*out, plan)
	for _, child := range g.Children() {
		if err := collectPlans(child, out); err != nil {
			return err
		}
	}
	return nil
}

// Inspect assembles the tree and describes the model at path.
func (k *Kernel) Inspect(ctx context.Context, path string) (*ModelView, error) {
	ctx = ctxlog.WithLogger(ctx, k.logger)
	if err := k.root.Assemble(ctx, nil); err != nil {
		return nil, err
	}
	m, err := k.root.GetModel(path)
	if err != nil {
		return nil, err
	}
	return newModelView(m, true), nil
}

// Targets returns the directives loaded from the block. This is primarily for testing.
func (k *Kernel) Targets() []profile.TargetDirective {
	return k.block.Targets
}
