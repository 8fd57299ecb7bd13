// This file translates decoded HCL blocks into profiles and type metadata.

package hcl_adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/composegrid/internal/ctxlog"
	"github.com/vk/composegrid/internal/meta"
	"github.com/vk/composegrid/internal/profile"
)

// translateContainer decodes a container body into p. Only the top level
// of a file (out != nil) may declare types and targets.
func (l *Loader) translateContainer(ctx context.Context, file string, body *hclsyntax.Body, p *profile.ContainmentProfile, out *Block) error {
	var attrs containerBody
	if diags := gohcl.DecodeBody(body, l.evalCtx, &attrs); diags.HasErrors() {
		return fmt.Errorf("failed to decode container in %s: %w", file, diags)
	}
	if attrs.Name != "" {
		if out == nil {
			return fmt.Errorf("%s: 'name' is only allowed at the top level of a file", body.SrcRange)
		}
		p.ProfileName = attrs.Name
	}
	if attrs.Priority != "" {
		p.Categories = &profile.CategoriesDirective{Priority: attrs.Priority}
	}
	for _, e := range attrs.Exports {
		p.Exports = append(p.Exports, profile.ServiceDirective{
			Reference: meta.ReferenceDescriptor{Type: e.Service, Version: e.Version},
			Source:    e.Source,
		})
	}

	for _, blk := range body.Blocks {
		if blk.Type == blockExport {
			continue
		}
		if len(blk.Labels) != 1 {
			return fmt.Errorf("%s: %s block requires exactly one label", blk.DefRange(), blk.Type)
		}
		name := blk.Labels[0]

		switch blk.Type {
		case blockType:
			if out == nil {
				return fmt.Errorf("%s: type blocks are only allowed at the top level of a file", blk.DefRange())
			}
			td, err := l.translateType(ctx, name, blk.Body)
			if err != nil {
				return fmt.Errorf("in type '%s': %w", name, err)
			}
			out.Types = append(out.Types, td)

		case blockTarget:
			if out == nil {
				return fmt.Errorf("%s: target blocks are only allowed at the top level of a file", blk.DefRange())
			}
			var tb targetBody
			if diags := gohcl.DecodeBody(blk.Body, l.evalCtx, &tb); diags.HasErrors() {
				return fmt.Errorf("failed to decode target '%s': %w", name, diags)
			}
			t, err := l.translateTarget(ctx, &targetBlock{Path: name, Priority: tb.Priority, Configuration: tb.Configuration})
			if err != nil {
				return err
			}
			out.Targets = append(out.Targets, t)

		case blockComponent:
			var cb componentBody
			if diags := gohcl.DecodeBody(blk.Body, l.evalCtx, &cb); diags.HasErrors() {
				return fmt.Errorf("failed to decode component '%s': %w", name, diags)
			}
			if cb.Type == "" {
				return fmt.Errorf("%s: component '%s' requires a 'type' attribute", blk.DefRange(), name)
			}
			cp, err := l.translateComponent(ctx, name, cb.Type, profile.Explicit, &cb)
			if err != nil {
				return fmt.Errorf("in component '%s': %w", name, err)
			}
			p.Profiles = append(p.Profiles, cp)

		case blockContainer:
			child := &profile.ContainmentProfile{ProfileName: name, ProfileMode: profile.Explicit, Source: file}
			if err := l.translateContainer(ctx, file, blk.Body, child, nil); err != nil {
				return fmt.Errorf("in container '%s': %w", name, err)
			}
			p.Profiles = append(p.Profiles, child)

		case blockNamed:
			var nb namedBody
			if diags := gohcl.DecodeBody(blk.Body, l.evalCtx, &nb); diags.HasErrors() {
				return fmt.Errorf("failed to decode named component '%s': %w", name, diags)
			}
			p.Profiles = append(p.Profiles, &profile.NamedComponentProfile{ProfileName: name, TypeName: nb.Type, Key: nb.Profile})

		case blockInclude:
			var ib includeBody
			if diags := gohcl.DecodeBody(blk.Body, l.evalCtx, &ib); diags.HasErrors() {
				return fmt.Errorf("failed to decode include '%s': %w", name, diags)
			}
			p.Profiles = append(p.Profiles, &profile.BlockIncludeDirective{ProfileName: name, Path: ib.Path, Base: file})

		case blockCompose:
			var cb composeBody
			if diags := gohcl.DecodeBody(blk.Body, l.evalCtx, &cb); diags.HasErrors() {
				return fmt.Errorf("failed to decode compose '%s': %w", name, diags)
			}
			d := &profile.BlockCompositionDirective{ProfileName: name, Resource: cb.Resource, Base: file}
			for _, tb := range cb.Targets {
				t, err := l.translateTarget(ctx, tb)
				if err != nil {
					return fmt.Errorf("in compose '%s': %w", name, err)
				}
				d.Targets = append(d.Targets, t)
			}
			p.Profiles = append(p.Profiles, d)

		default:
			return fmt.Errorf("%s: unsupported block type %q", blk.DefRange(), blk.Type)
		}
	}
	return nil
}

func (l *Loader) translateTarget(ctx context.Context, tb *targetBlock) (profile.TargetDirective, error) {
	cfg, err := l.evalMap(ctx, tb.Configuration, "configuration")
	if err != nil {
		return profile.TargetDirective{}, fmt.Errorf("in target '%s': %w", tb.Path, err)
	}
	t := profile.TargetDirective{Path: tb.Path, Configuration: cfg}
	if tb.Priority != "" {
		t.Categories = &profile.CategoriesDirective{Priority: tb.Priority}
	}
	return t, nil
}

// translateType builds the metadata of a type block and its packaged profiles.
func (l *Loader) translateType(ctx context.Context, name string, body hcl.Body) (TypeDefinition, error) {
	logger := ctxlog.FromContext(ctx).With("type", name)

	var tb typeBody
	if diags := gohcl.DecodeBody(body, l.evalCtx, &tb); diags.HasErrors() {
		return TypeDefinition{}, diags
	}

	collection, err := meta.ParseCollectionPolicy(tb.Collection)
	if err != nil {
		return TypeDefinition{}, err
	}
	if collection == meta.CollectionUndefined {
		collection = meta.CollectionWeak
	}

	t := &meta.Type{Info: meta.InfoDescriptor{Name: name, Version: tb.Version, Collection: collection}}
	if tb.Timeout != "" {
		if t.DeploymentTimeout, err = time.ParseDuration(tb.Timeout); err != nil {
			return TypeDefinition{}, fmt.Errorf("invalid timeout: %w", err)
		}
	}
	if t.Configuration, err = l.evalMap(ctx, tb.Configuration, "configuration"); err != nil {
		return TypeDefinition{}, err
	}

	for _, s := range tb.Services {
		t.Services = append(t.Services, meta.ServiceDescriptor{
			Reference:  meta.ReferenceDescriptor{Type: s.Type, Version: s.Version},
			Attributes: s.Attributes,
		})
	}
	for _, d := range tb.Dependencies {
		t.Dependencies = append(t.Dependencies, meta.DependencyDescriptor{
			Key:        d.Key,
			Reference:  meta.ReferenceDescriptor{Type: d.Service, Version: d.Version},
			Optional:   d.Optional,
			Attributes: d.Attributes,
		})
	}
	for _, s := range tb.Stages {
		t.Stages = append(t.Stages, meta.StageDescriptor{Key: s.Key, Extension: s.Extension})
	}
	for _, e := range tb.Extensions {
		t.Extensions = append(t.Extensions, meta.ExtensionDescriptor{Stage: e.Stage})
	}
	if tb.Context != nil {
		t.Context = &meta.ContextDescriptor{Strategy: tb.Context.Strategy}
		for _, e := range tb.Context.Entries {
			t.Context.Entries = append(t.Context.Entries, meta.EntryDescriptor{Key: e.Key, Type: e.Type, Optional: e.Optional})
		}
	}

	td := TypeDefinition{Type: t}
	for _, pb := range tb.Profiles {
		var cb componentBody
		if diags := gohcl.DecodeBody(pb.Remain, l.evalCtx, &cb); diags.HasErrors() {
			return TypeDefinition{}, fmt.Errorf("failed to decode profile '%s': %w", pb.Name, diags)
		}
		cp, err := l.translateComponent(ctx, pb.Name, name, profile.Packaged, &cb)
		if err != nil {
			return TypeDefinition{}, fmt.Errorf("in profile '%s': %w", pb.Name, err)
		}
		td.Packaged = append(td.Packaged, cp)
	}

	logger.Debug("Translated type.", "services", len(t.Services), "dependencies", len(t.Dependencies), "profiles", len(td.Packaged))
	return td, nil
}

// translateComponent builds a component profile from a decoded body.
func (l *Loader) translateComponent(ctx context.Context, name, typeName string, mode profile.Mode, cb *componentBody) (*profile.ComponentProfile, error) {
	activation, err := profile.ParseActivationPolicy(cb.Activation)
	if err != nil {
		return nil, err
	}
	collection, err := meta.ParseCollectionPolicy(cb.Collection)
	if err != nil {
		return nil, err
	}
	cfg, err := l.evalMap(ctx, cb.Configuration, "configuration")
	if err != nil {
		return nil, err
	}

	p := &profile.ComponentProfile{
		ProfileName:   name,
		TypeName:      typeName,
		ProfileMode:   mode,
		Activation:    activation,
		Collection:    collection,
		Configuration: cfg,
	}
	if cb.Priority != "" {
		p.Categories = &profile.CategoriesDirective{Priority: cb.Priority}
	}

	for _, d := range cb.Dependencies {
		dd := profile.DependencyDirective{Key: d.Key, Source: d.Source}
		for _, s := range d.Selections {
			criteria := profile.Criteria(s.Criteria)
			if criteria == "" {
				criteria = profile.CriteriaEquals
			}
			dd.Selections = append(dd.Selections, profile.SelectionDirective{
				Feature:  s.Feature,
				Value:    s.Value,
				Criteria: criteria,
				Required: !s.Optional,
			})
		}
		p.Dependencies = append(p.Dependencies, dd)
	}
	for _, s := range cb.Stages {
		p.Stages = append(p.Stages, profile.StageDirective{Key: s.Key, Source: s.Source})
	}

	if cb.Context != nil {
		p.Context = &profile.ContextDirective{Strategy: cb.Context.Strategy}
		for _, e := range cb.Context.Entries {
			value, err := l.evalValue(ctx, e.Value, "value")
			if err != nil {
				return nil, fmt.Errorf("in entry '%s': %w", e.Key, err)
			}
			params, err := l.evalMap(ctx, e.Params, "params")
			if err != nil {
				return nil, fmt.Errorf("in entry '%s': %w", e.Key, err)
			}
			p.Context.Entries = append(p.Context.Entries, profile.EntryDirective{Key: e.Key, Type: e.Type, Value: value, Params: params})
		}
	}
	return p, nil
}
