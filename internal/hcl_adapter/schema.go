package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// Block types accepted inside a container body.
const (
	blockType      = "type"
	blockContainer = "container"
	blockComponent = "component"
	blockNamed     = "named"
	blockInclude   = "include"
	blockCompose   = "compose"
	blockExport    = "export"
	blockTarget    = "target"
)

// containerBody holds the attributes of a container. Child blocks stay in
// Remain and are walked in source order.
type containerBody struct {
	Name     string         `hcl:"name,optional"`
	Priority string         `hcl:"priority,optional"`
	Exports  []*exportBlock `hcl:"export,block"`
	Remain   hcl.Body       `hcl:",remain"`
}

type exportBlock struct {
	Service string `hcl:"service,label"`
	Version string `hcl:"version,optional"`
	Source  string `hcl:"source"`
}

type typeBody struct {
	Version       string            `hcl:"version,optional"`
	Collection    string            `hcl:"collection,optional"`
	Timeout       string            `hcl:"timeout,optional"`
	Configuration hcl.Expression    `hcl:"configuration,optional"`
	Services      []*serviceBlock   `hcl:"service,block"`
	Dependencies  []*requireBlock   `hcl:"dependency,block"`
	Stages        []*stageDeclBlock `hcl:"stage,block"`
	Extensions    []*extensionBlock `hcl:"extension,block"`
	Context       *contextDeclBlock `hcl:"context,block"`
	Profiles      []*profileBlock   `hcl:"profile,block"`
}

type serviceBlock struct {
	Type       string            `hcl:"type,label"`
	Version    string            `hcl:"version,optional"`
	Attributes map[string]string `hcl:"attributes,optional"`
}

type requireBlock struct {
	Key        string            `hcl:"key,label"`
	Service    string            `hcl:"service"`
	Version    string            `hcl:"version,optional"`
	Optional   bool              `hcl:"optional,optional"`
	Attributes map[string]string `hcl:"attributes,optional"`
}

type stageDeclBlock struct {
	Key       string `hcl:"key,label"`
	Extension string `hcl:"extension"`
}

type extensionBlock struct {
	Stage string `hcl:"stage,label"`
}

type contextDeclBlock struct {
	Strategy string            `hcl:"strategy,optional"`
	Entries  []*entryDeclBlock `hcl:"entry,block"`
}

type entryDeclBlock struct {
	Key      string `hcl:"key,label"`
	Type     string `hcl:"type,optional"`
	Optional bool   `hcl:"optional,optional"`
}

// profileBlock is a packaged profile inside a type. Its body has the same
// shape as a component body.
type profileBlock struct {
	Name   string   `hcl:"name,label"`
	Remain hcl.Body `hcl:",remain"`
}

// componentBody is shared by component blocks and packaged profiles.
type componentBody struct {
	Type          string             `hcl:"type,optional"`
	Activation    string             `hcl:"activation,optional"`
	Collection    string             `hcl:"collection,optional"`
	Priority      string             `hcl:"priority,optional"`
	Configuration hcl.Expression     `hcl:"configuration,optional"`
	Dependencies  []*dependencyBlock `hcl:"dependency,block"`
	Stages        []*stageBlock      `hcl:"stage,block"`
	Context       *contextBlock      `hcl:"context,block"`
}

type dependencyBlock struct {
	Key        string         `hcl:"key,label"`
	Source     string         `hcl:"source,optional"`
	Selections []*selectBlock `hcl:"select,block"`
}

// selectBlock is a selection filter. Filters are required unless marked optional.
type selectBlock struct {
	Feature  string `hcl:"feature,label"`
	Value    string `hcl:"value,optional"`
	Criteria string `hcl:"criteria,optional"`
	Optional bool   `hcl:"optional,optional"`
}

type stageBlock struct {
	Key    string `hcl:"key,label"`
	Source string `hcl:"source"`
}

type contextBlock struct {
	Strategy string        `hcl:"strategy,optional"`
	Entries  []*entryBlock `hcl:"entry,block"`
}

type entryBlock struct {
	Key    string         `hcl:"key,label"`
	Type   string         `hcl:"type,optional"`
	Value  hcl.Expression `hcl:"value,optional"`
	Params hcl.Expression `hcl:"params,optional"`
}

type namedBody struct {
	Type    string `hcl:"type"`
	Profile string `hcl:"profile"`
}

type includeBody struct {
	Path string `hcl:"path"`
}

type composeBody struct {
	Resource string         `hcl:"resource"`
	Targets  []*targetBlock `hcl:"target,block"`
}

type targetBlock struct {
	Path          string         `hcl:"path,label"`
	Priority      string         `hcl:"priority,optional"`
	Configuration hcl.Expression `hcl:"configuration,optional"`
}

// targetBody is a top-level target; its path is the block label.
type targetBody struct {
	Priority      string         `hcl:"priority,optional"`
	Configuration hcl.Expression `hcl:"configuration,optional"`
}
