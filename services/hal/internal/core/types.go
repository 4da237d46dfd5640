package core

import (
	"context"

	"dac80501-go/errcode"
	"dac80501-go/types"
)

// ---- Capability & device model ----

// CapAddr is the (domain, kind, name) triple a capability is published under.
type CapAddr struct {
	Domain string
	Kind   string
	Name   string
}

type CapabilitySpec struct {
	Domain string
	Kind   types.Kind
	Name   string
	Info   types.Info
}

// EnqueueResult is the synchronous outcome of a control request.
type EnqueueResult struct {
	OK    bool
	Error errcode.Code
}

type Device interface {
	ID() string
	Capabilities() []CapabilitySpec
	Init(ctx context.Context) error
	Control(addr CapAddr, method string, payload any) (EnqueueResult, error)
	Close() error // release claimed resources
}

// Builder input
type BuilderInput struct {
	ID, Type string
	Params   any
	Res      Resources
}

type Builder interface {
	Build(ctx context.Context, in BuilderInput) (Device, error)
}
