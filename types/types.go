package types

// ---- Capability kinds & info ----

type Kind string

const (
	KindDAC Kind = "dac"
)

// Info envelope each device/cap exposes (retained)
type Info struct {
	SchemaVersion int         `json:"schema_version"`
	Driver        string      `json:"driver"`
	Detail        interface{} `json:"detail,omitempty"`
}

// ---- HAL configuration ----

type HALConfig struct {
	Devices []HALDevice `json:"devices"`
}

type HALDevice struct {
	ID     string `json:"id"`     // logical device id
	Type   string `json:"type"`   // e.g. "dac80501"
	Params any    `json:"params"` // device-specific params (JSON-like)
}
