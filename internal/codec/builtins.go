package codec

import "go.uber.org/zap"

// RegisterBuiltins registers every built-in codec on the given registry.
func RegisterBuiltins(reg *Registry, logger *zap.Logger) {
	reg.Register("json", func() (Codec, error) { return JSON{}, nil })
	reg.Register("yaml", func() (Codec, error) { return YAML{}, nil })
	reg.Register("csv", func() (Codec, error) { return CSV{}, nil })
	reg.Register("xlsx", func() (Codec, error) { return Workbook{}, nil })
	reg.Register("text", func() (Codec, error) { return Text{Logger: logger}, nil })
	reg.Register("binary", func() (Codec, error) { return Binary{}, nil })
	reg.Register("sqlite", func() (Codec, error) { return SQLite{}, nil })
}

// DefaultRegistry returns a registry holding every built-in codec.
func DefaultRegistry(logger *zap.Logger) *Registry {
	reg := NewRegistry()
	RegisterBuiltins(reg, logger)
	return reg
}
