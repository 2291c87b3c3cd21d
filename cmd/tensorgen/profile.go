package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorgonia.org/tensor"

	"github.com/tensorcheck/tensorcheck"
	"github.com/tensorcheck/tensorcheck/transformer"
)

// Profile constrains the sampled values. Every section and field is optional;
// absent fields fall back to the generator defaults.
type Profile struct {
	DType       dtypeProfile       `yaml:"dtype"`
	Device      deviceProfile      `yaml:"device"`
	Shape       shapeProfile       `yaml:"shape"`
	Tensor      tensorProfile      `yaml:"tensor"`
	Module      moduleProfile      `yaml:"module"`
	Transformer transformerProfile `yaml:"transformer"`
}

type dtypeProfile struct {
	Classes []string `yaml:"classes"`
	Widths  []int    `yaml:"widths"`
}

type deviceProfile struct {
	AllowMeta *bool `yaml:"allow_meta"`
}

type shapeProfile struct {
	MinRank     *int  `yaml:"min_rank"`
	MaxRank     *int  `yaml:"max_rank"`
	MinDim      *int  `yaml:"min_dim"`
	MaxDim      *int  `yaml:"max_dim"`
	MaxElements *int  `yaml:"max_elements"`
	Scalars     *bool `yaml:"scalars"`
}

type tensorProfile struct {
	DTypes         []string `yaml:"dtypes"`
	Shape          []int    `yaml:"shape"`
	MinElement     *float64 `yaml:"min_element"`
	MaxElement     *float64 `yaml:"max_element"`
	AllowNaN       *bool    `yaml:"allow_nan"`
	AllowInfinity  *bool    `yaml:"allow_infinity"`
	AllowSubnormal *bool    `yaml:"allow_subnormal"`
	Unique         *bool    `yaml:"unique"`
}

type moduleProfile struct {
	InputDim        *int `yaml:"input_dim"`
	OutputDim       *int `yaml:"output_dim"`
	MinHiddenLayers *int `yaml:"min_hidden_layers"`
	MaxHiddenLayers *int `yaml:"max_hidden_layers"`
	MinHiddenDim    *int `yaml:"min_hidden_dim"`
	MaxHiddenDim    *int `yaml:"max_hidden_dim"`
}

type transformerProfile struct {
	MaxDim      *int     `yaml:"max_dim"`
	Activations []string `yaml:"activations"`
}

func loadProfile(path string) (Profile, error) {
	var p Profile
	if path == "" {
		return p, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("parse profile %s: %w", path, err)
	}
	return p, nil
}

func (p Profile) dtypeOptions() (tensorcheck.DTypeOptions, error) {
	opts := tensorcheck.DTypeOptions{}
	if len(p.DType.Classes) > 0 {
		classes, err := parseClasses(p.DType.Classes)
		if err != nil {
			return opts, err
		}
		opts = opts.WithClasses(classes...)
	}
	if len(p.DType.Widths) > 0 {
		opts = opts.WithWidths(p.DType.Widths...)
	}
	return opts, nil
}

func (p Profile) deviceOptions() tensorcheck.DeviceOptions {
	opts := tensorcheck.DeviceOptions{}
	if p.Device.AllowMeta != nil {
		opts = opts.WithAllowMeta(*p.Device.AllowMeta)
	}
	return opts
}

func (p Profile) shapeOptions() tensorcheck.ShapeOptions {
	opts := tensorcheck.ShapeOptions{}
	s := p.Shape
	if s.MinRank != nil || s.MaxRank != nil {
		opts = opts.WithRankRange(intOr(s.MinRank, 1), intOr(s.MaxRank, 4))
	}
	if s.MinDim != nil || s.MaxDim != nil {
		opts = opts.WithDimRange(intOr(s.MinDim, 1), intOr(s.MaxDim, 4))
	}
	if s.MaxElements != nil {
		opts = opts.WithMaxElements(*s.MaxElements)
	}
	if s.Scalars != nil {
		opts = opts.WithScalars(*s.Scalars)
	}
	return opts
}

func (p Profile) tensorOptions() (tensorcheck.TensorOptions, error) {
	opts := tensorcheck.TensorOptions{}
	tp := p.Tensor
	if len(tp.DTypes) > 0 {
		dtypes, err := parseDTypes(tp.DTypes)
		if err != nil {
			return opts, err
		}
		opts = opts.WithDTypes(dtypes...)
	}
	if len(tp.Shape) > 0 {
		opts = opts.WithShape(tp.Shape...)
	} else {
		opts = opts.WithShapeGen(tensorcheck.Shapes(p.shapeOptions()))
	}
	if tp.MinElement != nil || tp.MaxElement != nil {
		opts = opts.WithElements(floatOr(tp.MinElement, -1e6), floatOr(tp.MaxElement, 1e6))
	}
	if tp.AllowNaN != nil {
		opts = opts.WithAllowNaN(*tp.AllowNaN)
	}
	if tp.AllowInfinity != nil {
		opts = opts.WithAllowInfinity(*tp.AllowInfinity)
	}
	if tp.AllowSubnormal != nil {
		opts = opts.WithAllowSubnormal(*tp.AllowSubnormal)
	}
	if tp.Unique != nil {
		opts = opts.WithUnique(*tp.Unique)
	}
	return opts, nil
}

func (p Profile) networkOptions() tensorcheck.NetworkOptions {
	opts := tensorcheck.NetworkOptions{}
	m := p.Module
	if m.InputDim != nil {
		opts = opts.WithInputDim(*m.InputDim)
	}
	if m.OutputDim != nil {
		opts = opts.WithOutputDim(*m.OutputDim)
	}
	if m.MinHiddenLayers != nil || m.MaxHiddenLayers != nil {
		opts = opts.WithHiddenLayerRange(intOr(m.MinHiddenLayers, 0), intOr(m.MaxHiddenLayers, 3))
	}
	if m.MinHiddenDim != nil || m.MaxHiddenDim != nil {
		opts = opts.WithHiddenDimRange(intOr(m.MinHiddenDim, 1), intOr(m.MaxHiddenDim, 4))
	}
	return opts
}

func (p Profile) transformerOptions() transformer.TransformerOptions {
	cfg := transformer.ConfigOptions{}
	tp := p.Transformer
	if tp.MaxDim != nil {
		cfg = cfg.WithMaxDim(*tp.MaxDim)
	}
	if len(tp.Activations) > 0 {
		cfg = cfg.WithActivations(tp.Activations...)
	}
	return transformer.TransformerOptions{}.WithConfigOptions(cfg)
}

func parseClasses(names []string) ([]tensorcheck.DTypeClass, error) {
	classes := make([]tensorcheck.DTypeClass, 0, len(names))
	for _, name := range names {
		switch strings.ToLower(name) {
		case "bool":
			classes = append(classes, tensorcheck.ClassBool)
		case "int":
			classes = append(classes, tensorcheck.ClassInt)
		case "uint":
			classes = append(classes, tensorcheck.ClassUint)
		case "float":
			classes = append(classes, tensorcheck.ClassFloat)
		case "complex":
			classes = append(classes, tensorcheck.ClassComplex)
		default:
			return nil, fmt.Errorf("unknown dtype class %q", name)
		}
	}
	return classes, nil
}

func parseDTypes(names []string) ([]tensor.Dtype, error) {
	byName := make(map[string]tensor.Dtype)
	for _, dt := range tensorcheck.AllDTypes() {
		byName[dt.Name()] = dt
	}
	dtypes := make([]tensor.Dtype, 0, len(names))
	for _, name := range names {
		dt, ok := byName[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("unknown dtype %q", name)
		}
		dtypes = append(dtypes, dt)
	}
	return dtypes, nil
}

func intOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}

func floatOr(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}
