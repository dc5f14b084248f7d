package config

import "sort"

var Presets = map[string]map[string]*Config{
	"decay": {
		"default": {
			Model: "decay", Solver: "rk45", Duration: 5.0,
			RTol: DefaultRTol, ATol: DefaultATol,
			Safety: DefaultSafety, IFactor: DefaultIFactor, DFactor: DefaultDFactor,
			ForceDtMin: true,
		},
		"tight": {
			Model: "decay", Solver: "rk45", Duration: 5.0,
			RTol: 1e-8, ATol: 1e-10,
			Safety: DefaultSafety, IFactor: DefaultIFactor, DFactor: DefaultDFactor,
			ForceDtMin: true,
		},
	},
	"vanderpol": {
		"limit_cycle": {
			Model: "vanderpol", Solver: "rk45", Duration: 30.0,
			RTol: DefaultRTol, ATol: DefaultATol,
			Safety: DefaultSafety, IFactor: DefaultIFactor, DFactor: DefaultDFactor,
			ForceDtMin: true,
		},
		"bounded": {
			Model: "vanderpol", Solver: "rk45", Duration: 30.0,
			RTol: DefaultRTol, ATol: DefaultATol,
			Safety: DefaultSafety, IFactor: DefaultIFactor, DFactor: DefaultDFactor,
			DtMin: 1e-6, DtMax: 0.5, ForceDtMin: true,
		},
	},
	"harmonic": {
		"sampled": {
			Model: "harmonic", Solver: "rk45", Duration: 10.0,
			RTol: DefaultRTol, ATol: DefaultATol,
			Safety: DefaultSafety, IFactor: DefaultIFactor, DFactor: DefaultDFactor,
			StepTs:     []float64{1, 2, 3, 4, 5, 6, 7, 8, 9},
			ForceDtMin: true,
		},
	},
	"switched": {
		"jumps": {
			Model: "switched", Solver: "rk45", Duration: 8.0,
			RTol: DefaultRTol, ATol: DefaultATol,
			Safety: DefaultSafety, IFactor: DefaultIFactor, DFactor: DefaultDFactor,
			JumpTs:     []float64{2, 4, 6},
			ForceDtMin: true,
		},
	},
}

// GetPreset returns a named preset, or nil if absent.
func GetPreset(model, name string) *Config {
	m, ok := Presets[model]
	if !ok {
		return nil
	}
	return m[name]
}

// ListPresets returns the preset names for a model, or nil if absent.
func ListPresets(model string) []string {
	m, ok := Presets[model]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
