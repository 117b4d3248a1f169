package output

// Variable describes one output series.
type Variable struct {
	Key    string
	Title  string
	Unit   string
	Symbol string
}

var Variables = []Variable{
	{"t", "Time", "s", "t"},
	{"h", "ABL height", "m", "h"},
	{"theta", "Potential temperature", "K", "θ"},
	{"dtheta", "Potential temperature jump", "K", "Δθ"},
	{"q", "Specific humidity", "kg kg⁻¹", "q"},
	{"dq", "Specific humidity jump", "kg kg⁻¹", "Δq"},
	{"dthetav", "Virtual temperature jump at h", "K", "Δθᵥ"},
	{"we", "Entrainment velocity", "m s⁻¹", "wₑ"},
	{"ws", "Large-scale vertical velocity", "m s⁻¹", "wₛ"},
	{"wf", "Radiative growth velocity", "m s⁻¹", "w_f"},
	{"wthetave", "Entrainment virtual heat flux", "K m s⁻¹", "(w'θ')ᵥₑ"},
	{"wthetav", "Surface virtual heat flux", "K m s⁻¹", "(w'θ')ᵥ"},
	{"wtheta", "Surface kinematic heat flux", "K m s⁻¹", "(w'θ')ₛ"},
	{"wq", "Surface kinematic moisture flux", "kg kg⁻¹ m s⁻¹", "(w'q')ₛ"},
	{"u", "Mixed-layer u-wind", "m s⁻¹", "u"},
	{"v", "Mixed-layer v-wind", "m s⁻¹", "v"},
	{"du", "U-wind jump at h", "m s⁻¹", "Δu"},
	{"dv", "V-wind jump at h", "m s⁻¹", "Δv"},
}

var windKeys = map[string]bool{"u": true, "v": true, "du": true, "dv": true}

// Names lists the series recorded by a run, in output order.
func Names(wind bool) []string {
	names := make([]string, 0, len(Variables))
	for _, v := range Variables {
		if windKeys[v.Key] && !wind {
			continue
		}
		names = append(names, v.Key)
	}
	return names
}

// Lookup returns the description of a series, if it is a known one.
func Lookup(key string) (Variable, bool) {
	for _, v := range Variables {
		if v.Key == key {
			return v, true
		}
	}
	return Variable{}, false
}
