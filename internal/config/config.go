package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/goclass/internal/confdiff"
)

const (
	DefaultDt             = 60.0
	DefaultRuntime        = 43200.0
	DefaultSampleInterval = 60.0
)

var (
	ErrInvalidTimestep       = errors.New("config: dt must be positive")
	ErrInvalidRuntime        = errors.New("config: runtime must be positive")
	ErrInvalidSampleInterval = errors.New("config: sample interval must be positive")
	ErrMissingSection        = errors.New("config: missing section")
	ErrInvalidProfile        = errors.New("config: invalid free troposphere profile")
	ErrInvalidFire           = errors.New("config: invalid fire")
	ErrUnknownFormat         = errors.New("config: unknown file format")
)

type Config struct {
	Name         string       `yaml:"name" json:"name" toml:"name"`
	Description  string       `yaml:"description" json:"description" toml:"description"`
	InitialState InitialState `yaml:"initialState" json:"initialState" toml:"initialState"`
	TimeControl  TimeControl  `yaml:"timeControl" json:"timeControl" toml:"timeControl"`
	MixedLayer   MixedLayer   `yaml:"mixedLayer" json:"mixedLayer" toml:"mixedLayer"`
	Radiation    *Radiation   `yaml:"radiation,omitempty" json:"radiation,omitempty" toml:"radiation,omitempty"`
	Wind         *Wind        `yaml:"wind,omitempty" json:"wind,omitempty" toml:"wind,omitempty"`
	Atmosphere   Atmosphere   `yaml:"atmosphere" json:"atmosphere" toml:"atmosphere"`
	Fire         *Fire        `yaml:"fire,omitempty" json:"fire,omitempty" toml:"fire,omitempty"`
}

type InitialState struct {
	H      float64 `yaml:"h_0" json:"h_0" toml:"h_0"`
	Theta  float64 `yaml:"theta_0" json:"theta_0" toml:"theta_0"`
	Dtheta float64 `yaml:"dtheta_0" json:"dtheta_0" toml:"dtheta_0"`
	Q      float64 `yaml:"q_0" json:"q_0" toml:"q_0"`
	Dq     float64 `yaml:"dq_0" json:"dq_0" toml:"dq_0"`
}

type TimeControl struct {
	Dt             float64 `yaml:"dt" json:"dt" toml:"dt"`
	Runtime        float64 `yaml:"runtime" json:"runtime" toml:"runtime"`
	SampleInterval float64 `yaml:"sampleInterval" json:"sampleInterval" toml:"sampleInterval"`
}

type MixedLayer struct {
	Wtheta     float64 `yaml:"wtheta" json:"wtheta" toml:"wtheta"`
	Advtheta   float64 `yaml:"advtheta" json:"advtheta" toml:"advtheta"`
	Gammatheta float64 `yaml:"gammatheta" json:"gammatheta" toml:"gammatheta"`
	Wq         float64 `yaml:"wq" json:"wq" toml:"wq"`
	Advq       float64 `yaml:"advq" json:"advq" toml:"advq"`
	Gammaq     float64 `yaml:"gammaq" json:"gammaq" toml:"gammaq"`
	DivU       float64 `yaml:"divU" json:"divU" toml:"divU"`
	Beta       float64 `yaml:"beta" json:"beta" toml:"beta"`
}

type Radiation struct {
	DFz float64 `yaml:"dFz" json:"dFz" toml:"dFz"`
}

type Wind struct {
	U        float64   `yaml:"u_0" json:"u_0" toml:"u_0"`
	V        float64   `yaml:"v_0" json:"v_0" toml:"v_0"`
	Du       float64   `yaml:"du_0" json:"du_0" toml:"du_0"`
	Dv       float64   `yaml:"dv_0" json:"dv_0" toml:"dv_0"`
	Advu     float64   `yaml:"advu" json:"advu" toml:"advu"`
	Advv     float64   `yaml:"advv" json:"advv" toml:"advv"`
	GammaU   float64   `yaml:"gamma_u" json:"gamma_u" toml:"gamma_u"`
	GammaV   float64   `yaml:"gamma_v" json:"gamma_v" toml:"gamma_v"`
	Ustar    float64   `yaml:"ustar" json:"ustar" toml:"ustar"`
	Coriolis float64   `yaml:"coriolis" json:"coriolis" toml:"coriolis"`
	ZU       []float64 `yaml:"z_u" json:"z_u" toml:"z_u"`
	GammasU  []float64 `yaml:"gammas_u,omitempty" json:"gammas_u,omitempty" toml:"gammas_u,omitempty"`
	ZV       []float64 `yaml:"z_v" json:"z_v" toml:"z_v"`
	GammasV  []float64 `yaml:"gammas_v,omitempty" json:"gammas_v,omitempty" toml:"gammas_v,omitempty"`
}

// Atmosphere describes the free troposphere above the mixed layer as
// piecewise linear segments. Segment i ends at height Z[i] and has lapse
// rate Gammas[i]; without Gammas the mixed-layer lapse rate applies to every
// segment.
type Atmosphere struct {
	P0          float64   `yaml:"p0" json:"p0" toml:"p0"`
	ZTheta      []float64 `yaml:"z_theta" json:"z_theta" toml:"z_theta"`
	GammasTheta []float64 `yaml:"gammas_theta,omitempty" json:"gammas_theta,omitempty" toml:"gammas_theta,omitempty"`
	ZQ          []float64 `yaml:"z_q" json:"z_q" toml:"z_q"`
	GammasQ     []float64 `yaml:"gammas_q,omitempty" json:"gammas_q,omitempty" toml:"gammas_q,omitempty"`
}

// Fire describes a line fire at the surface.
type Fire struct {
	L             float64 `yaml:"L" json:"L" toml:"L"`
	D             float64 `yaml:"d" json:"d" toml:"d"`
	H0            float64 `yaml:"h0" json:"h0" toml:"h0"`
	C             float64 `yaml:"C" json:"C" toml:"C"`
	Cq            float64 `yaml:"Cq" json:"Cq" toml:"Cq"`
	Omega         float64 `yaml:"omega" json:"omega" toml:"omega"`
	Spread        float64 `yaml:"spread" json:"spread" toml:"spread"`
	RadiativeLoss float64 `yaml:"radiativeLoss" json:"radiativeLoss" toml:"radiativeLoss"`
}

func DefaultConfig() *Config {
	return &Config{
		Name: "Default",
		InitialState: InitialState{
			H:      200,
			Theta:  288,
			Dtheta: 1,
			Q:      0.008,
			Dq:     -0.001,
		},
		TimeControl: TimeControl{
			Dt:             DefaultDt,
			Runtime:        DefaultRuntime,
			SampleInterval: DefaultSampleInterval,
		},
		MixedLayer: MixedLayer{
			Wtheta:     0.1,
			Gammatheta: 0.006,
			Wq:         0.0001,
			Beta:       0.2,
		},
		Atmosphere: Atmosphere{
			P0:     101300,
			ZTheta: []float64{5000},
			ZQ:     []float64{5000},
		},
	}
}

func DefaultRadiation() *Radiation {
	return &Radiation{}
}

func DefaultWind() *Wind {
	return &Wind{
		U:        6,
		V:        -4,
		Du:       4,
		Dv:       4,
		Ustar:    0.3,
		Coriolis: 1e-4,
		ZU:       []float64{5000},
		ZV:       []float64{5000},
	}
}

func DefaultFire() *Fire {
	return &Fire{
		L:             10000,
		D:             300,
		H0:            20,
		C:             17.781e6,
		Cq:            0,
		Omega:         7.6,
		Spread:        0.1,
		RadiativeLoss: 0.7,
	}
}

// Segments pairs segment tops with their lapse rates, repeating fallback
// when no lapse rates are given.
func Segments(z, gammas []float64, fallback float64) ([]float64, []float64) {
	if len(gammas) > 0 {
		return z, gammas
	}
	g := make([]float64, len(z))
	for i := range g {
		g[i] = fallback
	}
	return z, g
}

func (c *Config) ThetaSegments() ([]float64, []float64) {
	return Segments(c.Atmosphere.ZTheta, c.Atmosphere.GammasTheta, c.MixedLayer.Gammatheta)
}

func (c *Config) QSegments() ([]float64, []float64) {
	return Segments(c.Atmosphere.ZQ, c.Atmosphere.GammasQ, c.MixedLayer.Gammaq)
}

// Validate checks the preconditions of a run.
func (c *Config) Validate() error {
	tc := c.TimeControl
	if !(tc.Dt > 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidTimestep, tc.Dt)
	}
	if !(tc.Runtime > 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidRuntime, tc.Runtime)
	}
	if !(tc.SampleInterval > 0) {
		return fmt.Errorf("%w: got %g", ErrInvalidSampleInterval, tc.SampleInterval)
	}

	if err := validateSegments("theta", c.Atmosphere.ZTheta, c.Atmosphere.GammasTheta); err != nil {
		return err
	}
	if err := validateSegments("q", c.Atmosphere.ZQ, c.Atmosphere.GammasQ); err != nil {
		return err
	}
	if w := c.Wind; w != nil {
		if err := validateSegments("u", w.ZU, w.GammasU); err != nil {
			return err
		}
		if err := validateSegments("v", w.ZV, w.GammasV); err != nil {
			return err
		}
	}

	if f := c.Fire; f != nil {
		if !(f.L > 0) || !(f.D > 0) || !(f.H0 > 0) {
			return fmt.Errorf("%w: L, d and h0 must be positive", ErrInvalidFire)
		}
	}
	return nil
}

func validateSegments(name string, z, gammas []float64) error {
	if len(z) == 0 {
		return fmt.Errorf("%w: no segments for %s", ErrInvalidProfile, name)
	}
	if len(gammas) > 0 && len(gammas) != len(z) {
		return fmt.Errorf("%w: %d lapse rates for %d %s segments", ErrInvalidProfile, len(gammas), len(z), name)
	}
	for i := 1; i < len(z); i++ {
		if z[i] <= z[i-1] {
			return fmt.Errorf("%w: %s segment tops must increase", ErrInvalidProfile, name)
		}
	}
	return nil
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".toml":
		return "toml"
	case ".yaml", ".yml":
		return "yaml"
	}
	return ""
}

// Decode parses a possibly partial configuration in the given format
// ("yaml", "json" or "toml").
func Decode(data []byte, format string) (confdiff.Tree, error) {
	tree := confdiff.Tree{}
	var err error
	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, &tree)
	case "json":
		err = json.Unmarshal(data, &tree)
	case "toml":
		err = toml.Unmarshal(data, &tree)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", format, err)
	}
	return tree, nil
}

// LoadTree reads a possibly partial configuration file.
func LoadTree(path string) (confdiff.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	format := formatOf(path)
	if format == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	return Decode(data, format)
}

// Load reads a configuration file on top of the defaults.
func Load(path string) (*Config, error) {
	tree, err := LoadTree(path)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), tree)
}

func Save(path string, cfg *Config) error {
	var data []byte
	var err error
	switch formatOf(path) {
	case "json":
		data, err = json.MarshalIndent(cfg, "", "  ")
	case "toml":
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(cfg)
		data = []byte(sb.String())
	default:
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
