package experiment_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/goclass/internal/config"
	"github.com/san-kum/goclass/internal/experiment"
	"github.com/san-kum/goclass/internal/integrators"
	"github.com/san-kum/goclass/internal/models"
	"github.com/san-kum/goclass/internal/sim"
)

var _ = Describe("Engine", func() {
	var cfg *config.Config

	BeforeEach(func() {
		cfg = config.DefaultConfig()
	})

	Describe("a default run", func() {
		It("samples every minute without the initial state", func() {
			out, err := experiment.RunEngine(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Len()).To(Equal(720))

			t, _ := out.Series("t")
			Expect(t[0]).To(Equal(60.0))
			Expect(t[len(t)-1]).To(Equal(43200.0))
		})

		It("takes a single Euler step before the first sample", func() {
			out, err := experiment.RunEngine(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())

			m := experiment.NewMixedLayer(cfg)
			tend := m.Tendencies(experiment.InitialState(cfg))
			first, ok := out.At(0)
			Expect(ok).To(BeTrue())
			Expect(first["h"]).To(BeNumerically("~", 200+60*tend.H, 1e-9))
			Expect(first["theta"]).To(BeNumerically("~", 288+60*tend.Theta, 1e-9))
		})

		It("never lowers the boundary layer without subsidence", func() {
			out, err := experiment.RunEngine(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())

			h, _ := out.Series("h")
			for i := 1; i < len(h); i++ {
				Expect(h[i]).To(BeNumerically(">=", h[i-1]))
			}
			we, _ := out.Series("we")
			Expect(we).To(HaveEach(BeNumerically(">=", 0)))
		})

		It("records no wind series without wind", func() {
			out, err := experiment.RunEngine(context.Background(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Names()).NotTo(ContainElement("u"))
		})
	})

	It("drops a trailing partial sample interval", func() {
		cfg.TimeControl.Runtime = 1000
		cfg.TimeControl.SampleInterval = 300

		out, err := experiment.RunEngine(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		t, _ := out.Series("t")
		Expect(t).To(Equal([]float64{300, 600, 900}))
	})

	It("integrates wind when enabled", func() {
		out, err := experiment.RunEngine(context.Background(), config.GetPreset("windy"))
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Names()).To(ContainElements("u", "v", "du", "dv"))
		u, _ := out.Series("u")
		Expect(u[0]).NotTo(Equal(6.0))
	})

	It("accepts another integrator", func() {
		euler, err := experiment.RunEngine(context.Background(), cfg)
		Expect(err).NotTo(HaveOccurred())
		rk4, err := experiment.RunEngine(context.Background(), cfg, experiment.WithIntegrator(integrators.NewRK4()))
		Expect(err).NotTo(HaveOccurred())

		he, _ := euler.Last()
		hr, _ := rk4.Last()
		Expect(hr["h"]).To(BeNumerically("~", he["h"], 0.01*he["h"]))
	})

	DescribeTable("rejects invalid time control",
		func(modify func(c *config.Config), want error) {
			modify(cfg)
			_, err := experiment.NewEngine(cfg)
			Expect(err).To(MatchError(want))
		},
		Entry("zero dt", func(c *config.Config) { c.TimeControl.Dt = 0 }, config.ErrInvalidTimestep),
		Entry("negative runtime", func(c *config.Config) { c.TimeControl.Runtime = -1 }, config.ErrInvalidRuntime),
		Entry("zero sample interval", func(c *config.Config) { c.TimeControl.SampleInterval = 0 }, config.ErrInvalidSampleInterval),
	)

	It("rejects a step that collapses the layer without sampling it", func() {
		cfg.MixedLayer.Wtheta = 0
		cfg.MixedLayer.Wq = 0
		cfg.MixedLayer.DivU = 0.02

		out, err := experiment.RunEngine(context.Background(), cfg)
		Expect(errors.Is(err, sim.ErrCollapsedLayer)).To(BeTrue())

		var serr *sim.SimError
		Expect(errors.As(err, &serr)).To(BeTrue())
		Expect(serr.Step).To(Equal(1))
		Expect(serr.Time).To(Equal(60.0))
		Expect(models.StateFromVector(serr.State).H).To(BeNumerically("~", -40, 1e-9))

		Expect(out.Len()).To(Equal(0))
	})

	It("stops on cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		out, err := experiment.RunEngine(ctx, cfg)
		Expect(err).To(MatchError(context.Canceled))
		Expect(out.Len()).To(Equal(0))
	})

	Describe("model interface", func() {
		var e *experiment.Engine

		BeforeEach(func() {
			var err error
			e, err = experiment.NewEngine(cfg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("describes the model", func() {
			Expect(e.ComponentName()).To(Equal("Chemistry Land-surface Atmosphere Soil Slab model"))
			Expect(e.OutputVarNames()).To(Equal([]string{"h", "theta", "dtheta", "q", "dq"}))
			Expect(e.TimeUnits()).To(Equal("s"))
			Expect(e.TimeStep()).To(Equal(60.0))
			Expect(e.EndTime()).To(Equal(43200.0))
		})

		It("advances one step per update", func() {
			Expect(e.CurrentTime()).To(Equal(0.0))
			h0, err := e.Value("h")
			Expect(err).NotTo(HaveOccurred())
			Expect(h0).To(Equal(200.0))

			Expect(e.Update()).To(Succeed())
			Expect(e.CurrentTime()).To(Equal(60.0))
			Expect(e.State().H).To(BeNumerically(">", 200))
			Expect(e.State().T).To(Equal(60.0))
			Expect(e.Output().Len()).To(Equal(1))
		})

		It("rejects unknown variables", func() {
			_, err := e.Value("co2")
			Expect(err).To(MatchError(experiment.ErrUnknownVariable))
		})

		It("does not share the configuration", func() {
			cfg.InitialState.H = 1
			Expect(e.Config().InitialState.H).To(Equal(200.0))
			Expect(e.State()).To(Equal(models.State{H: 200, Theta: 288, Dtheta: 1, Q: 0.008, Dq: -0.001}))
		})
	})
})
