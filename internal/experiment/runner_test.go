package experiment_test

import (
	"context"
	"sync"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/goclass/internal/confdiff"
	"github.com/san-kum/goclass/internal/config"
	"github.com/san-kum/goclass/internal/experiment"
	"github.com/san-kum/goclass/internal/sweep"
)

var _ = Describe("Experiment", func() {
	It("numbers its runs with the generator", func() {
		ids := &experiment.SequenceGenerator{Prefix: "run-"}
		exp := experiment.New(ids, config.DefaultConfig())
		exp.AddSweeps(ids, []sweep.Sweep{{Section: "initialState", Parameter: "h_0", Start: 100, Step: 100, Steps: 2}})

		Expect(exp.ID).To(Equal("run-1"))
		Expect(exp.Permutations).To(HaveLen(2))
		Expect(exp.Permutations[0].ID).To(Equal("run-2"))
		Expect(exp.Permutations[1].Name).To(Equal("h_0=200"))

		configs, err := exp.Configs()
		Expect(err).NotTo(HaveOccurred())
		Expect(configs).To(HaveLen(3))
		Expect(configs[0].Name).To(Equal("Default"))
		Expect(configs[2].InitialState.H).To(Equal(200.0))
	})

	It("generates time ordered UUIDs", func() {
		id := experiment.UUIDGenerator{}.NewID()
		parsed, err := uuid.Parse(id)
		Expect(err).NotTo(HaveOccurred())
		Expect(parsed.Version()).To(Equal(uuid.Version(7)))
	})

	It("hashes the physics only", func() {
		a := config.DefaultConfig()
		b := config.DefaultConfig()
		b.Name = "renamed"

		ha, err := experiment.Hash(a)
		Expect(err).NotTo(HaveOccurred())
		hb, _ := experiment.Hash(b)
		Expect(ha).To(Equal(hb))

		b.InitialState.H = 201
		hc, _ := experiment.Hash(b)
		Expect(hc).NotTo(Equal(ha))
	})
})

var _ = Describe("Runner", func() {
	var (
		ids *experiment.SequenceGenerator
		exp *experiment.Experiment
	)

	BeforeEach(func() {
		ids = &experiment.SequenceGenerator{}
		ref := config.DefaultConfig()
		ref.TimeControl.Runtime = 3600
		exp = experiment.New(ids, ref)
	})

	It("runs every permutation and isolates failures", func() {
		exp.AddSweeps(ids, []sweep.Sweep{{Section: "initialState", Parameter: "h_0", Start: 300, Step: 100, Steps: 2}})
		exp.AddPermutation(ids, "broken", confdiff.Tree{"timeControl": map[string]any{"dt": 0}})

		r, err := experiment.NewRunner(4, 0, nil)
		Expect(err).NotTo(HaveOccurred())

		var mu sync.Mutex
		var calls, totals []int
		r.OnProgress(func(done, total int, _ experiment.Result) {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, done)
			totals = append(totals, total)
		})

		results, err := r.Run(context.Background(), exp)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(4))
		Expect(calls).To(Equal([]int{1, 2, 3, 4}))
		Expect(totals).To(HaveEach(4))

		Expect(results[0].ID).To(Equal(exp.ID))
		for _, res := range results[:3] {
			Expect(res.Err).NotTo(HaveOccurred())
			Expect(res.Output.Len()).To(Equal(60))
			Expect(res.Metrics).To(HaveKey("max_h"))
		}
		Expect(results[2].Config.InitialState.H).To(Equal(400.0))
		Expect(results[3].Name).To(Equal("broken"))
		Expect(results[3].Err).To(MatchError(config.ErrInvalidTimestep))
	})

	It("integrates identical configurations once", func() {
		exp.AddPermutation(ids, "same as reference", confdiff.Tree{})
		exp.AddPermutation(ids, "also the same", confdiff.Tree{"initialState": map[string]any{"h_0": 200}})

		r, err := experiment.NewRunner(1, 8, nil)
		Expect(err).NotTo(HaveOccurred())

		results, err := r.Run(context.Background(), exp)
		Expect(err).NotTo(HaveOccurred())
		Expect(results[0].Cached).To(BeFalse())
		Expect(results[1].Cached).To(BeTrue())
		Expect(results[2].Cached).To(BeTrue())
		Expect(results[1].Output).To(BeIdenticalTo(results[0].Output))
		Expect(results[2].Name).To(Equal("also the same"))
	})

	It("reports cancellation", func() {
		exp.AddPermutation(ids, "other", confdiff.Tree{"mixedLayer": map[string]any{"beta": 0.3}})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		r, err := experiment.NewRunner(2, 0, nil)
		Expect(err).NotTo(HaveOccurred())
		results, err := r.Run(ctx, exp)
		Expect(err).To(MatchError(context.Canceled))
		for _, res := range results {
			Expect(res.Err).To(MatchError(context.Canceled))
		}
	})
})
