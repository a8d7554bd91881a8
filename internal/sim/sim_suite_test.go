package sim_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orrery/internal/catalog"
	"github.com/san-kum/orrery/internal/dynamo"
	"github.com/san-kum/orrery/internal/epoch"
	"github.com/san-kum/orrery/internal/sim"
)

func TestSimSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Simulation Suite")
}

var _ = Describe("Simulation", func() {
	var s *sim.Simulation

	BeforeEach(func() {
		var err error
		s, err = sim.New(sim.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Resolve(catalog.Preset("inner"), epoch.Epoch{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts at the catalog epoch", func() {
		Expect(s.Now()).To(Equal(catalog.Preset("inner").Epoch))
		Expect(s.Elapsed()).To(BeZero())
	})

	It("lists bodies with dependencies first", func() {
		pos := map[dynamo.BodyID]int{}
		for i, b := range s.Bodies() {
			pos[b.ID] = i
		}
		Expect(pos).To(HaveLen(6))
		Expect(pos["earth"]).To(BeNumerically("<", pos["moon"]))
		Expect(pos["sun"]).To(BeZero())
	})

	It("returns copies rather than live bodies", func() {
		b, ok := s.Body("earth")
		Expect(ok).To(BeTrue())
		b.Influences[0] = "nobody"
		b.Rotation.Period = 1

		again, _ := s.Body("earth")
		Expect(again.Influences[0]).To(Equal(dynamo.BodyID("sun")))
		Expect(again.Rotation.Period).NotTo(Equal(1.0))
	})

	It("notifies observers with every frame", func() {
		var frames []sim.Frame
		s.AddObserver(sim.ObserverFunc(func(f sim.Frame) { frames = append(frames, f) }))

		s.Tick(3600)
		s.Tick(-1800)

		Expect(frames).To(HaveLen(2))
		Expect(frames[0].Substeps).To(Equal(4))
		Expect(frames[1].Elapsed).To(Equal(1800.0))
		Expect(frames[1].Bodies).To(HaveKey(dynamo.BodyID("mars")))
	})

	It("keeps every body bounded over a simulated year", func() {
		for i := 0; i < 365; i++ {
			s.Tick(epoch.SecondsPerDay)
		}
		for _, b := range s.Bodies() {
			Expect(b.State.IsValid()).To(BeTrue(), string(b.ID))
			if b.ID == "sun" {
				continue
			}
			energy, err := s.SpecificEnergy(b.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(energy).To(BeNumerically("<", 0), string(b.ID))
		}
		moon, _, err := s.Relative("moon")
		Expect(err).NotTo(HaveOccurred())
		Expect(moon.Radius()).To(BeNumerically(">", 3.0e8))
		Expect(moon.Radius()).To(BeNumerically("<", 4.5e8))
	})

	It("keeps ticking after a body is removed", func() {
		Expect(s.RemoveBody("earth")).To(Succeed())
		snaps := s.Tick(epoch.SecondsPerDay)
		Expect(snaps).NotTo(HaveKey(dynamo.BodyID("earth")))
		Expect(snaps["moon"].State.IsValid()).To(BeTrue())
	})
})
