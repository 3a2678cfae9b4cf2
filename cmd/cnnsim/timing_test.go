// Package main provides tests for timing simulation mode.
package main

import (
	"math/rand"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/Min-DongYoung/energy-efficiency-CNN/config"
	"github.com/Min-DongYoung/energy-efficiency-CNN/emu"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/accel"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/pipeline"
	"github.com/Min-DongYoung/energy-efficiency-CNN/weights"
)

func TestTiming(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Timing Suite")
}

var _ = Describe("Timing Mode", func() {
	var (
		cfg *config.Config
		set *weights.Set
		net *emu.Network
	)

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		set = weights.TestSet()

		var err error
		net, err = emu.NewNetwork(cfg, set)
		Expect(err).ToNot(HaveOccurred())
	})

	randomImage := func(seed int64) []uint8 {
		rng := rand.New(rand.NewSource(seed))
		image := make([]uint8, config.ImagePixels)
		for i := range image {
			image[i] = uint8(rng.Intn(256))
		}
		return image
	}

	Describe("Cycle-Level Pipeline", func() {
		It("should agree with the functional model", func() {
			pipe, err := pipeline.NewPipeline(cfg, set)
			Expect(err).ToNot(HaveOccurred())

			image := randomImage(1)
			want, err := net.Classify(image)
			Expect(err).ToNot(HaveOccurred())

			got, err := pipe.Classify(image)
			Expect(err).ToNot(HaveOccurred())
			Expect(got).To(Equal(want))
		})

		It("should count one completed image per classification", func() {
			pipe, err := pipeline.NewPipeline(cfg, set)
			Expect(err).ToNot(HaveOccurred())

			for i := int64(0); i < 3; i++ {
				_, err := pipe.Classify(randomImage(i))
				Expect(err).ToNot(HaveOccurred())
			}

			stats := pipe.Stats()
			Expect(stats.Images).To(Equal(uint64(3)))
			Expect(stats.Pixels).To(Equal(uint64(3 * config.ImagePixels)))
		})

		It("should take more cycles than the input has pixels", func() {
			// One pixel enters per cycle at best and the first window is not
			// complete until several rows arrived.
			pipe, err := pipeline.NewPipeline(cfg, set)
			Expect(err).ToNot(HaveOccurred())

			_, err = pipe.Classify(randomImage(4))
			Expect(err).ToNot(HaveOccurred())

			Expect(pipe.Stats().Cycles).To(BeNumerically(">", config.ImagePixels))
		})

		It("should slow down with fewer shared FC MAC units", func() {
			fast := cfg.Clone()
			fast.FCMacUnits = config.FCInputs
			slow := cfg.Clone()
			slow.FCMacUnits = 1

			image := randomImage(5)

			fastPipe, err := pipeline.NewPipeline(fast, set)
			Expect(err).ToNot(HaveOccurred())
			slowPipe, err := pipeline.NewPipeline(slow, set)
			Expect(err).ToNot(HaveOccurred())

			fastClass, err := fastPipe.Classify(image)
			Expect(err).ToNot(HaveOccurred())
			slowClass, err := slowPipe.Classify(image)
			Expect(err).ToNot(HaveOccurred())

			Expect(slowClass).To(Equal(fastClass))
			Expect(slowPipe.Stats().Cycles).To(
				BeNumerically(">", fastPipe.Stats().Cycles))
		})
	})

	Describe("Event-Driven Platform", func() {
		It("should classify a batch like the functional model", func() {
			images := [][]uint8{randomImage(6), randomImage(7)}
			want := make([]int, len(images))
			for i := range images {
				var err error
				want[i], err = net.Classify(images[i])
				Expect(err).ToNot(HaveOccurred())
			}

			platform := accel.MakePlatformBuilder().
				WithConfig(cfg).
				WithWeights(set).
				Build("TimingSuite")

			got, err := platform.Classify(images)
			Expect(err).ToNot(HaveOccurred())
			Expect(got).To(Equal(want))
		})
	})
})
