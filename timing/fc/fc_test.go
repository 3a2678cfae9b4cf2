package fc_test

import (
	"math/rand"
	"testing"

	"github.com/Min-DongYoung/energy-efficiency-CNN/config"
	"github.com/Min-DongYoung/energy-efficiency-CNN/emu"
	"github.com/Min-DongYoung/energy-efficiency-CNN/fixed"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/fc"
	"github.com/Min-DongYoung/energy-efficiency-CNN/timing/stream"
	"github.com/Min-DongYoung/energy-efficiency-CNN/weights"
)

const maxCycles = 1_000_000

// randomFlat returns one image's flattened activations plus the token
// stream carrying them (one token per spatial position, channel-minor).
func randomFlat(rng *rand.Rand) ([]fixed.Value, []fixed.Vector) {
	flat := make([]fixed.Value, config.FCInputs)
	for i := range flat {
		flat[i] = fixed.Value(rng.Intn(int(fixed.MaxActivation) + 1))
	}

	var feed []fixed.Vector
	for p := 0; p < config.Pool2OutWidth*config.Pool2OutHeight; p++ {
		v := make(fixed.Vector, config.Conv2OutChannels)
		copy(v, flat[p*config.Conv2OutChannels:])
		feed = append(feed, v)
	}

	return flat, feed
}

func runEngine(
	t *testing.T,
	e *fc.Engine,
	in, out *stream.Link,
	feed []fixed.Vector,
	want int,
	ready func(cycle int) bool,
) []fixed.Value {
	t.Helper()

	var got []fixed.Value
	fed := 0
	for cycle := 0; len(got) < want; cycle++ {
		if cycle > maxCycles {
			t.Fatalf("engine stalled: %d of %d scores", len(got), want)
		}
		if out.Valid() && ready(cycle) {
			got = append(got, out.Pop()[0])
		}
		if fed < len(feed) && in.CanAccept() {
			in.Push(feed[fed].Clone())
			fed++
		}
		e.Tick()
	}

	return got
}

func TestEngineMatchesFunctionalModel(t *testing.T) {
	rng := rand.New(rand.NewSource(43))
	set := weights.TestSet()
	cfg := config.DefaultConfig()

	flat, feed := randomFlat(rng)
	want := emu.FullyConnected(flat, set.FC, cfg.FracBits)

	in := stream.NewLink("in")
	out := stream.NewLink("out")
	e := fc.NewEngine("fc", set.FC, cfg, in, out)

	got := runEngine(t, e, in, out, feed, config.NumClasses,
		func(int) bool { return true })

	for c := range want {
		if got[c] != want[c] {
			t.Errorf("score[%d] = %d, want %d", c, got[c], want[c])
		}
	}
}

func TestEngineMacUnitCountDoesNotChangeScores(t *testing.T) {
	rng := rand.New(rand.NewSource(47))
	set := weights.TestSet()
	flat, feed := randomFlat(rng)

	var results [][]fixed.Value
	for _, m := range []int{1, 8, 48} {
		cfg := config.DefaultConfig()
		cfg.FCMacUnits = m

		in := stream.NewLink("in")
		out := stream.NewLink("out")
		e := fc.NewEngine("fc", set.FC, cfg, in, out)

		results = append(results, runEngine(t, e, in, out, feed,
			config.NumClasses, func(int) bool { return true }))
	}

	want := emu.FullyConnected(flat, set.FC, config.DefaultConfig().FracBits)
	for i, got := range results {
		for c := range want {
			if got[c] != want[c] {
				t.Errorf("mac variant %d: score[%d] = %d, want %d",
					i, c, got[c], want[c])
			}
		}
	}
}

func TestEngineComputeLatency(t *testing.T) {
	// After the last input token, each class costs one load step,
	// ceil(inputs/M) accumulation steps, and one emit step.
	set := weights.TestSet()
	cfg := config.DefaultConfig()
	_, feed := randomFlat(rand.New(rand.NewSource(53)))

	in := stream.NewLink("in")
	out := stream.NewLink("out")
	e := fc.NewEngine("fc", set.FC, cfg, in, out)

	fed := 0
	cycle := 0
	for e.Stats().Inputs < uint64(len(feed)) {
		if fed < len(feed) && in.CanAccept() {
			in.Push(feed[fed].Clone())
			fed++
		}
		e.Tick()
		cycle++
		if cycle > maxCycles {
			t.Fatal("collection stalled")
		}
	}

	computeCycles := 0
	collected := 0
	for {
		if out.Valid() {
			out.Pop()
			collected++
			if collected == config.NumClasses {
				break
			}
		}
		e.Tick()
		computeCycles++
		if computeCycles > maxCycles {
			t.Fatal("compute stalled")
		}
	}

	want := config.NumClasses * (2 + cfg.FCGroupCycles())
	if computeCycles != want {
		t.Errorf("compute cycles = %d, want %d", computeCycles, want)
	}
}

func TestEngineHoldsNextImageDuringCompute(t *testing.T) {
	set := weights.TestSet()
	cfg := config.DefaultConfig()
	_, feed := randomFlat(rand.New(rand.NewSource(59)))

	in := stream.NewLink("in")
	out := stream.NewLink("out")
	e := fc.NewEngine("fc", set.FC, cfg, in, out)

	// Fill one image, then offer the first token of the next while no score
	// has been drained. It must stay in the link untouched.
	fed := 0
	for e.Stats().Inputs < uint64(len(feed)) {
		if fed < len(feed) && in.CanAccept() {
			in.Push(feed[fed].Clone())
			fed++
		}
		e.Tick()
	}
	in.Push(fixed.Vector{7, 7, 7})

	for i := 0; i < 10; i++ {
		e.Tick()
	}

	if !in.Valid() {
		t.Fatal("next image's token must wait during compute")
	}
	if e.Stats().Inputs != uint64(len(feed)) {
		t.Errorf("Inputs = %d, want %d", e.Stats().Inputs, len(feed))
	}
}
