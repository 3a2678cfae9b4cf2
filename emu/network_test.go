package emu_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/Min-DongYoung/energy-efficiency-CNN/config"
	"github.com/Min-DongYoung/energy-efficiency-CNN/emu"
	"github.com/Min-DongYoung/energy-efficiency-CNN/fixed"
	"github.com/Min-DongYoung/energy-efficiency-CNN/weights"
)

func TestConvAccumulateUniformImage(t *testing.T) {
	// A uniform 255 image through the known conv1 kernels (all-1, all-2,
	// all-3, zero bias) accumulates 255*25*w per output channel before the
	// rescale shift.
	set := weights.TestSet()

	image := make([]uint8, config.ImagePixels)
	for i := range image {
		image[i] = 255
	}
	in := emu.ImageToPlanes(image)

	for oc := 0; oc < config.Conv1OutChannels; oc++ {
		want := fixed.Value(255 * 25 * (oc + 1))
		for _, pos := range [][2]int{{0, 0}, {3, 7}, {23, 23}} {
			got := emu.ConvAccumulate(in, set.Conv1, oc, pos[0], pos[1])
			if got != want {
				t.Errorf("ConvAccumulate(oc=%d, %v) = %d, want %d",
					oc, pos, got, want)
			}
		}
	}
}

func TestConv2DMatchesFloatReference(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	set := weights.TestSet()

	image := make([]uint8, config.ImagePixels)
	for i := range image {
		image[i] = uint8(rng.Intn(256))
	}
	in := emu.ImageToPlanes(image)

	const fracBits = 8
	out := emu.Conv2D(in, set.Conv1, fracBits)

	for oc := 0; oc < config.Conv1OutChannels; oc++ {
		for y := 0; y < config.Conv1OutHeight; y++ {
			for x := 0; x < config.Conv1OutWidth; x++ {
				var ref float64
				for row := 0; row < config.KernelSize; row++ {
					for col := 0; col < config.KernelSize; col++ {
						ref += float64(in[0][y+row][x+col]) *
							float64(set.Conv1.Weights[oc][0][row][col])
					}
				}
				ref += float64(set.Conv1.Bias[oc])
				ref /= float64(int64(1) << fracBits)

				got := float64(out[oc][y][x])
				if got > float64(fixed.MaxActivation)-1 {
					continue // saturated; float reference exceeds range
				}
				if math.Abs(got-ref) > 1.0 {
					t.Fatalf("conv1[%d][%d][%d] = %v, float reference %v",
						oc, y, x, got, ref)
				}
			}
		}
	}
}

func TestMaxPool2x2Property(t *testing.T) {
	// Pool(n) == max(0, n00, n01, n10, n11), checked over all sign patterns.
	vals := []fixed.Value{-5, -1, 0, 3, 7}
	for _, n00 := range vals {
		for _, n01 := range vals {
			for _, n10 := range vals {
				for _, n11 := range vals {
					in := [][][]fixed.Value{{
						{n00, n01},
						{n10, n11},
					}}
					got := emu.MaxPool2x2(in)[0][0][0]

					want := fixed.Value(0)
					for _, v := range []fixed.Value{n00, n01, n10, n11} {
						if v > want {
							want = v
						}
					}

					if got != want {
						t.Fatalf("Pool(%d,%d,%d,%d) = %d, want %d",
							n00, n01, n10, n11, got, want)
					}
				}
			}
		}
	}
}

func TestArgmax(t *testing.T) {
	tests := []struct {
		name   string
		scores []fixed.Value
		want   int
	}{
		{"unique max", []fixed.Value{1, 9, 3, 4}, 1},
		{"max at zero", []fixed.Value{9, 1, 3, 4}, 0},
		{"max at end", []fixed.Value{1, 2, 3, 9}, 3},
		{"tie keeps lowest", []fixed.Value{3, 9, 9, 1}, 1},
		{"all equal", []fixed.Value{5, 5, 5, 5}, 0},
		{"negative scores", []fixed.Value{-7, -3, -3, -9}, 1},
	}

	for _, tt := range tests {
		if got := emu.Argmax(tt.scores); got != tt.want {
			t.Errorf("%s: Argmax(%v) = %d, want %d", tt.name, tt.scores, got, tt.want)
		}
	}
}

func TestZeroImageClassifiesBias(t *testing.T) {
	// With an all-zero image every activation is ReLU(bias-derived) and the
	// final scores reduce to the FC bias vector (plus any conv bias that
	// survives ReLU). With zero conv biases the scores are exactly the FC
	// biases, so the prediction is the argmax of the bias vector alone.
	set := weights.TestSet()
	set.FC.Bias = []int8{-3, 0, 5, 1, 5, -8, 2, 0, 4, 3}

	cfg := config.DefaultConfig()
	net, err := emu.NewNetwork(cfg, set)
	if err != nil {
		t.Fatal(err)
	}

	got, err := net.Classify(make([]uint8, config.ImagePixels))
	if err != nil {
		t.Fatal(err)
	}

	biases := make([]fixed.Value, config.NumClasses)
	for i, b := range set.FC.Bias {
		biases[i] = fixed.ToActivation(fixed.FromWeight(b), cfg.FracBits)
	}
	want := emu.Argmax(biases)

	if got != want {
		t.Errorf("Classify(zero image) = %d, want argmax of biases = %d", got, want)
	}
}

func TestClassifyRejectsWrongImageSize(t *testing.T) {
	net, err := emu.NewNetwork(config.DefaultConfig(), weights.TestSet())
	if err != nil {
		t.Fatal(err)
	}

	if _, err := net.Classify(make([]uint8, 100)); err == nil {
		t.Error("Classify with short image should fail")
	}
}

func TestFlattenOrder(t *testing.T) {
	// Two channels of a 2x2 plane flatten position-major, channel-minor.
	in := [][][]fixed.Value{
		{{1, 2}, {3, 4}},
		{{10, 20}, {30, 40}},
	}
	got := emu.Flatten(in)
	want := []fixed.Value{1, 10, 2, 20, 3, 30, 4, 40}

	if len(got) != len(want) {
		t.Fatalf("Flatten length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Flatten[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}
