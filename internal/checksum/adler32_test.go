package checksum

import (
	"testing"

	"pgregory.net/rapid"
)

func TestSumKnownVectors(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want uint32
	}{
		{"empty", nil, 1},
		{"wikipedia", []byte("Wikipedia"), 0x11E60398},
		{"single byte", []byte{0x41}, 0x420042},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := sumScalar(c.data); got != c.want {
				t.Errorf("sumScalar(%q) = %#x, want %#x", c.data, got, c.want)
			}
		})
	}
}

func TestVectorizedMatchesScalar(t *testing.T) {
	lengths := []int{0, 1, 15, 16, 17, 31, 32, 33, 63, 100, nmax - 1, nmax, nmax + 1, nmax*2 + 17}
	for _, n := range lengths {
		data := make([]byte, n)
		for i := range data {
			data[i] = byte(i * 7 % 251)
		}
		scalar, vectorized, ok := CheckConsistency(data)
		if !ok {
			t.Errorf("length %d: scalar %#x != vectorized %#x", n, scalar, vectorized)
		}
	}
}

func TestVectorizedMatchesScalarProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOf(rapid.Byte()).Draw(t, "data")
		scalar, vectorized, ok := CheckConsistency(data)
		if !ok {
			t.Fatalf("scalar %#x != vectorized %#x for %d bytes", scalar, vectorized, len(data))
		}
	})
}

func TestSumUsesActivePath(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog, twice over")
	want := sumScalar(data)
	if got := sumVectorized(data); got != want {
		t.Fatalf("sumVectorized = %#x, sumScalar = %#x", got, want)
	}
	if got := Sum(data); got != want {
		t.Fatalf("Sum = %#x, want %#x", got, want)
	}
}
