package falloff

import (
	"sync"
	"testing"
)

func TestGenerateCentreAndCorners(t *testing.T) {
	g := Generate(241)
	if c := g.At(120, 120); c != 0 {
		t.Errorf("centre = %v, want 0", c)
	}
	for _, p := range [][2]int{{0, 0}, {240, 0}, {0, 240}, {240, 240}} {
		if v := g.At(p[0], p[1]); v != 1 {
			t.Errorf("corner %v = %v, want 1", p, v)
		}
	}
}

func TestGenerateRange(t *testing.T) {
	g := Generate(50)
	for y := range 50 {
		for x := range 50 {
			if v := g.At(x, y); v < 0 || v > 1 {
				t.Fatalf("(%d,%d) = %v outside [0,1]", x, y, v)
			}
		}
	}
}

func TestGenerateSymmetry(t *testing.T) {
	for _, size := range []int{1, 2, 3, 10, 17, 64, 241} {
		g := Generate(size)
		n := size - 1
		for y := range size {
			for x := range size {
				v := g.At(x, y)
				if m := g.At(n-x, y); m != v {
					t.Fatalf("size %d: horizontal mirror (%d,%d) %v != %v", size, x, y, v, m)
				}
				if m := g.At(x, n-y); m != v {
					t.Fatalf("size %d: vertical mirror (%d,%d) %v != %v", size, x, y, v, m)
				}
				if r := g.At(n-y, x); r != v {
					t.Fatalf("size %d: rotation (%d,%d) %v != %v", size, x, y, v, r)
				}
			}
		}
	}
}

func TestGenerateMonotonicFromCentre(t *testing.T) {
	g := Generate(101)
	prev := -1.0
	for x := 50; x < 101; x++ {
		v := g.At(x, 50)
		if v < prev {
			t.Fatalf("x=%d: value %v decreased from %v", x, v, prev)
		}
		prev = v
	}
}

func TestGenerateDegenerateSizes(t *testing.T) {
	if g := Generate(0); g.Len() != 0 {
		t.Errorf("size 0 should be empty, got %d", g.Len())
	}
	if g := Generate(1); g.Len() != 1 || g.At(0, 0) != 0 {
		t.Errorf("size 1 should be a single zero cell")
	}
}

func TestCacheReusesGrids(t *testing.T) {
	c := NewCache()
	a := c.Get(32)
	b := c.Get(32)
	if &a.values[0] != &b.values[0] {
		t.Errorf("expected cached grid to be reused")
	}
	c.Get(16)
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	c.SetShape(2, 3)
	if c.Len() != 0 {
		t.Errorf("SetShape should drop cached grids")
	}
	d := c.Get(32)
	if d.At(5, 5) == a.At(5, 5) {
		t.Errorf("reshaped grid should differ from the default shape")
	}

	c.Invalidate()
	if c.Len() != 0 {
		t.Errorf("Invalidate should drop cached grids")
	}
}

func TestCacheConcurrentReaders(t *testing.T) {
	c := NewCache()
	want := Generate(33)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				c.Invalidate()
			}
			g := c.Get(33)
			for j := range want.values {
				if g.values[j] != want.values[j] {
					t.Errorf("cell %d differs", j)
					return
				}
			}
		}(i)
	}
	wg.Wait()
}
