package control

import (
	"math"
	"testing"

	"github.com/aslik04/junction-modelling/config"
	"github.com/aslik04/junction-modelling/element"
)

func TestEstimatorBoundsAndMonotonic(t *testing.T) {
	params := []config.AdaptiveConfig{
		{MinGreen: 5, MaxGreen: 30, K: 2, Alpha: 0.5},
		{MinGreen: 1, MaxGreen: 1, K: 0.5, Alpha: 1},
		{MinGreen: 10, MaxGreen: 90, K: 20, Alpha: 0.1},
		{MinGreen: 0.5, MaxGreen: 200, K: 1e-3, Alpha: 0.9},
	}

	for _, p := range params {
		e := NewAdaptiveEstimator(p)
		prev := -1.0
		for q := 0.0; q <= 1000; q += 0.25 {
			g := e.GreenFor(q)
			if g < p.MinGreen || g > p.MaxGreen {
				t.Fatalf("%+v: green(%v) = %v outside bounds", p, q, g)
			}
			if g < prev {
				t.Fatalf("%+v: green decreased at q=%v: %v < %v", p, q, g, prev)
			}
			prev = g
		}
	}
}

func TestEstimatorFormula(t *testing.T) {
	e := NewAdaptiveEstimator(config.AdaptiveConfig{MinGreen: 5, MaxGreen: 30, K: 2, Alpha: 0.5})

	if got := e.Green(element.Vertical, SubMain); got != 5 {
		t.Errorf("empty estimator green = %v, want min", got)
	}

	// Q = 0.5·4 + 0.5·0 = 2, green = 5 + 25·2/4 = 17.5
	if got := e.Observe(element.Vertical, SubMain, 4); math.Abs(got-17.5) > 1e-9 {
		t.Errorf("first observe green = %v, want 17.5", got)
	}
	// Q = 0.5·0 + 0.5·2 = 1, green = 5 + 25/3
	if got := e.Observe(element.Vertical, SubMain, 0); math.Abs(got-(5+25.0/3)) > 1e-9 {
		t.Errorf("second observe green = %v, want %v", got, 5+25.0/3)
	}
	if got := e.Smoothed(element.Vertical, SubMain); got != 1 {
		t.Errorf("smoothed = %v, want 1", got)
	}

	// Green 不更新平滑值
	before := e.Smoothed(element.Vertical, SubMain)
	e.Green(element.Vertical, SubMain)
	if e.Smoothed(element.Vertical, SubMain) != before {
		t.Error("Green must not change smoothing state")
	}

	// 各组、各子信号互相独立
	if e.Smoothed(element.Horizontal, SubMain) != 0 || e.Smoothed(element.Vertical, SubRight) != 0 {
		t.Error("other estimators should be untouched")
	}
}

func TestEstimatorConvergesToMinOnEmptyQueue(t *testing.T) {
	e := NewAdaptiveEstimator(config.AdaptiveConfig{MinGreen: 5, MaxGreen: 30, K: 2, Alpha: 0.5})
	e.Observe(element.Horizontal, SubMain, 20)

	var g float64
	for i := 0; i < 200; i++ {
		g = e.Observe(element.Horizontal, SubMain, 0)
	}
	if math.Abs(g-5) > 1e-6 {
		t.Errorf("green = %v, want to converge to 5", g)
	}
}

func TestEstimatorRejectsNegativeQueue(t *testing.T) {
	e := NewAdaptiveEstimator(config.AdaptiveConfig{MinGreen: 5, MaxGreen: 30, K: 2, Alpha: 0.5})
	defer func() {
		if recover() == nil {
			t.Error("expected panic on negative queue")
		}
	}()
	e.Observe(element.Vertical, SubMain, -1)
}

func TestEstimatorRejectsNonFiniteQueue(t *testing.T) {
	e := NewAdaptiveEstimator(config.AdaptiveConfig{MinGreen: 5, MaxGreen: 30, K: 2, Alpha: 0.5})
	if got := e.GreenFor(1e12); math.Abs(got-30) > 1e-6 {
		t.Errorf("GreenFor(1e12) = %f, want 30", got)
	}

	for _, q := range []float64{math.Inf(1), math.NaN()} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for queue %f", q)
				}
			}()
			e.GreenFor(q)
		}()
	}
}
