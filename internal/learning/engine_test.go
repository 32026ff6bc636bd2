package learning

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestEngine_Predict(t *testing.T) {
	engine := NewEngine(NewMovingAverageModel(1), testLogger())

	if _, ok := engine.Predict(KindOptimize, 10); ok {
		t.Error("expected no prediction before any observation")
	}

	engine.Record(Observation{Kind: KindOptimize, Units: 100, Elapsed: time.Millisecond})

	got, ok := engine.Predict(KindOptimize, 1000)
	if !ok {
		t.Fatal("expected prediction after observation")
	}
	if got != 10*time.Millisecond {
		t.Errorf("expected 10ms, got %v", got)
	}

	if _, ok := engine.Predict(KindSimulate, 1000); ok {
		t.Error("kinds must be learned separately")
	}
}

func TestEngine_Seed(t *testing.T) {
	engine := NewEngine(NewMovingAverageModel(0.5), testLogger())

	applied := engine.Seed([]Observation{
		{Kind: KindSimulate, Units: 1000, Elapsed: 2 * time.Millisecond},
		{Kind: KindSimulate, Units: 0, Elapsed: time.Second},
		{Kind: KindSimulate, Units: 1000, Elapsed: 4 * time.Millisecond},
	})

	if applied != 2 {
		t.Errorf("expected 2 applied observations, got %d", applied)
	}

	// 0.5*4000 + 0.5*2000 ns per unit
	ks := engine.Model().GetKindStats(KindSimulate)
	if ks.AvgNsPerUnit != 3000 {
		t.Errorf("expected 3000 ns per unit, got %f", ks.AvgNsPerUnit)
	}
}

func TestUnits(t *testing.T) {
	if got := OptimizeUnits(10, 3); got != 30 {
		t.Errorf("OptimizeUnits(10, 3) = %f", got)
	}
	if got := OptimizeUnits(10, 0); got != 10 {
		t.Errorf("OptimizeUnits(10, 0) = %f", got)
	}
	if got := SimulateUnits(5, 1000); got != 5000 {
		t.Errorf("SimulateUnits(5, 1000) = %f", got)
	}
	if got := SimulateUnits(0, 1000); got != 1000 {
		t.Errorf("SimulateUnits(0, 1000) = %f", got)
	}
}
