package plume

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/goclass/internal/config"
	"github.com/san-kum/goclass/internal/output"
	"github.com/san-kum/goclass/internal/profile"
)

func background(t *testing.T, cfg *config.Config) *profile.Profile {
	t.Helper()
	snap := output.Snapshot{"h": 1000, "theta": 290, "dtheta": 1, "q": 0.006, "dq": -0.002}
	bg, err := profile.Generate(cfg, snap, profile.DefaultDz)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	return bg
}

func TestCalculate(t *testing.T) {
	cfg := config.GetPreset("smoke")
	bg := background(t, cfg)

	plume, err := Calculate(cfg.Fire, bg, DefaultConfig())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if len(plume) < 2 {
		t.Fatalf("expected the plume to rise, got %d levels", len(plume))
	}

	first := plume[0]
	if first.Z != bg.Z[0] {
		t.Errorf("plume should start at the lowest level, got %g", first.Z)
	}
	if first.Thetal <= bg.Theta[0] {
		t.Errorf("fire should heat the parcel: thetal=%g, ambient %g", first.Thetal, bg.Theta[0])
	}
	if first.B <= 0 {
		t.Errorf("expected positive initial buoyancy, got %g", first.B)
	}

	for i := 1; i < len(plume); i++ {
		p := plume[i]
		if p.Z <= plume[i-1].Z {
			t.Fatalf("heights must increase at %d", i)
		}
		if !(p.W > 0) || !(p.Area > 0) {
			t.Fatalf("level %g: w=%g area=%g", p.Z, p.W, p.Area)
		}
		if math.IsNaN(p.T) || p.RH < 0 {
			t.Fatalf("level %g: T=%g rh=%g", p.Z, p.T, p.RH)
		}
	}
	if Top(plume) != plume[len(plume)-1].Z {
		t.Errorf("unexpected top %g", Top(plume))
	}
}

func TestCalculateWeakerFireStaysLower(t *testing.T) {
	cfg := config.GetPreset("smoke")
	bg := background(t, cfg)

	strong, err := Calculate(cfg.Fire, bg, DefaultConfig())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}

	weak := *cfg.Fire
	weak.Omega /= 10
	weakPlume, err := Calculate(&weak, bg, DefaultConfig())
	if err != nil {
		t.Fatalf("calculate: %v", err)
	}
	if Top(weakPlume) > Top(strong) {
		t.Errorf("weak fire rose to %g, above strong fire at %g", Top(weakPlume), Top(strong))
	}
}

func TestCalculateErrors(t *testing.T) {
	cfg := config.GetPreset("smoke")
	bg := background(t, cfg)

	if _, err := Calculate(nil, bg, DefaultConfig()); !errors.Is(err, ErrNoFire) {
		t.Errorf("expected ErrNoFire, got %v", err)
	}
	if _, err := Calculate(cfg.Fire, &profile.Profile{}, DefaultConfig()); !errors.Is(err, ErrEmptyProfile) {
		t.Errorf("expected ErrEmptyProfile, got %v", err)
	}

	cold := *cfg.Fire
	cold.C = 0
	if _, err := Calculate(&cold, bg, DefaultConfig()); !errors.Is(err, ErrNoUpdraft) {
		t.Errorf("expected ErrNoUpdraft, got %v", err)
	}
}
