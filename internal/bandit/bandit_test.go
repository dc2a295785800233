package bandit

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/danielpatrickdp/hearth/internal/policy"
)

func testContext(t *testing.T) policy.Context {
	t.Helper()
	return policy.Context{Kind: "test", Features: json.RawMessage(`{"x":1}`)}
}

func TestDecide_LearnsAndExploitsBestSlot(t *testing.T) {
	b := New("test-policy")
	b.SetEpsilon(0) // no exploration, deterministic
	ctx := testContext(t)

	b.Feedback(ctx, "remind.morning", 0.1)
	b.Feedback(ctx, "remind.afternoon", 0.9)
	b.Feedback(ctx, "remind.evening", 0.3)
	b.Feedback(ctx, "remind.afternoon", 0.8)

	d := b.Decide(ctx)
	if d.Action != "remind.afternoon" {
		t.Errorf("expected remind.afternoon, got %q", d.Action)
	}
	if d.Why != WhyExploit {
		t.Errorf("expected why %q, got %q", WhyExploit, d.Why)
	}
	if d.Score < 0.5 {
		t.Errorf("expected score > 0.5, got %.2f", d.Score)
	}
}

func TestDecide_UntriedArmsTieBreakByOrder(t *testing.T) {
	b := New("test-policy")
	b.SetEpsilon(0)

	d := b.Decide(testContext(t))
	// All arms average 0.0; the first arm in iteration order wins.
	if d.Action != "remind.morning" {
		t.Errorf("expected remind.morning, got %q", d.Action)
	}
	if d.Score != 0.0 {
		t.Errorf("expected score 0.0, got %f", d.Score)
	}
}

func TestDecide_AlwaysPrefixed(t *testing.T) {
	b := New("test-policy")
	for i := 0; i < 20; i++ {
		d := b.Decide(testContext(t))
		if !strings.HasPrefix(d.Action, ActionPrefix) {
			t.Fatalf("decision action %q lacks prefix %q", d.Action, ActionPrefix)
		}
		if d.Why != WhyExplore && d.Why != WhyExploit {
			t.Fatalf("unexpected why tag %q", d.Why)
		}
	}
}

func TestDecide_NaNRewardsIgnoredInExploit(t *testing.T) {
	snap := PolicySnapshot{
		Version: SnapshotVersion,
		Arms:    []string{"a", "b"},
		Counts:  []uint32{0, 0},
		Values:  []float32{0, 0},
		Epsilon: 0,
	}
	b := New("test-policy")
	if _, err := b.Load(snap); err != nil {
		t.Fatal(err)
	}
	ctx := testContext(t)
	b.Feedback(ctx, "remind.a", float32(math.NaN()))
	b.Feedback(ctx, "remind.b", 0.5)

	d := b.Decide(ctx)
	if d.Action != "remind.b" {
		t.Errorf("expected remind.b, got %q", d.Action)
	}
}

func TestFeedback_WithoutPrefixIgnored(t *testing.T) {
	b := New("test-policy")
	ctx := testContext(t)

	b.Feedback(ctx, "afternoon", 0.9)

	snap := b.Snapshot()
	for i, c := range snap.Counts {
		if c != 0 {
			t.Errorf("arm %q has %d pulls, expected 0", snap.Arms[i], c)
		}
	}
}

func TestSnapshot_RoundTripRetainsState(t *testing.T) {
	seed := PolicySnapshot{
		Version: SnapshotVersion,
		Arms:    []string{"a", "b"},
		Counts:  []uint32{0, 0},
		Values:  []float32{0, 0},
		Epsilon: 0.33,
	}
	b := New("test-policy")
	if _, err := b.Load(seed); err != nil {
		t.Fatal(err)
	}
	ctx := testContext(t)
	b.Feedback(ctx, "remind.b", 1.0)

	snap := b.Snapshot()
	if snap.Version != SnapshotVersion {
		t.Errorf("expected version %q, got %q", SnapshotVersion, snap.Version)
	}
	if len(snap.Arms) != len(snap.Counts) || len(snap.Arms) != len(snap.Values) {
		t.Fatalf("snapshot arrays misaligned: %d/%d/%d", len(snap.Arms), len(snap.Counts), len(snap.Values))
	}

	restored := New("other")
	report, err := restored.Load(snap)
	if err != nil {
		t.Fatal(err)
	}
	if report.Sanitized {
		t.Errorf("clean snapshot should not be sanitized: %v", report.Warnings)
	}
	if got := restored.Epsilon(); math.Abs(float64(got-0.33)) > 1e-6 {
		t.Errorf("expected epsilon 0.33, got %f", got)
	}

	again := restored.Snapshot()
	if again.Arms[1] != "b" || again.Counts[1] != 1 || again.Values[1] != 1.0 {
		t.Errorf("arm b state not retained: %+v", again)
	}

	restored.SetEpsilon(0)
	d := restored.Decide(ctx)
	if d.Action != "remind.b" {
		t.Errorf("expected remind.b after restore, got %q", d.Action)
	}
}

func TestLoad_SanitizesEpsilonAndArms(t *testing.T) {
	snap := PolicySnapshot{
		Version: SnapshotVersion,
		Epsilon: 42.0,
	}
	b := New("test-policy")
	report, err := b.Load(snap)
	if err != nil {
		t.Fatal(err)
	}
	if !report.Sanitized {
		t.Fatal("expected sanitized load")
	}
	if len(report.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", report.Warnings)
	}
	if b.Epsilon() != 1.0 {
		t.Errorf("expected epsilon clamped to 1.0, got %f", b.Epsilon())
	}
	snap = b.Snapshot()
	if len(snap.Arms) != len(DefaultArms()) {
		t.Errorf("expected default arms restored, got %v", snap.Arms)
	}
}

func TestLoad_RejectsStructurallyInvalid(t *testing.T) {
	b := New("test-policy")
	ctx := testContext(t)
	b.Feedback(ctx, "remind.morning", 0.7)

	cases := []PolicySnapshot{
		{Version: "99", Arms: []string{"a"}, Counts: []uint32{0}, Values: []float32{0}},
		{Version: SnapshotVersion, Arms: []string{"a", "b"}, Counts: []uint32{0}, Values: []float32{0, 0}},
	}
	for _, snap := range cases {
		if _, err := b.Load(snap); err == nil {
			t.Errorf("expected rejection of snapshot %+v", snap)
		}
	}

	// Prior state untouched after rejection.
	snap := b.Snapshot()
	if snap.Counts[0] != 1 {
		t.Errorf("prior state lost after rejected load: %+v", snap)
	}
}

func TestLoad_SeededExplorationIsReproducible(t *testing.T) {
	a := NewSeeded("test-policy", 42)
	b := NewSeeded("test-policy", 42)
	a.SetEpsilon(1)
	b.SetEpsilon(1)

	ctx := testContext(t)
	for i := 0; i < 10; i++ {
		da := a.Decide(ctx)
		db := b.Decide(ctx)
		if da.Action != db.Action {
			t.Fatalf("seeded engines diverged at step %d: %q vs %q", i, da.Action, db.Action)
		}
		if da.Why != WhyExplore {
			t.Fatalf("epsilon=1 must always explore, got %q", da.Why)
		}
	}
}

func TestParseSnapshot_RejectsGarbage(t *testing.T) {
	if _, err := ParseSnapshot([]byte("{not json")); err == nil {
		t.Error("expected parse error")
	}
}
