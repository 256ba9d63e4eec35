package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestOverallStatusAggregation(t *testing.T) {
	c := NewChecker()

	c.RegisterFunc("tracker", true, func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy}
	})
	c.RegisterFunc("source", false, func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusDegraded}
	})

	c.Check(context.Background())
	if got := c.OverallStatus(); got != StatusDegraded {
		t.Errorf("OverallStatus = %s, want degraded", got)
	}
}

func TestCriticalFailureIsUnhealthy(t *testing.T) {
	c := NewChecker()
	c.RegisterFunc("tracker", true, func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusUnhealthy}
	})

	c.Check(context.Background())
	if got := c.OverallStatus(); got != StatusUnhealthy {
		t.Errorf("OverallStatus = %s, want unhealthy", got)
	}
}

func TestNonCriticalFailureIsDegraded(t *testing.T) {
	c := NewChecker()
	c.RegisterFunc("source", false, func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusUnhealthy}
	})

	c.Check(context.Background())
	if got := c.OverallStatus(); got != StatusDegraded {
		t.Errorf("OverallStatus = %s, want degraded", got)
	}
}

func TestUncheckedCriticalIsUnknown(t *testing.T) {
	c := NewChecker()
	c.RegisterFunc("tracker", true, func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy}
	})

	if got := c.OverallStatus(); got != StatusUnknown {
		t.Errorf("OverallStatus before any check = %s, want unknown", got)
	}
}

func TestCheckTimeout(t *testing.T) {
	c := NewChecker()
	c.Register(&Component{
		Name:    "slow",
		Timeout: 50 * time.Millisecond,
		Check: func(ctx context.Context) CheckResult {
			<-ctx.Done()
			time.Sleep(10 * time.Millisecond)
			return CheckResult{Status: StatusHealthy}
		},
	})

	results := c.Check(context.Background())
	if results["slow"].Status != StatusUnhealthy {
		t.Errorf("slow check status = %s, want unhealthy", results["slow"].Status)
	}
}

func TestCheckPanicRecovered(t *testing.T) {
	c := NewChecker()
	c.RegisterFunc("panicky", false, func(ctx context.Context) CheckResult {
		panic("boom")
	})

	results := c.Check(context.Background())
	if results["panicky"].Status != StatusUnhealthy {
		t.Errorf("panicking check status = %s", results["panicky"].Status)
	}
}

func TestTrackingCheck(t *testing.T) {
	active := true
	check := TrackingCheck(func() bool { return active })

	if res := check(context.Background()); res.Status != StatusHealthy {
		t.Errorf("active tracking = %s", res.Status)
	}
	active = false
	if res := check(context.Background()); res.Status != StatusUnhealthy {
		t.Errorf("inactive tracking = %s", res.Status)
	}
}

func TestSourceCheck(t *testing.T) {
	check := SourceCheck(func() (bool, string) { return false, "no permission" })
	res := check(context.Background())
	if res.Status != StatusDegraded {
		t.Errorf("unavailable source = %s, want degraded", res.Status)
	}
	if res.Details["detail"] != "no permission" {
		t.Errorf("detail = %v", res.Details["detail"])
	}
}

func TestCustomCheck(t *testing.T) {
	check := CustomCheck(func() error { return errors.New("nope") })
	if res := check(context.Background()); res.Status != StatusUnhealthy {
		t.Errorf("failing custom check = %s", res.Status)
	}
}

func TestReport(t *testing.T) {
	c := NewChecker()
	c.SetReady(true)
	c.RegisterFunc("tracker", true, func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusHealthy}
	})

	resp := c.Report(context.Background(), true)
	if !resp.Ready {
		t.Error("expected ready")
	}
	if resp.Status != StatusHealthy {
		t.Errorf("Status = %s", resp.Status)
	}
	if len(resp.Components) != 1 {
		t.Errorf("Components = %v", resp.Components)
	}
}
