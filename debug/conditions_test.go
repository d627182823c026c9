package debug

import (
	"testing"

	"github.com/zoltrix-systems/ndscore/core"
	"github.com/zoltrix-systems/ndscore/mem"
)

func TestParseConditionRegisterComparison(t *testing.T) {
	cond, err := ParseCondition("R0==0x5")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if cond.Source != CondSourceRegister || cond.RegName != "R0" || cond.Op != CondOpEqual || cond.Value != 5 {
		t.Fatalf("got %+v", cond)
	}
}

func TestParseConditionMemoryComparison(t *testing.T) {
	cond, err := ParseCondition("[0x1000]!=0x42")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if cond.Source != CondSourceMemory || cond.MemAddr != 0x1000 || cond.Op != CondOpNotEqual || cond.Value != 0x42 {
		t.Fatalf("got %+v", cond)
	}
}

func TestParseConditionHitCount(t *testing.T) {
	cond, err := ParseCondition("hitcount>10")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if cond.Source != CondSourceHitCount || cond.Op != CondOpGreater || cond.Value != 10 {
		t.Fatalf("got %+v", cond)
	}
}

func TestParseConditionRejectsMissingOperator(t *testing.T) {
	if _, err := ParseCondition("R0 0x5"); err == nil {
		t.Fatal("expected an error for a condition with no operator")
	}
}

func TestParseConditionRejectsEmptyString(t *testing.T) {
	if _, err := ParseCondition("   "); err == nil {
		t.Fatal("expected an error for an empty condition")
	}
}

func TestEvaluateConditionAgainstLiveRegister(t *testing.T) {
	sys := core.NewSystem()
	a := NewAdapter(sys.ARM9)
	a.SetRegister("R0", 5)

	cond, err := ParseCondition("R0==0x5")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if !evaluateCondition(cond, a, 0) {
		t.Fatal("expected condition to hold when R0 == 5")
	}

	a.SetRegister("R0", 6)
	if evaluateCondition(cond, a, 0) {
		t.Fatal("expected condition to fail when R0 != 5")
	}
}

func TestEvaluateConditionAgainstLiveMemory(t *testing.T) {
	sys := core.NewSystem()
	a := NewAdapter(sys.ARM9)
	addr := uint32(mem.MainRAMBase)
	a.WriteMemory(addr, []byte{0x42})

	memCond := &BreakpointCondition{Source: CondSourceMemory, MemAddr: addr, Op: CondOpEqual, Value: 0x42}
	if !evaluateCondition(memCond, a, 0) {
		t.Fatal("expected memory condition to hold")
	}
}

func TestEvaluateConditionHitCount(t *testing.T) {
	sys := core.NewSystem()
	a := NewAdapter(sys.ARM9)
	cond := &BreakpointCondition{Source: CondSourceHitCount, Op: CondOpGreaterEqual, Value: 3}
	if evaluateCondition(cond, a, 2) {
		t.Fatal("expected hit count 2 to fail >=3")
	}
	if !evaluateCondition(cond, a, 3) {
		t.Fatal("expected hit count 3 to satisfy >=3")
	}
}

func TestEvaluateConditionNilAlwaysHolds(t *testing.T) {
	sys := core.NewSystem()
	a := NewAdapter(sys.ARM9)
	if !evaluateCondition(nil, a, 0) {
		t.Fatal("expected a nil condition to always hold (unconditional breakpoint)")
	}
}

func TestFormatConditionRoundTripsReadably(t *testing.T) {
	cond, err := ParseCondition("R1>=0x10")
	if err != nil {
		t.Fatalf("ParseCondition: %v", err)
	}
	if got, want := FormatCondition(cond), "R1>=0x10"; got != want {
		t.Fatalf("FormatCondition = %q, want %q", got, want)
	}
	if FormatCondition(nil) != "" {
		t.Fatal("expected FormatCondition(nil) to be empty")
	}
}
