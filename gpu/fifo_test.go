package gpu

import "testing"

func TestFIFOPackedZeroArgCommand(t *testing.T) {
	q := newCommandQueue()
	// A packed register write carries the command id in its low byte; push
	// matrix takes zero arguments so the command completes immediately.
	q.feedWord(uint32(cmdPushMatrix), true)
	c, ok := q.pop()
	if !ok {
		t.Fatal("expected one entry in PIPE")
	}
	if c.id != cmdPushMatrix {
		t.Fatalf("id = %#x, want %#x", c.id, cmdPushMatrix)
	}
	if len(c.args) != 0 {
		t.Fatalf("push-matrix should have 0 args, got %d", len(c.args))
	}
}

func TestFIFOMultiArgCommandOrdersArguments(t *testing.T) {
	q := newCommandQueue()
	q.startCommand(cmdTranslate) // 3 args
	q.appendArg(1)
	q.appendArg(2)
	q.appendArg(3)
	c, ok := q.pop()
	if !ok {
		t.Fatal("expected translate command in PIPE")
	}
	if len(c.args) != 3 || c.args[0] != 1 || c.args[1] != 2 || c.args[2] != 3 {
		t.Fatalf("args = %v, want [1 2 3] in order", c.args)
	}
}

func TestFIFOOccupancyReflectsEntries(t *testing.T) {
	q := newCommandQueue()
	for i := 0; i < pipeCapacity+2; i++ {
		q.enqueue(gxCommand{id: cmdPushMatrix})
	}
	if got := q.occupancy(); got != pipeCapacity+2 {
		t.Fatalf("occupancy = %d, want %d", got, pipeCapacity+2)
	}
}

func TestFIFOHalfEmptyEdgeFiresOnce(t *testing.T) {
	q := newCommandQueue()
	var transitions int
	q.onHalfFull = func(below bool) { transitions++ }
	for i := 0; i < fifoHalfFull+pipeCapacity+1; i++ {
		q.enqueue(gxCommand{id: cmdPushMatrix})
	}
	if transitions != 1 {
		t.Fatalf("expected exactly one half-full transition callback, got %d", transitions)
	}
}
