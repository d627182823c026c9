// fifo.go - GXFIFO command queue and the 4-entry GXPIPE

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
fifo.go - commandQueue

The GPU receives commands two ways: a packed 32-bit register that can
carry up to four command IDs in one write, and per-command memory-mapped
ports. Both funnel into the same enqueue path. A 256-entry FIFO feeds a
4-entry PIPE that the command processor actually drains from; this
mirrors the teacher's ticket-queue idiom in coprocessor_manager.go
(bounded queue, a dispatch loop draining it, state transitions gated on
queue occupancy) adapted to the DS's two-stage FIFO-then-PIPE shape and
its half-empty DMA signal instead of worker tickets.
*/

package gpu

const (
	fifoCapacity = 256
	fifoHalfFull = fifoCapacity / 2
	pipeCapacity = 4
	pipeDrainAt  = 2
)

type gxCommand struct {
	id   uint8
	args []uint32
}

// IRQMode mirrors the GXSTAT IRQ-on-FIFO-state field.
type IRQMode uint8

const (
	IRQNever IRQMode = iota
	IRQLessThanHalfFull
	IRQEmpty
)

// argCounts maps a command id to its expected argument word count (0..32),
// the static table §4.5 requires to know how many words follow a command
// id before the command is complete.
var argCounts = map[uint8]int{
	cmdSetMatrixMode: 1, cmdPushMatrix: 0, cmdPopMatrix: 1,
	cmdStoreMatrix: 1, cmdRestoreMatrix: 1, cmdIdentity: 0,
	cmdLoad4x4: 16, cmdLoad4x3: 12, cmdMul4x4: 16, cmdMul4x3: 12, cmdMul3x3: 9,
	cmdScale: 3, cmdTranslate: 3,
	cmdSetColor: 1, cmdSetNormal: 1, cmdSetTexCoord: 1,
	cmdVtx16: 2, cmdVtx10: 1, cmdVtxXY: 1, cmdVtxXZ: 1, cmdVtxYZ: 1, cmdVtxDiff: 1,
	cmdPolygonAttr: 1, cmdTexImageParam: 1, cmdTexPaletteBase: 1,
	cmdMaterial0: 1, cmdMaterial1: 1, cmdLightVector: 1, cmdLightColor: 1,
	cmdShininess: 32,
	cmdBeginVtxs: 1, cmdEndVtxs: 0, cmdSwapBuffers: 1,
	cmdViewport: 1, cmdBoxTest: 3, cmdPosTest: 2, cmdVecTest: 1,
}

// commandQueue is the FIFO + PIPE pair. onHalfFull, when set, is invoked whenever the
// half-empty line's level changes, so the caller can re-trigger DMA on
// the falling edge per §4.8.
type commandQueue struct {
	fifo []gxCommand
	pipe []gxCommand

	irqMode    IRQMode
	onHalfFull func(below bool)
	pendingID  uint8
	pendingLen int
	pendingBuf []uint32
}

func newCommandQueue() *commandQueue {
	return &commandQueue{fifo: make([]gxCommand, 0, fifoCapacity), pipe: make([]gxCommand, 0, pipeCapacity)}
}

func (q *commandQueue) reset() {
	q.fifo = q.fifo[:0]
	q.pipe = q.pipe[:0]
	q.pendingLen = 0
	q.pendingBuf = nil
}

// feedWord accepts one argument word for the command currently being
// assembled, or, if no command is pending, treats the word as a packed
// command register write (up to four ids one byte each).
func (q *commandQueue) feedWord(word uint32, packed bool) {
	if packed {
		ids := [4]uint8{uint8(word), uint8(word >> 8), uint8(word >> 16), uint8(word >> 24)}
		for _, id := range ids {
			if id == 0 {
				continue
			}
			q.startCommand(id)
		}
		return
	}
	q.appendArg(word)
}

func (q *commandQueue) startCommand(id uint8) {
	n := argCounts[id]
	if n == 0 {
		q.enqueue(gxCommand{id: id})
		return
	}
	q.pendingID = id
	q.pendingLen = n
	q.pendingBuf = q.pendingBuf[:0]
}

func (q *commandQueue) appendArg(word uint32) {
	if q.pendingLen == 0 {
		return
	}
	q.pendingBuf = append(q.pendingBuf, word)
	if len(q.pendingBuf) >= q.pendingLen {
		args := make([]uint32, len(q.pendingBuf))
		copy(args, q.pendingBuf)
		q.enqueue(gxCommand{id: q.pendingID, args: args})
		q.pendingLen = 0
	}
}

func (q *commandQueue) wasBelowHalf() bool { return len(q.fifo) < fifoHalfFull }

// enqueue implements the push rule from §4.5: FIFO empty and PIPE not
// full pushes straight to PIPE; otherwise it goes to the FIFO, which may
// cross the half-full line and, if actually full, is synchronously
// drained before the write completes.
func (q *commandQueue) enqueue(c gxCommand) {
	before := q.wasBelowHalf()
	if len(q.fifo) == 0 && len(q.pipe) < pipeCapacity {
		q.pipe = append(q.pipe, c)
	} else {
		q.fifo = append(q.fifo, c)
		if len(q.fifo) >= fifoCapacity {
			q.drainOneToCaller()
		}
	}
	q.checkIRQ(before)
}

// drainOneToCaller is the "model consequence" stand-in for hardware
// stall: rather than blocking the writing CPU, a full FIFO synchronously
// migrates its oldest entry into the PIPE immediately.
func (q *commandQueue) drainOneToCaller() {
	q.migrate()
}

func (q *commandQueue) migrate() {
	if len(q.fifo) == 0 || len(q.pipe) >= pipeCapacity {
		return
	}
	q.pipe = append(q.pipe, q.fifo[0])
	q.fifo = q.fifo[1:]
}

// pop removes and returns the next command to execute, migrating more
// FIFO entries into the PIPE per the dequeue rule in §4.5.
func (q *commandQueue) pop() (gxCommand, bool) {
	if len(q.pipe) == 0 {
		return gxCommand{}, false
	}
	before := q.wasBelowHalf()
	c := q.pipe[0]
	q.pipe = q.pipe[1:]
	for len(q.pipe) <= pipeDrainAt && len(q.fifo) > 0 {
		q.migrate()
	}
	q.checkIRQ(before)
	return c, true
}

func (q *commandQueue) checkIRQ(wasBelowHalf bool) {
	isBelowHalf := q.wasBelowHalf()
	if wasBelowHalf != isBelowHalf && q.onHalfFull != nil {
		q.onHalfFull(isBelowHalf)
	}
}

func (q *commandQueue) setIRQMode(m IRQMode) { q.irqMode = m }

func (q *commandQueue) irqPending() bool {
	switch q.irqMode {
	case IRQLessThanHalfFull:
		return len(q.fifo) < fifoHalfFull
	case IRQEmpty:
		return len(q.fifo) == 0 && len(q.pipe) == 0
	}
	return false
}

func (q *commandQueue) empty() bool { return len(q.fifo) == 0 && len(q.pipe) == 0 }

func (q *commandQueue) occupancy() int { return len(q.fifo) + len(q.pipe) }
