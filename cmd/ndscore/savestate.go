// savestate.go - Combined core+GPU save-state file format

/*
(c) 2024 - 2026 Zoltrix Systems
License: GPLv3 or later
*/

/*
savestate.go - writeSaveState, loadSaveState

core.Snapshot and gpu.Snapshot are deliberately independent (see
core/snapshot.go's Open Question note: System holds the GPU only behind
the narrow GPUPort interface, so it cannot snapshot GPU internals
itself). This is the one place both halves are known concretely, so
composing them into a single on-disk file is this binary's job, not the
core's - a length-prefixed pair of gob blobs, the simplest encoding that
needs no new format beyond what Snapshot.Encode already produces.
*/

package main

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/zoltrix-systems/ndscore/core"
	"github.com/zoltrix-systems/ndscore/gpu"
)

func writeSaveState(path string, sys *core.System, engine *gpu.Engine) error {
	coreSnap, err := sys.Snapshot()
	if err != nil {
		return fmt.Errorf("capturing core state: %w", err)
	}
	coreBytes, err := coreSnap.Encode()
	if err != nil {
		return fmt.Errorf("encoding core state: %w", err)
	}

	var gpuBytes []byte
	if engine != nil {
		gpuBytes, err = engine.Snapshot().Encode()
		if err != nil {
			return fmt.Errorf("encoding GPU state: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := writeBlock(f, coreBytes); err != nil {
		return err
	}
	return writeBlock(f, gpuBytes)
}

func loadSaveState(path string, sys *core.System, engine *gpu.Engine) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	coreBytes, rest, err := readBlock(data)
	if err != nil {
		return fmt.Errorf("reading core block: %w", err)
	}
	coreSnap, err := core.DecodeSnapshot(coreBytes)
	if err != nil {
		return fmt.Errorf("decoding core state: %w", err)
	}
	if err := sys.Restore(coreSnap); err != nil {
		return fmt.Errorf("restoring core state: %w", err)
	}

	gpuBytes, _, err := readBlock(rest)
	if err != nil {
		return fmt.Errorf("reading GPU block: %w", err)
	}
	if engine != nil && len(gpuBytes) > 0 {
		gpuSnap, err := gpu.DecodeSnapshot(gpuBytes)
		if err != nil {
			return fmt.Errorf("decoding GPU state: %w", err)
		}
		if err := engine.Restore(gpuSnap); err != nil {
			return fmt.Errorf("restoring GPU state: %w", err)
		}
	}
	return nil
}

func writeBlock(f *os.File, data []byte) error {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := f.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := f.Write(data)
	return err
}

func readBlock(data []byte) (block, rest []byte, err error) {
	if len(data) < 4 {
		return nil, nil, fmt.Errorf("truncated save state")
	}
	n := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]
	if uint32(len(data)) < n {
		return nil, nil, fmt.Errorf("truncated save state")
	}
	return data[:n], data[n:], nil
}
