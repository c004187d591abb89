// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"
	"math"
)

// Grid is a 2D workgroup grid covering a 1D element range.
type Grid struct {
	// Total is ceil(count / WorkgroupSize), the 1D group count.
	Total uint64
	// GroupsX is the folded width, min(Total, limit).
	GroupsX uint32
	// GroupsY is ceil(Total / GroupsX).
	GroupsY uint32
}

// Invocations returns the number of kernel invocations the grid launches.
func (g Grid) Invocations() uint64 {
	return uint64(g.GroupsX) * uint64(g.GroupsY) * WorkgroupSize
}

// ComputeGrid folds ceil(count/256) workgroups into a 2D grid whose x
// dimension stays within limit:
//
//	total   = ceil(count / 256)
//	groupsX = min(total, limit)
//	groupsY = ceil(total / groupsX)
//
// A zero count yields the empty grid. The fold is checked: groupsX*groupsY
// must cover total and groupsY must also fit limit, otherwise
// ErrDispatchTooLarge is returned.
func ComputeGrid(count uint64, limit uint32) (Grid, error) {
	if count == 0 {
		return Grid{}, nil
	}
	if limit == 0 {
		return Grid{}, fmt.Errorf("%w: device reports zero workgroups per dimension", ErrDispatchTooLarge)
	}

	total := (count + WorkgroupSize - 1) / WorkgroupSize
	groupsX := min(total, uint64(limit))
	groupsY := (total + groupsX - 1) / groupsX

	if groupsY > uint64(limit) {
		return Grid{}, fmt.Errorf("%w: %d elements need %d x %d groups, limit %d per dimension",
			ErrDispatchTooLarge, count, groupsX, groupsY, limit)
	}
	if groupsX*groupsY < total {
		return Grid{}, fmt.Errorf("%w: grid %d x %d does not cover %d groups",
			ErrDispatchTooLarge, groupsX, groupsY, total)
	}
	return Grid{Total: total, GroupsX: uint32(groupsX), GroupsY: uint32(groupsY)}, nil
}

// dispatcher launches the kernel program over the resident buffer and
// tracks the last submission as the fence for later waits.
type dispatcher struct {
	dev     Device
	program ProgramID
	limit   uint32

	// lastSubmission is the fence value of the most recent dispatch.
	lastSubmission SubmissionIndex
	pending        bool
}

func newDispatcher(dev Device, program ProgramID) *dispatcher {
	return &dispatcher{
		dev:     dev,
		program: program,
		limit:   dev.Limits().MaxComputeWorkgroupsPerDimension,
	}
}

// dispatch launches count elements of buf. With wait set it blocks until
// the device signals completion; otherwise it returns once the work is
// submitted. The end of the compute pass orders the kernel's writes before
// every later submission, including the readback copy.
func (d *dispatcher) dispatch(buf BufferID, count uint64, wait bool) (Grid, error) {
	grid, err := ComputeGrid(count, d.limit)
	if err != nil {
		return Grid{}, err
	}
	if grid.Total == 0 {
		return grid, nil
	}
	if count > math.MaxUint32 {
		return Grid{}, fmt.Errorf("%w: %d elements exceed 32-bit kernel indexing", ErrDispatchTooLarge, count)
	}

	idx, err := d.dev.Dispatch(&DispatchCommand{
		Program: d.program,
		Buffer:  buf,
		GroupsX: grid.GroupsX,
		GroupsY: grid.GroupsY,
		Count:   uint32(count),
	})
	if err != nil {
		return Grid{}, fmt.Errorf("gpu: dispatch: %w", err)
	}
	d.lastSubmission = idx
	d.pending = true

	slogger().Debug("gpu: kernel dispatched",
		"elements", count,
		"groups_x", grid.GroupsX,
		"groups_y", grid.GroupsY,
		"submission", uint64(idx),
		"wait", wait)

	if wait {
		if err := d.wait(); err != nil {
			return grid, err
		}
	}
	return grid, nil
}

// wait blocks until the last dispatch has completed. It is a no-op when
// nothing is in flight.
func (d *dispatcher) wait() error {
	if !d.pending {
		return nil
	}
	if err := d.dev.Wait(d.lastSubmission); err != nil {
		return fmt.Errorf("gpu: wait for submission %d: %w", d.lastSubmission, err)
	}
	d.pending = false
	slogger().Debug("gpu: fence signaled", "submission", uint64(d.lastSubmission))
	return nil
}
