// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"testing"
)

func TestComputeGrid(t *testing.T) {
	tests := []struct {
		name  string
		count uint64
		limit uint32
		want  Grid
	}{
		{"empty", 0, 65535, Grid{}},
		{"one element", 1, 65535, Grid{Total: 1, GroupsX: 1, GroupsY: 1}},
		{"one group", 256, 65535, Grid{Total: 1, GroupsX: 1, GroupsY: 1}},
		{"one past group", 257, 65535, Grid{Total: 2, GroupsX: 2, GroupsY: 1}},
		{"exact limit", 256 * 65535, 65535, Grid{Total: 65535, GroupsX: 65535, GroupsY: 1}},
		{"fold once", 256*65535 + 1, 65535, Grid{Total: 65536, GroupsX: 65535, GroupsY: 2}},
		// 1<<29 elements, the benchmark default.
		{"benchmark", 1 << 29, 65535, Grid{Total: 1 << 21, GroupsX: 65535, GroupsY: 33}},
		{"small limit", 256 * 10, 4, Grid{Total: 10, GroupsX: 4, GroupsY: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeGrid(tt.count, tt.limit)
			if err != nil {
				t.Fatalf("ComputeGrid(%d, %d): %v", tt.count, tt.limit, err)
			}
			if got != tt.want {
				t.Errorf("ComputeGrid(%d, %d) = %+v, want %+v", tt.count, tt.limit, got, tt.want)
			}
		})
	}
}

func TestComputeGridCovers(t *testing.T) {
	for _, limit := range []uint32{1, 3, 7, 64, 65535} {
		for _, count := range []uint64{1, 255, 256, 257, 1000, 4096, 100_000} {
			g, err := ComputeGrid(count, limit)
			if errors.Is(err, ErrDispatchTooLarge) {
				continue
			}
			if err != nil {
				t.Fatalf("ComputeGrid(%d, %d): %v", count, limit, err)
			}
			if g.Invocations() < count {
				t.Errorf("ComputeGrid(%d, %d) = %+v launches %d invocations", count, limit, g, g.Invocations())
			}
			if g.GroupsX > limit || g.GroupsY > limit {
				t.Errorf("ComputeGrid(%d, %d) = %+v exceeds limit", count, limit, g)
			}
			// At most one partially idle row of groups.
			if uint64(g.GroupsX)*uint64(g.GroupsY)-g.Total >= uint64(g.GroupsX) {
				t.Errorf("ComputeGrid(%d, %d) = %+v wastes a full row", count, limit, g)
			}
		}
	}
}

func TestComputeGridTooLarge(t *testing.T) {
	if _, err := ComputeGrid(256*5, 2); !errors.Is(err, ErrDispatchTooLarge) {
		t.Errorf("5 groups on a 2x2 limit = %v, want ErrDispatchTooLarge", err)
	}
	if _, err := ComputeGrid(1, 0); !errors.Is(err, ErrDispatchTooLarge) {
		t.Errorf("zero limit = %v, want ErrDispatchTooLarge", err)
	}
}

func TestDispatcherWaitIdle(t *testing.T) {
	dev := newFakeDevice()
	d := newDispatcher(dev, ProgramID(1))
	if err := d.wait(); err != nil {
		t.Fatalf("wait with nothing pending: %v", err)
	}
	if dev.waits != 0 {
		t.Errorf("idle wait reached the device")
	}
}
