// Package effect adapts the teacher's stereo effect chain (delay, reverb,
// chorus, distortion, EQ, compressor) into render_mixed-only Device Impls,
// wired into the Device Graph downstream of instrument nodes.
//
// Each effect keeps the teacher's exact per-sample DSP math from
// internal/effects; only the calling convention changes, from an
// Effector.Process(l, r float32) interface driven per-sample by a Chain,
// to a RenderMixed(pstate, wbs, bufStart, bufStop, tempo) hook driven by
// the devicegraph walk, reading/writing the engine's own guard-padded
// Work Buffers (RoleImpl1 = left, RoleImpl2 = right) in place.
package effect

import "kunquat/device"

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// stereoBuffers resolves the left/right Work Buffers an effect reads and
// writes in place.
func stereoBuffers(wbs *device.WorkBuffers) (*device.Buffer, *device.Buffer) {
	return wbs.Get(device.RoleImpl1), wbs.Get(device.RoleImpl2)
}
