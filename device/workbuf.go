package device

// Role names a Work Buffer by the data it carries across the device graph.
type Role int

const (
	RolePitchParams Role = iota
	RoleActualPitches
	RoleActualForces
	RoleImpl1
	RoleImpl2
	RoleImpl3
	RoleTimeEnv
)

// guard is the number of extra samples reserved on each side of a Buffer so
// branchless/SIMD-style DSP loops can overread or underread by one sample.
const guard = 1

// Buffer is a contiguous float buffer of Size usable samples with one
// guard sample before index 0 and one after Size-1 (valid addresses
// [-1, Size]).
type Buffer struct {
	data []float64 // len == Size + 2*guard; data[guard+i] is logical index i
	Size int
}

// NewBuffer allocates a guard-padded Buffer of the given usable size.
func NewBuffer(size int) *Buffer {
	return &Buffer{data: make([]float64, size+2*guard), Size: size}
}

// At returns the value at logical index i, where i may be -1 or Size (the
// guard samples).
func (b *Buffer) At(i int) float64 {
	return b.data[i+guard]
}

// Set writes the value at logical index i, where i may be -1 or Size.
func (b *Buffer) Set(i int, v float64) {
	b.data[i+guard] = v
}

// Clear zeroes every usable sample (not the guards, which callers are
// expected to seed explicitly if they rely on overread values).
func (b *Buffer) Clear() {
	for i := range b.data[guard : guard+b.Size] {
		b.data[guard+i] = 0
	}
}

// Slice returns the usable [0, Size) range as a plain slice for bulk
// operations; index -1 and Size remain reachable only via At/Set.
func (b *Buffer) Slice() []float64 {
	return b.data[guard : guard+b.Size]
}

// WorkBuffers is the named collection of Buffers passed through
// render_voice/render_mixed calls, owned by the engine and lent to
// processors for the duration of one call.
type WorkBuffers struct {
	buffers map[Role]*Buffer
	size    int
}

// NewWorkBuffers allocates the full named set at the given chunk size.
func NewWorkBuffers(size int) *WorkBuffers {
	wbs := &WorkBuffers{buffers: make(map[Role]*Buffer), size: size}
	for _, r := range []Role{
		RolePitchParams, RoleActualPitches, RoleActualForces,
		RoleImpl1, RoleImpl2, RoleImpl3, RoleTimeEnv,
	} {
		wbs.buffers[r] = NewBuffer(size)
	}
	return wbs
}

// Get returns the Buffer bound to role.
func (wbs *WorkBuffers) Get(role Role) *Buffer {
	return wbs.buffers[role]
}

// Size returns the configured chunk size shared by every Buffer.
func (wbs *WorkBuffers) Size() int { return wbs.size }

// ClearAll zeroes every named buffer, called once per chunk before the
// device graph walk.
func (wbs *WorkBuffers) ClearAll() {
	for _, b := range wbs.buffers {
		b.Clear()
	}
}
