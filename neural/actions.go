package neural

// ActionArray records, per hunger level, whether a feed succeeded during an
// episode. The decision made at hunger h lives in slot h-1; levels outside
// [1, len] are ignored on write and read as 0.
type ActionArray struct {
	slots []int8
}

// NewActionArray creates an all-zero array covering hunger levels 1..levels.
func NewActionArray(levels int) *ActionArray {
	return &ActionArray{slots: make([]int8, levels)}
}

// Set records the outcome of the decision made at hunger. Last write wins.
func (a *ActionArray) Set(hunger int, fed bool) {
	i := hunger - 1
	if i < 0 || i >= len(a.slots) {
		return
	}
	if fed {
		a.slots[i] = 1
	} else {
		a.slots[i] = 0
	}
}

// At returns 1 if a feed was recorded at hunger, else 0.
func (a *ActionArray) At(hunger int) int {
	i := hunger - 1
	if i < 0 || i >= len(a.slots) {
		return 0
	}
	return int(a.slots[i])
}

// Len returns the number of slots.
func (a *ActionArray) Len() int {
	return len(a.slots)
}

// Feeds counts levels with a recorded feed.
func (a *ActionArray) Feeds() int {
	n := 0
	for _, v := range a.slots {
		n += int(v)
	}
	return n
}

// Slots returns a copy indexed by slot (hunger-1).
func (a *ActionArray) Slots() []int {
	out := make([]int, len(a.slots))
	for i, v := range a.slots {
		out[i] = int(v)
	}
	return out
}

// Reset clears every slot.
func (a *ActionArray) Reset() {
	clear(a.slots)
}

// ActionRing holds the current and previous episode's action arrays.
// Advance recycles the older array as the next current one.
type ActionRing struct {
	arrays [2]*ActionArray
	cur    int
}

// NewActionRing creates a ring whose previous array starts all-zero.
func NewActionRing(levels int) *ActionRing {
	return &ActionRing{
		arrays: [2]*ActionArray{NewActionArray(levels), NewActionArray(levels)},
	}
}

// Current is the array the running episode writes to.
func (r *ActionRing) Current() *ActionArray {
	return r.arrays[r.cur]
}

// Previous is the array written by the episode before.
func (r *ActionRing) Previous() *ActionArray {
	return r.arrays[r.cur^1]
}

// Advance makes the current array the previous one and hands out a cleared
// array for the next episode.
func (r *ActionRing) Advance() *ActionArray {
	r.cur ^= 1
	r.arrays[r.cur].Reset()
	return r.arrays[r.cur]
}
