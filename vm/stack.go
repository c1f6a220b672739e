package vm

// callFrame marks a frame that holds only a return address.
const callFrame = -1

// giveupPC is the resume address of the bottom frame. Resuming there ends
// the match without success.
const giveupPC = -1

// btEntry is a backtrack frame. Pos is callFrame for call frames; choice
// frames save the position to resume from.
type btEntry struct {
	Pos      int
	PC       int
	CapLevel int
}

// inlineFrames is the size of the stack's inline storage.
const inlineFrames = 21

// btStack is the VM's backtrack stack. It starts in inline storage and
// moves to the heap, doubling, when that overflows.
type btStack struct {
	frames []btEntry
	top    int // number of frames in use
	max    int
	maxTop int // high-water mark
	init   [inlineFrames]btEntry
}

func (st *btStack) reset(initial, limit int) {
	initial = max(1, initial)
	if initial <= inlineFrames {
		st.frames = st.init[:initial]
	} else {
		st.frames = make([]btEntry, initial)
	}
	st.max = limit
	st.top = 0
	st.maxTop = 0
}

// release drops any heap storage.
func (st *btStack) release() {
	st.frames = st.init[:0]
	st.top = 0
}

func (st *btStack) grow() error {
	if len(st.frames) >= st.max {
		log.Debugf("backtrack stack limit reached (%d frames)", st.max)
		return ErrStack
	}
	newsize := min(2*len(st.frames), st.max)
	frames := make([]btEntry, newsize)
	copy(frames, st.frames[:st.top])
	st.frames = frames
	log.Debugf("backtrack stack grown to %d frames", newsize)
	return nil
}

func (st *btStack) push(e btEntry) error {
	if st.top == len(st.frames) {
		if err := st.grow(); err != nil {
			return err
		}
	}
	st.frames[st.top] = e
	st.top++
	if st.top > st.maxTop {
		st.maxTop = st.top
	}
	return nil
}

func (st *btStack) pop() btEntry {
	st.top--
	return st.frames[st.top]
}

// peek returns the top frame.
func (st *btStack) peek() *btEntry {
	return &st.frames[st.top-1]
}

// below returns the frame under the top frame.
func (st *btStack) below() *btEntry {
	return &st.frames[st.top-2]
}

func (st *btStack) size() int {
	return st.top
}
