package vm

// findPriorCapture locates the text captured by the most relevant earlier
// capture with key target, scanning the capture list backward.
//
// The search skips trailing opens (captures still being matched), finds the
// innermost capture that is open at this point (the enclosing capture), and
// looks among the completed captures inside it for target. A candidate is
// rejected when another instance of the enclosing capture's key lies between
// it and the enclosing open, since that candidate belongs to a different
// instance of the enclosing rule. If nothing qualifies, the search continues
// from the enclosing open back to the start of the list.
//
// Returns the 0-based start and end of the captured text.
func findPriorCapture(caps []Capture, target uint32) (start, end int, ok bool) {
	captop := len(caps)
	if captop == 0 {
		return 0, 0, false
	}

	// Skip backward past any immediate opens.
	i := captop - 1
	for ; i > 0; i-- {
		if !caps[i].IsOpen() {
			break
		}
	}
	capEnd := i

	// Scan backward for the first open without a close. caps[0] is the
	// outermost open, which cannot be closed yet.
	balance := 0
	for ; i > 0; i-- {
		if caps[i].IsOpen() {
			if balance == 0 {
				break
			}
			balance++
		} else {
			balance--
		}
	}
	outer := i
	outerKey := caps[outer].Key

	found := -1
	for i = capEnd; i >= outer; i-- {
		if caps[i].IsOpen() && caps[i].Key == target && reachesOuter(caps, i, outer, outerKey) {
			found = i
			break
		}
	}
	if found < 0 {
		for i = outer; i >= 0; i-- {
			if caps[i].IsOpen() && caps[i].Key == target {
				found = i
				break
			}
		}
		if found < 0 {
			return 0, 0, false
		}
	}

	// Find the matching close.
	depth := 0
	for i = found + 1; i < captop; i++ {
		if caps[i].IsOpen() {
			depth++
			continue
		}
		if depth == 0 {
			return caps[found].Pos, caps[i].Pos, true
		}
		depth--
	}
	return 0, 0, false
}

// reachesOuter reports whether scanning backward from the capture at i
// arrives at the enclosing open (at outer) without first meeting another
// open of outerKey at the same or a shallower nesting level.
func reachesOuter(caps []Capture, i, outer int, outerKey uint32) bool {
	balance := 0
	for j := i - 1; j >= outer; j-- {
		if caps[j].IsOpen() {
			if balance >= 0 && caps[j].Key == outerKey {
				return j == outer
			}
			balance++
		} else {
			balance--
		}
	}
	return false
}
