package indexer

import "fmt"

// BlockRange is an inclusive range of block numbers.
type BlockRange struct {
	Start uint64
	End   uint64
}

func (r BlockRange) Len() uint64 {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

func (r BlockRange) String() string {
	return fmt.Sprintf("[%d, %d]", r.Start, r.End)
}

// NextRange returns the next range that is safe to scan, starting right after the checkpoint
// and ending at most confirmationLag blocks behind the chain head.
// ok is false when no block after the checkpoint is old enough.
func NextRange(checkpoint, head, confirmationLag, batchSize uint64) (r BlockRange, ok bool) {
	if head <= confirmationLag {
		return BlockRange{}, false
	}
	safeHead := head - confirmationLag
	if safeHead <= checkpoint {
		return BlockRange{}, false
	}
	if batchSize == 0 {
		batchSize = 1
	}

	end := safeHead
	if checkpoint+batchSize < end {
		end = checkpoint + batchSize
	}
	return BlockRange{Start: checkpoint + 1, End: end}, true
}
