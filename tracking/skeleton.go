package tracking

const (
	FingerCount      = 5
	FingerSplayCount = 4
)

// FingerNames label the curl entries of a SkeletalSummary, thumb first.
var FingerNames = [FingerCount]string{
	"thumb (1)",
	"index (2)",
	"middle (3)",
	"ring (4)",
	"pinky (5)",
}

// FingerSplayNames label the splay entries of a SkeletalSummary.
var FingerSplayNames = [FingerSplayCount]string{
	"thumb-index (1-2)",
	"index-middle (2-3)",
	"middle-ring (3-4)",
	"ring-pinky (4-5)",
}

// SkeletalSummary is the runtime's per-hand finger readout.
// Curl is 0 for a straight finger and 1 for a fully curled one; splay is the
// normalized spread between two adjacent fingers.
type SkeletalSummary struct {
	FingerCurl  [FingerCount]float32
	FingerSplay [FingerSplayCount]float32
}
