package aggregate

// UnsafeOperator is an aggregation operator that user supplied pipelines
// may not use. StageOnly operators are stripped when they appear as a
// pipeline stage; every operator is rejected wherever else it appears.
type UnsafeOperator struct {
	Name      string
	StageOnly bool
}

// UnsafeOperators lists the denied operators.
var UnsafeOperators = []UnsafeOperator{
	{"$collStats", true},
	{"$currentOp", true},
	{"$indexStats", true},
	{"$listLocalSessions", true},
	{"$listSessions", true},
	{"$merge", true},
	{"$out", true},
	{"$planCacheStats", true},
	{"$explain", false},
	{"$hint", false},
	{"$showDiskLoc", false},
	{"$where", false},
}

var (
	unsafeStages    []string
	unsafeOperators = map[string]struct{}{}
)

func init() {
	for _, op := range UnsafeOperators {
		if op.StageOnly {
			unsafeStages = append(unsafeStages, op.Name)
		}
		unsafeOperators[op.Name] = struct{}{}
	}
}

// IsUnsafe reports whether name is a denied operator.
func IsUnsafe(name string) bool {
	_, ok := unsafeOperators[name]
	return ok
}
