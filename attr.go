package uthread

// DetachState controls whether a thread's exit value can be retrieved
// with Join, per spec.md §4.8/§6.
type DetachState int32

const (
	Joinable DetachState = iota
	Detached
)

// ThreadAttr configures Create, mirroring spec.md §6's "attributes"
// group (init/destroy, set/get stacksize, priority, nice, detachstate,
// name).
type ThreadAttr struct {
	StackSize  int
	Priority   int32
	Nice       int32
	Detached   bool
	Name       string
}

// DefaultThreadAttr returns the attribute set Create uses when passed
// nil: joinable, default stack size, mid-range priority, nice zero.
func DefaultThreadAttr() *ThreadAttr {
	return &ThreadAttr{
		StackSize: defaultStackSize,
		Priority:  defaultPriority,
		Nice:      0,
		Detached:  false,
	}
}

func (a *ThreadAttr) validate() error {
	if a.StackSize < minStackSize || a.StackSize > maxStackSize {
		return newErr("ThreadAttr.validate", CodeInvalidArgument)
	}
	if a.Priority < minPriority || a.Priority > maxPriority {
		return newErr("ThreadAttr.validate", CodeInvalidArgument)
	}
	if a.Nice < minNice || a.Nice > maxNice {
		return newErr("ThreadAttr.validate", CodeInvalidArgument)
	}
	if len(a.Name) > maxNameLen {
		return newErr("ThreadAttr.validate", CodeInvalidArgument)
	}
	return nil
}
