package options

// Configuration is the result of a successful Process call.
//
// A field is only meaningful when its corresponding Set flag is true. Filling in defaults for unset options is left to
// the caller.
type Configuration struct {
	ThreadCountSet bool
	// ThreadCount is the number of workers in the pool. Never less than MinThreads when set.
	ThreadCount int32
	PortSet     bool
	// Port is kept in the exact form it was given on the command line.
	Port string
}

const (
	// MinThreads is the smallest accepted value for -n.
	MinThreads = 2
	// MinPort is the smallest accepted value for -p.
	MinPort = 1025
	// MaxPort is the largest accepted value for -p.
	MaxPort = 65535
	// MaxPortLength is the largest number of characters accepted for -p.
	MaxPortLength = 5
)
