package liburing

const (
	DefaultEntries = 1024
)

type Options struct {
	Entries      uint32
	CQEntries    uint32
	Flags        uint32
	SQThreadCPU  uint32
	SQThreadIdle uint32
	WQFd         uint32
}

type Option func(*Options) error

// WithEntries
// setup submission queue depth. Rounded up to a power of two by the kernel.
func WithEntries(entries uint32) Option {
	return func(opts *Options) error {
		if entries > 0 {
			opts.Entries = entries
		}
		return nil
	}
}

// WithCQEntries
// setup completion queue depth, implies IORING_SETUP_CQSIZE.
func WithCQEntries(entries uint32) Option {
	return func(opts *Options) error {
		if entries > 0 {
			opts.CQEntries = entries
			opts.Flags |= IORING_SETUP_CQSIZE
		}
		return nil
	}
}

// WithFlags
// setup IORING_SETUP_* flags. Flags unknown to the running kernel are dropped on setup.
func WithFlags(flags uint32) Option {
	return func(opts *Options) error {
		opts.Flags |= flags
		return nil
	}
}

// WithSQThreadCPU
// setup sq poll thread affinity, implies IORING_SETUP_SQ_AFF.
func WithSQThreadCPU(cpu uint32) Option {
	return func(opts *Options) error {
		opts.SQThreadCPU = cpu
		opts.Flags |= IORING_SETUP_SQ_AFF
		return nil
	}
}

// WithSQThreadIdle
// setup sq poll thread idle in milliseconds.
func WithSQThreadIdle(idle uint32) Option {
	return func(opts *Options) error {
		opts.SQThreadIdle = idle
		return nil
	}
}

// WithAttachWQ
// share the async worker pool of another ring.
func WithAttachWQ(fd uint32) Option {
	return func(opts *Options) error {
		opts.WQFd = fd
		opts.Flags |= IORING_SETUP_ATTACH_WQ
		return nil
	}
}
