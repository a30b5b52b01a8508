package tracing

import "github.com/rs/zerolog"

// Default* constants mirror the compile-time constants of the original
// implementation (spec §6). The four pool and ring capacities are defaults
// that can be overridden per Runtime via an Option passed to New; the
// remaining constants have no Option and are fixed.
const (
	// DefaultRingCapacity is the job ring's element count
	// (kNumberOfElements in the original).
	DefaultRingCapacity = 500
	// DefaultClientPoolCapacity bounds the number of simultaneously
	// registered trace clients.
	DefaultClientPoolCapacity = 20
	// DefaultHandlePoolCapacity bounds the number of simultaneously
	// registered shared-memory object handles.
	DefaultHandlePoolCapacity = 200
	// DefaultCallbackPoolCapacity bounds the number of simultaneously
	// registered completion callbacks.
	DefaultCallbackPoolCapacity = 10
	// DefaultMaxChunksPerTraceRequest mirrors the original's per-request
	// chunk limit (kMaxChunksPerOneTraceRequest). Nothing in this package
	// reads it: a JobPayload carries a single SharedMemLocation.
	DefaultMaxChunksPerTraceRequest = 10
	// DefaultCASMaxRetries bounds every bounded CAS retry loop in this
	// package; see casMaxRetries in jobring.go.
	DefaultCASMaxRetries = casMaxRetries
	// DefaultAppIDLength is the fixed byte length of an AppInstanceID
	// (kApplicationIdentifierLength in the original).
	DefaultAppIDLength = 8
	// DefaultCacheLineSize is the padding width applied to pool and ring
	// elements to avoid false sharing.
	DefaultCacheLineSize = slotPoolCacheLine
	// RingBufferSharedMemoryPath documents the shared-memory mount path
	// the original daemon protocol uses for the backing ring
	// (kRingBufferSharedMemoryPath); this package never opens it itself
	// (spec Non-goals exclude the shared-memory backing object), it is
	// only surfaced here for callers wiring their own daemon transport.
	RingBufferSharedMemoryPath = "/dev_shmem"
)

// Config holds every tunable of a Runtime. Build one with New's functional
// Options rather than constructing it directly, so future fields have safe
// zero-value-compatible defaults.
type Config struct {
	ringCapacity         int
	clientPoolCapacity   int
	handlePoolCapacity   int
	callbackPoolCapacity int
	logger               zerolog.Logger
	classifier           MemoryClassifier
	deallocator          Deallocator
}

// Option configures a Runtime at construction time.
type Option func(*Config)

// defaultConfig returns a Config populated with the Default* constants and
// a no-op logger, as the starting point New applies Options on top of.
func defaultConfig() Config {
	return Config{
		ringCapacity:         DefaultRingCapacity,
		clientPoolCapacity:   DefaultClientPoolCapacity,
		handlePoolCapacity:   DefaultHandlePoolCapacity,
		callbackPoolCapacity: DefaultCallbackPoolCapacity,
		logger:               zerolog.Nop(),
	}
}

// WithRingCapacity overrides the job ring's element count.
func WithRingCapacity(capacity int) Option {
	return func(c *Config) { c.ringCapacity = capacity }
}

// WithClientPoolCapacity overrides the maximum number of simultaneously
// registered clients.
func WithClientPoolCapacity(capacity int) Option {
	return func(c *Config) { c.clientPoolCapacity = capacity }
}

// WithHandlePoolCapacity overrides the maximum number of simultaneously
// registered shared-memory object handles.
func WithHandlePoolCapacity(capacity int) Option {
	return func(c *Config) { c.handlePoolCapacity = capacity }
}

// WithCallbackPoolCapacity overrides the maximum number of simultaneously
// registered completion callbacks.
func WithCallbackPoolCapacity(capacity int) Option {
	return func(c *Config) { c.callbackPoolCapacity = capacity }
}

// WithLogger attaches a structured logger. The default is zerolog.Nop(),
// so a Runtime built without this Option produces no log output.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Config) { c.logger = logger }
}

// WithMemoryClassifier attaches the callback used to classify a file
// descriptor as typed shared memory during handle registration (spec §6).
func WithMemoryClassifier(classifier MemoryClassifier) Option {
	return func(c *Config) { c.classifier = classifier }
}

// WithDeallocator attaches the function the job processor calls to free a
// finished job's backing storage before any completion callback fires.
func WithDeallocator(deallocator Deallocator) Option {
	return func(c *Config) { c.deallocator = deallocator }
}

// MemoryClassifier decides whether a file descriptor refers to memory the
// daemon recognizes as a typed shared-memory object, per spec §6.
type MemoryClassifier interface {
	IsTypedMemory(fd int) (bool, error)
}

// Deallocator releases the backing storage located at a finished trace
// job's SharedMemLocation. Called by JobProcessor exactly once per
// successfully CAS'd ready element, before any completion callback (spec
// §6/§4.5). An error return is a fatal deallocation failure: ProcessJobs
// surfaces it immediately and stops.
type Deallocator func(SharedMemLocation, JobKind) error
