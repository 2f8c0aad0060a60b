package project

import (
	"context"
	"sync"
	"time"

	"github.com/snwareresearch/project-tracker/internal"
)

// scanLimit bounds how many of the highest stored identifiers are inspected
// when looking for the latest well-formed one.
const scanLimit = 20

// IdentifierSource reads identifiers already stored for a year prefix,
// highest first.
type IdentifierSource interface {
	LatestIdentifiers(ctx context.Context, prefix string, limit int) ([]string, error)
}

// Allocator hands out project identifiers. The store is read without holding
// the lock; the lock only covers combining that reading with the highest
// serial this process has already handed out, so two callers in one process
// never receive the same value. Across processes the unique index on
// project_id and the caller's retry cover the remaining race.
type Allocator struct {
	source  IdentifierSource
	now     func() time.Time
	timeout time.Duration

	mu       sync.Mutex
	prefix   string
	reserved int
}

type AllocatorOption func(*Allocator)

func WithAllocatorClock(now func() time.Time) AllocatorOption {
	return func(a *Allocator) {
		a.now = now
	}
}

// WithAllocatorQueryTimeout bounds each read of the stored identifiers.
func WithAllocatorQueryTimeout(d time.Duration) AllocatorOption {
	return func(a *Allocator) {
		a.timeout = d
	}
}

func NewAllocator(source IdentifierSource, opts ...AllocatorOption) *Allocator {
	a := &Allocator{
		source: source,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Next reserves and returns the next identifier for the current year.
func (a *Allocator) Next(ctx context.Context) (string, error) {
	return a.allocate(ctx, true)
}

// Peek returns the identifier Next would hand out, without reserving it.
func (a *Allocator) Peek(ctx context.Context) (string, error) {
	return a.allocate(ctx, false)
}

func (a *Allocator) allocate(ctx context.Context, reserve bool) (string, error) {
	prefix := YearPrefix(a.now())

	stored, err := a.latestStoredSerial(ctx, prefix)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.prefix != prefix {
		a.prefix = prefix
		a.reserved = 0
	}

	serial := max(stored, a.reserved) + 1
	if serial > MaxSerial {
		return "", internal.ErrSerialExhausted
	}
	if reserve {
		a.reserved = serial
	}
	return FormatIdentifier(prefix, serial), nil
}

func (a *Allocator) latestStoredSerial(ctx context.Context, prefix string) (int, error) {
	qctx, cancel := internal.WithTimeout(ctx, a.timeout)
	defer cancel()

	ids, err := a.source.LatestIdentifiers(qctx, prefix, scanLimit)
	if err != nil {
		return 0, internal.NewInternalError("failed to read latest project id", err)
	}
	highest := 0
	for _, id := range ids {
		p, serial, ok := ParseIdentifier(id)
		if ok && p == prefix && serial > highest {
			highest = serial
		}
	}
	return highest, nil
}
