// Package dispense hands out non-overlapping xoshiro256++ streams derived from
// a single base state.
//
// Jump streams are taken from the current jump base, which is then jumped by
// 2^128 steps. Long streams are taken from the long-jump base, which is then
// long-jumped by 2^192 steps; each long stream is a region that its holder can
// split into 2^64 jump streams on their own. Jump streams are carved out of the
// first 2^192 steps after the seed and the first long stream starts right after
// them, so the two kinds never overlap.
package dispense

import (
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/kataras/golog"
	"github.com/xor-shift/xoshiro/common"
	"github.com/xor-shift/xoshiro/util/rng"
)

var (
	ErrBadState      = errors.New("bad stream state")
	ErrZeroState     = errors.New("stream state is all zero")
	ErrIndexTooLarge = errors.New("index too large to replay")
	ErrMismatch      = errors.New("value does not match the stream")
	ErrBadValue      = errors.New("value must be a 64-bit hex number")
	ErrStopped       = errors.New("dispenser is stopped")
)

const eventQueueSize = 128

type Publisher interface {
	Publish(event common.StreamEvent) error
}

type state struct {
	sessionID uint

	jumpBase *rng.Xoshiro256PPState
	longBase *rng.Xoshiro256PPState

	jumpIndex uint64
	longIndex uint64
}

type Dispenser struct {
	mu    sync.Mutex
	state state

	publisher Publisher
	maxVerify uint64

	workersWG *sync.WaitGroup
	events    chan common.StreamEvent

	// held shared while queueing events, exclusively by Stop when it closes events
	sendMu  sync.RWMutex
	stopped bool

	now func() time.Time
}

// New creates a dispenser whose streams all descend from seed. pub may be nil,
// in which case no events are published.
func New(seed [4]uint64, pub Publisher, maxVerify uint64) *Dispenser {
	d := &Dispenser{
		publisher: pub,
		maxVerify: maxVerify,

		workersWG: &sync.WaitGroup{},
		events:    make(chan common.StreamEvent, eventQueueSize),

		now: time.Now,
	}

	d.reset(seed, 0)

	return d
}

func (d *Dispenser) reset(seed [4]uint64, session uint) {
	base := rng.NewXoshiro256PP(seed)

	d.state = state{
		sessionID: session,
		jumpBase:  base,
		longBase:  base.Clone(),
	}

	d.state.longBase.LongJump()
}

// Reseed discards every previously dispensed position and starts a new
// session from seed.
func (d *Dispenser) Reseed(seed [4]uint64) uint {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.reset(seed, d.state.sessionID+1)

	golog.Infof("reseeded, started session %d", d.state.sessionID)

	return d.state.sessionID
}

func (d *Dispenser) SessionID() uint {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state.sessionID
}

// Counts returns how many jump and long streams the current session handed out.
func (d *Dispenser) Counts() (jump, long uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.state.jumpIndex, d.state.longIndex
}

func (d *Dispenser) Allocate(level common.JumpLevel) (common.Stream, error) {
	streams, err := d.AllocateN(level, 1)
	if err != nil {
		return common.Stream{}, err
	}

	return streams[0], nil
}

// AllocateN hands out n consecutive streams of the given level. When events
// are published, AllocateN blocks until every event is queued, so Start must
// have been called beforehand.
func (d *Dispenser) AllocateN(level common.JumpLevel, n int) ([]common.Stream, error) {
	if _, err := common.ParseJumpLevel(string(level)); err != nil {
		return nil, err
	}

	if n < 1 {
		return nil, fmt.Errorf("%w: stream count must be positive (got %d)", common.ErrBadRequest, n)
	}

	d.sendMu.RLock()
	defer d.sendMu.RUnlock()

	if d.stopped {
		return nil, ErrStopped
	}

	streams, allocated := d.allocate(level, n)

	if d.publisher == nil {
		return streams, nil
	}

	for _, stream := range streams {
		d.events <- common.StreamEvent{Stream: stream, Allocated: allocated}
	}

	return streams, nil
}

func (d *Dispenser) allocate(level common.JumpLevel, n int) ([]common.Stream, int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	streams := make([]common.Stream, 0, n)

	for i := 0; i < n; i++ {
		var stream common.Stream

		switch level {
		case common.JumpLevelLong:
			stream = d.newStream(level, d.state.longIndex, d.state.longBase)
			d.state.longBase.LongJump()
			d.state.longIndex++
		default:
			stream = d.newStream(level, d.state.jumpIndex, d.state.jumpBase)
			d.state.jumpBase.Jump()
			d.state.jumpIndex++
		}

		streams = append(streams, stream)
	}

	return streams, d.now().Unix()
}

func (d *Dispenser) newStream(level common.JumpLevel, index uint64, from *rng.Xoshiro256PPState) common.Stream {
	return common.Stream{
		Session: d.state.sessionID,
		Index:   index,
		Level:   level,
		State:   from.String(),
	}
}

func parseStream(text string) (*rng.Xoshiro256PPState, error) {
	gen, err := rng.ParseXoshiro256PP(text)
	if err != nil {
		return nil, errors.Join(ErrBadState, err)
	}

	if gen.IsZero() {
		return nil, ErrZeroState
	}

	return gen, nil
}

// Values returns the first n outputs of the stream starting at stateText.
func (d *Dispenser) Values(stateText string, n int) ([]uint64, error) {
	gen, err := parseStream(stateText)
	if err != nil {
		return nil, err
	}

	if n < 0 {
		n = 0
	}

	values := make([]uint64, 0, n)
	for v := range gen.Values() {
		if len(values) == n {
			break
		}

		values = append(values, v)
	}

	return values, nil
}

// Verify replays the stream starting at stateText and checks that its
// index-th output (counting from zero) is value.
func (d *Dispenser) Verify(stateText string, index uint64, value uint64) error {
	if index >= d.maxVerify {
		return fmt.Errorf("%w (got: %d, limit: %d)", ErrIndexTooLarge, index, d.maxVerify)
	}

	gen, err := parseStream(stateText)
	if err != nil {
		return err
	}

	for i := uint64(0); i < index; i++ {
		gen.Next()
	}

	if expected := gen.Next(); expected != value {
		return fmt.Errorf("%w (got: %016x, expected: %016x)", ErrMismatch, value, expected)
	}

	return nil
}

// VerifyText is Verify with the value given in hex, as clients report it.
func (d *Dispenser) VerifyText(stateText string, index uint64, valueText string) error {
	value, err := strconv.ParseUint(valueText, 16, 64)
	if err != nil {
		return errors.Join(ErrBadValue, err)
	}

	return d.Verify(stateText, index, value)
}

// Start starts numThreads workers that publish allocation events.
// With more than one worker, events may be published out of order.
func (d *Dispenser) Start(numThreads uint) {
	d.workersWG.Add(int(numThreads))

	for i := uint(0); i < numThreads; i++ {
		go d.task()
	}
}

// Stop rejects further allocations and waits for the queued events to drain.
func (d *Dispenser) Stop() {
	d.sendMu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.events)
	}
	d.sendMu.Unlock()

	d.workersWG.Wait()
}

func (d *Dispenser) task() {
	defer d.workersWG.Done()

	for event := range d.events {
		if d.publisher == nil {
			continue
		}

		if err := d.publisher.Publish(event); err != nil {
			golog.Errorf("publishing the event for %s stream %d of session %d failed: %s",
				event.Stream.Level, event.Stream.Index, event.Stream.Session, err)
		}
	}
}
