package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"system_rent_tracker/internal/domain/billing"
	"system_rent_tracker/internal/domain/notify"
	"system_rent_tracker/internal/domain/resource"
)

func testLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeRegistry struct {
	resources map[int64]*resource.Resource
	owners    map[int64]int64 // resource ID -> owner ID
	listErr   error
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{
		resources: make(map[int64]*resource.Resource),
		owners:    make(map[int64]int64),
	}
}

func (f *fakeRegistry) add(res *resource.Resource, ownerID int64) {
	f.resources[res.ID] = res
	f.owners[res.ID] = ownerID
}

func (f *fakeRegistry) ListActiveWithOwner(context.Context) ([]*resource.ActiveResource, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var active []*resource.ActiveResource
	for id, res := range f.resources {
		if res.RentActive {
			active = append(active, &resource.ActiveResource{Resource: res, OwnerID: f.owners[id]})
		}
	}
	return active, nil
}

func (f *fakeRegistry) GetByID(_ context.Context, id int64) (*resource.Resource, error) {
	res, ok := f.resources[id]
	if !ok {
		return nil, fmt.Errorf("resource %d not found", id)
	}
	return res, nil
}

func (f *fakeRegistry) OpenOwnership(_ context.Context, resourceID int64) (*resource.OwnershipRecord, error) {
	ownerID, ok := f.owners[resourceID]
	if !ok {
		return nil, fmt.Errorf("no open ownership for resource %d", resourceID)
	}
	return &resource.OwnershipRecord{ResourceID: resourceID, OwnerID: ownerID}, nil
}

type cycleKey struct {
	resourceID int64
	period     billing.Period
}

// fakeCycleRepo mimics the storage invariant in memory: one cycle per
// (resource, period), guarded by a mutex the way the database guards with
// its unique constraint.
type fakeCycleRepo struct {
	mu      sync.Mutex
	nextID  int64
	cycles  map[cycleKey]*billing.Cycle
	failFor map[int64]error // resource ID -> injected storage error
	listErr error
}

func newFakeCycleRepo() *fakeCycleRepo {
	return &fakeCycleRepo{
		nextID:  1,
		cycles:  make(map[cycleKey]*billing.Cycle),
		failFor: make(map[int64]error),
	}
}

func (f *fakeCycleRepo) EnsureCycle(_ context.Context, resourceID int64, period billing.Period, charge decimal.Decimal, dueDate time.Time) (*billing.Cycle, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failFor[resourceID]; err != nil {
		return nil, false, err
	}
	key := cycleKey{resourceID: resourceID, period: period}
	if existing, ok := f.cycles[key]; ok {
		return existing, false, nil
	}
	c := &billing.Cycle{
		ID:         f.nextID,
		ResourceID: resourceID,
		Period:     period,
		Charge:     charge,
		DueDate:    dueDate,
		Status:     billing.StatusOpen,
	}
	f.nextID++
	f.cycles[key] = c
	return c, true, nil
}

func (f *fakeCycleRepo) ListOpenDueWithin(_ context.Context, from, to time.Time) ([]*billing.Cycle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*billing.Cycle
	for _, c := range f.cycles {
		if c.Status == billing.StatusOpen && !c.DueDate.Before(from) && !c.DueDate.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCycleRepo) GetByID(_ context.Context, id int64) (*billing.Cycle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cycles {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, fmt.Errorf("cycle %d not found", id)
}

func (f *fakeCycleRepo) MarkPaid(_ context.Context, id int64, amount decimal.Decimal, paidAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.cycles {
		if c.ID == id {
			c.Status = billing.StatusPaid
			return nil
		}
	}
	return fmt.Errorf("cycle %d not found", id)
}

func (f *fakeCycleRepo) get(resourceID int64, period billing.Period) *billing.Cycle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cycles[cycleKey{resourceID: resourceID, period: period}]
}

func (f *fakeCycleRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cycles)
}

// fakeLog is an in-memory notification log. conflictNext simulates another
// process winning the reservation race between the eligibility read and the
// Reserve call.
type fakeLog struct {
	mu           sync.Mutex
	records      map[notify.SentKey]time.Time
	conflictNext bool
}

func newFakeLog() *fakeLog {
	return &fakeLog{records: make(map[notify.SentKey]time.Time)}
}

func (f *fakeLog) Reserve(_ context.Context, cycleID int64, offsetID string, sentAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflictNext {
		f.conflictNext = false
		return false, nil
	}
	key := notify.SentKey{CycleID: cycleID, OffsetID: offsetID}
	if _, ok := f.records[key]; ok {
		return false, nil
	}
	f.records[key] = sentAt
	return true, nil
}

func (f *fakeLog) Retract(_ context.Context, cycleID int64, offsetID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, notify.SentKey{CycleID: cycleID, OffsetID: offsetID})
	return nil
}

func (f *fakeLog) SentOffsets(_ context.Context, cycleIDs []int64) (map[notify.SentKey]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make(map[int64]bool, len(cycleIDs))
	for _, id := range cycleIDs {
		ids[id] = true
	}
	out := make(map[notify.SentKey]struct{})
	for key := range f.records {
		if ids[key.CycleID] {
			out[key] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeLog) size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.records)
}

type delivered struct {
	target notify.Target
	msg    notify.Message
}

type fakeNotifier struct {
	mu         sync.Mutex
	deliveries []delivered
	failNext   int // fail this many upcoming deliveries
}

func (f *fakeNotifier) Deliver(_ context.Context, target notify.Target, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext > 0 {
		f.failNext--
		return fmt.Errorf("webhook unreachable")
	}
	f.deliveries = append(f.deliveries, delivered{target: target, msg: msg})
	return nil
}

func (f *fakeNotifier) sent() []delivered {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]delivered(nil), f.deliveries...)
}
