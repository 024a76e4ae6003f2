package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/amishk599/jobfeed/internal/model"
	"github.com/amishk599/jobfeed/internal/searchcache"
	"github.com/amishk599/jobfeed/internal/store"
)

// --- Fakes ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// StaticFetcher returns canned records per keyword.
type StaticFetcher struct {
	mu      sync.Mutex
	records map[string][]model.JobRecord
	calls   int
	delay   time.Duration
	panicOn string
}

func NewStaticFetcher() *StaticFetcher {
	return &StaticFetcher{records: make(map[string][]model.JobRecord)}
}

func (f *StaticFetcher) Set(keyword string, links ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	recs := make([]model.JobRecord, len(links))
	for i, l := range links {
		recs[i] = model.JobRecord{Title: "job " + l, OfferLink: l}.Normalized()
	}
	f.records[keyword] = recs
}

func (f *StaticFetcher) FetchAll(_ context.Context, keyword string) []model.JobRecord {
	f.mu.Lock()
	f.calls++
	recs := f.records[keyword]
	delay := f.delay
	f.mu.Unlock()

	if keyword == f.panicOn {
		panic("source exploded")
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	return append([]model.JobRecord(nil), recs...)
}

type sentNotice struct {
	Subscriber string
	Notice     model.Notice
}

type sentBatch struct {
	Subscriber string
	Records    []model.RenderedRecord
}

// RecordingDeliverer records everything sent through it.
type RecordingDeliverer struct {
	mu        sync.Mutex
	Batches   []sentBatch
	Notices   []sentNotice
	FailBatch map[int]bool // 1-based index of batches to fail
	batchN    int
}

func (d *RecordingDeliverer) SendBatch(_ context.Context, sub string, recs []model.RenderedRecord) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.batchN++
	if d.FailBatch[d.batchN] {
		return errors.New("transport down")
	}
	d.Batches = append(d.Batches, sentBatch{Subscriber: sub, Records: recs})
	return nil
}

func (d *RecordingDeliverer) SendNotice(_ context.Context, sub string, n model.Notice) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Notices = append(d.Notices, sentNotice{Subscriber: sub, Notice: n})
	return nil
}

func (d *RecordingDeliverer) numbers() []int {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []int
	for _, b := range d.Batches {
		for _, r := range b.Records {
			out = append(out, r.Number)
		}
	}
	return out
}

func (d *RecordingDeliverer) lastNotice() model.Notice {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Notices) == 0 {
		return model.Notice{}
	}
	return d.Notices[len(d.Notices)-1].Notice
}

func (d *RecordingDeliverer) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Batches, d.Notices, d.batchN = nil, nil, 0
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type harness struct {
	engine  *Engine
	fetcher *StaticFetcher
	out     *RecordingDeliverer
	state   *store.State
	mem     *store.MemoryStore
	cache   *searchcache.Cache
	clock   *fakeClock
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	mem := store.NewMemoryStore()
	st, err := store.NewState(context.Background(), mem, discardLogger())
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	clk := &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	cache := searchcache.New(searchcache.DefaultTTL, searchcache.WithClock(clk.Now))
	f := NewStaticFetcher()
	out := &RecordingDeliverer{}
	return &harness{
		engine:  NewEngine(f, st, cache, out, opts, discardLogger()),
		fetcher: f,
		out:     out,
		state:   st,
		mem:     mem,
		cache:   cache,
		clock:   clk,
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Tests ---

func TestSearchThenSubscribe(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.fetcher.Set("cook", "x1", "x2")

	res, err := h.engine.Search(ctx, "S", "cook")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Subscribed || res.New != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	if got := h.out.numbers(); !equalInts(got, []int{1, 2}) {
		t.Errorf("expected temporary numbering [1 2], got %v", got)
	}
	if n := h.out.lastNotice(); n.Kind != model.NoticeOfferSubscription || n.Actions[0].Name != model.ActionSubscribe || n.Actions[0].Keyword != "cook" {
		t.Errorf("expected subscribe offer, got %+v", n)
	}
	if _, ok := h.cache.Get("S", "cook"); !ok {
		t.Fatal("expected search result to be cached")
	}
	if h.state.IsSubscribed("S", "cook") || h.mem.Saves() != 0 {
		t.Fatal("expected ad-hoc search to leave persisted state untouched")
	}

	if err := h.engine.Subscribe(ctx, "S", "cook"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	seen := h.state.SeenLinks("S", "cook")
	if len(seen) != 2 {
		t.Errorf("expected seen-set {x1,x2}, got %v", seen)
	}
	if c := h.state.Counter("S", "cook"); c != 2 {
		t.Errorf("expected counter 2, got %d", c)
	}
	if _, ok := h.cache.Get("S", "cook"); ok {
		t.Error("expected cached search to be removed after promotion")
	}
	if n := h.out.lastNotice(); n.Kind != model.NoticeSubscribed {
		t.Errorf("expected subscribed notice, got %+v", n)
	}
}

func TestSweepDeliversOnlyNewListings(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.fetcher.Set("cook", "x1", "x2")
	h.engine.Search(ctx, "S", "cook")
	h.engine.Subscribe(ctx, "S", "cook")
	h.out.reset()

	h.fetcher.Set("cook", "x1", "x2", "x3")
	res := h.engine.Sweep(ctx)
	if res.ID == "" || res.Pairs != 1 || res.Delivered != 1 {
		t.Fatalf("unexpected sweep result %+v", res)
	}

	if len(h.out.Batches) != 1 || len(h.out.Batches[0].Records) != 1 {
		t.Fatalf("expected one batch with one record, got %+v", h.out.Batches)
	}
	r := h.out.Batches[0].Records[0]
	if r.Number != 3 || r.Marker != model.MarkerB || r.Job.OfferLink != "x3" {
		t.Errorf("expected x3 numbered 3 with marker B, got %+v", r)
	}
	if len(h.state.SeenLinks("S", "cook")) != 3 {
		t.Error("expected seen-set to grow to 3")
	}
	if c := h.state.Counter("S", "cook"); c != 3 {
		t.Errorf("expected counter 3, got %d", c)
	}
	if n := h.out.lastNotice(); n.Kind != model.NoticeNewListings {
		t.Errorf("expected new listings notice, got %+v", n)
	}
}

func TestUnsubscribeRemovesEverything(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.fetcher.Set("cook", "x1", "x2")
	h.engine.Search(ctx, "S", "cook")
	h.engine.Subscribe(ctx, "S", "cook")

	if err := h.engine.Unsubscribe(ctx, "S", "cook"); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	snap := h.state.Snapshot()
	if _, ok := snap.Subscriptions["S"]; ok {
		t.Error("expected subscriber with no keywords to be removed")
	}
	if _, ok := snap.Seen["S"]["cook"]; ok {
		t.Error("expected seen-set to be removed")
	}
	if _, ok := snap.Counters["S"]["cook"]; ok {
		t.Error("expected counter to be removed")
	}
	if n := h.out.lastNotice(); n.Kind != model.NoticeUnsubscribed {
		t.Errorf("expected unsubscribed notice, got %+v", n)
	}

	if err := h.engine.Unsubscribe(ctx, "S", "cook"); !errors.Is(err, model.ErrNotSubscribed) {
		t.Errorf("expected ErrNotSubscribed, got %v", err)
	}
}

func TestPoll_BatchesOfThreeNumberedContiguously(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	if err := h.state.Subscribe(ctx, "S", "go", nil, 0); err != nil {
		t.Fatal(err)
	}
	h.fetcher.Set("go", "l1", "l2", "l3", "l4", "l5", "l6", "l7")

	res, err := h.engine.Poll(ctx, "S", "go")
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if res.FirstNum != 1 || res.LastNum != 7 {
		t.Errorf("expected numbers 1..7, got %d..%d", res.FirstNum, res.LastNum)
	}

	var sizes []int
	for _, b := range h.out.Batches {
		sizes = append(sizes, len(b.Records))
	}
	if !equalInts(sizes, []int{3, 3, 1}) {
		t.Errorf("expected batch sizes [3 3 1], got %v", sizes)
	}
	if got := h.out.numbers(); !equalInts(got, []int{1, 2, 3, 4, 5, 6, 7}) {
		t.Errorf("expected contiguous numbering, got %v", got)
	}
	markers := ""
	for _, b := range h.out.Batches {
		for _, r := range b.Records {
			markers += string(r.Marker)
		}
	}
	if markers != "BABABAB" {
		t.Errorf("expected alternating markers BABABAB, got %s", markers)
	}
}

func TestPoll_NoDuplicateDeliveryAndMonotonicCounter(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.state.Subscribe(ctx, "S", "go", nil, 0)

	h.fetcher.Set("go", "a", "b")
	h.engine.Poll(ctx, "S", "go")
	first := h.state.Counter("S", "go")

	res, _ := h.engine.Poll(ctx, "S", "go")
	if res.New != 0 {
		t.Errorf("expected nothing new on repeat poll, got %d", res.New)
	}
	if n := h.out.lastNotice(); n.Kind != model.NoticeNoNewListings {
		t.Errorf("expected no new listings notice, got %+v", n)
	}

	h.fetcher.Set("go", "c", "a", "d")
	h.engine.Poll(ctx, "S", "go")
	if got := h.out.numbers(); !equalInts(got, []int{1, 2, 3, 4}) {
		t.Errorf("expected numbers [1 2 3 4] across polls, got %v", got)
	}
	if c := h.state.Counter("S", "go"); c <= first || c != 4 {
		t.Errorf("expected counter to advance from %d to 4, got %d", first, c)
	}
}

func TestPoll_DuplicateLinksWithinOnePoll(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.state.Subscribe(ctx, "S", "go", nil, 0)
	h.fetcher.Set("go", "a", "b", "a")

	res, _ := h.engine.Poll(ctx, "S", "go")
	if res.New != 2 {
		t.Errorf("expected first occurrence to win (2 new), got %d", res.New)
	}
}

func TestPoll_EmptyFetchLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.state.Subscribe(ctx, "S", "go", []string{"a"}, 1)
	saves := h.mem.Saves()

	h.engine.Poll(ctx, "S", "go")
	if n := h.out.lastNotice(); n.Kind != model.NoticeNoListings {
		t.Errorf("expected no listings notice, got %+v", n)
	}
	if h.mem.Saves() != saves {
		t.Error("expected no state write on empty fetch")
	}
}

func TestPoll_NotSubscribed(t *testing.T) {
	h := newHarness(t, Options{})
	if _, err := h.engine.Poll(context.Background(), "S", "go"); !errors.Is(err, model.ErrNotSubscribed) {
		t.Fatalf("expected ErrNotSubscribed, got %v", err)
	}
}

func TestSubscribe_ExpiredSearch(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.fetcher.Set("cook", "x1")
	h.engine.Search(ctx, "S", "cook")

	h.clock.Advance(1801 * time.Second)
	err := h.engine.Subscribe(ctx, "S", "cook")
	if !errors.Is(err, model.ErrSearchExpired) {
		t.Fatalf("expected ErrSearchExpired, got %v", err)
	}
	n := h.out.lastNotice()
	if n.Kind != model.NoticeSearchExpired {
		t.Fatalf("expected search expired notice, got %+v", n)
	}
	if n.Actions[0].Name != model.ActionSearchAgain || n.Actions[0].Keyword != "cook" || n.Actions[1].Name != model.ActionBack {
		t.Errorf("expected search-again and back actions, got %+v", n.Actions)
	}
	if h.state.IsSubscribed("S", "cook") {
		t.Error("expected no subscription after expired promotion")
	}
}

func TestSubscribe_WithoutSearch(t *testing.T) {
	h := newHarness(t, Options{})
	if err := h.engine.Subscribe(context.Background(), "S", "cook"); !errors.Is(err, model.ErrSearchExpired) {
		t.Fatalf("expected ErrSearchExpired, got %v", err)
	}
}

func TestSubscribe_AlreadySubscribed(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.state.Subscribe(ctx, "S", "cook", []string{"x1"}, 1)
	saves := h.mem.Saves()

	if err := h.engine.Subscribe(ctx, "S", "cook"); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if n := h.out.lastNotice(); n.Kind != model.NoticeAlreadySubscribed {
		t.Errorf("expected already subscribed notice, got %+v", n)
	}
	if h.mem.Saves() != saves || h.state.Counter("S", "cook") != 1 {
		t.Error("expected no state change")
	}
}

func TestSearch_SubscribedKeywordRunsSubscribedPath(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.state.Subscribe(ctx, "S", "go", []string{"a"}, 1)
	h.fetcher.Set("go", "a", "b")

	res, err := h.engine.Search(ctx, "S", "  go ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !res.Subscribed || res.New != 1 || res.FirstNum != 2 {
		t.Errorf("unexpected result %+v", res)
	}
	if n := h.out.lastNotice(); n.Kind != model.NoticeUpdates || n.Actions[0].Name != model.ActionUnsubscribe {
		t.Errorf("expected updates notice with unsubscribe, got %+v", n)
	}
	if _, ok := h.cache.Get("S", "go"); ok {
		t.Error("expected subscribed search not to touch the cache")
	}
}

func TestSearch_EmptyKeyword(t *testing.T) {
	h := newHarness(t, Options{})
	if _, err := h.engine.Search(context.Background(), "S", "   "); !errors.Is(err, model.ErrInvalidKeyword) {
		t.Fatalf("expected ErrInvalidKeyword, got %v", err)
	}
}

func TestSearch_NoListings(t *testing.T) {
	h := newHarness(t, Options{})
	h.engine.Search(context.Background(), "S", "nothing")
	if n := h.out.lastNotice(); n.Kind != model.NoticeNoListings {
		t.Errorf("expected no listings notice, got %+v", n)
	}
	if h.cache.Len() != 0 {
		t.Error("expected empty search not to be cached")
	}
}

func TestDelivery_TransportFailureDoesNotStopBatches(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.state.Subscribe(ctx, "S", "go", nil, 0)
	h.out.FailBatch = map[int]bool{1: true}
	h.fetcher.Set("go", "1", "2", "3", "4", "5")

	res, _ := h.engine.Poll(ctx, "S", "go")
	if len(h.out.Batches) != 1 || h.out.Batches[0].Records[0].Number != 4 {
		t.Errorf("expected second batch (4,5) to go out, got %+v", h.out.Batches)
	}
	if res.LastNum != 5 || h.state.Counter("S", "go") != 5 {
		t.Errorf("expected counter to reach 5, got %d", h.state.Counter("S", "go"))
	}
}

func TestDelivery_PersistenceFailureDoesNotBlockDelivery(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.state.Subscribe(ctx, "S", "go", nil, 0)
	h.mem.SaveErr = errors.New("disk full")
	h.fetcher.Set("go", "a", "b")

	if _, err := h.engine.Poll(ctx, "S", "go"); err != nil {
		t.Fatalf("expected write failure to be swallowed, got %v", err)
	}
	if got := h.out.numbers(); !equalInts(got, []int{1, 2}) {
		t.Errorf("expected delivery despite write failure, got %v", got)
	}
	res, _ := h.engine.Poll(ctx, "S", "go")
	if res.New != 0 {
		t.Error("expected in-memory seen-set to prevent repeat delivery in this process")
	}
}

func TestSweep_IsolatesFailuresAndStaysQuiet(t *testing.T) {
	h := newHarness(t, Options{SweepConcurrency: 2})
	ctx := context.Background()
	h.state.Subscribe(ctx, "A", "boom", nil, 0)
	h.state.Subscribe(ctx, "B", "go", nil, 0)
	h.state.Subscribe(ctx, "C", "idle", []string{"z"}, 1)
	h.fetcher.panicOn = "boom"
	h.fetcher.Set("go", "g1")
	h.fetcher.Set("idle", "z")

	res := h.engine.Sweep(ctx)
	if res.Pairs != 3 || res.Failed != 1 || res.Delivered != 1 {
		t.Fatalf("unexpected sweep result %+v", res)
	}
	for _, n := range h.out.Notices {
		if n.Subscriber == "C" {
			t.Errorf("expected no notice for pair without new listings, got %+v", n.Notice)
		}
	}
	if h.state.Counter("B", "go") != 1 {
		t.Error("expected healthy pair to be delivered")
	}
}

func TestPairLock_SerializesConcurrentTriggers(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.state.Subscribe(ctx, "S", "go", nil, 0)
	h.fetcher.Set("go", "a", "b", "c")
	h.fetcher.delay = 20 * time.Millisecond

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.engine.Poll(ctx, "S", "go")
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.engine.Sweep(ctx)
	}()
	wg.Wait()

	if got := h.out.numbers(); !equalInts(got, []int{1, 2, 3}) {
		t.Errorf("expected each listing delivered exactly once, got %v", got)
	}
	if h.engine.locks.size() != 0 {
		t.Errorf("expected pair locks to be released, %d left", h.engine.locks.size())
	}
}

func TestHandleAction(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()
	h.fetcher.Set("go", "a")

	if err := h.engine.HandleAction(ctx, "S", model.Action{Name: model.ActionSearchAgain, Keyword: "go"}); err != nil {
		t.Fatalf("search-again: %v", err)
	}
	if err := h.engine.HandleAction(ctx, "S", model.Action{Name: model.ActionSubscribe, Keyword: "go"}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if !h.state.IsSubscribed("S", "go") {
		t.Fatal("expected subscribe action to promote the search")
	}

	h.engine.HandleAction(ctx, "S", model.Action{Name: model.ActionSearchAgain})
	if n := h.out.lastNotice(); n.Kind != model.NoticePrompt {
		t.Errorf("expected prompt for search-again without keyword, got %+v", n)
	}
	h.engine.HandleAction(ctx, "S", model.Action{Name: model.ActionBack})
	if n := h.out.lastNotice(); n.Kind != model.NoticeMenu {
		t.Errorf("expected menu for back, got %+v", n)
	}

	if err := h.engine.HandleAction(ctx, "S", model.Action{Name: model.ActionUnsubscribe, Keyword: "go"}); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if err := h.engine.HandleAction(ctx, "S", model.Action{Name: "dance"}); !errors.Is(err, model.ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestShowSubscriptions(t *testing.T) {
	h := newHarness(t, Options{})
	ctx := context.Background()

	h.engine.ShowSubscriptions(ctx, "S")
	if n := h.out.lastNotice(); n.Kind != model.NoticeNoSubscriptions {
		t.Errorf("expected no subscriptions notice, got %+v", n)
	}

	for _, kw := range []string{"go", "rust"} {
		h.state.Subscribe(ctx, "S", kw, nil, 0)
	}
	kws := h.engine.ShowSubscriptions(ctx, "S")
	if fmt.Sprint(kws) != "[go rust]" {
		t.Errorf("expected [go rust], got %v", kws)
	}
	n := h.out.lastNotice()
	if n.Kind != model.NoticeSubscriptions || len(n.Actions) != 3 {
		t.Fatalf("expected two unsubscribe actions plus back, got %+v", n)
	}
	if n.Actions[1].Name != model.ActionUnsubscribe || n.Actions[1].Keyword != "rust" {
		t.Errorf("unexpected action %+v", n.Actions[1])
	}
}
