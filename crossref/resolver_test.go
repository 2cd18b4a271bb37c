package crossref

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kasuganosora/raiderdex/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSource struct {
	mu        sync.Mutex
	records   []model.SecondaryRecord
	itemsErr  error
	itemCalls int32
	delay     time.Duration
	details   map[string]*model.SecondaryDetail
	failIDs   map[string]bool
}

func (f *fakeSource) Items(ctx context.Context, force bool) ([]model.SecondaryRecord, error) {
	atomic.AddInt32(&f.itemCalls, 1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.itemsErr != nil {
		return nil, f.itemsErr
	}
	return f.records, nil
}

func (f *fakeSource) ItemDetail(ctx context.Context, id string, force bool) (*model.SecondaryDetail, error) {
	if f.failIDs[id] {
		return nil, errors.New("detail unavailable")
	}
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	return nil, errors.New("no such detail")
}

func (f *fakeSource) setErr(err error) {
	f.mu.Lock()
	f.itemsErr = err
	f.mu.Unlock()
}

func TestTable_LookupCaseAndWhitespace(t *testing.T) {
	table := NewTable([]model.SecondaryRecord{
		{ID: "1", Name: "Anvil I"},
		{ID: "2", Name: "  Bandage "},
	})
	rec, ok := table.Lookup("anvil i")
	require.True(t, ok)
	assert.Equal(t, "1", rec.ID)

	rec, ok = Lookup(" BANDAGE", table)
	require.True(t, ok)
	assert.Equal(t, "2", rec.ID)

	_, ok = table.Lookup("Bandages")
	assert.False(t, ok, "no fuzzy matching")
	_, ok = Lookup("Anvil I", nil)
	assert.False(t, ok)
}

func TestTable_CollisionLastWriteWins(t *testing.T) {
	table := NewTable([]model.SecondaryRecord{
		{ID: "weapon", Name: "Vulcan"},
		{ID: "cosmetic", Name: "vulcan"},
	})
	rec, _ := table.Lookup("Vulcan")
	assert.Equal(t, "cosmetic", rec.ID)
}

func TestResolver_BuildMemoizedAndShared(t *testing.T) {
	src := &fakeSource{records: []model.SecondaryRecord{{ID: "1", Name: "Anvil I"}}, delay: 50 * time.Millisecond}
	r := NewResolver(src, "", zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Build(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	_, err := r.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.itemCalls))
	assert.True(t, r.Built())

	r.Reset()
	assert.False(t, r.Built())
	_, err = r.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&src.itemCalls))
}

func TestResolver_FailedBuildNotMemoized(t *testing.T) {
	src := &fakeSource{itemsErr: errors.New("secondary down")}
	r := NewResolver(src, "", zap.NewNop())

	_, err := r.Build(context.Background())
	require.Error(t, err)

	src.setErr(nil)
	src.records = []model.SecondaryRecord{{ID: "1", Name: "Anvil I"}}
	table, err := r.Build(context.Background())
	require.NoError(t, err)
	assert.Len(t, table, 1)
}

func TestResolver_DetailsLogAndContinue(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	src := &fakeSource{
		records: []model.SecondaryRecord{
			{ID: "s1", Name: "Tempest I"},
			{ID: "s2", Name: "Tempest II"},
			{ID: "s3", Name: "Tempest III"},
		},
		details: map[string]*model.SecondaryDetail{
			"s1": {SecondaryRecord: model.SecondaryRecord{ID: "s1", Icon: "icons/t1.png"},
				Recipe: []model.Ingredient{{ItemID: "gear", Icon: "icons/gear.png", Amount: 2}}},
			"s3": {SecondaryRecord: model.SecondaryRecord{ID: "s3"}},
		},
		failIDs: map[string]bool{"s2": true},
	}
	r := NewResolver(src, "https://cdn.example.com/", zap.New(core))
	table, err := r.Build(context.Background())
	require.NoError(t, err)

	members := []model.Item{
		{ID: "tempest-i", Name: "Tempest I"},
		{ID: "tempest-ii", Name: "Tempest II"},
		{ID: "tempest-iii", Name: "Tempest III"},
		{ID: "tempest-blueprint", Name: "Tempest Blueprint"},
	}
	details := r.Details(context.Background(), members, table)
	assert.Len(t, details, 2)
	require.Contains(t, details, "tempest-i")
	assert.Equal(t, "https://cdn.example.com/icons/t1.png", details["tempest-i"].Icon)
	assert.Equal(t, "https://cdn.example.com/icons/gear.png", details["tempest-i"].Recipe[0].Icon)
	assert.Equal(t, "icons/gear.png", src.details["s1"].Recipe[0].Icon, "source record is not mutated")
	assert.Contains(t, details, "tempest-iii")
	assert.Equal(t, 1, logs.FilterMessage("crossref: detail fetch failed").Len())
}

func TestResolver_ForMembersWithoutProvider(t *testing.T) {
	src := &fakeSource{itemsErr: errors.New("secondary down")}
	r := NewResolver(src, "", zap.NewNop())

	s := r.ForMembers(context.Background(), []model.Item{{ID: "a", Name: "Anvil I"}})
	assert.Empty(t, s.Records)
	assert.Empty(t, s.Details)
	assert.NotNil(t, s.Details)
}

func TestResolver_ForMembers(t *testing.T) {
	src := &fakeSource{
		records: []model.SecondaryRecord{{ID: "s1", Name: "anvil i", Icon: "/a.png"}},
		details: map[string]*model.SecondaryDetail{"s1": {SecondaryRecord: model.SecondaryRecord{ID: "s1"}}},
	}
	r := NewResolver(src, "https://cdn.example.com", zap.NewNop())

	s := r.ForMembers(context.Background(), []model.Item{{ID: "anvil-i", Name: "Anvil I"}, {ID: "anvil-ii", Name: "Anvil II"}})
	require.Contains(t, s.Records, "anvil-i")
	assert.Equal(t, "https://cdn.example.com/a.png", s.Records["anvil-i"].Icon)
	assert.NotContains(t, s.Records, "anvil-ii")
	assert.Len(t, s.Details, 1)
}
