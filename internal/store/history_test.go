package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loopplan/internal/plan"
)

func TestRecordPlan(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	p := createTestPlan(t, 3)

	rec, err := s.RecordPlan(ctx, "plans/reduce.yaml", p)
	require.NoError(t, err)

	fp, err := p.Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, int64(1), rec.Seq)
	assert.Equal(t, fp, rec.Fingerprint)
	assert.Equal(t, "plans/reduce.yaml", rec.Source)
	assert.Equal(t, plan.KindGreedy, rec.Kind)
	assert.Equal(t, "reduce(+)", rec.Mode)
	assert.Equal(t, p.Describe(), rec.Descriptor)

	id, err := uuid.Parse(rec.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestRecordPlan_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.RecordPlan(ctx, "a.yaml", createTestPlan(t, 3))
	require.NoError(t, err)
	second, err := s.RecordPlan(ctx, "a.yaml", createTestPlan(t, 3))
	require.NoError(t, err)
	assert.Equal(t, first, second, "same plan from the same source is recorded once")

	_, err = s.RecordPlan(ctx, "b.yaml", createTestPlan(t, 3))
	require.NoError(t, err)

	all, err := s.ListPlans(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRecordPlan_NilPlan(t *testing.T) {
	s := createTestStore(t)
	_, err := s.RecordPlan(context.Background(), "x", nil)
	assert.Error(t, err)
}

func TestListPlans_Order(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListPlans(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, n := range []int{5, 1, 3} {
		_, err := s.RecordPlan(ctx, "src", createTestPlan(t, n))
		require.NoError(t, err)
	}

	all, err := s.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, want := range []int{5, 1, 3} {
		assert.Equal(t, int64(i+1), all[i].Seq)
		assert.Equal(t, want, all[i].Descriptor.Scheduler.TaskCount)
	}
}

func TestFindByFingerprint(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	p := createTestPlan(t, 2)
	fp, err := p.Fingerprint()
	require.NoError(t, err)

	_, err = s.RecordPlan(ctx, "one.toml", p)
	require.NoError(t, err)
	_, err = s.RecordPlan(ctx, "other.toml", createTestPlan(t, 7))
	require.NoError(t, err)
	_, err = s.RecordPlan(ctx, "two.hcl", createTestPlan(t, 2))
	require.NoError(t, err)

	found, err := s.FindByFingerprint(ctx, fp)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "one.toml", found[0].Source)
	assert.Equal(t, "two.hcl", found[1].Source)

	none, err := s.FindByFingerprint(ctx, "0000")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDescriptorRoundTrip(t *testing.T) {
	d, err := plan.NewDynamic(testWorkers, plan.WithChunkSize(32), plan.WithSplit(plan.Scatter))
	require.NoError(t, err)
	p, err := plan.Assemble(d, plan.CollectMode(), nil)
	require.NoError(t, err)

	data, err := marshalDescriptor(p.Describe())
	require.NoError(t, err)
	back, err := unmarshalDescriptor(data)
	require.NoError(t, err)
	assert.Equal(t, p.Describe(), back)

	_, err = unmarshalDescriptor(`{"scheduler":{"kind":"dynamic"},"extra":1}`)
	assert.Error(t, err)
}
