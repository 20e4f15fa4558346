package equivalency

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Veraticus/flexoplate-iq/internal/model"
	"github.com/Veraticus/flexoplate-iq/internal/testutil/plates"
)

func ids(candidates model.ScoredCandidates) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.Plate.ID
	}
	return out
}

func TestFindEquivalents_Catalog(t *testing.T) {
	result, err := FindEquivalents(Query{
		SourceID: plates.FTF114,
		Pool:     plates.Catalog().Plates(),
		Profile:  model.DefaultWeightProfile(),
		Limit:    3,
	})
	require.NoError(t, err)

	assert.Equal(t, plates.FTF114, result.Source.ID)
	assert.Equal(t, len(plates.Catalog())-1, result.TotalCandidates)
	require.Len(t, result.Candidates, 3)

	// DSP 1.14 matches on every attribute; NXH 1.14 loses a little on LPI.
	assert.Equal(t, plates.DSP114, result.Candidates[0].Plate.ID)
	assert.Equal(t, 100, result.Candidates[0].Score)
	assert.Equal(t, plates.NXH114, result.Candidates[1].Plate.ID)
	assert.Equal(t, 99, result.Candidates[1].Score)
}

func TestFindEquivalents_ExcludesSource(t *testing.T) {
	pool := plates.Catalog().Plates()
	result, err := FindEquivalents(Query{
		SourceID: plates.NXH170,
		Pool:     pool,
		Profile:  model.DefaultWeightProfile(),
	})
	require.NoError(t, err)
	assert.NotContains(t, ids(result.Candidates), plates.NXH170)
	assert.Len(t, result.Candidates, len(pool)-1)

	// An explicit source that also sits in the pool is still excluded.
	src, _ := plates.Catalog().Find(plates.NXH170)
	result, err = FindEquivalents(Query{
		Source:  &src,
		Pool:    pool,
		Profile: model.DefaultWeightProfile(),
	})
	require.NoError(t, err)
	assert.NotContains(t, ids(result.Candidates), plates.NXH170)
}

func TestFindEquivalents_TargetSupplier(t *testing.T) {
	pool := []model.Plate{
		fullPlate(t, "src", "XSYS", 1.14).Build(),
		fullPlate(t, "dupont", "DuPont", 1.14).Build(),
		fullPlate(t, "miraclon", "Miraclon", 1.14).Build(),
	}

	result, err := FindEquivalents(Query{
		SourceID:       "src",
		Pool:           pool,
		Profile:        model.DefaultWeightProfile(),
		TargetSupplier: "  dupont ",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.TotalCandidates)
	assert.Equal(t, []string{"dupont"}, ids(result.Candidates))

	result, err = FindEquivalents(Query{
		SourceID:       "src",
		Pool:           pool,
		Profile:        model.DefaultWeightProfile(),
		TargetSupplier: "Asahi",
	})
	require.NoError(t, err)
	assert.Zero(t, result.TotalCandidates)
	assert.Empty(t, result.Candidates)
}

func TestFindEquivalents_TieBreaks(t *testing.T) {
	source := fullPlate(t, "src", "XSYS", 1.14).Build()
	pool := []model.Plate{
		fullPlate(t, "m1", "Miraclon", 1.14).Name("FLEXCEL NXH 1.14").Build(),
		fullPlate(t, "d2", "DuPont", 1.14).Name("Cyrel DSP 1.14").Build(),
		fullPlate(t, "d1", "DuPont", 1.14).Name("Cyrel DFH 1.14").Build(),
		fullPlate(t, "a1", "Asahi", 1.14).Name("AWP 1.14").Build(),
		fullPlate(t, "low", "Asahi", 1.70).Name("AWP 1.70").Build(),
		fullPlate(t, "z", "DuPont", 1.14).Name("Cyrel DSP 1.14").Build(),
	}

	result, err := FindEquivalents(Query{
		Source:  &source,
		Pool:    pool,
		Profile: model.DefaultWeightProfile(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "d1", "d2", "z", "m1", "low"}, ids(result.Candidates))
}

func TestFindEquivalents_Limit(t *testing.T) {
	tests := []struct {
		name      string
		limit     int
		wantCount int
	}{
		{name: "no limit", limit: 0, wantCount: 11},
		{name: "negative is no limit", limit: -5, wantCount: 11},
		{name: "limit below total", limit: 4, wantCount: 4},
		{name: "limit above total", limit: 50, wantCount: 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := FindEquivalents(Query{
				SourceID: plates.FTF114,
				Pool:     plates.Catalog().Plates(),
				Profile:  model.DefaultWeightProfile(),
				Limit:    tt.limit,
			})
			require.NoError(t, err)
			assert.Len(t, result.Candidates, tt.wantCount)
			assert.Equal(t, 11, result.TotalCandidates)
		})
	}
}

func TestFindEquivalents_MinScore(t *testing.T) {
	query := Query{
		SourceID: plates.FTF114,
		Pool:     plates.Catalog().Plates(),
		Profile:  model.DefaultWeightProfile(),
	}
	all, err := FindEquivalents(query)
	require.NoError(t, err)
	require.Len(t, all.Candidates, 11)
	third := all.Candidates[2].Score

	tests := []struct {
		name     string
		minScore int
		limit    int
	}{
		{name: "zero keeps everything", minScore: 0},
		{name: "one drops zero scores", minScore: 1},
		{name: "floor at third best score", minScore: third},
		{name: "floor with limit", minScore: third, limit: 1},
		{name: "above every score", minScore: 101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var want []string
			for _, c := range all.Candidates {
				if c.Score >= tt.minScore {
					want = append(want, c.Plate.ID)
				}
			}
			total := len(want)
			if tt.limit > 0 && len(want) > tt.limit {
				want = want[:tt.limit]
			}

			q := query
			q.MinScore = tt.minScore
			q.Limit = tt.limit
			result, err := FindEquivalents(q)
			require.NoError(t, err)

			assert.NotNil(t, result.Candidates)
			assert.Equal(t, total, result.TotalCandidates)
			if len(want) == 0 {
				assert.Empty(t, result.Candidates)
				return
			}
			assert.Equal(t, want, ids(result.Candidates))
		})
	}
}

func TestFindEquivalents_LimitCopiesCandidates(t *testing.T) {
	result, err := FindEquivalents(Query{
		SourceID: plates.FTF114,
		Pool:     plates.Catalog().Plates(),
		Profile:  model.DefaultWeightProfile(),
		Limit:    2,
	})
	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)
	assert.Equal(t, 2, cap(result.Candidates))
}

func TestFindEquivalents_EmptyPool(t *testing.T) {
	result, err := FindEquivalents(Query{
		SourceID: "anything",
		Profile:  model.DefaultWeightProfile(),
	})
	require.NoError(t, err)
	assert.Zero(t, result.TotalCandidates)
	assert.Empty(t, result.Candidates)

	source := fullPlate(t, "src", "XSYS", 1.14).Build()
	result, err = FindEquivalents(Query{
		Source:  &source,
		Pool:    []model.Plate{source},
		Profile: model.DefaultWeightProfile(),
	})
	require.NoError(t, err)
	assert.Zero(t, result.TotalCandidates)
}

func TestFindEquivalents_SourceNotFound(t *testing.T) {
	_, err := FindEquivalents(Query{
		SourceID: "missing",
		Pool:     plates.Catalog().Plates(),
		Profile:  model.DefaultWeightProfile(),
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceNotFound))
}

func TestFindEquivalents_ConfigErrorsReturnNoResult(t *testing.T) {
	zero := model.WeightProfile{
		Name:                 "all zero",
		Weights:              map[model.Attribute]float64{model.AttrThickness: 0, model.AttrHardness: 0},
		HardnessTolerance:    2,
		ThicknessToleranceMM: 0.05,
	}

	result, err := FindEquivalents(Query{
		SourceID: plates.FTF114,
		Pool:     plates.Catalog().Plates(),
		Profile:  zero,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Nil(t, result.Candidates)
	assert.Zero(t, result.TotalCandidates)

	result, err = FindEquivalents(Query{
		SourceID:  plates.FTF114,
		Pool:      plates.Catalog().Plates(),
		Profile:   model.DefaultWeightProfile(),
		Overrides: []model.OverrideRule{{SourcePlateID: plates.FTF114, TargetPlateID: plates.FTF114, SimilarityScore: 10}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Nil(t, result.Candidates)
}

func TestFindEquivalents_OverrideReorders(t *testing.T) {
	result, err := FindEquivalents(Query{
		SourceID: plates.FTF114,
		Pool:     plates.Catalog().Plates(),
		Profile:  model.DefaultWeightProfile(),
		Overrides: []model.OverrideRule{{
			SourcePlateID:   plates.FTF114,
			TargetPlateID:   plates.DSP114,
			SimilarityScore: 20,
			ConfidenceLevel: model.ConfidenceVerified,
			AdjustmentNotes: "Press trials showed poor solid ink density.",
		}},
		Limit: 1,
	})
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, plates.NXH114, result.Candidates[0].Plate.ID)
}

func TestFindEquivalents_ScoreBounds(t *testing.T) {
	catalog := plates.Catalog()
	for _, src := range catalog {
		result, err := FindEquivalents(Query{
			SourceID: src.ID,
			Pool:     catalog.Plates(),
			Profile:  model.DefaultWeightProfile(),
		})
		require.NoError(t, err)
		for _, c := range result.Candidates {
			assert.GreaterOrEqual(t, c.Score, 0, "%s -> %s", src.ID, c.Plate.ID)
			assert.LessOrEqual(t, c.Score, 100, "%s -> %s", src.ID, c.Plate.ID)
		}
	}
}

func TestFindEquivalents_Deterministic(t *testing.T) {
	pool := plates.Catalog().Plates()
	reversed := slices.Clone(pool)
	slices.Reverse(reversed)

	query := Query{SourceID: plates.EASY114, Profile: model.DefaultWeightProfile()}

	query.Pool = pool
	first, err := FindEquivalents(query)
	require.NoError(t, err)

	query.Pool = reversed
	second, err := FindEquivalents(query)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("results differ by pool order (-first +second):\n%s", diff)
	}
}

func TestRank_ConcurrentUse(t *testing.T) {
	defer goleak.VerifyNone(t)

	scorer, err := NewScorer(model.DefaultWeightProfile(), nil)
	require.NoError(t, err)

	catalog := plates.Catalog()
	want := make(map[string]Result, len(catalog))
	for _, src := range catalog {
		r, err := Rank(scorer, Query{SourceID: src.ID, Pool: catalog.Plates()})
		require.NoError(t, err)
		want[src.ID] = r
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(catalog)*8)
	for i := 0; i < 8; i++ {
		for _, src := range catalog {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				got, err := Rank(scorer, Query{SourceID: id, Pool: catalog.Plates()})
				if err != nil {
					errs <- err
					return
				}
				if diff := cmp.Diff(want[id], got); diff != "" {
					errs <- errors.New(diff)
				}
			}(src.ID)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
