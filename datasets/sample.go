package datasets

import (
	"fmt"
	"math/rand"
	"sort"
)

// SampleRows draws n rows without replacement. The same seed always draws
// the same rows.
func SampleRows(rows []Row, n int, seed int64) ([]Row, error) {
	if n < 0 {
		return nil, fmt.Errorf("sample size must not be negative, got %d", n)
	}
	if n > len(rows) {
		return nil, fmt.Errorf("%w: requested %d rows from %d", ErrSampleTooLarge, n, len(rows))
	}
	r := rand.New(rand.NewSource(seed))
	perm := r.Perm(len(rows))
	sampled := make([]Row, n)
	for i := range n {
		sampled[i] = rows[perm[i]]
	}
	return sampled, nil
}

// SampleBalanced draws perClass rows from every class in classes, each
// class with its own generator seeded with seed. The groups are joined in
// sorted class order and the result is shuffled with seed.
func SampleBalanced(rows []Row, classes []string, perClass int, seed int64) ([]Row, error) {
	groups := make(map[string][]Row)
	for _, r := range rows {
		groups[r.Class] = append(groups[r.Class], r)
	}

	keys := append([]string(nil), classes...)
	sort.Strings(keys)

	sampled := make([]Row, 0, perClass*len(keys))
	for _, cls := range keys {
		picked, err := SampleRows(groups[cls], perClass, seed)
		if err != nil {
			return nil, fmt.Errorf("class %q: %w", cls, err)
		}
		sampled = append(sampled, picked...)
	}

	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(sampled), func(i, j int) {
		sampled[i], sampled[j] = sampled[j], sampled[i]
	})
	return sampled, nil
}
