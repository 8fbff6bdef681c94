package frame

import "sort"

// SortKey is one column of a multi-key sort.
type SortKey struct {
	Column     *Column
	Descending bool
}

// SortIndex returns the row order that sorts n rows by keys. The sort is
// stable and places nulls last in both directions. Values that cannot be
// ordered against each other are an ExecutionError.
func SortIndex(n int, keys []SortKey) ([]int, error) {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for _, k := range keys {
		if k.Column.Len() != n {
			return nil, NewExecutionError("sort key %q has %d rows, expected %d", k.Column.Name(), k.Column.Len(), n)
		}
	}

	var sortErr error
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		for _, k := range keys {
			va, vb := k.Column.Value(a), k.Column.Value(b)
			switch {
			case va == nil && vb == nil:
				continue
			case va == nil:
				return false
			case vb == nil:
				return true
			}
			cmp, err := Compare(va, vb)
			if err != nil {
				if sortErr == nil {
					sortErr = NewExecutionError("cannot sort by %q: %v", k.Column.Name(), err)
				}
				return false
			}
			if cmp == 0 {
				continue
			}
			if k.Descending {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return order, nil
}
