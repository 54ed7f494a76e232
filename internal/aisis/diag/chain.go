package diag

// Strategy is one named attempt in an ordered fallback chain.
// Run reports the produced value and how many records it holds.
type Strategy[T any] struct {
	Name string
	Run  func(c *Collector) (T, int)
}

// RunChain tries strategies in order, each on a fresh Collector, and keeps the
// first one that produces at least one record. When every strategy comes back
// empty, the first attempt is kept since it reflects the detected input mode.
// The returned Collector lists every strategy tried and names the one kept.
func RunChain[T any](strategies []Strategy[T]) (T, *Collector) {
	var (
		first     T
		firstColl *Collector
		tried     []string
	)
	for i, s := range strategies {
		c := NewCollector()
		tried = append(tried, s.Name)
		value, n := s.Run(c)
		if i == 0 {
			first, firstColl = value, c
		}
		if n > 0 {
			c.SetTried(tried)
			c.Succeeded(s.Name)
			return value, c
		}
	}
	if firstColl == nil {
		firstColl = NewCollector()
	}
	firstColl.SetTried(tried)
	if len(strategies) > 0 {
		firstColl.Succeeded(strategies[0].Name)
	}
	return first, firstColl
}
