package parallel

// Rows splits the half-open row range [y0, y1) into bands of at least
// minBand rows and calls fn once per band. Bands run on p; with a nil pool,
// a single band or a single worker they run on the caller.
//
// fn must only touch its own rows.
func Rows(p *Pool, y0, y1, minBand int, fn func(y0, y1 int)) {
	n := y1 - y0
	if n <= 0 {
		return
	}
	minBand = max(minBand, 1)

	bands := 1
	if p != nil && p.Running() {
		// Two bands per worker leave room for stealing.
		bands = min(p.Workers()*2, (n+minBand-1)/minBand)
	}
	if bands <= 1 {
		fn(y0, y1)
		return
	}

	size := (n + bands - 1) / bands
	tasks := make([]func(), 0, bands)
	for a := y0; a < y1; a += size {
		b := min(a+size, y1)
		tasks = append(tasks, func() { fn(a, b) })
	}
	p.Run(tasks)
}
