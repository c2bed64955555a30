package diff

// Entry pairs a path with the payload of one change category.
type Entry[T Change] struct {
	Path   string
	Change T
}

// Categorized splits a diff into one list per status.
type Categorized struct {
	Added       []Entry[Added]
	Modified    []Entry[Modified]
	TypeChanged []Entry[TypeChanged]
	Deleted     []Entry[Deleted]
}

// Len returns the total number of entries.
func (c Categorized) Len() int {
	return len(c.Added) + len(c.Modified) + len(c.TypeChanged) + len(c.Deleted)
}

// Categorize routes each item into its bucket. Relative order is kept, so a
// sorted diff yields path-sorted buckets.
func Categorize(d Diff) Categorized {
	var c Categorized
	for _, it := range d.Items {
		switch ch := it.Change.(type) {
		case Added:
			c.Added = append(c.Added, Entry[Added]{Path: it.Path, Change: ch})
		case Modified:
			c.Modified = append(c.Modified, Entry[Modified]{Path: it.Path, Change: ch})
		case TypeChanged:
			c.TypeChanged = append(c.TypeChanged, Entry[TypeChanged]{Path: it.Path, Change: ch})
		case Deleted:
			c.Deleted = append(c.Deleted, Entry[Deleted]{Path: it.Path, Change: ch})
		}
	}
	return c
}

// Summary holds the aggregate figures shown after a report.
type Summary struct {
	TransferCount int    // added + modified + type changed
	DeleteCount   int    // type changed + deleted
	TransferSize  uint64 // bytes of every new file to transfer
}

// Summarize totals a categorized diff.
func Summarize(c Categorized) Summary {
	s := Summary{
		TransferCount: len(c.Added) + len(c.Modified) + len(c.TypeChanged),
		DeleteCount:   len(c.TypeChanged) + len(c.Deleted),
	}
	for _, e := range c.Added {
		s.TransferSize += e.Change.New.Size()
	}
	for _, e := range c.Modified {
		s.TransferSize += e.Change.New.Size
	}
	for _, e := range c.TypeChanged {
		s.TransferSize += e.Change.New.Size()
	}
	return s
}
