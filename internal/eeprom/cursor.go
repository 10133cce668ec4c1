package eeprom

import (
	"fmt"

	"github.com/KevinKickass/VirtualSpectrometer/internal/syncutil"
)

// Cursor hands out a record's pages in order, one per call. It belongs to a
// single device and is never rewound.
type Cursor struct {
	mu    syncutil.Mutex
	pages [][]byte
	next  int
}

func NewCursor(record Record) (*Cursor, error) {
	pages := record.Pages()
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	size := len(pages[0])
	for i, page := range pages {
		if len(page) != size {
			return nil, fmt.Errorf("%w: page %d has %d bytes, expected %d", ErrPageSize, i, len(page), size)
		}
	}

	return &Cursor{pages: pages}, nil
}

// Next returns a copy of the current page and advances. Reading past the last
// page fails with ErrExhausted and leaves the cursor where it is.
func (c *Cursor) Next() (int, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.next >= len(c.pages) {
		return c.next, nil, fmt.Errorf("%w: all %d pages read", ErrExhausted, len(c.pages))
	}

	index := c.next
	page := append([]byte(nil), c.pages[index]...)
	c.next++

	return index, page, nil
}

// Position is the index of the page the next read returns.
func (c *Cursor) Position() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

func (c *Cursor) PageCount() int {
	return len(c.pages)
}
