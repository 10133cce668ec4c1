package eeprom

import (
	"errors"
	"fmt"
)

var (
	ErrNoPages   = errors.New("eeprom record has no pages")
	ErrPageSize  = errors.New("eeprom pages differ in size")
	ErrExhausted = errors.New("eeprom pages exhausted")
)

// Record is a pre-serialized EEPROM image split into equal-size pages.
type Record interface {
	Pages() [][]byte
}

// StaticRecord holds pages generated once up front.
type StaticRecord struct {
	pages [][]byte
}

func NewStaticRecord(pages [][]byte) (*StaticRecord, error) {
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	size := len(pages[0])
	copied := make([][]byte, len(pages))
	for i, page := range pages {
		if len(page) != size {
			return nil, fmt.Errorf("%w: page %d has %d bytes, expected %d", ErrPageSize, i, len(page), size)
		}
		copied[i] = append([]byte(nil), page...)
	}

	return &StaticRecord{pages: copied}, nil
}

func (r *StaticRecord) Pages() [][]byte {
	return r.pages
}

func (r *StaticRecord) PageSize() int {
	return len(r.pages[0])
}
