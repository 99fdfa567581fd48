package main

import (
	"fmt"
	"io"

	"folio/internal/format"
)

const maxStdinContentBytes int64 = 1 << 20

func readAllLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("input exceeds %d bytes", limit)
	}
	return data, nil
}

func formatByName(name string) (format.Formatter, error) {
	return format.ByName(name)
}
