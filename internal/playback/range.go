package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrBadByteRange  = errors.New("invalid range format")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// ByteRange is an inclusive byte span of a media file.
type ByteRange struct {
	Start int64
	End   int64
}

func (r ByteRange) ContentLength() int64 {
	return r.End - r.Start + 1
}

func (r ByteRange) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, total)
}

// ParseRange parses a single-range HTTP Range header against a file of
// size bytes. Only the first range of a multi-range header is honoured.
// An empty header yields nil, nil.
func ParseRange(header string, size int64) (*ByteRange, error) {
	if header == "" {
		return nil, nil
	}
	byteRange, ok := strings.CutPrefix(header, "bytes=")
	if !ok {
		return nil, ErrBadByteRange
	}
	if first, _, multi := strings.Cut(byteRange, ","); multi {
		byteRange = strings.TrimSpace(first)
	}

	startText, endText, ok := strings.Cut(byteRange, "-")
	if !ok {
		return nil, ErrBadByteRange
	}

	var start, end int64
	if startText == "" {
		suffix, err := strconv.ParseInt(endText, 10, 64)
		if err != nil || suffix <= 0 {
			return nil, ErrBadByteRange
		}
		start = max(size-suffix, 0)
		end = size - 1
	} else {
		var err error
		start, err = strconv.ParseInt(startText, 10, 64)
		if err != nil || start < 0 {
			return nil, ErrBadByteRange
		}
		end = size - 1
		if endText != "" {
			end, err = strconv.ParseInt(endText, 10, 64)
			if err != nil {
				return nil, ErrBadByteRange
			}
		}
	}

	if start > end || start >= size {
		return nil, ErrUnsatisfiable
	}
	return &ByteRange{Start: start, End: min(end, size-1)}, nil
}
