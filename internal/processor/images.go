package processor

import (
	"context"
	stdimage "image"
	"sync"

	"codeberg.org/snonux/qb2anki/internal/image"
)

// imageSource lazily loads a card image from a file, a URL or the
// clipboard (image.ClipboardSource)
type imageSource struct {
	src string

	// open defaults to image.Open
	open func(ctx context.Context, src string, opts *image.FetchOptions) (stdimage.Image, error)

	once sync.Once
	img  stdimage.Image
	err  error
}

// load returns nil without error when no source is configured
func (s *imageSource) load(ctx context.Context) (stdimage.Image, error) {
	if s.src == "" {
		return nil, nil
	}
	s.once.Do(func() {
		open := s.open
		if open == nil {
			open = image.Open
		}
		s.img, s.err = open(ctx, s.src, image.DefaultFetchOptions())
	})
	return s.img, s.err
}
