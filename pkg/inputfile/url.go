package inputfile

import (
	"context"
	"fmt"
	"iter"
	"net/http"

	"github.com/go-resty/resty/v2"
)

var fetchClient = resty.New()

// FromURL creates a stream backed file whose content is downloaded from url.
// The request is only made when the content is first read, and the response
// body is streamed through rather than buffered. The download is bound to the
// context given to ContentContext, so cancelling an upload also aborts a
// stalled download.
func FromURL(url string, filename string) *InputFile {
	return &InputFile{
		filename: filename,
		source:   SourceStream,
		open: func(ctx context.Context) iter.Seq2[[]byte, error] {
			return urlChunks(ctx, fetchClient, url)
		},
	}
}

func urlChunks(ctx context.Context, client *resty.Client, url string) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		resp, err := client.R().
			SetContext(ctx).
			SetDoNotParseResponse(true).
			Get(url)
		if err != nil {
			yield(nil, fmt.Errorf("fetch %s: %w", url, err))
			return
		}
		body := resp.RawBody()
		if resp.StatusCode() != http.StatusOK {
			body.Close()
			yield(nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status()))
			return
		}

		for chunk, err := range readerChunks(body, DefaultChunkSize) {
			if err != nil {
				yield(nil, fmt.Errorf("fetch %s: %w", url, err))
				return
			}
			if !yield(chunk, nil) {
				return
			}
		}
	}
}
