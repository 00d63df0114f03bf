// Package inline collects results for answering inline queries.
//
//	results := inline.NewBuilder().
//		Article(&telego.InlineQueryResultArticle{ID: "a1", Title: "Hello", InputMessageContent: content}).
//		CachedVoice(&telego.InlineQueryResultCachedVoice{ID: "v1", Title: "Hi", VoiceFileID: fileID}).
//		Build()
//
// Each typed method fills in the result's type discriminator, so callers
// only set the fields that carry data.
package inline

import (
	"slices"

	"github.com/mymmrac/telego"
)

// Builder accumulates inline query results in order. The zero value is ready
// to use.
type Builder struct {
	results []telego.InlineQueryResult
}

// NewBuilder returns a builder seeded with results.
func NewBuilder(results ...telego.InlineQueryResult) *Builder {
	return &Builder{results: slices.Clone(results)}
}

// Add appends a result whose type is already set.
func (b *Builder) Add(result telego.InlineQueryResult) *Builder {
	if result != nil {
		b.results = append(b.results, result)
	}
	return b
}

// AddMany appends several results.
func (b *Builder) AddMany(results ...telego.InlineQueryResult) *Builder {
	for _, r := range results {
		b.Add(r)
	}
	return b
}

// Len returns the number of results collected so far.
func (b *Builder) Len() int { return len(b.results) }

// Build returns the collected results. Later changes to the builder do not
// affect the returned slice.
func (b *Builder) Build() []telego.InlineQueryResult {
	return slices.Clone(b.results)
}

func (b *Builder) Article(r *telego.InlineQueryResultArticle) *Builder {
	if r == nil {
		return b
	}
	r.Type = "article"
	return b.Add(r)
}

func (b *Builder) Audio(r *telego.InlineQueryResultAudio) *Builder {
	if r == nil {
		return b
	}
	r.Type = "audio"
	return b.Add(r)
}

func (b *Builder) CachedAudio(r *telego.InlineQueryResultCachedAudio) *Builder {
	if r == nil {
		return b
	}
	r.Type = "audio"
	return b.Add(r)
}

func (b *Builder) Contact(r *telego.InlineQueryResultContact) *Builder {
	if r == nil {
		return b
	}
	r.Type = "contact"
	return b.Add(r)
}

func (b *Builder) Document(r *telego.InlineQueryResultDocument) *Builder {
	if r == nil {
		return b
	}
	r.Type = "document"
	return b.Add(r)
}

func (b *Builder) CachedDocument(r *telego.InlineQueryResultCachedDocument) *Builder {
	if r == nil {
		return b
	}
	r.Type = "document"
	return b.Add(r)
}

func (b *Builder) Game(r *telego.InlineQueryResultGame) *Builder {
	if r == nil {
		return b
	}
	r.Type = "game"
	return b.Add(r)
}

func (b *Builder) Gif(r *telego.InlineQueryResultGif) *Builder {
	if r == nil {
		return b
	}
	r.Type = "gif"
	return b.Add(r)
}

func (b *Builder) CachedGif(r *telego.InlineQueryResultCachedGif) *Builder {
	if r == nil {
		return b
	}
	r.Type = "gif"
	return b.Add(r)
}

func (b *Builder) Location(r *telego.InlineQueryResultLocation) *Builder {
	if r == nil {
		return b
	}
	r.Type = "location"
	return b.Add(r)
}

func (b *Builder) Mpeg4Gif(r *telego.InlineQueryResultMpeg4Gif) *Builder {
	if r == nil {
		return b
	}
	r.Type = "mpeg4_gif"
	return b.Add(r)
}

func (b *Builder) CachedMpeg4Gif(r *telego.InlineQueryResultCachedMpeg4Gif) *Builder {
	if r == nil {
		return b
	}
	r.Type = "mpeg4_gif"
	return b.Add(r)
}

func (b *Builder) Photo(r *telego.InlineQueryResultPhoto) *Builder {
	if r == nil {
		return b
	}
	r.Type = "photo"
	return b.Add(r)
}

func (b *Builder) CachedPhoto(r *telego.InlineQueryResultCachedPhoto) *Builder {
	if r == nil {
		return b
	}
	r.Type = "photo"
	return b.Add(r)
}

func (b *Builder) Venue(r *telego.InlineQueryResultVenue) *Builder {
	if r == nil {
		return b
	}
	r.Type = "venue"
	return b.Add(r)
}

func (b *Builder) Video(r *telego.InlineQueryResultVideo) *Builder {
	if r == nil {
		return b
	}
	r.Type = "video"
	return b.Add(r)
}

func (b *Builder) CachedVideo(r *telego.InlineQueryResultCachedVideo) *Builder {
	if r == nil {
		return b
	}
	r.Type = "video"
	return b.Add(r)
}

// CachedSticker adds a sticker by file id. Stickers can only be sent from
// Telegram's servers, so there is no uncached variant.
func (b *Builder) CachedSticker(r *telego.InlineQueryResultCachedSticker) *Builder {
	if r == nil {
		return b
	}
	r.Type = "sticker"
	return b.Add(r)
}

func (b *Builder) Voice(r *telego.InlineQueryResultVoice) *Builder {
	if r == nil {
		return b
	}
	r.Type = "voice"
	return b.Add(r)
}

func (b *Builder) CachedVoice(r *telego.InlineQueryResultCachedVoice) *Builder {
	if r == nil {
		return b
	}
	r.Type = "voice"
	return b.Add(r)
}
