package botapi

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"

	"github.com/sipeed/picobot/pkg/inputfile"
	"github.com/sipeed/picobot/pkg/media"
	"github.com/sipeed/picobot/pkg/payload"
)

// GetMe returns the bot's own user.
func (c *Client) GetMe(ctx context.Context) (*telego.User, error) {
	user, err := CallAs[telego.User](ctx, c, "getMe", nil)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SendMessage sends a text message. extra holds optional parameters such as
// parse_mode or reply_markup; null values are left out.
func (c *Client) SendMessage(ctx context.Context, chatID telego.ChatID, text string, extra payload.Fields) (*telego.Message, error) {
	fields := payload.Fields{
		payload.KV("chat_id", chatIDValue(chatID)),
		payload.KV("text", payload.String(text)),
	}
	return c.sendMessage(ctx, "sendMessage", merge(fields, extra))
}

// SendPhoto uploads or references a photo.
func (c *Client) SendPhoto(ctx context.Context, chatID telego.ChatID, photo *inputfile.InputFile, extra payload.Fields) (*telego.Message, error) {
	return c.SendMedia(ctx, media.KindPhoto, chatID, photo, extra)
}

// SendDocument uploads or references a general file.
func (c *Client) SendDocument(ctx context.Context, chatID telego.ChatID, document *inputfile.InputFile, extra payload.Fields) (*telego.Message, error) {
	return c.SendMedia(ctx, media.KindDocument, chatID, document, extra)
}

// SendMedia sends file with the method matching kind, e.g. sendVideo for
// media.KindVideo.
func (c *Client) SendMedia(ctx context.Context, kind media.Kind, chatID telego.ChatID, file *inputfile.InputFile, extra payload.Fields) (*telego.Message, error) {
	if file == nil {
		return nil, fmt.Errorf("%s: no file given", kind.SendMethod())
	}
	fields := payload.Fields{
		payload.KV("chat_id", chatIDValue(chatID)),
		payload.KV(kind.Field(), payload.File(file)),
	}
	return c.sendMessage(ctx, kind.SendMethod(), merge(fields, extra))
}

// AnswerInlineQuery answers an inline query with results, usually built
// with package inline.
func (c *Client) AnswerInlineQuery(ctx context.Context, inlineQueryID string, results []telego.InlineQueryResult, extra payload.Fields) error {
	if results == nil {
		results = []telego.InlineQueryResult{}
	}
	resultsValue, err := payload.From(results)
	if err != nil {
		return fmt.Errorf("answerInlineQuery: %w", err)
	}
	fields := payload.Fields{
		payload.KV("inline_query_id", payload.String(inlineQueryID)),
		payload.KV("results", resultsValue),
	}
	_, err = CallAs[bool](ctx, c, "answerInlineQuery", merge(fields, extra))
	return err
}

func (c *Client) sendMessage(ctx context.Context, method string, fields payload.Fields) (*telego.Message, error) {
	msg, err := CallAs[telego.Message](ctx, c, method, fields)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func chatIDValue(id telego.ChatID) payload.Value {
	if id.Username != "" {
		return payload.String(id.Username)
	}
	return payload.Int(id.ID)
}

// merge applies extra on top of fields. Keys already present are replaced in
// place.
func merge(fields, extra payload.Fields) payload.Fields {
	for _, f := range extra {
		fields = fields.With(f.Key, f.Value)
	}
	return fields
}
