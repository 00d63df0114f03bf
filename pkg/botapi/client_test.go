package botapi

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/tidwall/gjson"

	"github.com/sipeed/picobot/pkg/config"
	"github.com/sipeed/picobot/pkg/inline"
	"github.com/sipeed/picobot/pkg/inputfile"
	"github.com/sipeed/picobot/pkg/metrics"
	"github.com/sipeed/picobot/pkg/payload"
	"github.com/sipeed/picobot/pkg/progress"
)

const testToken = "123:secret"

type call struct {
	path        string
	contentType string
	json        string
	fields      map[string]string
	files       map[string]uploadedFile
}

type uploadedFile struct {
	name string
	data string
}

// fakeAPI answers Bot API requests with canned replies keyed by method.
type fakeAPI struct {
	mu      sync.Mutex
	calls   []call
	replies map[string]string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c := call{path: r.URL.Path, contentType: r.Header.Get("Content-Type"), fields: map[string]string{}, files: map[string]uploadedFile{}}

	mediaType, params, _ := mime.ParseMediaType(c.contentType)
	if mediaType == "multipart/form-data" {
		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			data, _ := io.ReadAll(p)
			if p.FileName() != "" {
				c.files[p.FormName()] = uploadedFile{name: p.FileName(), data: string(data)}
			} else {
				c.fields[p.FormName()] = string(data)
			}
		}
	} else {
		data, _ := io.ReadAll(r.Body)
		c.json = string(data)
	}

	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	reply, ok := f.replies[method]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"ok":false,"error_code":404,"description":"Not Found: method not found"}`))
		return
	}
	if !gjson.Get(reply, "ok").Bool() {
		w.WriteHeader(int(gjson.Get(reply, "error_code").Int()))
	}
	w.Write([]byte(reply))
}

func (f *fakeAPI) lastCall(t *testing.T) call {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("no calls received")
	}
	return f.calls[len(f.calls)-1]
}

func newTestClient(t *testing.T, api *fakeAPI, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	cfg, err := config.LoadFrom(map[string]string{
		"PICOBOT_TOKEN":    testToken,
		"PICOBOT_API_ROOT": server.URL,
	})
	if err != nil {
		t.Fatal(err)
	}
	client, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return client
}

const messageReply = `{"ok":true,"result":{"message_id":5,"date":1700000000,"chat":{"id":42,"type":"private"}}}`

func TestNewRequiresToken(t *testing.T) {
	cfg, _ := config.LoadFrom(map[string]string{})
	if _, err := New(cfg); !errors.Is(err, ErrNoToken) {
		t.Errorf("error = %v, want ErrNoToken", err)
	}
}

func TestGetMe(t *testing.T) {
	api := &fakeAPI{replies: map[string]string{
		"getMe": `{"ok":true,"result":{"id":123,"is_bot":true,"first_name":"Pico","username":"pico_bot"}}`,
	}}
	client := newTestClient(t, api)

	user, err := client.GetMe(context.Background())
	if err != nil {
		t.Fatalf("GetMe() error: %v", err)
	}
	if user.ID != 123 || user.Username != "pico_bot" || !user.IsBot {
		t.Errorf("user = %+v", user)
	}
	c := api.lastCall(t)
	if c.path != "/bot"+testToken+"/getMe" {
		t.Errorf("path = %q", c.path)
	}
	if c.json != "{}" {
		t.Errorf("body = %q, want {}", c.json)
	}
}

func TestSendMessageSendsJSON(t *testing.T) {
	api := &fakeAPI{replies: map[string]string{"sendMessage": messageReply}}
	client := newTestClient(t, api)

	msg, err := client.SendMessage(context.Background(), tu.ID(42), "hello", payload.Fields{
		payload.KV("parse_mode", payload.Null()),
		payload.KV("disable_notification", payload.Bool(true)),
	})
	if err != nil {
		t.Fatalf("SendMessage() error: %v", err)
	}
	if msg.MessageID != 5 || msg.Chat.ID != 42 {
		t.Errorf("message = %+v", msg)
	}

	c := api.lastCall(t)
	if c.contentType != "application/json" {
		t.Errorf("content type = %q", c.contentType)
	}
	if want := `{"chat_id":42,"text":"hello","disable_notification":true}`; c.json != want {
		t.Errorf("body = %s, want %s", c.json, want)
	}
}

func TestSendMessageToUsername(t *testing.T) {
	api := &fakeAPI{replies: map[string]string{"sendMessage": messageReply}}
	client := newTestClient(t, api)

	if _, err := client.SendMessage(context.Background(), tu.Username("@channel"), "hi", nil); err != nil {
		t.Fatal(err)
	}
	if got := gjson.Get(api.lastCall(t).json, "chat_id").String(); got != "@channel" {
		t.Errorf("chat_id = %q", got)
	}
}

func TestSendPhotoUploadsMultipart(t *testing.T) {
	api := &fakeAPI{replies: map[string]string{"sendPhoto": messageReply}}
	var mu sync.Mutex
	var updates []progress.Update
	client := newTestClient(t, api, WithProgress(func(method string, u progress.Update) {
		mu.Lock()
		defer mu.Unlock()
		if method != "sendPhoto" {
			t.Errorf("progress for %q", method)
		}
		updates = append(updates, u)
	}))

	photo := inputfile.FromBytes([]byte("\xff\xd8JPEG"), "")
	if _, err := client.SendPhoto(context.Background(), tu.ID(42), photo, payload.Fields{
		payload.KV("caption", payload.String("hi")),
	}); err != nil {
		t.Fatalf("SendPhoto() error: %v", err)
	}

	c := api.lastCall(t)
	if c.fields["chat_id"] != "42" || c.fields["caption"] != "hi" {
		t.Errorf("fields = %v", c.fields)
	}
	ref := c.fields["photo"]
	if !strings.HasPrefix(ref, payload.AttachPrefix) {
		t.Fatalf("photo field = %q, want an attach reference", ref)
	}
	file, ok := c.files[strings.TrimPrefix(ref, payload.AttachPrefix)]
	if !ok {
		t.Fatalf("no file part for %s; files = %v", ref, c.files)
	}
	if file.name != "photo.jpg" || file.data != "\xff\xd8JPEG" {
		t.Errorf("file = %+v", file)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(updates) == 0 {
		t.Fatal("no progress updates")
	}
	if last := updates[len(updates)-1]; !last.Done || last.Sent == 0 {
		t.Errorf("final update = %+v", last)
	}
}

func TestSendDocumentByFileID(t *testing.T) {
	api := &fakeAPI{replies: map[string]string{"sendDocument": messageReply}}
	client := newTestClient(t, api)

	// A file already on Telegram's servers is referenced by string and needs
	// no upload.
	_, err := client.Call(context.Background(), "sendDocument", payload.Fields{
		payload.KV("chat_id", payload.Int(42)),
		payload.KV("document", payload.String("BQACAgIAAxkBAAIB")),
	})
	if err != nil {
		t.Fatal(err)
	}
	if c := api.lastCall(t); c.contentType != "application/json" {
		t.Errorf("content type = %q", c.contentType)
	}
}

func TestAPIError(t *testing.T) {
	api := &fakeAPI{replies: map[string]string{
		"sendMessage": `{"ok":false,"error_code":429,"description":"Too Many Requests: retry after 3","parameters":{"retry_after":3}}`,
	}}
	client := newTestClient(t, api)

	_, err := client.SendMessage(context.Background(), tu.ID(1), "x", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Method != "sendMessage" || apiErr.ErrorCode != 429 || apiErr.RetryAfter != 3 {
		t.Errorf("APIError = %+v", apiErr)
	}
	if !IsAPIError(err, 429) || !IsAPIError(err, 0) || IsAPIError(err, 400) {
		t.Error("IsAPIError does not match the error code")
	}
	if IsAPIError(errors.New("other"), 0) {
		t.Error("IsAPIError matched a plain error")
	}
}

func TestFilenameErrorIsReturnedBeforeSending(t *testing.T) {
	api := &fakeAPI{replies: map[string]string{"sendDocument": messageReply}}
	client := newTestClient(t, api)

	_, err := client.SendDocument(context.Background(), tu.ID(1), inputfile.FromBytes([]byte("x"), "a\r\nb"), nil)
	var fnErr *payload.FilenameError
	if !errors.As(err, &fnErr) {
		t.Fatalf("error = %v, want *payload.FilenameError", err)
	}
	if len(api.calls) != 0 {
		t.Error("request was sent despite the bad filename")
	}
}

func TestCallRecordsMetrics(t *testing.T) {
	api := &fakeAPI{replies: map[string]string{
		"sendMessage":  messageReply,
		"sendDocument": messageReply,
	}}
	tracker := metrics.NewTracker(t.TempDir())
	reg := prometheus.NewRegistry()
	client := newTestClient(t, api, WithTracker(tracker), WithCollector(metrics.NewCollector(reg)))

	ctx := context.Background()
	client.SendMessage(ctx, tu.ID(1), "a", nil)
	client.SendDocument(ctx, tu.ID(1), inputfile.FromBytes([]byte("doc"), "a.txt"), nil)
	client.Call(ctx, "unknownMethod", nil)

	s, err := tracker.Summarize()
	if err != nil {
		t.Fatal(err)
	}
	if s.Requests != 3 || s.Failed != 1 || s.Uploads != 1 {
		t.Errorf("summary = %+v", s)
	}
	if s.BytesSent == 0 {
		t.Error("no bytes recorded")
	}
	if n, err := testutil.GatherAndCount(reg, "picobot_requests_total"); err != nil || n != 3 {
		t.Errorf("picobot_requests_total series = %d, %v; want 3", n, err)
	}
}

func TestCallContextTimeout(t *testing.T) {
	slow := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	server := httptest.NewServer(slow)
	defer server.Close()

	cfg, _ := config.LoadFrom(map[string]string{"PICOBOT_TOKEN": testToken, "PICOBOT_API_ROOT": server.URL})
	client, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.GetMe(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want context.DeadlineExceeded", err)
	}
}

// stallingSource serves a few bytes and then hangs until the client goes away.
func stallingSource(t *testing.T) *httptest.Server {
	t.Helper()
	stall := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("abc"))
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-stall:
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(stall) })
	return server
}

func TestCallAbortsStalledURLSourceOnDeadline(t *testing.T) {
	source := stallingSource(t)
	api := &fakeAPI{replies: map[string]string{"sendPhoto": messageReply}}
	client := newTestClient(t, api)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := client.SendPhoto(ctx, tu.ID(42), inputfile.FromURL(source.URL, "cat.jpg"), nil)
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("SendPhoto() succeeded with a stalled source")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("SendPhoto() still blocked long after the context deadline")
	}
}

func TestAnswerInlineQuery(t *testing.T) {
	api := &fakeAPI{replies: map[string]string{"answerInlineQuery": `{"ok":true,"result":true}`}}
	client := newTestClient(t, api)

	results := inline.NewBuilder().
		Article(&telego.InlineQueryResultArticle{
			ID:                  "a1",
			Title:               "Hello",
			InputMessageContent: &telego.InputTextMessageContent{MessageText: "hi"},
		}).
		Build()
	err := client.AnswerInlineQuery(context.Background(), "q1", results, payload.Fields{
		payload.KV("cache_time", payload.Int(0)),
	})
	if err != nil {
		t.Fatalf("AnswerInlineQuery() error: %v", err)
	}

	body := api.lastCall(t).json
	if gjson.Get(body, "inline_query_id").String() != "q1" {
		t.Errorf("body = %s", body)
	}
	if gjson.Get(body, "results.0.type").String() != "article" || gjson.Get(body, "results.#").Int() != 1 {
		t.Errorf("results = %s", gjson.Get(body, "results").Raw)
	}
	if !gjson.Get(body, "cache_time").Exists() {
		t.Error("cache_time missing")
	}
}
