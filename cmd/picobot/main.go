// picobot calls Telegram Bot API methods from the shell.
//
//	picobot getMe
//	picobot sendMessage chat_id=42 text='hello' parse_mode=HTML
//	picobot --chat 42 --file ./cat.jpg --caption 'look'
//	picobot sendMediaGroup chat_id=42 media='[{"type":"photo","media":"attach://a"}]' a=@a.jpg
//
// Arguments of the form key=value become request fields. Values that parse
// as JSON are sent as JSON, anything else as a string. key=@path uploads the
// file at path and key=@- uploads standard input.
//
// The bot token and defaults are read from the PICOBOT_* environment
// variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/sipeed/picobot/pkg/botapi"
	"github.com/sipeed/picobot/pkg/config"
	"github.com/sipeed/picobot/pkg/inputfile"
	"github.com/sipeed/picobot/pkg/logger"
	"github.com/sipeed/picobot/pkg/media"
	"github.com/sipeed/picobot/pkg/metrics"
	"github.com/sipeed/picobot/pkg/payload"
	"github.com/sipeed/picobot/pkg/progress"
	"github.com/sipeed/picobot/pkg/transport"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	chat      string
	file      string
	url       string
	kind      string
	caption   string
	transport string
	logLevel  string
	textfile  string
	stats     bool
}

func run(argv []string) error {
	var opts options

	flagSet := pflag.NewFlagSet("picobot", pflag.ContinueOnError)
	flagSet.StringVar(&opts.chat, "chat", "", "chat id or @username to send to")
	flagSet.StringVarP(&opts.file, "file", "f", "", "file to send; the method is picked from its type")
	flagSet.StringVar(&opts.url, "url", "", "download a file from this URL and upload it")
	flagSet.StringVar(&opts.kind, "as", "", "send the file as photo, video, animation, audio, voice, sticker or document")
	flagSet.StringVarP(&opts.caption, "caption", "c", "", "caption for the file")
	flagSet.StringVar(&opts.transport, "transport", "", "HTTP client: nethttp, resty or fasthttp")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	flagSet.StringVar(&opts.textfile, "textfile", "", "write Prometheus metrics for this call to a node exporter textfile")
	flagSet.BoolVar(&opts.stats, "stats", false, "print a summary of recorded requests and exit")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(argv); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(flagSet)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.transport != "" {
		cfg.Transport = opts.transport
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.SetLevel(cfg.LogLevel)

	if opts.stats {
		return printStats(cfg)
	}

	method, fields, err := parseArgs(flagSet.Args())
	if err != nil {
		return err
	}
	method, fields, err = applyFileOptions(opts, method, fields)
	if err != nil {
		return err
	}
	if method == "" {
		printHelp(flagSet)
		return fmt.Errorf("no method given")
	}

	reg := prometheus.NewRegistry()
	client, err := botapi.New(cfg,
		botapi.WithCollector(metrics.NewCollector(reg)),
		botapi.WithProgress(func(method string, u progress.Update) {
			logger.InfoCF("cli", "Upload progress", map[string]interface{}{
				"method": method,
				"sent":   u.Sent,
				"done":   u.Done,
			})
		}))
	if err != nil {
		return err
	}
	if opts.textfile != "" {
		defer func() {
			if err := prometheus.WriteToTextfile(opts.textfile, reg); err != nil {
				logger.WarnCF("cli", "Failed to write metrics textfile", map[string]interface{}{
					"path":  opts.textfile,
					"error": err.Error(),
				})
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger.DebugCF("cli", "Calling method", map[string]interface{}{
		"method": method,
		"fields": len(fields),
		"upload": fields.RequiresFormDataUpload(),
	})
	result, err := client.Call(ctx, method, fields)
	if err != nil {
		return err
	}
	fmt.Println(string(result))
	return nil
}

// applyFileOptions turns --chat, --file, --url, --as and --caption into
// request fields, choosing the send method when none was given.
func applyFileOptions(opts options, method string, fields payload.Fields) (string, payload.Fields, error) {
	if opts.chat != "" {
		fields = fields.With("chat_id", chatIDValue(opts.chat))
	}
	if opts.caption != "" {
		fields = fields.With("caption", payload.String(opts.caption))
	}
	if opts.file != "" && opts.url != "" {
		return "", nil, fmt.Errorf("--file and --url cannot be used together")
	}

	var file *inputfile.InputFile
	kind := media.Kind(opts.kind)
	switch {
	case opts.file != "":
		if kind == "" {
			detected, err := media.DetectKind(opts.file)
			if err != nil {
				return "", nil, err
			}
			kind = detected
		}
		file = inputfile.FromPath(opts.file, filepath.Base(opts.file))
	case opts.url != "":
		if kind == "" {
			kind = media.KindDocument
		}
		file = inputfile.FromURL(opts.url, "")
	default:
		return method, fields, nil
	}

	if method == "" {
		method = kind.SendMethod()
	}
	return method, fields.With(kind.Field(), payload.File(file)), nil
}

func chatIDValue(chat string) payload.Value {
	id := parseChatID(chat)
	if id.Username != "" {
		return payload.String(id.Username)
	}
	return payload.Int(id.ID)
}

func parseChatID(chat string) telego.ChatID {
	var id int64
	if _, err := fmt.Sscanf(chat, "%d", &id); err == nil && fmt.Sprint(id) == chat {
		return tu.ID(id)
	}
	return tu.Username(chat)
}

func printStats(cfg *config.Config) error {
	if cfg.MetricsDir == "" {
		return fmt.Errorf("PICOBOT_METRICS_DIR is not set")
	}
	summary, err := metrics.NewTracker(cfg.MetricsDir).Summarize()
	if err != nil {
		return err
	}
	fmt.Printf("requests: %d (failed %d, uploads %d)\n", summary.Requests, summary.Failed, summary.Uploads)
	fmt.Printf("bytes sent: %d\n", summary.BytesSent)
	for method, n := range summary.ByMethod {
		fmt.Printf("  %-24s %d\n", method, n)
	}
	return nil
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Fprintf(os.Stderr, `picobot calls Telegram Bot API methods.

Usage:
  picobot [flags] [method] [key=value | key=@path ...]

Environment:
  PICOBOT_TOKEN      bot token (required)
  PICOBOT_API_ROOT   API server, default https://api.telegram.org
  PICOBOT_TRANSPORT  %s, %s or %s

Flags:
`, transport.NetHTTP, transport.Resty, transport.FastHTTP)
	flagSet.SetOutput(os.Stderr)
	flagSet.PrintDefaults()
}
