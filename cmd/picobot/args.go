package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/sipeed/picobot/pkg/inputfile"
	"github.com/sipeed/picobot/pkg/payload"
)

// parseArgs splits positional arguments into a method name and fields. The
// method is the first argument without '='.
func parseArgs(args []string) (string, payload.Fields, error) {
	var method string
	fields := payload.Fields{}
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok {
			if method != "" {
				return "", nil, fmt.Errorf("unexpected argument %q: method is already %q", arg, method)
			}
			method = arg
			continue
		}
		if key == "" {
			return "", nil, fmt.Errorf("argument %q has no key", arg)
		}
		value, err := parseValue(raw)
		if err != nil {
			return "", nil, fmt.Errorf("argument %s: %w", key, err)
		}
		fields = fields.With(key, value)
	}
	return method, fields, nil
}

// parseValue interprets the value part of key=value. @path is a file upload
// and @- reads standard input. A value starting with "@@" is the literal
// string with one '@' removed.
func parseValue(raw string) (payload.Value, error) {
	switch {
	case raw == "@-":
		return payload.File(inputfile.FromReader(os.Stdin, "")), nil
	case strings.HasPrefix(raw, "@@"):
		return payload.String(raw[1:]), nil
	case strings.HasPrefix(raw, "@") && len(raw) > 1:
		path := raw[1:]
		info, err := os.Stat(path)
		if err != nil {
			return payload.Value{}, err
		}
		if info.IsDir() {
			return payload.Value{}, fmt.Errorf("%s is a directory", path)
		}
		return payload.File(inputfile.FromPath(path, filepath.Base(path))), nil
	case raw != "" && gjson.Valid(raw):
		return payload.FromJSON([]byte(raw))
	default:
		return payload.String(raw), nil
	}
}
