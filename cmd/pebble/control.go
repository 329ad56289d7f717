package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/zeusync/pebble/internal/core/engine"
	"github.com/zeusync/pebble/internal/core/model"
	"github.com/zeusync/pebble/pkg/observable"
)

var (
	errUnknownCommand = errors.New("unknown command")
	errUsage          = errors.New("usage")
)

const helpText = `commands:
  fg <package>            report the foreground app
  blacklist <a,b,...>     replace the blacklist
  mode <kind>             circle | block | text | crack | image
  phrases <a|b|...>       replace the text bubble phrases
  image <ref> <ratio>     set the custom image, "image -" clears it
  gravity <gx> <gy>       set the gravity vector
  clear                   remove every obstacle
  stats                   print status
  help`

// controller turns text commands into engine signals. Stream-like inputs go
// through the observable sources the engine watches.
type controller struct {
	src    engine.Sources
	engine *engine.Engine
	stats  func() any
}

func newController(e *engine.Engine, stats func() any) *controller {
	return &controller{
		src: engine.Sources{
			Foreground: observable.New[string](),
			Blacklist:  observable.NewWithEqual(slices.Equal[[]string]),
			Mode:       observable.New[model.Kind](),
			Phrases:    observable.NewWithEqual(slices.Equal[[]string]),
			Image:      observable.New[engine.ImageRef](),
			Gravity:    observable.New[[2]float64](),
		},
		engine: e,
		stats:  stats,
	}
}

// Run executes one command per line until r is exhausted or ctx is done.
func (c *controller) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		out, err := c.exec(sc.Text())
		switch {
		case err != nil:
			fmt.Fprintln(w, "error:", err)
		case out != "":
			fmt.Fprintln(w, out)
		}
	}
	return sc.Err()
}

func (c *controller) exec(line string) (string, error) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "":
		return "", nil
	case "help":
		return helpText, nil
	case "fg":
		if arg == "" {
			return "", fmt.Errorf("%w: fg <package>", errUsage)
		}
		c.src.Foreground.Set(arg)
	case "blacklist":
		c.src.Blacklist.Set(splitList(arg, ","))
	case "mode":
		kind, err := model.ParseKind(arg)
		if err != nil {
			return "", err
		}
		c.src.Mode.Set(kind)
	case "phrases":
		c.src.Phrases.Set(splitList(arg, "|"))
	case "image":
		ref, err := parseImage(arg)
		if err != nil {
			return "", err
		}
		c.src.Image.Set(ref)
	case "gravity":
		g, err := parseGravity(arg)
		if err != nil {
			return "", err
		}
		c.src.Gravity.Set(g)
	case "clear":
		c.engine.ClearObstacles()
	case "stats":
		data, err := json.Marshal(c.stats())
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnknownCommand, cmd)
	}
	return "", nil
}

func splitList(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseImage(arg string) (engine.ImageRef, error) {
	if arg == "-" {
		return engine.ImageRef{}, nil
	}
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return engine.ImageRef{}, fmt.Errorf("%w: image <ref> <ratio>", errUsage)
	}
	ratio, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return engine.ImageRef{}, fmt.Errorf("image ratio: %w", err)
	}
	return engine.ImageRef{Ref: fields[0], AspectRatio: ratio}, nil
}

func parseGravity(arg string) ([2]float64, error) {
	fields := strings.Fields(arg)
	if len(fields) != 2 {
		return [2]float64{}, fmt.Errorf("%w: gravity <gx> <gy>", errUsage)
	}
	var g [2]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return [2]float64{}, fmt.Errorf("gravity: %w", err)
		}
		g[i] = v
	}
	return g, nil
}
