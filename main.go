package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
	zlog "github.com/rs/zerolog/log"

	"github.com/lmenard/spindle/internal/config"
	"github.com/lmenard/spindle/internal/engine"
	"github.com/lmenard/spindle/internal/logger"
	"github.com/lmenard/spindle/internal/playback"
	"github.com/lmenard/spindle/internal/playlist"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Output: cfg.Log.Output}); err != nil {
		return err
	}

	entries := make([]playlist.Entry, len(cfg.Tracks))
	for i, t := range cfg.Tracks {
		entries[i] = playlist.Entry{
			Title:    t.Title,
			Subtitle: t.Subtitle,
			Audio:    t.Audio,
			Cover:    t.Cover,
		}
	}
	list, err := playlist.FromEntries(entries)
	if err != nil {
		return err
	}

	eng, err := engine.New()
	if err != nil {
		return err
	}

	ctl := playback.New(eng, list, cfg.DefaultVolume)
	defer ctl.Close()

	sub := ctl.Subscribe()
	go printEvents(sub)

	zlog.Info().Msgf("spindle: %d tracks loaded", list.Len())
	return prompt(ctl, list)
}

// printEvents reports track changes and failures on the subscription.
func printEvents(sub *playback.Subscription) {
	lastIndex := -1
	for {
		select {
		case <-sub.Done:
			return
		case snap := <-sub.StateChanged:
			if snap.Index != lastIndex && snap.Status == playback.StatusLoading {
				lastIndex = snap.Index
				fmt.Printf("\r%2d. %s — %s\n", snap.Index+1, snap.Track.Title, snap.Track.Subtitle)
			}
		case ev := <-sub.Error:
			fmt.Printf("\rplayback error (%s): %v\n", ev.Kind, ev.Err)
		}
	}
}

func prompt(ctl *playback.Controller, list *playlist.Playlist) error {
	rl, err := readline.NewEx(&readline.Config{Prompt: "spindle> "})
	if err != nil {
		return err
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt || err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "p", "play":
			ctl.Play()
		case "pause":
			ctl.Pause()
		case "t", "toggle":
			ctl.Toggle()
		case "n", "next":
			ctl.Next()
		case "b", "prev":
			ctl.Previous()
		case "g", "goto":
			if len(fields) > 1 {
				if i, err := strconv.Atoi(fields[1]); err == nil {
					ctl.Load(i-1, true)
				}
			}
		case "seek":
			if len(fields) > 1 {
				if sec, err := strconv.ParseFloat(fields[1], 64); err == nil {
					ctl.SeekCommit(time.Duration(sec * float64(time.Second)))
				}
			}
		case "vol":
			if len(fields) > 1 {
				if v, err := strconv.ParseFloat(fields[1], 64); err == nil {
					ctl.SetVolume(v)
				}
			}
		case "s", "status":
			printStatus(ctl.Snapshot())
		case "ls":
			for i, tr := range list.Tracks() {
				fmt.Printf("%2d. %s — %s\n", i+1, tr.Title, tr.Subtitle)
			}
		case "q", "quit", "exit":
			return nil
		case "h", "help":
			fmt.Println("commands: play pause toggle next prev goto <n> seek <sec> vol <0-1> status ls quit")
		default:
			fmt.Printf("unknown command %q (try help)\n", fields[0])
		}
	}
}

func printStatus(snap playback.Snapshot) {
	dur := "?"
	if snap.DurationKnown {
		dur = snap.Duration.Round(time.Second).String()
	}
	fmt.Printf("[%s] %2d. %s — %s  %v / %s  vol=%.2f\n",
		snap.Status, snap.Index+1, snap.Track.Title, snap.Track.Subtitle,
		snap.Position.Round(time.Second), dur, snap.Volume)
}
