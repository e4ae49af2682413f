package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/veralabs/vera-live/pkg/config"
	"github.com/veralabs/vera-live/pkg/engine/session"
	"github.com/veralabs/vera-live/pkg/engine/toolevents"
	"github.com/veralabs/vera-live/pkg/engine/uiactions"
	"github.com/veralabs/vera-live/pkg/store"
)

var runMeter bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start a live session",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if strings.TrimSpace(cfg.SubjectID) == "" {
			return errors.New("a subject is required (set --subject or VERA_SUBJECT_ID)")
		}
		return runLive(cfg)
	},
}

func init() {
	runCmd.Flags().BoolVar(&runMeter, "meter", false, "render a live audio level meter on stderr")
}

func runLive(cfg config.Config) error {
	log := newLogger(cfg)

	archive, err := store.Open(cfg.StorePath)
	if err != nil {
		return err
	}
	defer archive.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := session.NewRegistry()
	var sessionID string // assigned once the controller is registered
	out := os.Stdout

	ctrl := session.New(session.Config{
		BaseURL:   cfg.BaseURL,
		SubjectID: cfg.SubjectID,
		Logger:    log,
		UI: uiactions.Hooks{
			Navigate: func(route string) {
				fmt.Fprintf(out, "\n[ui] assistant opened %s\n", route)
			},
			OpenURL: func(url, title string) {
				fmt.Fprintf(out, "\n[ui] assistant shared a link: %s (%s)\n", url, title)
			},
			ShowNotification: func(msg string) {
				fmt.Fprintf(out, "\n[ui] %s\n", msg)
			},
			PlayMedia: func(url string, typ uiactions.MediaType) {
				fmt.Fprintf(out, "\n[ui] assistant wants to play %s: %s\n", typ, url)
			},
		},
		Hooks: session.Hooks{
			OnStatus: func(s session.Status) {
				fmt.Fprintf(out, "\n[session] %s\n", s)
			},
			OnSubtitle: func(text string) {
				if text != "" {
					fmt.Fprintf(out, "\r[assistant] %s", text)
				}
			},
			OnMessage: func(m session.Message) {
				fmt.Fprintf(out, "\n[%s] %s\n", m.Role, m.Text)
				err := archive.AppendMessage(context.Background(), store.MessageRecord{
					SessionID: sessionID,
					Role:      string(m.Role),
					Text:      m.Text,
					At:        m.At,
				})
				if err != nil {
					log.Warn("archive message failed", "error", err)
				}
			},
			OnSpeaker: func(sp session.Speaker) {
				fmt.Fprintf(out, "\n[speaker] %s (%.0f%% conf, %s)\n", sp.Name, sp.Confidence*100, sp.Emotion)
			},
			OnToolEvent: func(ev toolevents.Event) {
				fmt.Fprintf(out, "\n[tool] %s (%s) %s\n", ev.Tool, ev.Category, ev.Status)
				err := archive.AppendToolEvent(context.Background(), store.ToolEventRecord{
					SessionID: sessionID,
					Tool:      ev.Tool,
					Category:  string(ev.Category),
					Status:    ev.Status,
					Data:      ev.Data,
					At:        ev.At,
				})
				if err != nil {
					log.Warn("archive tool event failed", "error", err)
				}
			},
			OnModeChange: func(m session.Mode) {
				fmt.Fprintf(out, "\n[session] capture mode: %s\n", m)
			},
		},
	})

	sessionID = registry.Register(ctrl)
	defer registry.Remove(sessionID)

	err = archive.CreateSession(ctx, store.SessionRecord{
		ID:        sessionID,
		SubjectID: cfg.SubjectID,
		Mode:      cfg.Mode,
		StartedAt: time.Now(),
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := archive.EndSession(context.Background(), sessionID, time.Now()); err != nil {
			log.Warn("archive session end failed", "error", err)
		}
	}()

	if err := ctrl.Start(ctx, session.Mode(cfg.Mode)); err != nil {
		return err
	}

	if runMeter {
		meterCtx, stopMeter := context.WithCancel(ctx)
		defer stopMeter()
		go ctrl.Meter().Run(meterCtx, 100*time.Millisecond, func(in, pb float64) {
			fmt.Fprintf(os.Stderr, "\rmic %s  playback %s", levelBar(in), levelBar(pb))
		})
	}

	fmt.Fprintf(out, "Session %s starting in %s mode.\n", sessionID, cfg.Mode)
	fmt.Fprintln(out, "Type to chat. Commands: /mode voice|screen|camera, /tools, /speaker, /levels, /stop, /quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil && ctx.Err() == nil {
				return fmt.Errorf("read input: %w", err)
			}
			fmt.Fprintln(out)
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/stop":
			ctrl.Stop()
			fmt.Fprintln(out, "session stopped")
		case line == "/tools":
			printTools(out, ctrl.Tools())
		case line == "/levels":
			in, pb := ctrl.AudioLevels()
			fmt.Fprintf(out, "mic %s  playback %s\n", levelBar(in), levelBar(pb))
		case line == "/speaker":
			if sp := ctrl.Speaker(); sp != nil {
				fmt.Fprintf(out, "%s: emotion=%s pitch=%.0fHz energy=%.2f stress=%.2f\n",
					sp.Name, sp.Emotion, sp.PitchHz, sp.Energy, sp.StressLevel)
			} else {
				fmt.Fprintln(out, "no speaker identified yet")
			}
		case strings.HasPrefix(line, "/mode "):
			mode := session.Mode(strings.TrimSpace(strings.TrimPrefix(line, "/mode ")))
			if err := ctrl.SwitchMode(mode); err != nil {
				fmt.Fprintf(out, "mode switch failed: %v\n", err)
			}
		case strings.HasPrefix(line, "/"):
			fmt.Fprintln(out, "commands: /mode voice|screen|camera, /tools, /speaker, /levels, /stop, /quit")
		default:
			if err := ctrl.SendText(line); err != nil {
				fmt.Fprintf(out, "send failed: %v\n", err)
			}
		}
	}
}

// levelBar renders a level in [0,1] as a ten-step bar.
func levelBar(v float64) string {
	const width = 10
	n := int(v * width)
	if n > width {
		n = width
	}
	return "[" + strings.Repeat("#", n) + strings.Repeat("-", width-n) + "]"
}

func printTools(out *os.File, bus *toolevents.Bus) {
	events := bus.Events()
	if len(events) == 0 {
		fmt.Fprintln(out, "no tool activity yet")
		return
	}
	for _, ev := range events {
		fmt.Fprintf(out, "%s  %-24s %-12s %s\n", ev.At.Format("15:04:05"), ev.Tool, ev.Category, ev.Status)
	}
	if m := bus.ActiveMusic(); m != nil {
		fmt.Fprintf(out, "now playing: %s\n", m.Tool)
	}
	if tm := bus.ActiveTimer(); tm != nil {
		fmt.Fprintf(out, "timer running: %s\n", tm.Tool)
	}
	if bus.EmergencyActive() {
		fmt.Fprintln(out, "EMERGENCY ALERT ACTIVE")
	}
}
