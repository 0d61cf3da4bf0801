// Package app runs a chat session. One goroutine, the loop, owns the room
// registry: it polls segments, handles input lines and prunes history, and
// after every step publishes an immutable status snapshot that the status
// API and other readers consume.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"shmchat/internal/console"
	"shmchat/internal/retention"
	"shmchat/pkg/api"
	"shmchat/pkg/config"
	"shmchat/pkg/models"
	"shmchat/pkg/registry"
	"shmchat/pkg/shm"
	"shmchat/pkg/state/logger"
)

// ContactBook persists rooms to reopen on start. *store.Store satisfies it.
type ContactBook interface {
	ListContacts() ([]models.Contact, error)
	SaveContact(models.Contact) error
}

type Options struct {
	Config *config.Config
	Opener shm.Opener
	In     io.Reader
	Out    io.Writer
	// Contacts is optional; without it rooms are not remembered.
	Contacts ContactBook
	Clock    func() time.Time
}

type App struct {
	cfg      *config.Config
	opener   shm.Opener
	name     string
	in       io.Reader
	print    *console.Printer
	contacts ContactBook
	now      func() time.Time

	instance string
	started  time.Time
	reg      *registry.Registry
	status   atomic.Pointer[models.Status]
}

// NewOpener returns the segment opener selected by channel.transport.
func NewOpener(cfg *config.Config) shm.Opener {
	size := cfg.Channel.SegmentSize.Int()
	switch cfg.Channel.Transport {
	case config.TransportMemory:
		return shm.NewMemory(size)
	case config.TransportWindows:
		return shm.Windows{Size: size, Base: shm.Key(cfg.Channel.BaseKey)}
	}
	return shm.SysV{Size: size}
}

func New(opts Options) (*App, error) {
	if opts.Config == nil {
		return nil, errors.New("app: nil config")
	}
	if opts.Opener == nil {
		opts.Opener = NewOpener(opts.Config)
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	cfg := opts.Config
	name := cfg.DisplayName()
	reg, err := registry.New(registry.Options{
		Name:        name,
		Opener:      opts.Opener,
		BaseKey:     shm.Key(cfg.Channel.BaseKey),
		SingleKey:   shm.Key(cfg.Channel.SingleKey),
		MaxRooms:    cfg.Channel.MaxRooms,
		MaxMessages: cfg.History.MaxMessages,
		Clock:       opts.Clock,
	})
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg:      cfg,
		opener:   opts.Opener,
		name:     name,
		in:       opts.In,
		print:    console.NewPrinter(opts.Out),
		contacts: opts.Contacts,
		now:      opts.Clock,
		instance: uuid.NewString(),
		started:  opts.Clock(),
		reg:      reg,
	}
	a.publish()
	return a, nil
}

func (a *App) Name() string     { return a.name }
func (a *App) Instance() string { return a.instance }

// Status returns the latest published snapshot. Safe from any goroutine.
func (a *App) Status() *models.Status { return a.status.Load() }

func (a *App) publish() {
	a.status.Store(&models.Status{
		Instance:  a.instance,
		User:      a.name,
		StartedTS: a.started.UnixNano(),
		UpdatedTS: a.now().UnixNano(),
		Rooms:     a.reg.Snapshot(),
	})
}

// lineHandler handles one input line. quit ends the session; a non-nil
// error ends it with that error.
type lineHandler func(line string) (quit bool, err error)

// run drives the loop alongside the retention scheduler and, when enabled,
// the status API. It returns when the loop ends or any of them fails.
func (a *App) run(ctx context.Context, onTick func(), handle lineHandler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched, err := retention.New(a.cfg.Retention)
	if err != nil {
		return err
	}
	lines := readLines(ctx, a.in)

	g, gctx := errgroup.WithContext(ctx)
	if a.cfg.API.Enabled {
		srv := api.New(api.Options{
			Address: a.cfg.API.Address,
			RPS:     a.cfg.API.RateLimit.RPS,
			Burst:   a.cfg.API.RateLimit.Burst,
		}, a.Status)
		g.Go(func() error { return srv.ListenAndServe(gctx) })
	}
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		return a.loop(gctx, lines, sched.Ticks(), onTick, handle)
	})
	return g.Wait()
}

func (a *App) loop(ctx context.Context, lines <-chan string, prune <-chan time.Time, onTick func(), handle lineHandler) error {
	var tick <-chan time.Time
	if onTick != nil {
		t := time.NewTicker(a.cfg.Channel.PollInterval.Duration())
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick:
			onTick()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := handle(line)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		case cutoff := <-prune:
			n := a.reg.Prune(cutoff)
			logger.Info("retention_pruned", "removed", n, "cutoff", cutoff.Format(time.RFC3339))
		}
		a.publish()
	}
}

// readLines feeds lines from r until EOF or ctx is done. A nil reader
// yields a channel that never delivers.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	if r == nil {
		return nil
	}
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 4096), 1<<20)
		for sc.Scan() {
			select {
			case ch <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := sc.Err(); err != nil {
			logger.Warn("input_read_failed", "error", err)
		}
	}()
	return ch
}

// pollRooms runs one poll tick and prints what arrived.
func (a *App) pollRooms() {
	for _, d := range a.reg.PollAll() {
		a.print.Message(d.Room, d.Message)
	}
}

func (a *App) close() {
	if err := a.reg.Close(); err != nil {
		logger.Warn("registry_close_failed", "error", err)
	}
}

func (a *App) openSingle(room int) (*registry.Room, error) {
	if room == 0 {
		return a.reg.CreateSingleRoom("lobby")
	}
	return a.reg.CreateRoom(fmt.Sprintf("room %d", room), room)
}
