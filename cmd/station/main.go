package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/rl1809/kitchen-relay/internal/adapter/netwatch"
	"github.com/rl1809/kitchen-relay/internal/adapter/relayclient"
	"github.com/rl1809/kitchen-relay/internal/adapter/storage"
	"github.com/rl1809/kitchen-relay/internal/clock"
	"github.com/rl1809/kitchen-relay/internal/config"
	"github.com/rl1809/kitchen-relay/internal/core/domain"
	"github.com/rl1809/kitchen-relay/internal/core/service"
	"github.com/rl1809/kitchen-relay/internal/port"
)

const (
	callTimeout     = 5 * time.Second
	stationShutdown = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "station: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("station", pflag.ExitOnError)
	config.RegisterFlags(fs)
	fs.Parse(os.Args[1:])

	cfg, err := config.LoadWithFlags(fs)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	name := cfg.Station.Name
	if name == "" {
		host, _ := os.Hostname()
		name = cfg.Station.Role + "@" + host
	}

	client, err := relayclient.Dial(cfg.Station.RelayAddr, name)
	if err != nil {
		return err
	}
	defer client.Close()

	clk := clock.Real()
	stationCfg := service.StationConfig{
		Ledger:     service.NewLedger(store, clk),
		Controller: service.NewController(client, clk, cfg.Station.ReconnectDelays, logger),
		Clock:      clk,
		Tick:       cfg.Station.Tick,
		Logger:     logger,
	}
	if cfg.Station.Role == config.RoleKitchen {
		stationCfg.OnNewOrder = func(o domain.Order) {
			// Terminal bell stands in for the kitchen chime.
			fmt.Printf("\a*** new order %s: table %s, %s\n", shortID(o.ID), o.Table, o.Item)
		}
	}

	var probe *netwatch.Probe
	if cfg.Station.ProbeTarget != "" {
		probe = netwatch.NewProbe(netwatch.Config{
			Target:   cfg.Station.ProbeTarget,
			Interval: cfg.Station.ProbeInterval,
			Clock:    clk,
			Logger:   logger,
		})
		stationCfg.Network = probe
		go probe.Run(ctx)
	}

	station := service.NewStation(stationCfg)
	runErr := make(chan error, 1)
	go func() { runErr <- station.Run(ctx) }()

	logger.Info("station started", "name", name, "role", cfg.Station.Role, "relay", cfg.Station.RelayAddr,
		"store", cfg.Store.Backend)

	cli := &console{
		station: station,
		role:    cfg.Station.Role,
		in:      bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
	}
	cli.run(ctx)
	stop()

	select {
	case err := <-runErr:
		return err
	case <-time.After(stationShutdown):
		return errors.New("station did not stop in time")
	}
}

func openStore(ctx context.Context, cfg config.StoreConfig) (port.LedgerStore, func(), error) {
	noop := func() {}

	switch cfg.Backend {
	case config.BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, noop, fmt.Errorf("connect redis: %w", err)
		}
		return storage.NewRedisLedgerStore(rdb, cfg.CacheName), func() { rdb.Close() }, nil

	case config.BackendMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("open mysql: %w", err)
		}
		db.SetMaxOpenConns(4)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, noop, fmt.Errorf("ping mysql: %w", err)
		}
		store := storage.NewMySQLLedgerStore(db, cfg.CacheName)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, noop, err
		}
		return store, func() { db.Close() }, nil

	case config.BackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, noop, fmt.Errorf("open postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, noop, fmt.Errorf("ping postgres: %w", err)
		}
		store := storage.NewPostgresLedgerStore(pool, cfg.CacheName)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, noop, err
		}
		return store, pool.Close, nil

	default:
		store, err := storage.NewFileLedgerStore(cfg.Dir, cfg.CacheName)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	}
}

// stationAPI is the part of the station the console drives.
type stationAPI interface {
	SubmitOrder(ctx context.Context, table, item string) (string, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.Status) error
	ClearAll(ctx context.Context) error
	Board() service.Board
	State() domain.ConnectionState
}

// console is the line-oriented front end of a station.
type console struct {
	station stationAPI
	role    string
	in      *bufio.Scanner
	out     io.Writer
}

func (c *console) run(ctx context.Context) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for c.in.Scan() {
			select {
			case lines <- c.in.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	c.printf("%s station ready, type help for commands\n", c.role)
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !c.handle(ctx, line, lines) {
				return
			}
		}
	}
}

// handle runs one command line and reports whether to keep reading.
func (c *console) handle(ctx context.Context, line string, lines <-chan string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "help":
		c.help()
	case "quit", "exit":
		return false
	case "order":
		if c.role != config.RoleTaker {
			c.printf("only the order taker places orders\n")
			return true
		}
		if len(args) < 2 {
			c.printf("usage: order <table> <item>\n")
			return true
		}
		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		id, err := c.station.SubmitOrder(callCtx, args[0], strings.Join(args[1:], " "))
		cancel()
		if err != nil {
			c.reportCallError("order", err)
			return true
		}
		c.printf("sent order %s\n", shortID(id))
	case "start", "ready", "status":
		if c.role != config.RoleKitchen {
			c.printf("only the kitchen updates status\n")
			return true
		}
		c.updateStatus(ctx, cmd, args)
	case "board":
		c.printBoard()
	case "top":
		n := service.DefaultTopItems
		if len(args) > 0 {
			if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
				n = v
			}
		}
		c.printTop(n)
	case "clear":
		c.printf("this removes every order on this station and cannot be undone. type yes to confirm: ")
		select {
		case answer, ok := <-lines:
			if !ok {
				return false
			}
			if strings.TrimSpace(strings.ToLower(answer)) != "yes" {
				c.printf("clear cancelled\n")
				return true
			}
		case <-ctx.Done():
			return false
		}
		if err := c.station.ClearAll(ctx); err != nil {
			c.printf("clear failed: %v\n", err)
			return true
		}
		c.printf("ledger cleared\n")
	default:
		c.printf("unknown command %q, type help\n", cmd)
	}
	return true
}

func (c *console) updateStatus(ctx context.Context, cmd string, args []string) {
	var status domain.Status
	switch cmd {
	case "start":
		status = domain.StatusCooking
	case "ready":
		status = domain.StatusReady
	default:
		if len(args) < 2 {
			c.printf("usage: status <order> <value>\n")
			return
		}
		status = domain.Status(args[1])
	}
	if len(args) < 1 {
		c.printf("usage: %s <order>\n", cmd)
		return
	}

	id, err := c.resolve(args[0])
	if err != nil {
		c.printf("%v\n", err)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()
	if err := c.station.UpdateStatus(callCtx, id, status); err != nil {
		c.reportCallError(cmd, err)
		return
	}
	c.printf("sent %s for %s\n", status, shortID(id))
}

// resolve expands an id prefix against the current board.
func (c *console) resolve(prefix string) (string, error) {
	var match string
	for _, o := range c.station.Board().Orders {
		if !strings.HasPrefix(o.ID, prefix) {
			continue
		}
		if match != "" {
			return "", fmt.Errorf("order %q is ambiguous", prefix)
		}
		match = o.ID
	}
	if match == "" {
		return "", fmt.Errorf("no order matches %q", prefix)
	}
	return match, nil
}

func (c *console) reportCallError(op string, err error) {
	var transportErr *domain.TransportError
	switch {
	case errors.Is(err, domain.ErrOffline):
		c.printf("%s not sent: station is %s, try again once connected\n", op, c.station.State())
	case errors.As(err, &transportErr):
		c.printf("%s not sent: relay call failed (%v), resubmit it\n", op, transportErr.Err)
	default:
		c.printf("%s failed: %v\n", op, err)
	}
}

func (c *console) printBoard() {
	b := c.station.Board()
	active, completed := service.Counts(b.Orders)
	c.printf("connection: %s  active: %d  completed: %d\n", b.State, active, completed)

	for _, r := range b.Active {
		c.printf("  [%-8s] %s  %s  table %-4s %-20s %-8s %s\n",
			r.Tier, shortID(r.Order.ID), r.Order.DisplayTime(), r.Order.Table, r.Order.Item,
			r.Order.Status, r.Elapsed.Truncate(time.Second))
	}
	for _, o := range b.Orders {
		if o.Status.Terminal() {
			c.printf("  [done    ] %s  %s  table %-4s %s\n", shortID(o.ID), o.DisplayTime(), o.Table, o.Item)
		}
	}
}

func (c *console) printTop(n int) {
	for i, item := range service.TopItems(c.station.Board().Orders, n) {
		c.printf("%2d. %-24s %d\n", i+1, item.Item, item.Count)
	}
}

func (c *console) help() {
	c.printf(`commands:
  order <table> <item>     place an order (taker)
  start <order>            mark cooking (kitchen)
  ready <order>            mark ready (kitchen)
  status <order> <value>   send any status value (kitchen)
  board                    show outstanding orders by urgency
  top [n]                  most ordered items
  clear                    empty this station's ledger
  quit
`)
}

func (c *console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
