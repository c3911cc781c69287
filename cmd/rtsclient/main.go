package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/EgorLis/rtsclient/internal/config"
	"github.com/EgorLis/rtsclient/internal/logger"
	"github.com/EgorLis/rtsclient/internal/rpclient"
)

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "path to YAML config (created with defaults if missing)",
		Value:   "conf/rtsclient.yaml",
	}
	hostFlag = &cli.StringFlag{
		Name:  "host",
		Usage: "game server host[:port], overrides config",
	}
	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "debug | info | warn | error, overrides config",
	}
)

var app = &cli.App{
	Name:  "rtsclient",
	Usage: "talk to an RTS game server over its WebSocket RPC",
	Flags: []cli.Flag{configFlag, hostFlag, logLevelFlag},
	Commands: []*cli.Command{
		{
			Name:      "request",
			Usage:     "send a correlated request and print the reply",
			ArgsUsage: "<COMMAND> [key=value ...]",
			Action:    requestAction,
		},
		{
			Name:      "send",
			Usage:     "send a fire-and-forget command",
			ArgsUsage: "<COMMAND> [key=value ...]",
			Action:    sendAction,
		},
		{
			Name:   "watch",
			Usage:  "log connection status changes and push events until interrupted",
			Action: watchAction,
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// session держит загруженный конфиг, логгер и подключённый клиент.
type session struct {
	log    *slog.Logger
	client *rpclient.Client
	close  func()
}

func openSession(ctx context.Context, cctx *cli.Context) (*session, error) {
	cfg, err := config.Load(cctx.String(configFlag.Name))
	if err != nil {
		return nil, err
	}
	if v := cctx.String(hostFlag.Name); v != "" {
		cfg.Server.Host = v
	}
	if v := cctx.String(logLevelFlag.Name); v != "" {
		cfg.Logger.Level = v
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, err
	}
	codec, err := rpclient.CodecByName(cfg.Server.Codec)
	if err != nil {
		_ = closeLog()
		return nil, err
	}

	c := rpclient.New(cfg.ClientConfig(), rpclient.WithLogger(log), rpclient.WithCodec(codec))
	c.AddConnectionStatusListener(rpclient.NewStatusListener(func(s rpclient.Status) {
		log.Info("connection status", "status", s.String())
	}))
	if err := c.Connect(ctx); err != nil {
		_ = c.Close()
		_ = closeLog()
		return nil, err
	}
	return &session{
		log:    log,
		client: c,
		close: func() {
			_ = c.Close()
			_ = closeLog()
		},
	}, nil
}

func commandArgs(cctx *cli.Context) (string, map[string]any, error) {
	if cctx.NArg() < 1 {
		return "", nil, fmt.Errorf("missing COMMAND, usage: %s %s", cctx.Command.Name, cctx.Command.ArgsUsage)
	}
	opts, err := parseOptions(cctx.Args().Tail())
	if err != nil {
		return "", nil, err
	}
	return cctx.Args().First(), opts, nil
}

func requestAction(cctx *cli.Context) error {
	command, opts, err := commandArgs(cctx)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cctx)
	if err != nil {
		return err
	}
	defer s.close()

	reply, err := s.client.RequestWithOptions(ctx, command, opts)
	if err != nil {
		return err
	}
	fmt.Println(string(reply))
	return nil
}

func sendAction(cctx *cli.Context) error {
	command, opts, err := commandArgs(cctx)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cctx)
	if err != nil {
		return err
	}
	defer s.close()

	s.client.SendWithOptions(command, opts)
	return nil
}

func watchAction(cctx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, cctx)
	if err != nil {
		return err
	}
	defer s.close()

	s.client.AddMessageListener(rpclient.NewMessageListener(func(p rpclient.Push) {
		s.log.Info("push", "type", p.Type(), "payload", string(p.Raw))
	}))

	s.log.Info("running… press Ctrl+C to stop")
	<-ctx.Done()
	return nil
}
