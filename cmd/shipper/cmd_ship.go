package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/level"
	"github.com/mongodb/grip/logging"
	"github.com/mongodb/grip/message"
	"github.com/mongodb/grip/send"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sqs-log-shipper/pkg/appender"
	"sqs-log-shipper/pkg/config"
	"sqs-log-shipper/pkg/encoder"
	"sqs-log-shipper/pkg/gripsender"
	"sqs-log-shipper/pkg/pipeline"
	"sqs-log-shipper/pkg/sink"
	"sqs-log-shipper/pkg/source"
	"sqs-log-shipper/pkg/status"
)

var shipCmd = &cobra.Command{
	Use:   "ship",
	Short: "Read log records from a source and send them to SQS",
	Long: `Read log records from a source and send them to SQS.

Every non-empty record becomes one queue message, encoded with the
configured encoder. Records larger than the message size limit are dropped
with a warning. Flags override the configuration file; every flag can also
be set with a SHIPPER_SHIP_<FLAG> environment variable.`,
	Example: `  tail -F app.log | shipper ship --queue-url https://sqs.us-east-1.amazonaws.com/123456789012/logs
  shipper ship -c shipper.yaml --source websocket --url wss://example.com/stream --echo`,
	Args: cobra.NoArgs,
	RunE: runShip,
}

func init() {
	f := shipCmd.Flags()
	f.String("name", config.DefaultName, "Appender name used in diagnostics")
	f.String("queue-url", "", "SQS queue URL")
	f.String("region", "", "AWS region (default: derived from the queue URL)")
	f.String("access-key", "", "AWS access key id")
	f.String("secret-key", "", "AWS secret access key")
	f.String("profile", "", "Shared config profile")
	f.Int("thread-pool", 0, "Number of concurrent sends (0: unbounded)")
	f.Int("max-size-kb", appender.DefaultMaxMessageSizeInKB, "Maximum encoded event size in kB")
	f.String("encoder", config.DefaultEncoder, "Event encoding (json, text)")
	f.String("source", config.SourceStdin, "Record source (stdin, websocket)")
	f.String("url", "", "Websocket URL for the websocket source")
	f.String("subscribe", "", "Text frame sent after each websocket connect")
	f.Bool("echo", false, "Also write events to stdout")
	f.String("tee", "", "Also append events to this file")
	f.Bool("announce", true, "Ship start and stop notices to the queue")
	f.Duration("drain-timeout", 5*time.Second, "Time allowed for queued sends to finish on exit (0: no limit)")
	f.StringToString("property", nil, "Process property (key=value, can be repeated), e.g. aws.accessKeyId=...")

	for _, name := range []string{
		"name", "queue-url", "region", "access-key", "secret-key", "profile",
		"thread-pool", "max-size-kb", "encoder", "source", "url", "subscribe",
		"echo", "tee", "announce", "drain-timeout", "property",
	} {
		viper.BindPFlag("ship."+name, f.Lookup(name))
	}

	rootCmd.AddCommand(shipCmd)
}

func loadConfig() (*config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// overlayFlags applies flags and environment variables that were set
// explicitly on top of the file configuration.
func overlayFlags(cfg *config.Config) error {
	set := func(key string) bool { return viper.IsSet("ship." + key) }

	if set("name") {
		cfg.Name = viper.GetString("ship.name")
	}
	if set("queue-url") {
		cfg.Appender.QueueURL = viper.GetString("ship.queue-url")
	}
	if set("region") {
		cfg.Appender.Region = viper.GetString("ship.region")
	}
	if set("access-key") {
		cfg.Appender.AccessKey = viper.GetString("ship.access-key")
	}
	if set("secret-key") {
		cfg.Appender.SecretKey = viper.GetString("ship.secret-key")
	}
	if set("profile") {
		cfg.Appender.Profile = viper.GetString("ship.profile")
	}
	if set("thread-pool") {
		cfg.Appender.ThreadPool = viper.GetInt("ship.thread-pool")
	}
	if set("max-size-kb") {
		cfg.Appender.MaxMessageSizeInKB = viper.GetInt("ship.max-size-kb")
	}
	if set("encoder") {
		cfg.Encoder = viper.GetString("ship.encoder")
	}
	if set("source") {
		cfg.Source.Type = viper.GetString("ship.source")
	}
	if set("url") || set("subscribe") {
		if cfg.Source.WebSocket == nil {
			cfg.Source.WebSocket = &config.WebSocketConfig{}
		}
		if set("url") {
			cfg.Source.WebSocket.URL = viper.GetString("ship.url")
		}
		if set("subscribe") {
			cfg.Source.WebSocket.Subscribe = viper.GetString("ship.subscribe")
		}
	}
	if props := viper.GetStringMapString("ship.property"); len(props) > 0 {
		if cfg.Properties == nil {
			cfg.Properties = make(map[string]string, len(props))
		}
		for k, v := range props {
			cfg.Properties[k] = v
		}
	}
	if viper.GetBool("ship.echo") {
		cfg.Sinks = append(cfg.Sinks, config.SinkConfig{Type: config.SinkConsole})
	}
	if path := viper.GetString("ship.tee"); path != "" {
		cfg.Sinks = append(cfg.Sinks, config.SinkConfig{
			Type: config.SinkFile,
			File: &config.FileConfig{Path: path},
		})
	}

	return cfg.Validate()
}

// buildSinks returns the appender followed by the configured local sinks.
// Each sink gets its own encoder since an encoder is bound to one writer.
func buildSinks(cfg *config.Config, reporter status.Reporter) (*appender.Appender, []sink.Sink, error) {
	enc, err := encoder.New(cfg.Encoder)
	if err != nil {
		return nil, nil, err
	}
	app := appender.New(cfg.Name, cfg.Appender,
		appender.WithEncoder(enc),
		appender.WithReporter(reporter),
		appender.WithProperties(cfg.PropertyStore()),
	)

	sinks := []sink.Sink{app}
	for _, sc := range cfg.Sinks {
		local, err := encoder.New(cfg.Encoder)
		if err != nil {
			return nil, nil, err
		}
		switch sc.Type {
		case config.SinkConsole:
			sinks = append(sinks, sink.NewConsoleSink(local, reporter))
		case config.SinkFile:
			sinks = append(sinks, sink.NewFileSink(sc.File.Path, local, reporter))
		}
	}
	return app, sinks, nil
}

func openSource(cfg *config.Config) (source.Source, error) {
	switch cfg.Source.Type {
	case config.SourceWebSocket:
		ws := source.NewWebSocket(source.WebSocketOptions{
			URL:       cfg.Source.WebSocket.URL,
			Subscribe: cfg.Source.WebSocket.Subscribe,
		})
		if err := ws.Connect(); err != nil {
			return nil, err
		}
		return ws, nil
	default:
		return source.NewLinesLimit(os.Stdin, lineLimit(cfg)), nil
	}
}

// lineLimit keeps stdin records long enough that anything over the
// message size limit still reaches the appender's size check.
func lineLimit(cfg *config.Config) int {
	if n := cfg.Appender.MaxPayloadBytes() + 1; n > source.MaxLineSize {
		return n
	}
	return source.MaxLineSize
}

// shutdown sends the stop notice, gives queued sends up to timeout to
// finish and then stops every sink.
func shutdown(app *appender.Appender, all sink.Sink, announce func(string), timeout time.Duration) {
	announce("shipping stopped")

	ctx, cancel := closeContext(timeout)
	defer cancel()
	if err := app.Drain(ctx); err != nil {
		grip.Warning(message.WrapError(err, message.Fields{
			"message": "abandoning unsent events",
			"name":    app.Name(),
		}))
	}
	all.Stop()
}

func runShip(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := overlayFlags(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, sinks, err := buildSinks(cfg, status.Default())
	if err != nil {
		return err
	}
	all := sink.NewMultiSink(sinks)
	all.Start(ctx)
	defer all.Stop() // early returns; shutdown stops it on the normal path

	if app.State() != appender.StateStarted {
		return errors.Errorf("appender '%s' did not start (state %s)", app.Name(), app.State())
	}

	var lifecycle interface{ Info(interface{}) }
	if viper.GetBool("ship.announce") {
		gs, err := gripsender.New(cfg.Name+".lifecycle", app, send.LevelInfo{Default: level.Info, Threshold: level.Info})
		if err != nil {
			return err
		}
		lifecycle = logging.MakeGrip(gs)
	}
	announce := func(msg string) {
		if lifecycle == nil {
			return
		}
		lifecycle.Info(message.Fields{
			"message":  msg,
			"source":   cfg.Source.Type,
			"encoder":  cfg.Encoder,
			"hostname": hostname(),
		})
	}

	src, err := openSource(cfg)
	if err != nil {
		return errors.Wrap(err, "opening source")
	}
	defer src.Close()

	announce("shipping started")
	grip.Info(message.Fields{
		"message": "shipping",
		"name":    cfg.Name,
		"queue":   cfg.Appender.QueueURL,
		"source":  cfg.Source.Type,
		"sinks":   len(sinks),
	})

	done := make(chan error, 1)
	go func() {
		done <- pipeline.Run(src.Messages(), src.Errors(), all, cfg.Source.Type)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		grip.Info("interrupt received, stopping")
		_ = src.Close()
	}

	shutdown(app, all, announce, viper.GetDuration("ship.drain-timeout"))
	return err
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

