package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/macwinctl/macwinctl/internal/clipboard"
	"github.com/macwinctl/macwinctl/internal/config"
	"github.com/macwinctl/macwinctl/internal/control"
	"github.com/macwinctl/macwinctl/internal/discovery"
	"github.com/macwinctl/macwinctl/internal/identity"
	"github.com/macwinctl/macwinctl/internal/logging"
	"github.com/macwinctl/macwinctl/internal/model"
	"github.com/macwinctl/macwinctl/internal/platform"
	"github.com/macwinctl/macwinctl/internal/rpc"
	"github.com/macwinctl/macwinctl/internal/session"
)

var (
	version = "0.1.0"
	cfgFile string
)

var log = logging.L("main")

var rootCmd = &cobra.Command{
	Use:   "macwinctl",
	Short: "macwinctl",
	Long:  `macwinctl - shares one mouse and keyboard across a Mac and a Windows PC on the same LAN`,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the daemon",
	Run: func(cmd *cobra.Command, args []string) {
		if isWindowsService() {
			if err := runAsService(startDaemon); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
		runDaemon()
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Query a running daemon for its connection and debug state",
	Run: func(cmd *cobra.Command, args []string) {
		queryStatus()
	},
}

var pairCmd = &cobra.Command{
	Use:   "pair [ip]",
	Short: "Force an immediate outbound dial to ip, bypassing the beacon wait",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pairWith(args[0])
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("macwinctl v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is macwinctl.yaml under the platform config dir)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pairCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initLogging sets up structured logging from config. Call after config.Load().
func initLogging(cfg *config.Config) {
	var output io.Writer = os.Stdout

	if cfg.LogFile != "" {
		rw, err := logging.NewRotatingWriter(cfg.LogFile, cfg.LogMaxSizeMB, cfg.LogMaxBackups)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v (logging to stdout)\n", cfg.LogFile, err)
		} else {
			output = logging.TeeWriter(os.Stdout, rw)
		}
	}

	logging.Init(cfg.LogFormat, cfg.LogLevel, output)
	log = logging.L("main")
}

// handlerBox lets the session manager be constructed with a Handler before
// the control loop (the real handler) exists; the loop closes this
// construction cycle once it is built.
type handlerBox struct {
	target session.Handler
}

func (b *handlerBox) HandleMessage(msg model.Message) {
	if b.target != nil {
		b.target.HandleMessage(msg)
	}
}

// clipboardBridge is the single clipboard.Provider the RPC surface and the
// wire protocol both see. When sync is enabled, writes route through the
// syncer's anti-echo path so a GUI-initiated set_clipboard_text does not
// immediately bounce back out over the LAN as a detected local change.
type clipboardBridge struct {
	provider clipboard.Provider
	syncer   *clipboard.Syncer
}

func (b clipboardBridge) GetText() (string, error) {
	return b.provider.GetText()
}

func (b clipboardBridge) SetText(text string) error {
	if b.syncer != nil {
		return b.syncer.SetRemoteText(text)
	}
	return b.provider.SetText(text)
}

// daemonComponents holds every running goroutine's shutdown handle so a
// service wrapper (Windows SCM) can stop them gracefully without going
// through os.Exit.
type daemonComponents struct {
	stop   chan struct{}
	cancel context.CancelFunc
	errCh  chan error
}

// shutdownDaemon stops every component started by startDaemon.
func shutdownDaemon(comps *daemonComponents) {
	if comps == nil {
		return
	}
	comps.cancel()
	close(comps.stop)
}

// startDaemon wires together discovery, session, the control loop, and the
// local RPC surface, and starts every component's goroutine. It returns
// immediately; callers wait on the returned errCh or their own shutdown
// signal before calling shutdownDaemon.
func startDaemon() (*daemonComponents, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	initLogging(cfg)

	name := cfg.Name
	if name == "" {
		name = identity.Name()
	}
	kind := identity.Kind()

	log.Info("starting macwinctl",
		"version", version,
		"name", name,
		"kind", kind,
		"tcpPort", cfg.TCPPort,
		"udpPort", cfg.UDPPort,
	)

	input := platform.New()
	remoteDisplays := discovery.NewRemoteDisplayRegistry()
	peers := discovery.NewRegistry()

	box := &handlerBox{}
	manager := session.NewManager(cfg.TCPPort, name, kind, func() []model.Display {
		displays, derr := input.EnumerateDisplays()
		if derr != nil {
			log.Warn("display enumeration failed for hello handshake", "error", derr)
			return nil
		}
		return displays
	}, remoteDisplays, box)

	remoteEdge, ok := model.ParseEdge(cfg.RemoteEdge)
	if !ok {
		log.Warn("unrecognized remote_edge in config, defaulting to right", "configured", cfg.RemoteEdge)
		remoteEdge = model.EdgeRight
	}

	clipProvider := clipboard.NewSystemClipboard()
	var clipSyncer *clipboard.Syncer
	var clipSetter control.ClipboardSetter
	if cfg.ClipboardSyncEnabled {
		clipSyncer = clipboard.NewSyncer(clipProvider, time.Duration(cfg.ClipboardPollMs)*time.Millisecond, func(text string) {
			if sendErr := manager.Send(model.ClipboardMessage(text)); sendErr != nil {
				log.Debug("clipboard push failed", "error", sendErr)
			}
		})
		clipSetter = clipSyncer
	}
	clipBridge := clipboardBridge{provider: clipProvider, syncer: clipSyncer}

	loop, err := control.NewLoop(input, manager, remoteDisplays, manager.HasOutbound, clipSetter, control.Config{
		RemoteEdge:         remoteEdge,
		ThresholdPx:        cfg.ThresholdPx,
		Sensitivity:        cfg.Sensitivity,
		ReturnCooldownMs:   cfg.ReturnCooldownMs,
		ReturnInwardPx:     cfg.ReturnInwardPx,
		TickMs:             cfg.TickMs,
		DebugSnapshotTicks: cfg.DebugSnapshotTicks,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start control loop: %w", err)
	}
	box.target = loop

	beacon := discovery.NewBeacon(name, kind, cfg.UDPPort, time.Duration(cfg.BeaconIntervalSeconds)*time.Second)
	listener := discovery.NewListener(cfg.UDPPort, peers, manager.HasOutbound, func(address string) {
		if dialErr := manager.Dial(address); dialErr != nil {
			log.Warn("auto-connect dial failed", "peer", address, "error", dialErr)
		}
	})

	debugPushInterval := time.Duration(cfg.DebugSnapshotTicks*cfg.TickMs) * time.Millisecond
	rpcServer := rpc.NewServer(cfg.RPCAddr, loop, manager, peers, remoteDisplays, clipBridge, time.Duration(cfg.LivenessWindowSeconds)*time.Second, debugPushInterval)

	stop := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 4)

	go func() {
		if serveErr := manager.ListenAndServe(stop); serveErr != nil {
			errCh <- fmt.Errorf("session listener: %w", serveErr)
		}
	}()
	go beacon.Run(stop)
	go func() {
		if listenErr := listener.Run(stop); listenErr != nil {
			errCh <- fmt.Errorf("discovery listener: %w", listenErr)
		}
	}()
	go loop.Run(stop)
	if clipSyncer != nil {
		go clipSyncer.Run(ctx)
	}
	go func() {
		if serveErr := rpcServer.ListenAndServe(stop); serveErr != nil {
			errCh <- fmt.Errorf("rpc server: %w", serveErr)
		}
	}()
	if cfg.RPCNamedPipe {
		go func() {
			if pipeErr := rpcServer.ListenPipe(cfg.RPCPipeName, stop); pipeErr != nil {
				log.Warn("named-pipe rpc transport unavailable", "error", pipeErr)
			}
		}()
	}

	log.Info("macwinctl is running")

	return &daemonComponents{stop: stop, cancel: cancel, errCh: errCh}, nil
}

// runDaemon is the console entry point: start every component, then block
// until a signal arrives or a component fails.
func runDaemon() {
	comps, err := startDaemon()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("shutting down", "signal", sig)
	case runErr := <-comps.errCh:
		log.Error("component failed, shutting down", "error", runErr)
	}

	shutdownDaemon(comps)
	log.Info("macwinctl stopped")
}

// queryStatus connects to the local RPC surface and prints connection and
// debug state, for operators checking a running daemon from the CLI.
func queryStatus() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	conn, err := dialRPC(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to reach daemon: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	statusResp, err := rpcCall(conn, rpc.Request{Op: "get_connection_status"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	if statusResp.Status != nil {
		fmt.Printf("Connected: %v\n", statusResp.Status.IsConnected)
		if statusResp.Status.IsConnected {
			fmt.Printf("Peer: %s\n", statusResp.Status.ConnectedTo)
		}
		fmt.Printf("Discovered peers: %d\n", len(statusResp.Status.DiscoveredPeers))
		for _, p := range statusResp.Status.DiscoveredPeers {
			fmt.Printf("  - %s (%s) %s\n", p.Name, p.Kind, p.Address)
		}
	}

	debugResp, err := rpcCall(conn, rpc.Request{Op: "get_debug_info"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	if debugResp.Debug != nil {
		fmt.Printf("Cursor: (%d, %d)\n", debugResp.Debug.MouseX, debugResp.Debug.MouseY)
		fmt.Printf("Edge status: %s\n", debugResp.Debug.EdgeStatus)
		fmt.Printf("Remote screens known: %d\n", debugResp.Debug.RemoteScreenCount)
	}
}

// pairWith asks a running daemon to dial address immediately, bypassing the
// discovery beacon wait.
func pairWith(address string) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	conn, err := dialRPC(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to reach daemon: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close()

	resp, err := rpcCall(conn, rpc.Request{Op: "pair", Address: address})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	if resp.Error != "" {
		fmt.Fprintf(os.Stderr, "Pair failed: %s\n", resp.Error)
		os.Exit(1)
	}
	fmt.Printf("Pairing with %s...\n", address)
}

func dialRPC(cfg *config.Config) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial("ws://"+cfg.RPCAddr+"/", nil)
	return conn, err
}

func rpcCall(conn *websocket.Conn, req rpc.Request) (rpc.Response, error) {
	var resp rpc.Response
	data, err := json.Marshal(req)
	if err != nil {
		return resp, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return resp, err
	}
	_, respData, err := conn.ReadMessage()
	if err != nil {
		return resp, err
	}
	err = json.Unmarshal(respData, &resp)
	return resp, err
}
