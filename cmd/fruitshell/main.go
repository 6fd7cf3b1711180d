// fruitshell - interactive shell for a remote content-addressed
// filesystem.
//
// Filesystem verbs (ls, cd, cat, mv, mkdir, pwd, tree, ...) operate on
// the remote resource tree, and plugin-executable names of the form
// <name>-v<version> are intercepted for catalog introspection.
//
// Sub-commands:
//
//	fruitshell login [flags]    Authenticate and save a token
//	fruitshell logout           Revoke and delete the saved token
//	fruitshell version          Print the version
//	fruitshell [flags]          Start the interactive shell (default)
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/fruitsalade/fruitshell/internal/config"
	"github.com/fruitsalade/fruitshell/internal/logging"
	"github.com/fruitsalade/fruitshell/internal/metrics"
	"github.com/fruitsalade/fruitshell/internal/shell"
	"github.com/fruitsalade/fruitshell/pkg/client"
	"github.com/fruitsalade/fruitshell/pkg/protocol"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "login":
			cmdLogin(os.Args[2:])
			return
		case "logout":
			cmdLogout(os.Args[2:])
			return
		case "version":
			fmt.Printf("fruitshell %s\n", version)
			return
		}
	}

	cmdShell()
}

func cmdShell() {
	cfg := config.Load()

	serverURL := flag.String("server", cfg.ServerURL, "Server URL")
	metricsAddr := flag.String("metrics", cfg.MetricsAddr, "Prometheus listen address (empty disables)")
	externalTool := flag.String("tool", cfg.ExternalTool, "External tool for unrecognized commands")
	token := flag.String("token", "", "Authentication token")
	logLevel := flag.String("log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	watch := flag.Bool("watch", cfg.WatchEvents, "Subscribe to server change events")
	offline := flag.Bool("offline", false, "Start without connecting")

	flag.Parse()

	logFile := cfg.LogFile
	if logFile == "" {
		logFile = logging.DefaultLogPath()
	}
	if err := logging.Init(logging.Config{
		Level:      *logLevel,
		Format:     cfg.LogFormat,
		OutputPath: logFile,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging init failed: %v\n", err)
	}
	defer logging.Sync()

	baseURL := strings.TrimSuffix(*serverURL, "/")

	if *token == "" {
		*token = os.Getenv("FRUITSHELL_TOKEN")
	}
	if *token == "" {
		if tf, err := client.LoadToken(); err == nil {
			if tf.IsExpired(0) {
				fmt.Fprintln(os.Stderr, "Warning: saved token has expired. Run 'fruitshell login' to authenticate.")
			} else {
				*token = tf.Token
				logging.Info("using saved token",
					logging.String("user", tf.Username), logging.String("server", tf.Server))
			}
		}
	}

	if *metricsAddr != "" {
		go func() {
			if err := metrics.Serve(*metricsAddr); err != nil {
				logging.Error("metrics listener failed", logging.Err(err))
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	dial := func(url string) shell.Remote {
		return client.New(client.Config{
			BaseURL:   strings.TrimSuffix(url, "/"),
			Timeout:   cfg.Timeout,
			AuthToken: *token,
		})
	}

	var events <-chan protocol.SSEEvent
	if *watch && !*offline {
		sse := client.NewSSEClient(baseURL)
		sse.SetAuthToken(*token)
		events = sse.Subscribe(ctx)
	}

	sh := shell.New(shell.Options{
		Dial:         dial,
		ExternalTool: *externalTool,
		HistoryFile:  cfg.HistoryFile,
		Events:       events,
	})

	if !*offline {
		if err := sh.Connect(ctx, dial(baseURL)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot reach %s (%v), starting offline\n", baseURL, err)
		} else {
			fmt.Printf("fruitshell %s connected to %s\n", version, baseURL)
		}
	}
	fmt.Println("Type 'help' for builtin commands.")

	if err := sh.Run(ctx); err != nil {
		logging.Error("shell terminated", logging.Err(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func cmdLogin(args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	serverURL := fs.String("server", config.Load().ServerURL, "Server URL")
	deviceName := fs.String("device", "", "Device name (default: hostname)")
	fs.Parse(args)

	if *deviceName == "" {
		name, _ := os.Hostname()
		*deviceName = name
	}

	c := client.New(client.Config{BaseURL: strings.TrimSuffix(*serverURL, "/")})
	ctx := context.Background()

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		os.Exit(1)
	}

	resp, err := c.Login(ctx, username, string(passwordBytes), *deviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tf := &client.TokenFile{
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
		Server:    *serverURL,
		Username:  resp.User.Username,
	}
	if err := client.SaveToken(tf); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save token: %v\n", err)
	}
	fmt.Printf("Login successful! Logged in as %s. Token saved to %s\n", resp.User.Username, client.TokenFilePath())
}

func cmdLogout(args []string) {
	fs := flag.NewFlagSet("logout", flag.ExitOnError)
	fs.Parse(args)

	tf, err := client.LoadToken()
	if err != nil {
		fmt.Fprintln(os.Stderr, "No saved token found.")
		os.Exit(1)
	}

	c := client.New(client.Config{
		BaseURL:   strings.TrimSuffix(tf.Server, "/"),
		AuthToken: tf.Token,
	})
	if err := c.Logout(context.Background()); err != nil {
		logging.Debug("server logout failed", logging.Err(err))
	}

	if err := client.DeleteToken(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to delete token file: %v\n", err)
	}
	fmt.Println("Logged out successfully.")
}
