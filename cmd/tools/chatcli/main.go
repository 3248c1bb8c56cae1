package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
	"github.com/joho/godotenv"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/zhouzirui/deepseek-chat/internal/client"
	"github.com/zhouzirui/deepseek-chat/internal/config"
	"github.com/zhouzirui/deepseek-chat/internal/console"
	chatsvc "github.com/zhouzirui/deepseek-chat/internal/service/chat"
)

var (
	relayFlag    string
	configFlag   string
	shareDirFlag string
	styleFlag    string
)

var rootCmd = &cobra.Command{
	Use:   "chatcli [prompt]",
	Short: "Terminal client for the DeepSeek chat relay",
	Long: `chatcli streams replies from a running relay.

Examples:
  chatcli                               Start interactive chat
  chatcli "什么是 goroutine?"            Send a single prompt
  chatcli --relay http://host:8080      Use another relay`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&relayFlag, "relay", "", "relay base URL (overrides relay_url)")
	rootCmd.Flags().StringVar(&configFlag, "config", "", "config file path (default $XDG_CONFIG_HOME/deepseek-chat/chatcli.toml)")
	rootCmd.Flags().StringVar(&shareDirFlag, "share-dir", "", "directory for /share exports")
	rootCmd.Flags().StringVar(&styleFlag, "style", "", "glamour style for /view (dark, light, notty, ...)")
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[chatcli] 无法加载 .env，改用系统环境变量: %v", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadClientConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := console.Options{
		Out:      os.Stdout,
		ShareDir: cfg.ShareDir,
	}
	if !clipboard.Unsupported {
		opts.Copy = clipboard.WriteAll
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStylePath(cfg.Style),
		glamour.WithWordWrap(cfg.Width),
	)
	if err != nil {
		log.Printf("[chatcli] markdown renderer unavailable: %v", err)
	} else {
		opts.Renderer = renderer
	}

	relay := client.New(cfg.RelayURL, &http.Client{})
	c := console.New(relay, chatsvc.NewService(), opts)

	if len(args) == 1 {
		c.Handle(ctx, args[0])
		return nil
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	loadHistory(line, cfg.HistoryFile)
	defer saveHistory(line, cfg.HistoryFile)

	return c.Run(ctx, &historyReader{line: line})
}

func loadClientConfig() (*config.ClientConfig, error) {
	path := configFlag
	if path == "" {
		defaultPath, err := config.DefaultClientConfigPath()
		if err != nil {
			log.Printf("[chatcli] %v", err)
		}
		path = defaultPath
	}

	cfg, err := config.LoadClient(path)
	if err != nil {
		return nil, err
	}

	if relayFlag != "" {
		cfg.RelayURL = relayFlag
	}
	if shareDirFlag != "" {
		cfg.ShareDir = shareDirFlag
	}
	if styleFlag != "" {
		cfg.Style = styleFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// historyReader records non-empty input in the liner history.
type historyReader struct {
	line *liner.State
}

func (h *historyReader) Prompt(prompt string) (string, error) {
	input, err := h.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		h.line.AppendHistory(input)
	}
	return input, nil
}

func loadHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := line.ReadHistory(f); err != nil {
		log.Printf("[chatcli] read history: %v", err)
	}
}

func saveHistory(line *liner.State, path string) {
	if path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		log.Printf("[chatcli] save history: %v", err)
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		log.Printf("[chatcli] save history: %v", err)
		return
	}
	defer f.Close()
	if _, err := line.WriteHistory(f); err != nil {
		log.Printf("[chatcli] save history: %v", err)
	}
}
