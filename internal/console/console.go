// Package console implements the interactive terminal chat loop.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/deepseek-chat/internal/client"
	"github.com/zhouzirui/deepseek-chat/internal/model/chat"
	chatsvc "github.com/zhouzirui/deepseek-chat/internal/service/chat"
)

// ShareTitle heads every shared reply.
const ShareTitle = "DeepSeek Chat 分享"

const thinkingText = "AI 正在思考中..."

var (
	promptStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	aiStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("141")).Bold(true)
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("160")).Padding(0, 1)
	bannerStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("39")).Padding(0, 2)
	commandsUsage = "/copy [n]  /share [n]  /view [n]  /reset  /quit"
)

// LineReader reads one line of user input. liner.State satisfies it.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

// Streamer submits a transcript and streams the assistant reply.
type Streamer interface {
	Stream(ctx context.Context, messages []chat.Message) (*schema.StreamReader[*schema.Message], error)
}

// Renderer renders markdown for the terminal. glamour.TermRenderer satisfies it.
type Renderer interface {
	Render(markdown string) (string, error)
}

// Options configures optional console capabilities.
type Options struct {
	Out      io.Writer
	Renderer Renderer
	Copy     func(text string) error
	ShareDir string
	Now      func() time.Time
}

// Console drives the read-submit-stream loop over a transcript.
type Console struct {
	relay      Streamer
	transcript *chatsvc.Service
	out        io.Writer
	renderer   Renderer
	copy       func(string) error
	shareDir   string
	now        func() time.Time
}

// New creates a Console.
func New(relay Streamer, transcript *chatsvc.Service, opts Options) *Console {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ShareDir == "" {
		opts.ShareDir = "."
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Console{
		relay:      relay,
		transcript: transcript,
		out:        opts.Out,
		renderer:   opts.Renderer,
		copy:       opts.Copy,
		shareDir:   opts.ShareDir,
		now:        opts.Now,
	}
}

// Run reads lines until EOF, abort or /quit.
func (c *Console) Run(ctx context.Context, in LineReader) error {
	fmt.Fprintln(c.out, bannerStyle.Render("DeepSeek Chat\n"+infoStyle.Render(commandsUsage)))

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := in.Prompt(promptStyle.Render("你> "))
		if err != nil {
			// EOF 或 Ctrl+C
			fmt.Fprintln(c.out)
			return nil
		}

		if !c.Handle(ctx, line) {
			return nil
		}
	}
}

// Handle processes one line of input and reports whether the loop should continue.
func (c *Console) Handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}

	if strings.HasPrefix(line, "/") {
		return c.command(line)
	}

	c.send(ctx, line)
	return true
}

func (c *Console) command(line string) bool {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "/quit", "/exit":
		return false
	case "/reset":
		c.transcript.Reset()
		c.info("对话已清空")
	case "/copy":
		if entry, ok := c.pick(args); ok {
			c.copyEntry(entry)
		}
	case "/share":
		if entry, ok := c.pick(args); ok {
			c.shareEntry(entry)
		}
	case "/view":
		if entry, ok := c.pick(args); ok {
			c.viewEntry(entry)
		}
	case "/help":
		c.info(commandsUsage)
	default:
		c.showError(fmt.Sprintf("未知命令: %s", name))
	}
	return true
}

// pick resolves the optional [n] argument to the n-th most recent assistant reply.
func (c *Console) pick(args []string) (chat.Entry, bool) {
	n := 1
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed < 1 {
			c.showError(fmt.Sprintf("无效的序号: %s", args[0]))
			return chat.Entry{}, false
		}
		n = parsed
	}

	entry, ok := c.transcript.Assistant(n)
	if !ok {
		c.showError("没有可用的 AI 回复")
		return chat.Entry{}, false
	}
	return entry, true
}

func (c *Console) send(ctx context.Context, text string) {
	if _, err := c.transcript.AppendUser(text); err != nil {
		c.showError("消息内容不能为空")
		return
	}

	// Snapshot before the pending reply exists.
	messages := c.transcript.Messages()
	reply := c.transcript.BeginAssistant()

	fmt.Fprintln(c.out, infoStyle.Render(thinkingText))

	err := c.stream(ctx, messages, reply.ID)
	entry, kept, completeErr := c.transcript.Complete(reply.ID)
	if completeErr != nil {
		log.Printf("[console] complete reply %s: %v", reply.ID, completeErr)
	}
	if kept {
		fmt.Fprintln(c.out)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.info("已取消")
			return
		}
		log.Printf("[console] reply %s failed: %v", reply.ID, err)
		c.showError(describeError(err))
		return
	}
	if !kept {
		log.Printf("[console] reply %s ended without content", entry.ID)
	}
}

func (c *Console) stream(ctx context.Context, messages []chat.Message, replyID string) error {
	sr, err := c.relay.Stream(ctx, messages)
	if err != nil {
		return err
	}
	defer sr.Close()

	fmt.Fprint(c.out, aiStyle.Render("AI> "))
	for {
		chunk, err := sr.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if chunk == nil || chunk.Content == "" {
			continue
		}
		if _, err := c.transcript.AppendDelta(replyID, chunk.Content); err != nil {
			return err
		}
		fmt.Fprint(c.out, chunk.Content)
	}
}

func (c *Console) copyEntry(entry chat.Entry) {
	if c.copy == nil {
		c.showError("当前环境不支持剪贴板")
		return
	}
	if err := c.copy(entry.Content); err != nil {
		log.Printf("[console] copy failed: %v", err)
		c.showError("复制失败")
		return
	}
	c.info("已复制到剪贴板")
}

func (c *Console) shareEntry(entry chat.Entry) {
	name := fmt.Sprintf("deepseek-chat-%s.md", c.now().Format("20060102-150405"))
	path := filepath.Join(c.shareDir, name)
	body := fmt.Sprintf("# %s\n\n%s\n", ShareTitle, entry.Content)

	if err := os.MkdirAll(c.shareDir, 0o755); err != nil {
		log.Printf("[console] share failed: %v", err)
		c.showError("分享失败")
		return
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		log.Printf("[console] share failed: %v", err)
		c.showError("分享失败")
		return
	}
	c.info("已保存到 " + path)
}

func (c *Console) viewEntry(entry chat.Entry) {
	if c.renderer == nil {
		fmt.Fprintln(c.out, entry.Content)
		return
	}
	rendered, err := c.renderer.Render(entry.Content)
	if err != nil {
		log.Printf("[console] render failed: %v", err)
		fmt.Fprintln(c.out, entry.Content)
		return
	}
	fmt.Fprint(c.out, rendered)
}

func (c *Console) info(msg string) {
	fmt.Fprintln(c.out, infoStyle.Render(msg))
}

func (c *Console) showError(msg string) {
	fmt.Fprintln(c.out, errorStyle.Render("错误: "+msg))
}

// describeError picks the user-facing text for a failed turn.
func describeError(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	var streamErr *client.StreamError
	if errors.As(err, &streamErr) {
		return streamErr.Message
	}
	return "请求失败，请稍后重试"
}
