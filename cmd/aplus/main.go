// Command aplus submits answers for grading and fetches stored documents.
//
//	aplus submit -file answer.pdf -question "What is a stack?" -answer "LIFO structure..."
//	aplus preview -id <document id> [-out path]
//	aplus download -id <document id> [-out path]
//	aplus list
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/hkao1210/A-PLUS-I/internal/apperr"
	"github.com/hkao1210/A-PLUS-I/internal/assessment"
	"github.com/hkao1210/A-PLUS-I/internal/config"
	"github.com/hkao1210/A-PLUS-I/internal/model"
	"github.com/hkao1210/A-PLUS-I/internal/preview"
	"github.com/hkao1210/A-PLUS-I/internal/transfer"
	"github.com/hkao1210/A-PLUS-I/internal/workflow"
)

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2

	previewSlot = "cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], config.Load().Client, os.Stdout, os.Stderr))
}

// globals are the flags every subcommand accepts.
type globals struct {
	apiURL  string
	timeout time.Duration
	verbose bool
}

func (g *globals) register(fs *flag.FlagSet, cfg config.ClientConfig) {
	fs.StringVar(&g.apiURL, "api", cfg.APIURL, "document store base URL")
	fs.DurationVar(&g.timeout, "timeout", cfg.Timeout, "per-request timeout (0 leaves it to the transport)")
	fs.BoolVar(&g.verbose, "v", false, "verbose logging")
}

func (g *globals) client(stderr io.Writer) (*transfer.Client, *slog.Logger, error) {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	c, err := transfer.New(g.apiURL, g.timeout, logger)
	return c, logger, err
}

func run(ctx context.Context, args []string, cfg config.ClientConfig, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return exitUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "submit":
		return runSubmit(ctx, rest, cfg, stdout, stderr)
	case "preview":
		return runFetch(ctx, "preview", rest, cfg, stdout, stderr)
	case "download":
		return runFetch(ctx, "download", rest, cfg, stdout, stderr)
	case "list":
		return runList(ctx, rest, cfg, stdout, stderr)
	case "-h", "-help", "--help", "help":
		usage(stdout)
		return exitOK
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", cmd)
		usage(stderr)
		return exitUsage
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `usage: aplus <command> [flags]

commands:
  submit    upload a student answer and grade it
  preview   fetch a stored document for display
  download  save a stored document to disk
  list      list stored documents, newest first`)
}

func runSubmit(ctx context.Context, args []string, cfg config.ClientConfig, stdout, stderr io.Writer) int {
	var g globals
	fs := flag.NewFlagSet("submit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	g.register(fs, cfg)
	file := fs.String("file", "", "student answer document (PDF or text)")
	contentType := fs.String("type", "", "media type of -file (guessed from the extension when empty)")
	question := fs.String("question", "", "question being answered")
	answer := fs.String("answer", "", "reference answer")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	client, logger, err := g.client(stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	s := workflow.NewSession()
	s, _ = workflow.SetQuestion(s, *question)
	s, _ = workflow.SetTeacherAnswer(s, *answer)
	if *file != "" {
		data, err := os.ReadFile(*file)
		if err != nil {
			fmt.Fprintln(stderr, renderFailure(fmt.Sprintf("cannot read %s: %v", *file, err)))
			return exitFail
		}
		s, err = workflow.SelectDocument(s, model.DocumentFile{
			Name:        filepath.Base(*file),
			ContentType: *contentType,
			Content:     data,
		})
		if err != nil {
			fmt.Fprintln(stderr, renderFailure(s.Message()))
			return exitUsage
		}
	}

	coord := assessment.NewCoordinator(client, client, logger)
	wf := workflow.New(coord, logger, func(tr workflow.Transition) {
		fmt.Fprintln(stdout, renderTransition(tr))
	})

	s, err = wf.Submit(ctx, s)
	if err != nil {
		fmt.Fprintln(stderr, renderFailure(s.Message()))
		if apperr.IsValidation(err) {
			return exitUsage
		}
		return exitFail
	}

	fmt.Fprintln(stdout, renderResult(s.DocumentID(), s.Result()))
	return exitOK
}

func runFetch(ctx context.Context, op string, args []string, cfg config.ClientConfig, stdout, stderr io.Writer) int {
	var g globals
	fs := flag.NewFlagSet(op, flag.ContinueOnError)
	fs.SetOutput(stderr)
	g.register(fs, cfg)
	id := fs.String("id", "", "document id")
	out := fs.String("out", "", "write the document to this path")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if strings.TrimSpace(*id) == "" {
		fmt.Fprintln(stderr, renderFailure("-id is required"))
		return exitUsage
	}

	client, logger, err := g.client(stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	if op == "download" {
		blob, err := client.FetchForDownload(ctx, model.DocumentID(*id))
		if err != nil {
			fmt.Fprintln(stderr, renderFailure(apperr.UserMessage(err)))
			return exitFail
		}
		path := *out
		if path == "" {
			path = localName(blob.Filename, model.DocumentID(*id), blob.ContentType)
		}
		if err := os.WriteFile(path, blob.Data, 0o644); err != nil {
			fmt.Fprintln(stderr, renderFailure(err.Error()))
			return exitFail
		}
		fmt.Fprintln(stdout, renderSaved(path, len(blob.Data)))
		return exitOK
	}

	mgr, err := preview.NewManager(client, logger, nil)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFail
	}
	defer mgr.Close()

	h, err := mgr.Acquire(ctx, previewSlot, model.DocumentID(*id))
	if err != nil {
		fmt.Fprintln(stderr, renderFailure(apperr.UserMessage(err)))
		return exitFail
	}
	defer h.Release()

	return writePreview(h, *out, stdout, stderr)
}

// localName picks the file name for a fetched document. The store's filename is
// reduced to its base; when that leaves nothing usable the document id is used with
// an extension derived from the content type.
func localName(filename string, id model.DocumentID, contentType string) string {
	base := filepath.Base(filename)
	switch base {
	case ".", "..", string(filepath.Separator):
	default:
		return base
	}
	name := filepath.Base(id.String())
	if name == "." || name == ".." || name == string(filepath.Separator) {
		name = "document"
	}
	return name + extensionFor(contentType)
}

func extensionFor(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	switch mt {
	case model.MediaTypePDF:
		return ".pdf"
	case model.MediaTypeText:
		return ".txt"
	}
	return ""
}

// writePreview shows text previews inline and writes anything else to a file.
func writePreview(h *preview.Handle, out string, stdout, stderr io.Writer) int {
	fmt.Fprintln(stdout, renderPreviewHeader(h))

	if out == "" && strings.HasPrefix(h.ContentType(), model.MediaTypeText) {
		if _, err := h.WriteTo(stdout); err != nil {
			fmt.Fprintln(stderr, renderFailure(err.Error()))
			return exitFail
		}
		fmt.Fprintln(stdout)
		return exitOK
	}

	if out == "" {
		out = localName(h.Filename(), h.DocumentID(), h.ContentType())
	}
	f, err := os.Create(out)
	if err != nil {
		fmt.Fprintln(stderr, renderFailure(err.Error()))
		return exitFail
	}
	n, err := h.WriteTo(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if errors.Is(err, preview.ErrReleased) {
			err = errors.New("preview was released before it could be written")
		}
		fmt.Fprintln(stderr, renderFailure(err.Error()))
		return exitFail
	}
	fmt.Fprintln(stdout, renderSaved(out, int(n)))
	return exitOK
}

func runList(ctx context.Context, args []string, cfg config.ClientConfig, stdout, stderr io.Writer) int {
	var g globals
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	fs.SetOutput(stderr)
	g.register(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	client, _, err := g.client(stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	docs, err := client.List(ctx)
	if err != nil {
		fmt.Fprintln(stderr, renderFailure(apperr.UserMessage(err)))
		return exitFail
	}
	fmt.Fprintln(stdout, renderDocuments(docs))
	return exitOK
}
