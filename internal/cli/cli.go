// Package cli implements the markmeta command line tool: small
// inspect-and-edit operations over front-matter documents and the
// document store.
package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/markmeta/pkg/docstore"
	"github.com/calvinalkan/markmeta/pkg/document"
	"github.com/calvinalkan/markmeta/pkg/structval"
)

// IO bundles the writers a command prints to.
type IO struct {
	Out io.Writer
	Err io.Writer
}

// Println writes to standard output.
func (o *IO) Println(args ...any) {
	_, _ = fmt.Fprintln(o.Out, args...)
}

// Printf writes formatted output to standard output.
func (o *IO) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.Out, format, args...)
}

// ErrPrintln writes to standard error.
func (o *IO) ErrPrintln(args ...any) {
	_, _ = fmt.Fprintln(o.Err, args...)
}

// command defines one subcommand.
type command struct {
	usage string
	short string
	exec  func(o *IO, cfg Config, fl *flag.FlagSet, args []string) error
	flags func(fl *flag.FlagSet)
}

func (c *command) name() string {
	name, _, _ := strings.Cut(c.usage, " ")

	return name
}

var commands = []*command{
	{
		usage: "init -t <title>",
		short: "Create a new document in the store",
		flags: func(fl *flag.FlagSet) {
			fl.StringP("title", "t", "", "document title (required)")
			fl.StringP("author", "a", "", "document author (default: config author)")
		},
		exec: cmdInit,
	},
	{
		usage: "show <file>",
		short: "Print a document's metadata",
		exec:  cmdShow,
	},
	{
		usage: "get <file> <namespace>",
		short: "Print one extension section as canonical JSON",
		exec:  cmdGet,
	},
	{
		usage: "set <file> <namespace> <json>",
		short: "Replace one extension section, preserving everything else",
		exec:  cmdSet,
	},
	{
		usage: "ls",
		short: "List documents in the store",
		flags: func(fl *flag.FlagSet) {
			fl.String("author", "", "only documents by this author")
		},
		exec: cmdLs,
	},
}

// Run executes the CLI and returns the process exit code.
func Run(stdout, stderr io.Writer, args []string, env map[string]string) int {
	o := &IO{Out: stdout, Err: stderr}

	if len(args) < 2 {
		printUsage(o)

		return 1
	}

	name := args[1]
	if name == "help" || name == "--help" || name == "-h" {
		printUsage(o)

		return 0
	}

	var cmd *command

	for _, c := range commands {
		if c.name() == name {
			cmd = c

			break
		}
	}

	if cmd == nil {
		o.ErrPrintln("error: unknown command", name)
		printUsage(o)

		return 1
	}

	workDir, err := os.Getwd()
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	cfg, err := LoadConfig(workDir, env)
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	fl := flag.NewFlagSet(cmd.name(), flag.ContinueOnError)
	fl.SetOutput(io.Discard)
	fl.String("dir", "", "document store directory (default: config documents_dir)")

	if cmd.flags != nil {
		cmd.flags(fl)
	}

	err = fl.Parse(args[2:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			o.Println("Usage: markmeta", cmd.usage)

			return 0
		}

		o.ErrPrintln("error:", err)

		return 1
	}

	if dir, _ := fl.GetString("dir"); dir != "" {
		cfg.DocumentsDir = dir
	}

	err = cmd.exec(o, cfg, fl, fl.Args())
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	return 0
}

func printUsage(o *IO) {
	o.Println("Usage: markmeta <command> [flags]")
	o.Println()
	o.Println("Commands:")

	for _, c := range commands {
		o.Printf("  %-32s %s\n", c.usage, c.short)
	}
}

func cmdInit(o *IO, cfg Config, fl *flag.FlagSet, _ []string) error {
	title, _ := fl.GetString("title")
	if title == "" {
		return errors.New("init: --title is required")
	}

	author, _ := fl.GetString("author")
	if author == "" {
		author = cfg.Author
	}

	if author == "" {
		return errors.New("init: no author given and none configured")
	}

	rec := &document.Record{
		Title:   title,
		Author:  author,
		Created: time.Now().UTC().Truncate(time.Second),
	}

	store := docstore.New(cfg.DocumentsDir)
	id := docstore.NewID()

	path, err := store.Write(id, rec, []byte("# "+title+"\n"))
	if err != nil {
		return err
	}

	o.Println(path)

	return nil
}

func cmdShow(o *IO, _ Config, _ *flag.FlagSet, args []string) error {
	if len(args) != 1 {
		return errors.New("show: expected exactly one file argument")
	}

	rec, _, err := readDocument(args[0])
	if err != nil {
		return err
	}

	o.Println("title:   ", rec.Title)
	o.Println("author:  ", rec.Author)
	o.Println("created: ", rec.Created.UTC().Format(time.RFC3339))

	if !rec.Modified.IsZero() {
		o.Println("modified:", rec.Modified.UTC().Format(time.RFC3339))
	}

	if rec.Revision != 0 {
		o.Println("revision:", rec.Revision)
	}

	if len(rec.Tags) > 0 {
		o.Println("tags:    ", strings.Join(rec.Tags, ", "))
	}

	if len(rec.Extensions) > 0 {
		keys := make([]string, 0, len(rec.Extensions))
		for key := range rec.Extensions {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		o.Println("extensions:", strings.Join(keys, ", "))
	}

	return nil
}

func cmdGet(o *IO, _ Config, _ *flag.FlagSet, args []string) error {
	if len(args) != 2 {
		return errors.New("get: expected <file> <namespace>")
	}

	rec, _, err := readDocument(args[0])
	if err != nil {
		return err
	}

	val, ok := rec.Extensions[args[1]]
	if !ok {
		return fmt.Errorf("get: no extension %q", args[1])
	}

	o.Println(val.String())

	return nil
}

func cmdSet(o *IO, _ Config, _ *flag.FlagSet, args []string) error {
	if len(args) != 3 {
		return errors.New("set: expected <file> <namespace> <json>")
	}

	path, namespace := args[0], args[1]
	if document.IsCoreField(namespace) {
		return fmt.Errorf("set: %q is a core field, not an extension namespace", namespace)
	}

	val, err := structval.DecodeCanonical([]byte(args[2]))
	if err != nil {
		return fmt.Errorf("set: %w", err)
	}

	rec, body, err := readDocument(path)
	if err != nil {
		return err
	}

	if rec.Extensions == nil {
		rec.Extensions = make(map[string]structval.Value)
	}

	rec.Extensions[namespace] = val

	data, err := document.Encode(rec, body)
	if err != nil {
		return err
	}

	writeErr := atomic.WriteFile(path, bytes.NewReader(data))
	if writeErr != nil {
		return fmt.Errorf("writing document: %w", writeErr)
	}

	o.Println("updated", namespace, "in", path)

	return nil
}

func cmdLs(o *IO, cfg Config, fl *flag.FlagSet, _ []string) error {
	store := docstore.New(cfg.DocumentsDir)

	results, err := store.List(o.Err)
	if err != nil {
		return err
	}

	authorFilter, _ := fl.GetString("author")

	for _, result := range results {
		if result.Err != nil {
			continue
		}

		sum := result.Summary
		if authorFilter != "" && sum.Author != authorFilter {
			continue
		}

		o.Printf("%s\t%s\t%s\n", sum.ID, sum.Author, sum.Title)
	}

	return nil
}

func readDocument(path string) (*document.Record, []byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		return nil, nil, fmt.Errorf("reading document: %w", err)
	}

	return document.Decode(data)
}
