// Package cli provides the command-line interface with injectable io.Writer for testing.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/mcdonaldj/zipstore/internal/adapters/browsersvc"
	"github.com/mcdonaldj/zipstore/internal/adapters/osfs"
	"github.com/mcdonaldj/zipstore/internal/adapters/ziparchiver"
	"github.com/mcdonaldj/zipstore/internal/config"
	"github.com/mcdonaldj/zipstore/internal/diff"
	"github.com/mcdonaldj/zipstore/internal/logging"
	"github.com/mcdonaldj/zipstore/internal/manifest"
	"github.com/mcdonaldj/zipstore/internal/ports"
	"github.com/mcdonaldj/zipstore/internal/store"
	"github.com/mcdonaldj/zipstore/internal/transfer"
	"github.com/mcdonaldj/zipstore/internal/tui"
)

// ConfigService provides configuration operations for the CLI.
type ConfigService interface {
	Load() (*config.Config, error)
	Save(cfg *config.Config) error
	ConfigPath() (string, error)
	DefaultConfig() (*config.Config, error)
}

// CLI represents the command-line interface with injectable dependencies.
type CLI struct {
	Out     io.Writer // Standard output
	Err     io.Writer // Standard error
	In      io.Reader // Standard input, read by put -
	Version string    // Application version
	Args    []string  // Command arguments (like os.Args)

	// Exit function for testability (defaults to os.Exit)
	Exit func(code int)

	// Injectable dependencies (nil means use defaults)
	ConfigSvc ConfigService
	FS        ports.FileSystem
	Browse    func(svc ports.BrowserService) error

	// Color functions (can be disabled for testing)
	green  func(a ...interface{}) string
	yellow func(a ...interface{}) string
	cyan   func(a ...interface{}) string
	gray   func(a ...interface{}) string
	red    func(a ...interface{}) string
}

// New creates a new CLI with default settings.
func New(version string) *CLI {
	return &CLI{
		Out:     os.Stdout,
		Err:     os.Stderr,
		In:      os.Stdin,
		Version: version,
		Args:    os.Args,
		Exit:    os.Exit,
		green:   color.New(color.FgGreen, color.Bold).SprintFunc(),
		yellow:  color.New(color.FgYellow).SprintFunc(),
		cyan:    color.New(color.FgCyan).SprintFunc(),
		gray:    color.New(color.FgHiBlack).SprintFunc(),
		red:     color.New(color.FgRed).SprintFunc(),
	}
}

// NewForTesting creates a CLI configured for testing (no colors, captured output).
func NewForTesting(out, errOut io.Writer, args []string) *CLI {
	noColor := func(a ...interface{}) string { return fmt.Sprint(a...) }
	return &CLI{
		Out:     out,
		Err:     errOut,
		In:      strings.NewReader(""),
		Version: "test",
		Args:    args,
		Exit:    func(int) {},
		green:   noColor,
		yellow:  noColor,
		cyan:    noColor,
		gray:    noColor,
		red:     noColor,
	}
}

// defaultConfigService wraps the config package functions.
type defaultConfigService struct{}

func (d *defaultConfigService) Load() (*config.Config, error)          { return config.Load() }
func (d *defaultConfigService) Save(cfg *config.Config) error          { return cfg.Save() }
func (d *defaultConfigService) ConfigPath() (string, error)            { return config.ConfigPath() }
func (d *defaultConfigService) DefaultConfig() (*config.Config, error) { return config.DefaultConfig() }

// Helper methods to get the service or default
func (c *CLI) configSvc() ConfigService {
	if c.ConfigSvc != nil {
		return c.ConfigSvc
	}
	return &defaultConfigService{}
}

func (c *CLI) fs() ports.FileSystem {
	if c.FS != nil {
		return c.FS
	}
	return osfs.New()
}

func (c *CLI) browse(svc ports.BrowserService) error {
	if c.Browse != nil {
		return c.Browse(svc)
	}
	return tui.Run(svc)
}

// fail reports an error on stderr and exits 1.
func (c *CLI) fail(format string, a ...interface{}) {
	fmt.Fprintf(c.Err, "Error: "+format+"\n", a...)
	c.Exit(1)
}

func (c *CLI) usage(line string) {
	fmt.Fprintf(c.Out, "Usage: zipstore %s\n", line)
	c.Exit(1)
}

// session carries what every archive command needs: the loaded config and
// the store options derived from it.
type session struct {
	cfg   *config.Config
	opts  []store.Option
	close func() error
}

func (c *CLI) openSession() (*session, bool) {
	cfg, err := c.configSvc().Load()
	if err != nil {
		c.fail("loading config: %v", err)
		return nil, false
	}

	obs, closeLog, err := logging.New(cfg.Log, c.Err)
	if err != nil {
		c.fail("configuring logging: %v", err)
		return nil, false
	}

	tempDir, err := config.ExpandPath(cfg.TempDir)
	if err != nil {
		_ = closeLog()
		c.fail("%v", err)
		return nil, false
	}

	opts := []store.Option{
		store.WithCodec(ziparchiver.New(ziparchiver.WithLevel(cfg.Level))),
		store.WithFileSystem(c.fs()),
		store.WithObserver(obs),
		store.WithBufferSize(cfg.BufferSize),
		store.WithTempDir(tempDir),
		store.WithTempPattern(cfg.TempPattern),
	}
	return &session{cfg: cfg, opts: opts, close: closeLog}, true
}

func (c *CLI) openArchive(sess *session, path string) (*store.Store, bool) {
	s, err := store.Open(path, sess.opts...)
	if err != nil {
		c.fail("%v", err)
		return nil, false
	}
	return s, true
}

// commit saves s back to path and records a manifest snapshot when enabled.
func (c *CLI) commit(sess *session, s *store.Store, path string) bool {
	written, err := s.Save(path)
	if err != nil {
		if errors.Is(err, store.ErrWriteAccess) {
			c.fail("%s is not writable: %v", path, err)
		} else {
			c.fail("%v", err)
		}
		return false
	}
	if sess.cfg.Manifest.Enabled {
		if _, err := manifest.Record(s, written, sess.cfg.Manifest.KeepLast); err != nil {
			c.fail("%v", err)
			return false
		}
	}
	return true
}

// splitArgs separates --flag=value arguments from positional ones.
func splitArgs(args []string) (positional []string, flags map[string]string) {
	flags = make(map[string]string)
	for _, arg := range args {
		if strings.HasPrefix(arg, "--") {
			name, value, _ := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
			flags[name] = value
			continue
		}
		positional = append(positional, arg)
	}
	return positional, flags
}

// Run executes the CLI with the configured arguments.
func (c *CLI) Run() {
	if len(c.Args) < 2 {
		fmt.Fprintln(c.Out, "No command specified. Use 'zipstore help' for usage.")
		return
	}

	switch c.Args[1] {
	case "list", "ls":
		c.ListEntries()
	case "cat":
		c.CatEntry()
	case "put":
		c.PutEntry()
	case "rm":
		c.RemoveEntry()
	case "import":
		c.ImportDir()
	case "extract":
		c.ExtractArchive()
	case "diff":
		c.DiffArchives()
	case "verify":
		c.RunVerify()
	case "browse", "ui":
		c.RunBrowse()
	case "init":
		c.InitConfig()
	case "version", "-v", "--version":
		fmt.Fprintf(c.Out, "zipstore v%s\n", c.Version)
	case "help", "-h", "--help":
		c.PrintUsage()
	default:
		fmt.Fprintf(c.Err, "Unknown command: %s\n", c.Args[1])
		c.PrintUsage()
		c.Exit(1)
	}
}

// PrintUsage prints the help message.
func (c *CLI) PrintUsage() {
	fmt.Fprintln(c.Out, `zipstore - In-memory ZIP archive editor

Usage:
  zipstore list <archive>                  List entries
  zipstore cat <archive> <entry>           Write an entry to stdout
  zipstore put <archive> <entry> <file|->  Add or replace an entry (- reads stdin)
  zipstore rm <archive> <entry>            Remove an entry
  zipstore import <archive> <dir> [--prefix=path]
                                           Add every file under dir
  zipstore extract <archive> <dir>         Write every entry under dir
  zipstore diff <archive-a> <archive-b>    Compare two archives
  zipstore verify <archive>                Check the archive against its manifest
  zipstore browse <archive>                Launch interactive browser
  zipstore init                            Create default config file
  zipstore version, -v                     Show version
  zipstore help, -h                        Show this help

Config: ~/.zipstore/config.yaml (override with ZIPSTORE_CONFIG)`)
}

// InitConfig creates the default config file.
func (c *CLI) InitConfig() {
	svc := c.configSvc()
	cfg, err := svc.DefaultConfig()
	if err != nil {
		c.fail("%v", err)
		return
	}
	if err := svc.Save(cfg); err != nil {
		c.fail("saving config: %v", err)
		return
	}
	path, err := svc.ConfigPath()
	if err != nil {
		c.fail("%v", err)
		return
	}
	fmt.Fprintf(c.Out, "Created config at %s\n", path)
}

// ListEntries lists the entries of an archive.
func (c *CLI) ListEntries() {
	if len(c.Args) < 3 {
		c.usage("list <archive>")
		return
	}
	sess, ok := c.openSession()
	if !ok {
		return
	}
	defer sess.close()

	path := c.Args[2]
	s, ok := c.openArchive(sess, path)
	if !ok {
		return
	}

	descs := s.List()
	if len(descs) == 0 {
		fmt.Fprintf(c.Out, "No entries in %s\n", path)
		return
	}

	fmt.Fprintf(c.Out, "Entries in %s:\n\n", c.cyan(path))
	fmt.Fprintf(c.Out, "  %-40s %10s %8s %s\n", "NAME", "SIZE", "METHOD", "MODIFIED")
	fmt.Fprintf(c.Out, "  %-40s %10s %8s %s\n", "----", "----", "------", "--------")

	var total int64
	for _, d := range descs {
		payload, _ := s.Get(d)
		total += int64(len(payload))
		method := "deflate"
		if d.Method == ports.MethodStore {
			method = "store"
		}
		modified := c.gray("-")
		if !d.Modified.IsZero() {
			modified = d.Modified.Local().Format("2006-01-02 15:04")
		}
		fmt.Fprintf(c.Out, "  %-40s %10s %8s %s\n",
			d.Name, transfer.FormatSize(int64(len(payload))), method, modified)
	}

	fmt.Fprintf(c.Out, "\n%d entries, %s\n", len(descs), c.yellow(transfer.FormatSize(total)))
}

// CatEntry writes one entry's payload to stdout.
func (c *CLI) CatEntry() {
	if len(c.Args) < 4 {
		c.usage("cat <archive> <entry>")
		return
	}
	sess, ok := c.openSession()
	if !ok {
		return
	}
	defer sess.close()

	s, ok := c.openArchive(sess, c.Args[2])
	if !ok {
		return
	}

	payload, found := s.Get(ports.Descriptor{Name: c.Args[3]})
	if !found {
		c.fail("entry not found: %s", c.Args[3])
		return
	}
	_, _ = c.Out.Write(payload)
}

// PutEntry adds or replaces an entry from a file or stdin.
func (c *CLI) PutEntry() {
	if len(c.Args) < 5 {
		c.usage("put <archive> <entry> <file|->")
		return
	}
	sess, ok := c.openSession()
	if !ok {
		return
	}
	defer sess.close()

	path, name, src := c.Args[2], c.Args[3], c.Args[4]
	if name == "" {
		c.fail("entry name must not be empty")
		return
	}

	var payload []byte
	var err error
	if src == "-" {
		payload, err = io.ReadAll(c.In)
	} else {
		payload, err = c.fs().ReadFile(src)
	}
	if err != nil {
		c.fail("reading %s: %v", src, err)
		return
	}

	s, ok := c.openArchive(sess, path)
	if !ok {
		return
	}

	d := ports.NewDescriptor(name)
	d.Method = sess.cfg.Method()
	_, replaced := s.Get(d)
	s.Put(d, payload)

	if !c.commit(sess, s, path) {
		return
	}

	verb := "Added"
	if replaced {
		verb = "Replaced"
	}
	fmt.Fprintf(c.Out, "%s %s %s %s\n", c.green("*"), verb, name, c.yellow(transfer.FormatSize(int64(len(payload)))))
}

// RemoveEntry removes an entry.
func (c *CLI) RemoveEntry() {
	if len(c.Args) < 4 {
		c.usage("rm <archive> <entry>")
		return
	}
	sess, ok := c.openSession()
	if !ok {
		return
	}
	defer sess.close()

	path, name := c.Args[2], c.Args[3]
	s, ok := c.openArchive(sess, path)
	if !ok {
		return
	}

	d := ports.Descriptor{Name: name}
	if _, found := s.Get(d); !found {
		c.fail("entry not found: %s", name)
		return
	}
	s.Remove(d)

	if !c.commit(sess, s, path) {
		return
	}
	fmt.Fprintf(c.Out, "%s Removed %s\n", c.yellow("-"), name)
}

// ImportDir adds every file of a directory to an archive.
func (c *CLI) ImportDir() {
	positional, flags := splitArgs(c.Args[2:])
	if len(positional) < 2 {
		c.usage("import <archive> <dir> [--prefix=path]")
		return
	}
	sess, ok := c.openSession()
	if !ok {
		return
	}
	defer sess.close()

	path, dir := positional[0], positional[1]
	s, ok := c.openArchive(sess, path)
	if !ok {
		return
	}

	fmt.Fprintf(c.Out, "%s Importing %s...\n", c.cyan("=>"), dir)
	res, err := transfer.Import(s, c.fs(), dir, transfer.ImportOptions{
		Prefix:  flags["prefix"],
		Exclude: sess.cfg.Exclude,
		Skip:    []string{path, manifest.ManifestPath(path)},
		Method:  sess.cfg.Method(),
	})
	if err != nil {
		c.fail("%v", err)
		return
	}

	for _, p := range res.Skipped {
		fmt.Fprintf(c.Out, "  %s %s\n", c.gray("-"), c.gray(p+" (unreadable)"))
	}

	if !c.commit(sess, s, path) {
		return
	}

	fmt.Fprintf(c.Out, "Done: %s files, %s",
		c.green(fmt.Sprintf("%d", res.Count)),
		c.yellow(transfer.FormatSize(res.Bytes)))
	if len(res.Skipped) > 0 {
		fmt.Fprintf(c.Out, ", %s skipped", c.red(fmt.Sprintf("%d", len(res.Skipped))))
	}
	fmt.Fprintln(c.Out)
}

// ExtractArchive writes every entry of an archive into a directory.
func (c *CLI) ExtractArchive() {
	if len(c.Args) < 4 {
		c.usage("extract <archive> <dir>")
		return
	}
	sess, ok := c.openSession()
	if !ok {
		return
	}
	defer sess.close()

	path, dir := c.Args[2], c.Args[3]
	if !c.fs().Exists(path) {
		c.fail("archive not found: %s", path)
		return
	}
	s, ok := c.openArchive(sess, path)
	if !ok {
		return
	}

	res, err := transfer.Export(s, c.fs(), dir)
	if err != nil {
		c.fail("%v", err)
		return
	}
	fmt.Fprintf(c.Out, "%s Extracted %d files (%s) to %s\n",
		c.green("*"), res.Count, transfer.FormatSize(res.Bytes), dir)
}

// DiffArchives compares the entries of two archives.
func (c *CLI) DiffArchives() {
	if len(c.Args) < 4 {
		c.usage("diff <archive-a> <archive-b>")
		return
	}
	sess, ok := c.openSession()
	if !ok {
		return
	}
	defer sess.close()

	before, ok := c.openArchive(sess, c.Args[2])
	if !ok {
		return
	}
	after, ok := c.openArchive(sess, c.Args[3])
	if !ok {
		return
	}

	result := diff.Compare(before, after)
	if result.Empty() {
		fmt.Fprintln(c.Out, "No differences")
		return
	}

	for _, ch := range result.Changes {
		var status string
		switch ch.Status {
		case 'M':
			status = c.yellow("M")
		case 'A':
			status = c.green("A")
		case 'D':
			status = c.red("D")
		}
		fmt.Fprintf(c.Out, "  %s %s\n", status, ch.Path)
	}
	fmt.Fprintf(c.Out, "\nModified: %d   Added: %d   Deleted: %d\n",
		result.Modified, result.Added, result.Deleted)
}

// RunVerify checks the archive against the latest manifest snapshot and
// confirms that it still decodes.
func (c *CLI) RunVerify() {
	if len(c.Args) < 3 {
		c.usage("verify <archive>")
		return
	}
	sess, ok := c.openSession()
	if !ok {
		return
	}
	defer sess.close()

	path := c.Args[2]
	m, err := manifest.Load(path)
	if err != nil {
		c.fail("%v", err)
		return
	}
	latest := m.Latest()
	if latest == nil {
		c.fail("no manifest snapshots for %s", path)
		return
	}
	if err := latest.Verify(path); err != nil {
		fmt.Fprintf(c.Err, "Verification failed: %v\n", err)
		c.Exit(1)
		return
	}

	s, ok := c.openArchive(sess, path)
	if !ok {
		return
	}
	if s.Len() != latest.EntryCount {
		fmt.Fprintf(c.Err, "Verification failed: %d entries decoded, manifest records %d\n", s.Len(), latest.EntryCount)
		c.Exit(1)
		return
	}

	fmt.Fprintf(c.Out, "%s Checksum verified for %s (%d entries)\n", c.green("*"), path, s.Len())
}

// RunBrowse launches the interactive browser.
func (c *CLI) RunBrowse() {
	if len(c.Args) < 3 {
		c.usage("browse <archive>")
		return
	}
	sess, ok := c.openSession()
	if !ok {
		return
	}
	defer sess.close()

	svc, err := browsersvc.New(c.Args[2], browsersvc.Options{
		Store:    sess.opts,
		Manifest: sess.cfg.Manifest.Enabled,
		KeepLast: sess.cfg.Manifest.KeepLast,
	})
	if err != nil {
		c.fail("%v", err)
		return
	}
	if err := c.browse(svc); err != nil {
		c.fail("%v", err)
	}
}
