// Command konserve is a command-line front-end for the Konserve backup
// engine. It stands in for the graphical interface: it collects a selection,
// starts operations on the engine, and polls their handles for progress.
package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/konserve-app/konserve/pkg/archive"
	"github.com/konserve-app/konserve/pkg/config"
	"github.com/konserve-app/konserve/pkg/engine"
	"github.com/konserve-app/konserve/pkg/template"
	"github.com/konserve-app/konserve/pkg/types"
)

var (
	app        = kingpin.New("konserve", "Portable backup archives that restore to their original locations.")
	configPath = app.Flag("config", "Path to YAML config file.").Default("konserve.yaml").String()

	backupCmd      = app.Command("backup", "Package paths into a new archive.")
	backupPaths    = backupCmd.Arg("paths", "Files and directories to back up.").Required().Strings()
	backupOut      = backupCmd.Flag("out", "Destination directory for the archive.").Short('o').String()
	backupCompress = backupCmd.Flag("compress", "Write a gzip-compressed archive.").Bool()
	backupTemplate = backupCmd.Flag("template", "Load additional paths from a JSON template.").String()

	restoreCmd     = app.Command("restore", "Restore an archive, fully or selectively.")
	restoreArchive = restoreCmd.Arg("archive", "Archive to restore.").Required().String()
	restoreSelect  = restoreCmd.Flag("select", "Restore only this tree path (repeatable).").Strings()

	lsCmd     = app.Command("ls", "Show the selectable contents of an archive.")
	lsArchive = lsCmd.Arg("archive", "Archive to inspect.").Required().String()

	templateCmd   = app.Command("template", "Work with selection templates.")
	templateCheck = templateCmd.Command("check", "Validate a template against this machine.")
	templatePath  = templateCheck.Arg("template", "Template file to check.").Required().String()
)

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	failMark = color.New(color.FgRed).SprintFunc()
	dirStyle = color.New(color.FgBlue, color.Bold).SprintFunc()
)

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg, err := config.Load(*configPath)
	if err != nil {
		app.Fatalf("%v", err)
	}

	log := newLogger(cfg.LogLevel)
	defer log.Sync() //nolint:errcheck

	opts := []engine.Option{engine.WithLogger(log)}
	if cfg.Compress || *backupCompress {
		opts = append(opts, engine.WithCompression())
	}
	eng := engine.New(opts...)

	poll := time.Duration(cfg.PollIntervalMS) * time.Millisecond

	switch cmd {
	case backupCmd.FullCommand():
		err = runBackup(eng, cfg, poll)
	case restoreCmd.FullCommand():
		err = runRestore(eng, poll)
	case lsCmd.FullCommand():
		err = runList(eng)
	case templateCheck.FullCommand():
		err = runTemplateCheck()
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", failMark("error:"), err)
		os.Exit(1)
	}
}

func runBackup(eng *engine.Engine, cfg config.Config, poll time.Duration) error {
	sel := types.NewSelectionSet(*backupPaths...)

	if *backupTemplate != "" {
		home, _ := os.UserHomeDir()
		valid, skipped, err := template.Load(*backupTemplate, home)
		if err != nil {
			return err
		}
		sel.Add(valid...)
		for _, p := range skipped {
			fmt.Printf("%s skipped missing path %s\n", failMark("!"), p)
		}
	}

	out := *backupOut
	if out == "" {
		out = cfg.OutputDir
	}

	h, err := eng.StartBackup(sel, out)
	if err != nil {
		return err
	}

	if err := waitForHandle(h, poll); err != nil {
		return err
	}

	fmt.Printf("%s %s\n", okMark("✔"), h.Status.Get())
	return nil
}

func runRestore(eng *engine.Engine, poll time.Duration) error {
	// The open step must finish before anything can be selected, so it
	// delivers its result over a one-shot channel rather than a polled
	// handle.
	res := <-eng.OpenArchiveForRestore(*restoreArchive)
	if res.Err != nil {
		return res.Err
	}

	var selected []string
	if len(*restoreSelect) > 0 {
		tree := res.Tree
		tree.SetChecked("", false)
		for _, p := range *restoreSelect {
			if !tree.SetChecked(p, true) {
				return fmt.Errorf("path %q is not in the archive", p)
			}
		}
		selected = tree.CollectChecked()
	}

	h := eng.StartRestore(res.ArchivePath, selected)

	if err := waitForHandle(h, poll); err != nil {
		return err
	}

	fmt.Printf("%s %s\n", okMark("✔"), h.Status.Get())
	return nil
}

func runList(eng *engine.Engine) error {
	res := <-eng.OpenArchiveForRestore(*lsArchive)
	if res.Err != nil {
		return res.Err
	}

	printTree(res.Tree, 0)
	return nil
}

func runTemplateCheck() error {
	home, _ := os.UserHomeDir()

	valid, skipped, err := template.Load(*templatePath, home)
	if err != nil {
		return err
	}

	for _, p := range valid {
		fmt.Printf("%s %s\n", okMark("✔"), p)
	}
	for _, p := range skipped {
		fmt.Printf("%s %s\n", failMark("✘"), p)
	}

	fmt.Printf("%d valid, %d skipped\n", len(valid), len(skipped))
	return nil
}

// waitForHandle polls the handle's progress on a fixed interval until the
// worker delivers its result, mirroring the original render loop.
func waitForHandle(h *engine.Handle, poll time.Duration) error {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case err := <-h.Done:
			fmt.Printf("\r100%%\n")
			return err
		case <-ticker.C:
			fmt.Printf("\r%3d%%", h.Progress.Get())
		}
	}
}

func printTree(n *archive.Node, depth int) {
	names := make([]string, 0, len(n.Children))
	for name := range n.Children {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		child := n.Children[name]
		label := name
		if !child.IsFile {
			label = dirStyle(name + "/")
		}
		fmt.Printf("%*s%s\n", depth*2, "", label)
		printTree(child, depth+1)
	}
}

func newLogger(level string) *zap.SugaredLogger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}

	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}

	return log.Sugar()
}
