package pkg

import (
	"context"
	"os"

	"github.com/urfave/cli"
	"golang.org/x/xerrors"

	"github.com/AlexTiTanium/worm-scan/pkg/advisory"
	"github.com/AlexTiTanium/worm-scan/pkg/config"
	"github.com/AlexTiTanium/worm-scan/pkg/ecosystem"
	"github.com/AlexTiTanium/worm-scan/pkg/feed"
	"github.com/AlexTiTanium/worm-scan/pkg/log"
	"github.com/AlexTiTanium/worm-scan/pkg/npm"
	"github.com/AlexTiTanium/worm-scan/pkg/report"
	"github.com/AlexTiTanium/worm-scan/pkg/scanner"
	"github.com/AlexTiTanium/worm-scan/pkg/utils"
)

const defaultFeedURL = "https://raw.githubusercontent.com/AlexTiTanium/worm-scan-feed/main/malicious-packages.json"

func scan(c *cli.Context) error {
	ctx := context.Background()

	dir := c.String("dir")
	if c.NArg() > 0 {
		dir = c.Args().First()
	}

	cfg, err := config.LoadDir(dir)
	if err != nil {
		return xerrors.Errorf("config error: %w", err)
	}

	feedSrc := firstNonEmpty(explicitString(c, "feed"), cfg.Feed, defaultFeedURL)
	eco := ecosystem.Type(firstNonEmpty(explicitString(c, "ecosystem"), cfg.Ecosystem, ecosystem.Npm.String()))
	cacheDir := firstNonEmpty(explicitString(c, "cache-dir"), cfg.CacheDir, utils.CacheDir())
	threshold := resolveThreshold(c, cfg)

	var opts []feed.Option
	if c.Bool("skip-cache") {
		opts = append(opts, feed.SkipCache())
	}
	if c.Bool("quiet") {
		opts = append(opts, feed.Quiet())
	}
	if cache, err := feed.OpenCache(cacheDir); err != nil {
		log.Warn("feed cache unavailable, fetching without it", log.Err(err))
	} else {
		defer cache.Close()
		opts = append(opts, feed.WithCache(cache))
	}
	client := feed.NewClient(opts...)

	// The feed fetch and the npm subprocess are independent; run them
	// concurrently and join before the core runs.
	type feedResult struct {
		value any
		err   error
	}
	feedCh := make(chan feedResult, 1)
	go func() {
		v, err := client.Fetch(ctx, feedSrc)
		feedCh <- feedResult{value: v, err: err}
	}()

	root, treeErr := npm.Tree(ctx, dir)
	fr := <-feedCh

	if fr.err != nil {
		return xerrors.Errorf("advisory feed error: %w", fr.err)
	}
	if treeErr != nil {
		return xerrors.Errorf("dependency tree error: %w", treeErr)
	}

	advisories := advisory.Normalize(fr.value, eco)
	installed := npm.Flatten(root)
	findings := scanner.Match(installed, advisories, threshold)
	summary := scanner.Stats(installed, advisories)

	noColor := c.Bool("no-color") || os.Getenv("NO_COLOR") != ""
	w := report.New(c.App.Writer, c.String("format"), noColor)
	if err := w.Write(findings, summary); err != nil {
		return xerrors.Errorf("report error: %w", err)
	}

	if code := report.ExitCode(findings); code != 0 {
		return cli.NewExitError("", code)
	}
	return nil
}

// resolveThreshold picks the patch-distance threshold: an explicit flag
// wins, then the config file, then the default. Negative values fall back
// to the default inside the matcher.
func resolveThreshold(c *cli.Context, cfg config.Config) int {
	if c.IsSet("threshold") {
		return c.Int("threshold")
	}
	if cfg.Threshold >= 0 {
		return cfg.Threshold
	}
	return scanner.DefaultThreshold
}

// explicitString returns the flag value only when the user set it, so
// config-file values are not shadowed by flag defaults.
func explicitString(c *cli.Context, name string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
