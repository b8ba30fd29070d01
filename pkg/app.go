package pkg

import (
	"github.com/urfave/cli"

	"github.com/AlexTiTanium/worm-scan/pkg/utils"
)

func NewApp(version string) *cli.App {
	app := cli.NewApp()
	app.Name = "worm-scan"
	app.Version = version
	app.ArgsUsage = "[project_dir]"

	app.Usage = "Audit npm dependency trees against a malicious-package feed"

	app.Commands = []cli.Command{
		{
			Name:   "scan",
			Usage:  "scan a project's resolved dependency tree",
			Action: scan,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "feed",
					Usage: "advisory feed URL or local file path",
				},
				cli.StringFlag{
					Name:  "dir",
					Usage: "project directory containing package.json",
					Value: ".",
				},
				cli.IntFlag{
					Name:  "threshold",
					Usage: "patch distance that still raises a warning",
					Value: 1,
				},
				cli.StringFlag{
					Name:  "ecosystem",
					Usage: "target ecosystem tag expected in the feed",
					Value: "npm",
				},
				cli.StringFlag{
					Name:  "cache-dir",
					Usage: "cache directory path",
					Value: utils.CacheDir(),
				},
				cli.BoolFlag{
					Name:  "skip-cache",
					Usage: "always refetch the advisory feed",
				},
				cli.StringFlag{
					Name:  "format",
					Usage: "output format (table, json)",
					Value: "table",
				},
				cli.BoolFlag{
					Name:  "no-color",
					Usage: "disable colored output",
				},
				cli.BoolFlag{
					Name:  "quiet",
					Usage: "suppress the progress spinner",
				},
			},
		},
	}

	return app
}
