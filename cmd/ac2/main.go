// Command ac2 operates a threshold-revealing commitment objective
// backed by a local bolt store: creating one, recording pledges
// against it, and printing whichever names currently qualify for
// reveal.
package main

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	json "github.com/nikkolasg/hexjson"
	cli "github.com/urfave/cli/v2"

	aclog "github.com/XaviC-F/AC2/common/log"
	"github.com/XaviC-F/AC2/config"
	"github.com/XaviC-F/AC2/core/commit"
	"github.com/XaviC-F/AC2/core/membership"
	"github.com/XaviC-F/AC2/storage/boltstore"
)

// Automatically set through -ldflags.
var (
	version   = "dev"
	gitCommit = "none"
	buildDate = "unknown"
	log       = aclog.DefaultLogger()
)

const refreshRate = 100 * time.Millisecond

func main() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("ac2 %v (date %v, commit %v)\n", version, buildDate, gitCommit)
	}

	if err := CLI().Run(os.Args); err != nil {
		fmt.Printf("error: %+v\n", err)
		os.Exit(1)
	}
}

// CLI builds the ac2 command-line application.
func CLI() *cli.App {
	return &cli.App{
		Name:    "ac2",
		Version: version,
		Usage:   "operate a threshold-revealing commitment objective",
		Commands: []*cli.Command{
			initCmd,
			commitCmd,
			decryptCmd,
		},
	}
}

var dirFlag = &cli.StringFlag{
	Name:     "dir",
	Usage:    "working directory holding the objective's manifest.toml and ac2.db",
	Aliases:  []string{"d"},
	Required: true,
}

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "create a new objective: a manifest and an empty commitment store",
	Flags: []cli.Flag{
		dirFlag,
		&cli.StringFlag{Name: "label", Required: true},
		&cli.StringSliceFlag{Name: "name", Usage: "authorized participant name, repeatable", Required: true},
		&cli.IntFlag{Name: "min-count", Usage: "minimum quorum floor", Value: 1},
	},
	Action: func(c *cli.Context) error {
		dir := c.String(dirFlag.Name)
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}

		names := c.StringSlice("name")
		m := config.NewManifest(c.String("label"), names, c.Int("min-count"))
		if err := config.Save(filepath.Join(dir, "manifest.toml"), m); err != nil {
			return fmt.Errorf("ac2: writing manifest: %w", err)
		}

		holder := membership.New(names)
		seed := make([]byte, 32)
		if _, err := rand.Read(seed); err != nil {
			return fmt.Errorf("ac2: generating seed: %w", err)
		}

		store, err := boltstore.Open(filepath.Join(dir, boltstore.FileName), log)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Init(holder.Hashes(), m.MinCount, seed); err != nil {
			return fmt.Errorf("ac2: initializing store: %w", err)
		}

		log.Infow("objective initialized", "label", m.Label, "group_size", m.GroupSize, "min_count", m.MinCount)
		return nil
	},
}

var commitCmd = &cli.Command{
	Name:  "commit",
	Usage: "record a pledge for a participant against an objective",
	Flags: []cli.Flag{
		dirFlag,
		&cli.StringFlag{Name: "name", Required: true},
		&cli.IntFlag{Name: "threshold", Usage: "absolute threshold, or -1 to decline", Required: true},
	},
	Action: func(c *cli.Context) error {
		dir := c.String(dirFlag.Name)
		store, err := boltstore.Open(filepath.Join(dir, boltstore.FileName), log)
		if err != nil {
			return err
		}
		defer store.Close()

		enc, err := store.RehydrateEncrypter(commit.WithLogger(log))
		if err != nil {
			return fmt.Errorf("ac2: rehydrating encrypter: %w", err)
		}

		name := c.String("name")
		rec, err := enc.Commit(name, c.Int("threshold"))
		if err != nil {
			return fmt.Errorf("ac2: committing: %w", err)
		}

		if err := store.Put(membership.HashName(name), rec); err != nil {
			return fmt.Errorf("ac2: persisting commitment: %w", err)
		}

		blob, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		fmt.Println(string(blob))
		return nil
	},
}

var decryptCmd = &cli.Command{
	Name:  "decrypt",
	Usage: "print the names currently revealable for this objective",
	Flags: []cli.Flag{dirFlag},
	Action: func(c *cli.Context) error {
		dir := c.String(dirFlag.Name)
		store, err := boltstore.Open(filepath.Join(dir, boltstore.FileName), log)
		if err != nil {
			return err
		}
		defer store.Close()

		s := spinner.New(spinner.CharSets[9], refreshRate)
		s.Suffix = "  decrypting commitment log..."
		s.Start()
		dec, err := store.LoadDecrypter(commit.WithDecrypterLogger(log))
		if err != nil {
			s.Stop()
			return fmt.Errorf("ac2: loading commitments: %w", err)
		}
		names := dec.Decrypt()
		s.Stop()

		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}
