// Command pokedex manages a saved-pokemon collection from the terminal.
//
// USAGE:
//
//	pokedex -user ID [-email E -name N -picture URL] list
//	pokedex -user ID add 25
//	pokedex -user ID remove 25
//	pokedex model 25
//	pokedex species 25
//
// -api points at the server's /api root (POKEDEX_API, default
// http://localhost:8080/api). -token sends a session token instead of
// relying on -user.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/pokedex/internal/client"
	"github.com/sakif/pokedex/internal/model"
)

type options struct {
	api     string
	user    string
	token   string
	profile model.Profile
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	opts, args, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, os.Stdout, opts, args); err != nil {
		logger.Error("command failed", slog.String("command", strings.Join(args, " ")), slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseArgs(argv []string) (options, []string, error) {
	var o options
	fs := flag.NewFlagSet("pokedex", flag.ContinueOnError)
	fs.StringVar(&o.api, "api", envOr("POKEDEX_API", client.DefaultBaseURL), "API root URL")
	fs.StringVar(&o.user, "user", os.Getenv("POKEDEX_USER"), "user id")
	fs.StringVar(&o.token, "token", os.Getenv("POKEDEX_TOKEN"), "session token (Bearer)")
	fs.StringVar(&o.profile.Email, "email", "", "email, required on the first save")
	fs.StringVar(&o.profile.Name, "name", "", "display name, required on the first save")
	fs.StringVar(&o.profile.Picture, "picture", "", "avatar URL")
	if err := fs.Parse(argv); err != nil {
		return o, nil, err
	}
	if fs.NArg() == 0 {
		return o, nil, errors.New("usage: pokedex [flags] list|add N|remove N|model N|species N")
	}
	return o, fs.Args(), nil
}

func run(ctx context.Context, out io.Writer, o options, args []string) error {
	var copts []client.Option
	if o.token != "" {
		copts = append(copts, client.WithToken(o.token))
	}
	api := client.New(o.api, copts...)

	cmd := args[0]
	switch cmd {
	case "list":
		saved, err := api.List(ctx, o.user)
		if err != nil {
			return err
		}
		if len(saved) == 0 {
			fmt.Fprintln(out, "no saved pokemon")
			return nil
		}
		for _, p := range saved {
			fmt.Fprintf(out, "#%-4d saved %s\n", p.PokemonID, p.AddedAt.Local().Format(time.DateTime))
		}
		return nil

	case "add", "remove":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		coll := client.NewCollection(api, o.user, o.profile)
		if err := coll.Hydrate(ctx); err != nil {
			return err
		}
		if cmd == "add" {
			res, err := coll.Add(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, res.Message)
		} else {
			msg, err := coll.Remove(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, msg)
		}
		fmt.Fprintf(out, "collection: %v\n", coll.IDs())
		return nil

	case "model":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		res, err := api.Model(ctx, id)
		if err != nil {
			return err
		}
		if !res.FileExists {
			fmt.Fprintf(out, "#%d: %s (expected %s)\n", id, res.Error, res.ModelPath)
			return nil
		}
		fmt.Fprintf(out, "#%d: %s [%s, %s]\n", id, res.URL, res.ModelType, res.StorageType)
		return nil

	case "species":
		id, err := idArg(args)
		if err != nil {
			return err
		}
		s, err := api.Species(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "#%d %s / %s (%s)\n", s.ID, s.NameEn, s.NameKo, s.Category)
		fmt.Fprintf(out, "  types:   %s\n", strings.Join(s.Types, ", "))
		fmt.Fprintf(out, "  height:  %s  weight: %s\n", s.Height, s.Weight)
		fmt.Fprintf(out, "  ability: %s  gender: %s\n", s.Ability, s.Gender)
		if s.Description != "" {
			fmt.Fprintf(out, "  %s\n", s.Description)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func idArg(args []string) (int, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s needs a pokemon id", args[0])
	}
	id, err := strconv.Atoi(args[1])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid pokemon id %q", args[1])
	}
	return id, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
