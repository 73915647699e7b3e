// Command discograf is the admin command line for the music catalog: login,
// artist/album/regional management, cover uploads and live change
// notifications.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/discograf/discograf/bridge"
	"github.com/discograf/discograf/bus"
	"github.com/discograf/discograf/catalog"
	"github.com/discograf/discograf/config"
	"github.com/discograf/discograf/gateway"
	"github.com/discograf/discograf/log"
	"github.com/discograf/discograf/notify"
	"github.com/discograf/discograf/session"
)

const usage = `Usage: discograf [-config dir] <command> [arguments]

Commands:
  login -u <username> -p <password>   establish a session
  logout                              clear the session
  whoami                              show the current identity
  health                              probe the API health endpoint
  artists <subcommand>                manage artists
  albums <subcommand>                 manage albums
  covers <subcommand>                 manage album covers
  regionais <subcommand>              list and sync regionals
  watch                               stream live change notifications
`

type app struct {
	cfg      *config.Config
	store    *session.Store
	gw       *gateway.Client
	auth     *catalog.AuthService
	artists  *catalog.ArtistService
	albums   *catalog.AlbumService
	regional *catalog.RegionalService
}

func main() {
	flags := flag.NewFlagSet("discograf", flag.ExitOnError)
	configDir := flags.String("config", "", "directory holding discograf.yaml")
	flags.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flags.Parse(os.Args[1:])

	args := flags.Args()
	if len(args) == 0 {
		flags.Usage()
		os.Exit(2)
	}

	a, err := setup(*configDir)
	if err != nil {
		log.Error().Err(err).Msg("startup failed")
		os.Exit(1)
	}

	ctx := context.Background()
	if err := a.run(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup(configDir string) (*app, error) {
	paths := []string{"."}
	if configDir != "" {
		paths = []string{configDir}
	}
	if userDir, err := os.UserConfigDir(); err == nil {
		paths = append(paths, filepath.Join(userDir, "discograf"))
	}

	cfg, err := config.NewLoader("discograf.yaml", paths).Load()
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if cfg.Log.ToFile {
		logger, err := log.NewFile(cfg.Log.File, log.WithLevel(level))
		if err != nil {
			return nil, err
		}
		log.SetGlobalLogger(logger)
	} else {
		log.SetGlobalLevel(level)
	}

	storage, err := session.NewFileStorage(cfg.Session.Dir)
	if err != nil {
		return nil, err
	}
	store := session.NewStore(session.WithStorage(storage))

	gw := gateway.New(cfg.API.BaseURL, store,
		gateway.WithTimeout(timeout(cfg.API.Timeout)),
		gateway.WithSessionExpiredHandler(func() {
			fmt.Fprintln(os.Stderr, "Session expired. Run `discograf login` again.")
		}),
	)

	return &app{
		cfg:      cfg,
		store:    store,
		gw:       gw,
		auth:     catalog.NewAuthService(gw),
		artists:  catalog.NewArtistService(gw),
		albums:   catalog.NewAlbumService(gw),
		regional: catalog.NewRegionalService(gw),
	}, nil
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		a.store.Logout()
		fmt.Println("Logged out.")
		return nil
	case "whoami":
		return a.cmdWhoami()
	case "health":
		return a.cmdHealth(ctx)
	case "artists":
		return a.cmdArtists(ctx, args)
	case "albums":
		return a.cmdAlbums(ctx, args)
	case "covers":
		return a.cmdCovers(ctx, args)
	case "regionais":
		return a.cmdRegionals(ctx, args)
	case "watch":
		return a.cmdWatch()
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("login", flag.ExitOnError)
	username := flags.String("u", "", "username")
	password := flags.String("p", "", "password")
	flags.Parse(args)

	resp, err := a.auth.Login(ctx, catalog.LoginRequest{
		Username: *username,
		Password: *password,
	})
	if err != nil {
		return err
	}

	a.store.Login(resp.AccessToken, resp.RefreshToken)
	if !a.store.Authenticated() {
		return fmt.Errorf("server returned an unusable token")
	}

	fmt.Printf("Logged in as %s.\n", a.store.User().Username)
	return nil
}

func (a *app) cmdWhoami() error {
	user := a.store.User()
	if user == nil || !a.store.Authenticated() {
		fmt.Println("Not logged in.")
		return nil
	}

	fmt.Printf("Username: %s\n", user.Username)
	if a.store.IsTokenExpired() {
		fmt.Println("Token: expired (will refresh on next request)")
	} else {
		fmt.Println("Token: valid")
	}
	return nil
}

func (a *app) cmdHealth(ctx context.Context) error {
	health, err := a.auth.Health(ctx)
	if err != nil {
		return err
	}
	fmt.Println("Status:", health.Status)
	return nil
}

func (a *app) cmdArtists(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("artists: missing subcommand (list|get|search|bands|solo|create|update|delete)")
	}

	switch sub, rest := args[0], args[1:]; sub {
	case "list":
		artists, err := a.artists.List(ctx)
		if err != nil {
			return err
		}
		return printArtists(artists)
	case "bands":
		artists, err := a.artists.Bands(ctx)
		if err != nil {
			return err
		}
		return printArtists(artists)
	case "solo":
		artists, err := a.artists.Solo(ctx)
		if err != nil {
			return err
		}
		return printArtists(artists)
	case "search":
		if len(rest) == 0 {
			return fmt.Errorf("artists search: missing name")
		}
		artists, err := a.artists.Search(ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		return printArtists(artists)
	case "get":
		id, err := argID(rest)
		if err != nil {
			return err
		}
		artist, err := a.artists.Get(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(artist)
	case "create":
		flags := flag.NewFlagSet("artists create", flag.ExitOnError)
		name := flags.String("name", "", "artist name")
		band := flags.Bool("band", false, "the artist is a band")
		flags.Parse(rest)

		artist, err := a.artists.Create(ctx, catalog.ArtistRequest{Name: *name, IsBand: *band})
		if err != nil {
			return err
		}
		fmt.Printf("Created artist %d.\n", artist.ID)
		return nil
	case "update":
		id, err := argID(rest)
		if err != nil {
			return err
		}
		flags := flag.NewFlagSet("artists update", flag.ExitOnError)
		name := flags.String("name", "", "artist name")
		band := flags.Bool("band", false, "the artist is a band")
		flags.Parse(rest[1:])

		if _, err := a.artists.Update(ctx, id, catalog.ArtistRequest{Name: *name, IsBand: *band}); err != nil {
			return err
		}
		fmt.Printf("Updated artist %d.\n", id)
		return nil
	case "delete":
		id, err := argID(rest)
		if err != nil {
			return err
		}
		if err := a.artists.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Deleted artist %d.\n", id)
		return nil
	default:
		return fmt.Errorf("artists: unknown subcommand %q", sub)
	}
}

func (a *app) cmdAlbums(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("albums: missing subcommand (list|get|search|year|bands|solo|create|update|delete)")
	}

	switch sub, rest := args[0], args[1:]; sub {
	case "list":
		albums, err := a.albums.List(ctx)
		if err != nil {
			return err
		}
		return printAlbums(albums)
	case "search":
		if len(rest) == 0 {
			return fmt.Errorf("albums search: missing title")
		}
		albums, err := a.albums.Search(ctx, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		return printAlbums(albums)
	case "year":
		if len(rest) == 0 {
			return fmt.Errorf("albums year: missing year")
		}
		year, err := strconv.Atoi(rest[0])
		if err != nil {
			return fmt.Errorf("albums year: invalid year %q", rest[0])
		}
		albums, err := a.albums.ByYear(ctx, year)
		if err != nil {
			return err
		}
		return printAlbums(albums)
	case "bands", "solo":
		page, err := pageArgs(rest)
		if err != nil {
			return err
		}
		var result *catalog.Page[catalog.Album]
		if sub == "bands" {
			result, err = a.albums.BandAlbums(ctx, page)
		} else {
			result, err = a.albums.SoloAlbums(ctx, page)
		}
		if err != nil {
			return err
		}
		if err := printAlbums(result.Content); err != nil {
			return err
		}
		fmt.Printf("Page %d of %d (%d total)\n", result.Page+1, result.TotalPages, result.TotalElements)
		return nil
	case "get":
		id, err := argID(rest)
		if err != nil {
			return err
		}
		album, err := a.albums.Get(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(album)
	case "create":
		req, err := albumFlags(rest)
		if err != nil {
			return err
		}
		album, err := a.albums.Create(ctx, *req)
		if err != nil {
			return err
		}
		fmt.Printf("Created album %d.\n", album.ID)
		return nil
	case "update":
		id, err := argID(rest)
		if err != nil {
			return err
		}
		req, err := albumFlags(rest[1:])
		if err != nil {
			return err
		}
		if _, err := a.albums.Update(ctx, id, *req); err != nil {
			return err
		}
		fmt.Printf("Updated album %d.\n", id)
		return nil
	case "delete":
		id, err := argID(rest)
		if err != nil {
			return err
		}
		if err := a.albums.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Deleted album %d.\n", id)
		return nil
	default:
		return fmt.Errorf("albums: unknown subcommand %q", sub)
	}
}

func (a *app) cmdCovers(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("covers: missing subcommand (list|upload|delete)")
	}

	switch sub, rest := args[0], args[1:]; sub {
	case "list":
		albumID, err := argID(rest)
		if err != nil {
			return err
		}
		covers, err := a.albums.Covers(ctx, albumID)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tFILE\tSIZE\tURL")
		for _, c := range covers {
			fmt.Fprintf(w, "%d\t%s\t%d\t%s\n", c.ID, c.FileName, c.FileSize, c.ImageURL)
		}
		return w.Flush()
	case "upload":
		if len(rest) < 2 {
			return fmt.Errorf("covers upload: need <albumId> <file>")
		}
		albumID, err := argID(rest)
		if err != nil {
			return err
		}
		file, err := os.Open(rest[1])
		if err != nil {
			return err
		}
		defer file.Close()

		cover, err := a.albums.UploadCover(ctx, albumID, filepath.Base(rest[1]), file)
		if err != nil {
			return err
		}
		fmt.Printf("Uploaded cover %d: %s\n", cover.ID, cover.ImageURL)
		return nil
	case "delete":
		if len(rest) < 2 {
			return fmt.Errorf("covers delete: need <albumId> <coverId>")
		}
		albumID, err := argID(rest)
		if err != nil {
			return err
		}
		coverID, err := strconv.ParseInt(rest[1], 10, 64)
		if err != nil {
			return fmt.Errorf("covers delete: invalid cover id %q", rest[1])
		}
		if err := a.albums.DeleteCover(ctx, albumID, coverID); err != nil {
			return err
		}
		fmt.Printf("Deleted cover %d.\n", coverID)
		return nil
	default:
		return fmt.Errorf("covers: unknown subcommand %q", sub)
	}
}

func (a *app) cmdRegionals(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("regionais: missing subcommand (list|sync)")
	}

	switch args[0] {
	case "list":
		regionals, err := a.regional.List(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tACTIVE")
		for _, r := range regionals {
			fmt.Fprintf(w, "%d\t%s\t%t\n", r.ID, r.Name, r.Active)
		}
		return w.Flush()
	case "sync":
		result, err := a.regional.Sync(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d new, %d updated, %d disabled (%d total)\n",
			result.Message, result.Created, result.Updated, result.Disabled, result.Total)
		return nil
	default:
		return fmt.Errorf("regionais: unknown subcommand %q", args[0])
	}
}

// cmdWatch holds the notification connection open and renders incoming events
// as console toasts until interrupted
func (a *app) cmdWatch() error {
	if !a.store.Authenticated() {
		return fmt.Errorf("not logged in")
	}

	eventBus := bus.New()
	b := bridge.New(a.cfg.Bridge.URL, notify.NewConsoleNotifier(os.Stdout), eventBus)

	b.Connect()
	defer b.Disconnect()

	fmt.Println("Watching for changes. Press Ctrl-C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	return nil
}

func argID(args []string) (int64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}

func pageArgs(args []string) (catalog.PageRequest, error) {
	flags := flag.NewFlagSet("page", flag.ExitOnError)
	page := flags.Int("page", 0, "page number, starting at 0")
	size := flags.Int("size", 20, "page size")
	flags.Parse(args)

	return catalog.PageRequest{Page: *page, Size: *size}, nil
}

func albumFlags(args []string) (*catalog.AlbumRequest, error) {
	flags := flag.NewFlagSet("album", flag.ExitOnError)
	title := flags.String("title", "", "album title")
	year := flags.Int("year", 0, "release year")
	artists := flags.String("artists", "", "comma-separated artist ids")
	flags.Parse(args)

	var ids []int64
	for _, part := range strings.Split(*artists, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid artist id %q", part)
		}
		ids = append(ids, id)
	}

	return &catalog.AlbumRequest{Title: *title, ReleaseYear: *year, ArtistIDs: ids}, nil
}

func printArtists(artists []catalog.Artist) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tBAND\tALBUMS")
	for _, a := range artists {
		fmt.Fprintf(w, "%d\t%s\t%t\t%d\n", a.ID, a.Name, a.IsBand, a.AlbumCount)
	}
	return w.Flush()
}

func printAlbums(albums []catalog.Album) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tYEAR\tARTISTS\tCOVERS")
	for _, a := range albums {
		names := make([]string, 0, len(a.Artists))
		for _, artist := range a.Artists {
			names = append(names, artist.Name)
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%d\n", a.ID, a.Title, a.ReleaseYear,
			strings.Join(names, ", "), len(a.Covers))
	}
	return w.Flush()
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func timeout(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}
