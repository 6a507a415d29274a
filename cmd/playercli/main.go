// Package main provides the player CLI: a Connect RPC client for the player daemon.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/lokal/internal/api/connect"
	"github.com/osa030/lokal/internal/app/notification"
	"github.com/osa030/lokal/internal/app/playback"
	"github.com/osa030/lokal/internal/domain/queue"
	"github.com/osa030/lokal/internal/domain/track"
)

var (
	app    = kingpin.New("lokal-playercli", "lokal music player client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Player token (or set PLAYER_TOKEN env)").Envar("PLAYER_TOKEN").String()

	// status command
	statusCmd = app.Command("status", "Show the player state").Default()

	// search command
	searchCmd   = app.Command("search", "Search the catalog")
	searchQuery = searchCmd.Arg("query", "Search text").Required().Strings()
	searchPage  = searchCmd.Flag("page", "Result page (from 1)").Default("1").Int()

	// queue commands
	queueCmd       = app.Command("queue", "Edit the queue")
	queueAddCmd    = queueCmd.Command("add", "Append a catalog track")
	queueAddID     = queueAddCmd.Arg("track-id", "Catalog track ID").Required().String()
	queueRemoveCmd = queueCmd.Command("remove", "Remove the track at an index")
	queueRemoveIdx = queueRemoveCmd.Arg("index", "Queue index").Required().Int()
	queueMoveCmd   = queueCmd.Command("move", "Move a track to another index")
	queueMoveFrom  = queueMoveCmd.Arg("from", "Current index").Required().Int()
	queueMoveTo    = queueMoveCmd.Arg("to", "New index").Required().Int()
	queueClearCmd  = queueCmd.Command("clear", "Empty the queue")
	queueSelectCmd = queueCmd.Command("select", "Make a queue entry current without playing")
	queueSelectIdx = queueSelectCmd.Arg("index", "Queue index").Required().Int()

	// transport commands
	playCmd      = app.Command("play", "Play or resume; with an index, play that queue entry")
	playIndex    = playCmd.Arg("index", "Queue index").Default("-1").Int()
	playTrackCmd = app.Command("play-track", "Play a catalog track without queueing it")
	playTrackID  = playTrackCmd.Arg("track-id", "Catalog track ID").Required().String()
	pauseCmd     = app.Command("pause", "Pause playback")
	stopCmd      = app.Command("stop", "Stop playback")
	seekCmd      = app.Command("seek", "Seek within the current track")
	seekPosition = seekCmd.Arg("position", "Position, e.g. 1m30s").Required().Duration()
	nextCmd      = app.Command("next", "Skip to the next track")
	prevCmd      = app.Command("prev", "Skip to the previous track").Alias("previous")
	repeatCmd    = app.Command("repeat", "Cycle repeat mode (none, all, one)")
	shuffleCmd   = app.Command("shuffle", "Toggle shuffle")

	// download commands
	downloadCmd       = app.Command("download", "Download a catalog track")
	downloadID        = downloadCmd.Arg("track-id", "Catalog track ID").Required().String()
	deleteDownloadCmd = app.Command("delete-download", "Delete a downloaded track")
	deleteDownloadID  = deleteDownloadCmd.Arg("track-id", "Catalog track ID").Required().String()
	downloadsCmd      = app.Command("downloads", "List downloaded tracks")
	isDownloadedCmd   = app.Command("is-downloaded", "Check whether a track is downloaded")
	isDownloadedID    = isDownloadedCmd.Arg("track-id", "Catalog track ID").Required().String()

	// suggest command
	suggestCmd   = app.Command("suggest", "Suggest tracks like the current song or a given track")
	suggestID    = suggestCmd.Arg("track-id", "Catalog track ID").String()
	suggestCount = suggestCmd.Flag("count", "Number of suggestions").Default("10").Int()

	// subscribe command
	subscribeCmd = app.Command("subscribe", "Stream state notifications")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Create client
	client := apiconnect.NewPlayerClient(
		http.DefaultClient,
		*server,
		connect.WithInterceptors(apiconnect.NewTokenInterceptor(*token)),
	)

	ctx := context.Background()

	// Execute command
	switch command {
	case statusCmd.FullCommand():
		printState(client.GetState(ctx))
	case searchCmd.FullCommand():
		search(ctx, client, strings.Join(*searchQuery, " "), *searchPage)
	case queueAddCmd.FullCommand():
		printState(client.AddToQueue(ctx, &apiconnect.TrackRequest{TrackID: *queueAddID}))
	case queueRemoveCmd.FullCommand():
		printState(client.RemoveFromQueue(ctx, &apiconnect.IndexRequest{Index: *queueRemoveIdx}))
	case queueMoveCmd.FullCommand():
		printState(client.ReorderQueue(ctx, &apiconnect.ReorderQueueRequest{From: *queueMoveFrom, To: *queueMoveTo}))
	case queueClearCmd.FullCommand():
		printState(client.SetQueue(ctx, &apiconnect.SetQueueRequest{}))
	case queueSelectCmd.FullCommand():
		printState(client.SelectTrack(ctx, &apiconnect.IndexRequest{Index: *queueSelectIdx}))
	case playCmd.FullCommand():
		if *playIndex >= 0 {
			printState(client.PlayIndex(ctx, &apiconnect.IndexRequest{Index: *playIndex}))
		} else {
			printState(client.Play(ctx))
		}
	case playTrackCmd.FullCommand():
		printState(client.PlayTrack(ctx, &apiconnect.TrackRequest{TrackID: *playTrackID}))
	case pauseCmd.FullCommand():
		printState(client.Pause(ctx))
	case stopCmd.FullCommand():
		printState(client.Stop(ctx))
	case seekCmd.FullCommand():
		printState(client.SeekTo(ctx, &apiconnect.SeekToRequest{PositionMs: seekPosition.Milliseconds()}))
	case nextCmd.FullCommand():
		printState(client.PlayNext(ctx))
	case prevCmd.FullCommand():
		printState(client.PlayPrevious(ctx))
	case repeatCmd.FullCommand():
		resp, err := client.ToggleRepeat(ctx)
		exitOnError(err)
		fmt.Printf("Repeat: %s\n", resp.Repeat)
	case shuffleCmd.FullCommand():
		resp, err := client.ToggleShuffle(ctx)
		exitOnError(err)
		fmt.Printf("Shuffle: %v\n", resp.Shuffle)
	case downloadCmd.FullCommand():
		resp, err := client.Download(ctx, &apiconnect.DownloadRequest{TrackID: *downloadID})
		exitOnError(err)
		fmt.Printf("Downloaded to %s\n", resp.Path)
	case deleteDownloadCmd.FullCommand():
		exitOnError(client.DeleteDownload(ctx, &apiconnect.DownloadRequest{TrackID: *deleteDownloadID}))
		fmt.Println("Deleted")
	case downloadsCmd.FullCommand():
		resp, err := client.ListDownloads(ctx)
		exitOnError(err)
		fmt.Printf("%d downloaded track(s)\n", len(resp.TrackIDs))
		for _, id := range resp.TrackIDs {
			fmt.Printf("  %s\n", id)
		}
	case isDownloadedCmd.FullCommand():
		resp, err := client.IsDownloaded(ctx, &apiconnect.DownloadRequest{TrackID: *isDownloadedID})
		exitOnError(err)
		fmt.Printf("Downloaded: %v\n", resp.Downloaded)
	case suggestCmd.FullCommand():
		suggestTracks(ctx, client, *suggestID, *suggestCount)
	case subscribeCmd.FullCommand():
		subscribe(ctx, client)
	}
}

func exitOnError(err error) {
	if err == nil {
		return
	}
	if code := connect.CodeOf(err); code != connect.CodeUnknown {
		fmt.Printf("Error [%s]: %v\n", code, err)
	} else {
		fmt.Printf("Error: %v\n", err)
	}
	os.Exit(1)
}

func search(ctx context.Context, client *apiconnect.PlayerClient, query string, page int) {
	resp, err := client.Search(ctx, &apiconnect.SearchRequest{Query: query, Page: page})
	exitOnError(err)

	if resp.IsEnd() {
		fmt.Println("No more results.")
		return
	}
	fmt.Printf("Results %d-%d of %d:\n", resp.Start+1, resp.Start+len(resp.Results), resp.Total)
	for _, t := range resp.Results {
		printTrackLine("  ", t)
	}
	if resp.Start+len(resp.Results) < resp.Total {
		fmt.Printf("More: search --page=%d\n", page+1)
	}
}

func suggestTracks(ctx context.Context, client *apiconnect.PlayerClient, trackID string, count int) {
	resp, err := client.Suggestions(ctx, &apiconnect.SuggestionsRequest{TrackID: trackID, Count: count})
	exitOnError(err)

	fmt.Printf("%d suggestion(s):\n", len(resp.Candidates))
	for _, c := range resp.Candidates {
		printTrackLine(fmt.Sprintf("  [%s] ", c.DisplayName), c.Track)
	}
}

func subscribe(ctx context.Context, client *apiconnect.PlayerClient) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stream, err := client.SubscribeState(ctx)
	exitOnError(err)

	fmt.Println("Subscribed to notifications. Press Ctrl+C to exit.")

	// Handle shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nUnsubscribing...")
		cancel()
	}()

	// Receive notifications
	for stream.Receive() {
		printNotification(stream.Msg())
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		fmt.Printf("Stream error: %v\n", err)
	}
}

func printNotification(n *notification.Notification) {
	fmt.Printf("\n[Sequence: %d] === %s ===\n", n.SequenceNo, strings.ToUpper(strings.ReplaceAll(n.Type, "_", " ")))
	if n.Type == playback.EventProgress.String() {
		printTransport(n.Snapshot)
		return
	}
	printSnapshot(n.Snapshot)
}

func printState(resp *apiconnect.StateResponse, err error) {
	exitOnError(err)
	printSnapshot(resp.Snapshot)
}

func printSnapshot(s playback.Snapshot) {
	printTransport(s)
	fmt.Printf("Repeat: %s  Shuffle: %v\n", s.Repeat, s.Shuffle)

	if s.CurrentSong != nil {
		fmt.Println("\nCurrent Song:")
		fmt.Printf("  Track ID: %s\n", s.CurrentSong.ID)
		fmt.Printf("  Name: %s\n", s.CurrentSong.Name)
		fmt.Printf("  Artists: %s\n", s.CurrentSong.ArtistLine())
		if s.CurrentSong.Album != "" {
			fmt.Printf("  Album: %s\n", s.CurrentSong.Album)
		}
		if art := s.CurrentSong.BestArtwork(); art != "" {
			fmt.Printf("  Artwork: %s\n", art)
		}
	}

	fmt.Printf("\nQueue (%d, %s):\n", len(s.Queue), formatDuration(queue.TotalDuration(s.Queue)))
	for i, t := range s.Queue {
		marker := "   "
		if i == s.CurrentIndex {
			marker = " > "
		}
		printTrackLine(fmt.Sprintf("%s%2d. ", marker, i), t)
	}
}

func printTransport(s playback.Snapshot) {
	fmt.Printf("State: %s  %s / %s\n", s.State, formatDuration(s.Transport.CurrentTime), formatDuration(s.Transport.Duration))
	if s.Transport.Error != "" {
		fmt.Printf("Error: %s\n", s.Transport.Error)
	}
}

func printTrackLine(prefix string, t track.Track) {
	fmt.Printf("%s%s - %s (%s) [%s]\n", prefix, t.Name, t.ArtistLine(), formatDuration(t.Duration), t.ID)
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
