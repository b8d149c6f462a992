package cli

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pureclarity/feedsync/internal/catalog"
	"github.com/pureclarity/feedsync/internal/config"
	"github.com/pureclarity/feedsync/internal/database"
	"github.com/pureclarity/feedsync/internal/database/state"
	"github.com/pureclarity/feedsync/internal/feed"
	"github.com/pureclarity/feedsync/internal/runstate"
)

// RequestFeedsCommand queues feeds for a store; a running server's
// requested-feeds trigger will pick them up.
type RequestFeedsCommand struct {
	StoreID      int
	Feeds        []string
	DatabasePath string
}

func NewRequestFeedsCommand() *RequestFeedsCommand {
	return &RequestFeedsCommand{}
}

func (cmd *RequestFeedsCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("request-feeds", flag.ExitOnError)

	var feedList string
	fs.IntVar(&cmd.StoreID, "store", 0, "Store ID to queue feeds for (required)")
	fs.StringVar(&feedList, "feeds", "", "Comma-separated feed types to queue (default: all)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s request-feeds -store <id> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Queue feeds for a store. The run happens on the server's next poll.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.StoreID <= 0 {
		return fmt.Errorf("required flag -store not provided")
	}

	if feedList == "" {
		cmd.Feeds = feed.RunOrder
	} else {
		for _, ft := range strings.Split(feedList, ",") {
			if ft = strings.TrimSpace(ft); ft != "" {
				cmd.Feeds = append(cmd.Feeds, ft)
			}
		}
	}
	if len(cmd.Feeds) == 0 {
		return fmt.Errorf("no feed types given")
	}

	return nil
}

func (cmd *RequestFeedsCommand) Run() error {
	cfg := config.NewConfig()

	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	tracker := runstate.NewTracker(state.NewRepository(db.DB))
	cat := catalog.New(db.DB)
	pricer := catalog.NewPricer(cat)
	registry := feed.NewDefaultRegistry(cat, pricer, tracker, cfg.Feeds)
	requester := feed.NewRequester(registry, tracker)

	if err := requester.RequestFeeds(cmd.StoreID, cmd.Feeds); err != nil {
		return err
	}

	fmt.Printf("Queued %v for store %d\n", tracker.GetRequestedFeeds(cmd.StoreID), cmd.StoreID)
	return nil
}
