package main

import (
	"context"
	"errors"
	"fmt"
	"gig-finder-service/internal/adapters/geocode"
	"gig-finder-service/internal/adapters/gigclient"
	"gig-finder-service/internal/adapters/location"
	"gig-finder-service/internal/adapters/repositories"
	"gig-finder-service/internal/config"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/platform/obs"
	"gig-finder-service/internal/ports"
	"gig-finder-service/internal/services"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	seedPath      string
	serverURL     string
	lat, lon      float64
	address       string
	radiusKm      float64
	sortFlag      string
	locateTimeout time.Duration
	logLevel      string
)

var rootCmd = &cobra.Command{
	Use:   "gigfinder",
	Short: "Find live gigs near a location",
	Long:  `Query gigs near a position, either from a local seed file or from a running gig-finder server.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		obs.NewLogger(os.Stderr, logLevel)
	},
}

var nearbyCmd = &cobra.Command{
	Use:   "nearby",
	Short: "Print gigs within the radius once",
	RunE:  runNearby,
}

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Interactive session: change radius and sort, refresh, retry",
	Long: `Start a session and read commands from stdin:

  radius <km>            select one of the allowed radii
  sort distance|time     change the ordering
  refresh                re-acquire the location and re-fetch gigs
  retry                  recover from an error
  show                   print the current state
  quit                   end the session`,
	RunE: runExplore,
}

func init() {
	_ = godotenv.Load()

	defaultRadius := 10.0
	if v, err := strconv.ParseFloat(config.Get("DEFAULT_RADIUS_KM", ""), 64); err == nil {
		defaultRadius = v
	}

	rootCmd.PersistentFlags().StringVar(&seedPath, "seed", config.Get("SEED_PATH", "data/seeds/gigs.json"), "Seed file to load gigs from")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "Base URL of a gig-finder server (overrides --seed)")
	rootCmd.PersistentFlags().Float64Var(&lat, "lat", 0, "Latitude of the search position")
	rootCmd.PersistentFlags().Float64Var(&lon, "lon", 0, "Longitude of the search position")
	rootCmd.PersistentFlags().StringVar(&address, "address", "", "Address to geocode as the search position (needs ORS_API_KEY)")
	rootCmd.PersistentFlags().Float64VarP(&radiusKm, "radius", "r", defaultRadius, "Search radius in km")
	rootCmd.PersistentFlags().StringVarP(&sortFlag, "sort", "s", "distance", "Sort order: distance or time")
	rootCmd.PersistentFlags().DurationVar(&locateTimeout, "locate-timeout", 10*time.Second, "Timeout for acquiring the position")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.Get("LOG_LEVEL", "warn"), "Log level")

	rootCmd.AddCommand(nearbyCmd, exploreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runNearby(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	q, err := newQuery(cmd)
	if err != nil {
		return err
	}
	defer q.Close()

	q.Start()
	if err := waitSettled(ctx, q); err != nil {
		return err
	}

	snap := q.Snapshot()
	printSnapshot(cmd.OutOrStdout(), snap, time.Now())
	if snap.State == services.StateError {
		return snap.Err
	}
	return nil
}

func runExplore(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	q, err := newQuery(cmd)
	if err != nil {
		return err
	}
	defer q.Close()

	return explore(ctx, q, cmd.InOrStdin(), cmd.OutOrStdout(), time.Now)
}

// newQuery builds a ProximityQuery from the command flags.
func newQuery(cmd *cobra.Command) (*services.ProximityQuery, error) {
	key, err := domain.ParseSortKey(sortFlag)
	if err != nil {
		return nil, err
	}

	locator, err := newLocator(cmd)
	if err != nil {
		return nil, err
	}

	repo, err := newRepository(cmd.Context())
	if err != nil {
		return nil, err
	}

	return services.NewProximityQuery(locator, repo, services.ProximityQueryOptions{
		Radii:         domain.ExtendedRadii,
		Radius:        radiusKm,
		SortKey:       key,
		LocateTimeout: locateTimeout,
	})
}

func newLocator(cmd *cobra.Command) (ports.LocationSource, error) {
	if address != "" {
		key := config.Get("ORS_API_KEY", "")
		if key == "" {
			return nil, errors.New("--address needs ORS_API_KEY")
		}
		geo, err := geocode.NewORSGeocoder(key)
		if err != nil {
			return nil, err
		}
		return location.NewAddressLocator(geo, address)
	}

	flags := cmd.Flags()
	if !flags.Changed("lat") || !flags.Changed("lon") {
		return nil, errors.New("either --lat and --lon or --address is required")
	}
	return location.Fixed{Point: domain.GeoPoint{Lat: lat, Lon: lon}}, nil
}

func newRepository(ctx context.Context) (ports.GigRepository, error) {
	if serverURL != "" {
		return gigclient.New(serverURL)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return repositories.NewMemoryGigRepositoryFromSeed(ctx, seedPath)
}
