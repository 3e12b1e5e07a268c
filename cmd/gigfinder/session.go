package main

import (
	"bufio"
	"context"
	"fmt"
	"gig-finder-service/internal/domain"
	"gig-finder-service/internal/services"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// waitSettled blocks until the query has no locate or fetch in flight.
func waitSettled(ctx context.Context, q *services.ProximityQuery) error {
	done := make(chan struct{})
	go func() {
		q.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// explore runs an interactive session over q until quit, EOF or ctx ends.
func explore(ctx context.Context, q *services.ProximityQuery, in io.Reader, out io.Writer, now func() time.Time) error {
	q.Start()
	if err := waitSettled(ctx, q); err != nil {
		return err
	}
	printSnapshot(out, q.Snapshot(), now())

	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}

		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}

		var err error
		switch strings.ToLower(fields[0]) {
		case "quit", "exit":
			return nil
		case "show":
		case "radius":
			if len(fields) != 2 {
				err = fmt.Errorf("usage: radius <km> (allowed: %s)", q.Radii())
				break
			}
			var km float64
			km, err = q.Radii().Parse(fields[1])
			if err == nil {
				err = q.SetRadius(km)
			}
		case "sort":
			if len(fields) != 2 {
				err = fmt.Errorf("usage: sort distance|time")
				break
			}
			var key domain.SortKey
			key, err = domain.ParseSortKey(fields[1])
			if err == nil {
				err = q.SetSortKey(key)
			}
		case "refresh":
			if err = q.RefreshLocation(); err == nil {
				err = waitSettled(ctx, q)
			}
		case "retry":
			if err = q.Retry(); err == nil {
				err = waitSettled(ctx, q)
			}
		default:
			err = fmt.Errorf("unknown command %q", fields[0])
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			fmt.Fprintln(out, "error:", err)
			continue
		}
		printSnapshot(out, q.Snapshot(), now())
	}
}

func printSnapshot(w io.Writer, snap services.Snapshot, now time.Time) {
	header := fmt.Sprintf("%s  radius=%g km  sort=%s", strings.ToUpper(snap.State.String()), snap.Radius, snap.SortKey)
	if snap.Reference != nil {
		header += "  ref=" + snap.Reference.String()
	}
	fmt.Fprintln(w, header)

	if snap.State == services.StateError {
		fmt.Fprintf(w, "error (%s): %v\n", snap.ErrorKind, snap.Err)
		if len(snap.Results) > 0 {
			fmt.Fprintln(w, "showing last results:")
		}
	}

	if snap.Reference == nil {
		return
	}
	if len(snap.Results) == 0 {
		fmt.Fprintln(w, "no gigs within radius")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, g := range snap.Results {
		when := g.StartsAt.Local().Format("2006-01-02 15:04")
		if !g.IsUpcoming(now) {
			when += " (past)"
		}
		fmt.Fprintf(tw, "%.2f km\t%s\t%s\t%s\n", g.DistanceKm, when, g.Title, g.OrganizerName())
	}
	tw.Flush()
}
