package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/banshee-data/ncom.report/internal/db"
	"github.com/banshee-data/ncom.report/internal/ncom"
	"github.com/banshee-data/ncom.report/internal/track"
)

// runPlot draws the ground track of a stored session. Without -session the
// newest session is plotted.
func (a *app) runPlot(args []string) error {
	fs := flag.NewFlagSet("plot", flag.ContinueOnError)
	sessionID := fs.String("session", "", "Session id (default: newest session)")
	output := fs.String("o", "", "Output image; the extension picks the format (default ncom-<session>.png)")
	title := fs.String("title", "", "Plot title (default: session source)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, err := db.NewDB(a.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer database.Close()

	var sess db.Session
	if *sessionID == "" {
		sessions, err := database.Sessions()
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			return errors.New("database has no sessions")
		}
		sess = sessions[0]
	} else if sess, err = database.Session(*sessionID); err != nil {
		return err
	}

	stored, err := database.SessionRecords(sess.ID, 0)
	if err != nil {
		return err
	}
	records := make([]*ncom.Record, len(stored))
	for i := range stored {
		records[i] = stored[i].Record
	}

	path := *output
	if path == "" {
		path = "ncom-" + sess.ID + ".png"
	}
	plotTitle := *title
	if plotTitle == "" {
		plotTitle = sess.Source
	}
	if err := track.PlotTrack(records, plotTitle, path); err != nil {
		return err
	}
	log.Printf("wrote %d records of session %s to %s", len(records), sess.ID, path)
	fmt.Fprintln(a.stdout, path)
	return nil
}
