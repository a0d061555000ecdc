package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SultokTheF/uiren-mobile/internal/api"
	"github.com/SultokTheF/uiren-mobile/internal/booking"
	"github.com/SultokTheF/uiren-mobile/internal/center"
	"github.com/SultokTheF/uiren-mobile/internal/config"
	"github.com/SultokTheF/uiren-mobile/internal/db"
	"github.com/SultokTheF/uiren-mobile/internal/logger"
	"github.com/SultokTheF/uiren-mobile/internal/record"
	"github.com/SultokTheF/uiren-mobile/internal/schedule"
	"github.com/SultokTheF/uiren-mobile/internal/server"
	"github.com/SultokTheF/uiren-mobile/internal/session"
	"github.com/SultokTheF/uiren-mobile/internal/subscription"
	"github.com/SultokTheF/uiren-mobile/internal/user"
)

type app struct {
	cfg           *config.Config
	sessions      session.Store
	users         *user.Service
	centers       *center.Service
	schedules     *schedule.Service
	subscriptions *subscription.Service
	records       *record.Service
}

func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.Open(cfg.SessionDBPath)
	if err != nil {
		logger.Fatalf("Failed to open local database: %v", err)
	}
	defer database.Close()

	sessions := session.NewSQLiteStore(database)
	client := api.New(cfg.APIBaseURL, sessions, api.Options{
		Timeout:        cfg.RequestTimeout,
		RequestsPerSec: cfg.RequestsPerSec,
		Burst:          cfg.RequestBurst,
	})

	a := &app{
		cfg:           cfg,
		sessions:      sessions,
		users:         user.NewService(client, sessions),
		centers:       center.NewService(client, center.NewCache(database)),
		schedules:     schedule.NewService(client),
		subscriptions: subscription.NewService(client),
		records:       record.NewService(client),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, api.ErrSessionExpired) || errors.Is(err, api.ErrNoRefreshToken) {
			// Forced logout: the session is unusable.
			_ = a.sessions.Clear(ctx)
			logger.Error("Session expired, please log in again")
			os.Exit(1)
		}
		logger.Fatalf("%v", err)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.users.Logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "centers":
		return a.listCenters(ctx, args)
	case "sections":
		return a.listSections(ctx, args)
	case "schedule":
		return a.showSchedule(ctx, args)
	case "reserve":
		return a.reserve(ctx, args)
	case "my-schedule":
		return a.mySchedule(ctx)
	case "cancel":
		return a.cancel(ctx, args)
	case "confirm":
		return a.confirm(ctx, args)
	case "qr":
		return a.qr(ctx, args)
	case "subs":
		return a.listSubscriptions(ctx)
	case "buy":
		return a.buySubscription(ctx, args)
	case "freeze":
		return a.freeze(ctx, args)
	case "unfreeze":
		return a.unfreeze(ctx, args)
	case "serve-debug":
		return a.serveDebug(ctx)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: app <command> [flags]

Commands:
  login        -email -password           log in and persist the session
  logout                                  clear the stored session
  whoami                                  show the current user profile
  centers      [-lat -lon]                list activity centers
  sections     [-center]                  list class sections
  schedule     -section -date             list slots for a section and date
  reserve      -section -date -slot -sub  reserve a slot
  my-schedule                             list my reservations
  cancel       -record                    cancel a reservation
  confirm      -record                    confirm attendance
  qr           -record -out               write a check-in QR PNG
  subs                                    list my subscriptions
  buy          -type                      purchase a subscription (MONTH, 6_MONTHS, YEAR)
  freeze       -sub -days                 freeze a subscription
  unfreeze     -sub                       unfreeze a subscription
  serve-debug                             run the local debug endpoint`)
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if *email == "" || *password == "" {
		return errors.New("both -email and -password are required")
	}
	return a.users.Login(ctx, *email, *password)
}

func (a *app) whoami(ctx context.Context) error {
	u, err := a.users.Current(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s <%s> (%s)\n", u.FirstName, u.LastName, u.Email, u.Role)
	return nil
}

func (a *app) listCenters(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("centers", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "sort by distance from this latitude")
	lon := fs.Float64("lon", 0, "sort by distance from this longitude")
	fs.Parse(args)

	centers, err := a.centers.Centers(ctx)
	if err != nil {
		return err
	}
	if *lat != 0 || *lon != 0 {
		center.SortByDistance(centers, *lat, *lon)
	}
	for _, c := range centers {
		fmt.Printf("%4d  %-30s %s\n", c.ID, c.Name, c.Location)
	}
	return nil
}

func (a *app) listSections(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sections", flag.ExitOnError)
	centerID := fs.Int("center", 0, "filter by center id")
	fs.Parse(args)

	sections, err := a.centers.Sections(ctx, *centerID)
	if err != nil {
		return err
	}
	for _, s := range sections {
		fmt.Printf("%4d  %s\n", s.ID, s.Name)
	}
	return nil
}

func (a *app) showSchedule(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	sectionID := fs.Int("section", 0, "section id")
	date := fs.String("date", "", "date (YYYY-MM-DD)")
	fs.Parse(args)

	if *sectionID == 0 || *date == "" {
		return errors.New("both -section and -date are required")
	}

	slots, err := a.schedules.SlotsForDate(ctx, *sectionID, *date)
	if err != nil {
		return err
	}
	for _, s := range slots {
		marker := " "
		if !s.Selectable() {
			marker = "x"
		}
		fmt.Printf("%s %4d  %s-%s  %d/%d\n", marker, s.ID, s.StartTime, s.EndTime, s.Reserved, s.Capacity)
	}
	return nil
}

func (a *app) reserve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reserve", flag.ExitOnError)
	sectionID := fs.Int("section", 0, "section id")
	date := fs.String("date", "", "date (YYYY-MM-DD)")
	slotID := fs.Int("slot", 0, "schedule slot id")
	subID := fs.Int("sub", 0, "subscription id")
	fs.Parse(args)

	if *sectionID == 0 || *date == "" || *slotID == 0 || *subID == 0 {
		return errors.New("-section, -date, -slot and -sub are all required")
	}

	u, err := a.users.Current(ctx)
	if err != nil {
		return err
	}

	flow := booking.NewFlow(*sectionID, u.ID, a.schedules, a.subscriptions, a.records)
	if err := flow.SelectDate(ctx, *date); err != nil {
		return err
	}
	if err := flow.SelectSlot(ctx, *slotID); err != nil {
		return err
	}
	if len(flow.Subscriptions()) == 0 {
		return errors.New("no activated subscription available; purchase one with 'buy'")
	}
	if err := flow.SelectSubscription(*subID); err != nil {
		return err
	}

	rec, err := flow.Submit(ctx)
	if err != nil {
		var rejected *record.RejectedError
		if errors.As(err, &rejected) {
			if isSubscriptionCause(rejected.Cause) {
				return fmt.Errorf("reservation rejected (%s): your subscription cannot be used, manage it with 'subs'", rejected.Cause)
			}
			return fmt.Errorf("reservation rejected (%s): pick another slot with 'schedule'", rejected.Cause)
		}
		return err
	}

	fmt.Printf("Reserved. Record id %d\n", rec.ID)
	return nil
}

// isSubscriptionCause routes known subscription rejections to the 'subs'
// hint. The cause vocabulary is the backend's and open-ended; unknown causes
// default to the slot path.
func isSubscriptionCause(cause string) bool {
	switch cause {
	case "no_active_subscription", "subscription_inactive",
		"subscription_expired", "subscription_frozen",
		"subscription_not_activated":
		return true
	}
	return false
}

func (a *app) mySchedule(ctx context.Context) error {
	u, err := a.users.Current(ctx)
	if err != nil {
		return err
	}
	records, err := a.records.ForUser(ctx, u.ID)
	if err != nil {
		return err
	}
	for _, r := range records {
		status := ""
		if r.IsCanceled {
			status = " (canceled)"
		} else if r.Attended {
			status = " (attended)"
		}
		fmt.Printf("%4d  %s %s-%s%s\n", r.ID, r.Schedule.Date, r.Schedule.StartTime, r.Schedule.EndTime, status)
	}
	return nil
}

func (a *app) cancel(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	recordID := fs.Int("record", 0, "record id")
	fs.Parse(args)

	if *recordID == 0 {
		return errors.New("-record is required")
	}
	if err := a.records.Cancel(ctx, *recordID); err != nil {
		return err
	}
	fmt.Println("Reservation canceled")
	return nil
}

func (a *app) confirm(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("confirm", flag.ExitOnError)
	recordID := fs.Int("record", 0, "record id")
	fs.Parse(args)

	if *recordID == 0 {
		return errors.New("-record is required")
	}
	if err := a.records.ConfirmAttendance(ctx, *recordID); err != nil {
		return err
	}
	fmt.Println("Attendance confirmed")
	return nil
}

func (a *app) qr(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("qr", flag.ExitOnError)
	recordID := fs.Int("record", 0, "record id")
	out := fs.String("out", "checkin.png", "output file")
	fs.Parse(args)

	if *recordID == 0 {
		return errors.New("-record is required")
	}

	png, err := record.CheckInQR(&record.Record{ID: *recordID})
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, png, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}
	fmt.Printf("Check-in QR written to %s\n", *out)
	return nil
}

func (a *app) listSubscriptions(ctx context.Context) error {
	u, err := a.users.Current(ctx)
	if err != nil {
		return err
	}
	subs, err := a.subscriptions.ActivatedForUser(ctx, u.ID)
	if err != nil {
		return err
	}
	if len(subs) == 0 {
		fmt.Println("No activated subscriptions")
		return nil
	}
	for _, s := range subs {
		state := "usable"
		if !s.Usable() {
			state = "not usable"
		}
		if s.IsFrozen {
			state = "frozen"
		}
		fmt.Printf("%4d  %-9s %s → %s  [%s]\n", s.ID, s.Type, s.StartDate, s.EndDate, state)
	}
	return nil
}

func (a *app) buySubscription(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("buy", flag.ExitOnError)
	subType := fs.String("type", "", "subscription type: MONTH, 6_MONTHS or YEAR")
	fs.Parse(args)

	sub, err := a.subscriptions.Purchase(ctx, subscription.Type(*subType))
	if err != nil {
		return err
	}
	fmt.Printf("Subscription %d purchased; it becomes usable once a manager activates it\n", sub.ID)
	return nil
}

func (a *app) freeze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("freeze", flag.ExitOnError)
	subID := fs.Int("sub", 0, "subscription id")
	days := fs.Int("days", 0, "freeze duration in days")
	fs.Parse(args)

	if *subID == 0 {
		return errors.New("-sub is required")
	}
	if err := a.subscriptions.Freeze(ctx, *subID, *days); err != nil {
		return err
	}
	fmt.Println("Subscription frozen")
	return nil
}

func (a *app) unfreeze(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("unfreeze", flag.ExitOnError)
	subID := fs.Int("sub", 0, "subscription id")
	fs.Parse(args)

	if *subID == 0 {
		return errors.New("-sub is required")
	}
	if err := a.subscriptions.Unfreeze(ctx, *subID); err != nil {
		return err
	}
	fmt.Println("Subscription unfrozen")
	return nil
}

func (a *app) serveDebug(ctx context.Context) error {
	addr := a.cfg.DebugAddr
	if addr == "" {
		addr = "127.0.0.1:6060"
	}

	srv := server.New(a.sessions)

	errChan := make(chan error, 1)
	go func() {
		logger.Infof("Debug endpoint on %s", addr)
		if err := srv.Start(addr); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errChan:
		return err
	}

	logger.Info("Shutting down debug endpoint...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
