package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/adapters/providers/checkout"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/adapters/providers/terminal"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/application/services"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/domain/entities"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/clients/telehealthapi"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
	"github.com/zatekoja/Telehealthmarketplace/backend/pkg/config"
	apperrors "github.com/zatekoja/Telehealthmarketplace/backend/pkg/errors"
)

const usage = `usage: dashctl [flags] <command> [args]

commands:
  list                                  show the dashboard
  act <record-id> <action>              run an action on a record
  pay <kind> <reference-id>             pay online (kind: appointment, lab_appointment, product)
  pay-later <kind> <reference-id> <mode>  confirm without paying now (mode: in-person, lab, cod)
  delete-account                        permanently delete the signed-in account

flags:
`

func main() {
	_ = godotenv.Load()

	var (
		roleFlag  = flag.String("role", os.Getenv("DASHCTL_ROLE"), "dashboard role: doctor, laboratory, delivery, vendor or patient")
		tokenFlag = flag.String("token", os.Getenv("DASHCTL_TOKEN"), "marketplace bearer token")
		verbose   = flag.Bool("v", false, "log debug output to stderr")
	)
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	observability.InitLoggerTo(os.Stderr, "dashctl", "development", level)

	role, ok := entities.ParseRole(*roleFlag)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown role %q\n", *roleFlag)
		flag.Usage()
		os.Exit(2)
	}
	if *tokenFlag == "" {
		fmt.Fprintln(os.Stderr, "a bearer token is required (-token or DASHCTL_TOKEN)")
		os.Exit(2)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = telehealthapi.WithBearerToken(ctx, *tokenFlag)

	app := newApp(cfg, role)
	if err := app.run(ctx, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", apperrors.UserMessage(err, err.Error()))
		os.Exit(1)
	}
}

// app is the terminal front-end over the same services the HTTP API uses
type app struct {
	prompter   *terminal.Prompter
	confirmer  *terminal.Confirmer
	picker     *terminal.FilePicker
	screen     *services.Screen
	dashboards *services.DashboardService
	dispatcher *services.ActionDispatcher
	payments   *services.PaymentOrchestrator
	uploads    *services.UploadService
}

func newApp(cfg *config.Config, role entities.Role) *app {
	prompter := terminal.NewPrompter(os.Stdin, os.Stdout)
	notifier := terminal.NewNotifier(prompter)
	api := telehealthapi.NewClient(cfg.Marketplace.BaseURL, cfg.Marketplace.Timeout)
	scripts := checkout.NewHTTPScriptLoader(cfg.Checkout.ScriptURL, &http.Client{Timeout: 30 * time.Second})

	dashboards := services.NewDashboardService(api, notifier, nil)
	return &app{
		prompter:   prompter,
		confirmer:  terminal.NewConfirmer(prompter),
		picker:     terminal.NewFilePicker(prompter),
		screen:     services.NewScreen("dashctl", role),
		dashboards: dashboards,
		dispatcher: services.NewActionDispatcher(api, dashboards, services.NewMemoryInFlightGuard(), notifier, nil),
		payments:   services.NewPaymentOrchestrator(api, scripts, terminal.NewCheckout(prompter), nil, notifier, nil, cfg.Checkout.PublicKey),
		uploads:    services.NewUploadService(api, notifier, services.DefaultMaxUploadBytes),
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	switch cmd, rest := args[0], args[1:]; cmd {
	case "list":
		view, err := a.dashboards.Refresh(ctx, a.screen)
		if err != nil {
			return err
		}
		a.printView(view)
		return nil

	case "act":
		if len(rest) != 2 {
			return apperrors.NewValidationError("act needs <record-id> <action>")
		}
		return a.act(ctx, rest[0], entities.Action(rest[1]))

	case "pay":
		if len(rest) != 2 {
			return apperrors.NewValidationError("pay needs <kind> <reference-id>")
		}
		result, err := a.payments.Checkout(ctx, services.CheckoutRequest{
			SessionID:   a.screen.SessionID,
			Kind:        entities.PaymentKind(rest[0]),
			ReferenceID: rest[1],
		})
		if result != nil {
			a.prompter.Println("payment:", result.State)
		}
		return err

	case "pay-later":
		if len(rest) != 3 {
			return apperrors.NewValidationError("pay-later needs <kind> <reference-id> <mode>")
		}
		result, err := a.payments.PayLater(ctx, services.PayLaterRequest{
			SessionID:   a.screen.SessionID,
			Kind:        entities.PaymentKind(rest[0]),
			ReferenceID: rest[1],
			Mode:        entities.PaymentMode(rest[2]),
		})
		if err != nil {
			return err
		}
		a.prompter.Println("booking:", result.State)
		return nil

	case "delete-account":
		result, err := a.dispatcher.DeleteAccount(ctx, a.screen.SessionID, a.confirmer)
		if err != nil {
			return err
		}
		if result.Outcome == services.OutcomeDeclined {
			a.prompter.Println("Account kept.")
		}
		return nil
	}
	return apperrors.NewValidationError(fmt.Sprintf("unknown command %q", args[0]))
}

// act dispatches an action; editor actions continue into the editor form
func (a *app) act(ctx context.Context, recordID string, action entities.Action) error {
	if _, err := a.dashboards.Refresh(ctx, a.screen); err != nil {
		return err
	}
	result, err := a.dispatcher.Dispatch(ctx, a.screen, services.ActionRequest{RecordID: recordID, Action: action}, a.confirmer)
	if err != nil {
		return err
	}

	switch result.Outcome {
	case services.OutcomeMeetingLink:
		a.prompter.Println("Join at:", result.MeetingLink)
		return nil
	case services.OutcomeDeclined:
		a.prompter.Println("Nothing changed.")
		return nil
	case services.OutcomeModalOpened:
	default:
		if result.View != nil {
			a.printView(result.View)
		}
		return nil
	}

	switch m := result.Modal.(type) {
	case entities.PrescriptionModal:
		return a.editPrescription(ctx, m)
	case entities.ReportModal:
		return a.editReport(ctx, m)
	default:
		if rv, ok := a.screen.View().Find(recordID); ok {
			a.printRecord(rv)
		}
		a.screen.CloseModal()
		return nil
	}
}

func (a *app) editPrescription(ctx context.Context, m entities.PrescriptionModal) error {
	draft := m.Draft
	var err error
	if draft.Prescription, err = a.askDefault(ctx, "Prescription", draft.Prescription); err != nil {
		return err
	}
	if draft.Notes, err = a.askDefault(ctx, "Notes", draft.Notes); err != nil {
		return err
	}
	_, err = a.dispatcher.Dispatch(ctx, a.screen, services.ActionRequest{
		RecordID:     m.RecordID,
		Action:       entities.ActionSavePrescription,
		Prescription: &draft,
	}, a.confirmer)
	return err
}

func (a *app) editReport(ctx context.Context, m entities.ReportModal) error {
	for {
		more, err := a.confirmer.Confirm(ctx, "Attach a PDF?")
		if err != nil {
			return err
		}
		if !more {
			break
		}
		if _, err := a.uploads.AttachReportPDF(ctx, a.screen, m.RecordID, a.picker); err != nil {
			// The error toast has already been shown; let the user retry or stop
			continue
		}
	}

	current, ok := a.screen.Modal().(entities.ReportModal)
	if !ok {
		return errors.New("report editor closed unexpectedly")
	}
	draft := current.Draft
	var err error
	if draft.ReportResult, err = a.askDefault(ctx, "Report result", draft.ReportResult); err != nil {
		return err
	}
	if draft.Notes, err = a.askDefault(ctx, "Notes", draft.Notes); err != nil {
		return err
	}
	_, err = a.dispatcher.Dispatch(ctx, a.screen, services.ActionRequest{
		RecordID: m.RecordID,
		Action:   entities.ActionSaveReport,
		Report:   &draft,
	}, a.confirmer)
	return err
}

// askDefault keeps current when the answer is blank
func (a *app) askDefault(ctx context.Context, label, current string) (string, error) {
	q := label + ": "
	if current != "" {
		q = fmt.Sprintf("%s [%s]: ", label, current)
	}
	answer, err := a.prompter.Ask(ctx, q)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(answer) == "" {
		return current, nil
	}
	return answer, nil
}

func (a *app) printView(view *entities.DashboardView) {
	for _, b := range view.Buckets {
		a.prompter.Println(fmt.Sprintf("== %s (%d)", b.Name, b.Count))
		for _, rv := range b.Records {
			a.printRecord(rv)
		}
	}
}

func (a *app) printRecord(rv entities.RecordView) {
	labels := make([]string, 0, len(rv.Actions))
	for _, act := range rv.Actions {
		labels = append(labels, fmt.Sprintf("%s (%s)", act.Label(), act))
	}
	line := fmt.Sprintf("  %s  %-20s %-22s %s", rv.Record.RecordID(), rv.Record.CounterpartName(), rv.Record.StatusValue(), rv.DisplayTime)
	a.prompter.Println(strings.TrimRight(line, " "))
	if len(labels) > 0 {
		a.prompter.Println("      " + strings.Join(labels, ", "))
	}
}
