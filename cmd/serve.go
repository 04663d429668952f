package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/SA0000000/rwfifo-io/internal/httpapi"
	"github.com/SA0000000/rwfifo-io/iosched"
)

var addr string // Listen address for serve

// serveCmd exposes one live elevator over HTTP
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve one elevator over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		if !iosched.IsValidElevator(elevatorName) {
			logrus.Fatalf("unknown elevator %q; valid: %v", elevatorName, validElevatorNames())
		}
		cfg, err := loadElevatorConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}

		e := iosched.NewLocked(iosched.NewElevator(elevatorName, cfg))
		api := httpapi.New(e)
		srv := &http.Server{
			Addr:              addr,
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		go func() {
			logrus.Infof("serving elevator %s on %s", e.Name(), addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.Fatalf("http server error: %v", err)
			}
		}()

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGTERM, syscall.SIGINT)
		<-sigs

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Warnf("graceful shutdown failed: %v", err)
		}
		if err := teardown(e); err != nil {
			logrus.Errorf("%v", err)
			os.Exit(1)
		}
		logrus.Info("elevator exited cleanly")
	},
}

// teardown exits the elevator if it is idle. A busy elevator is left as is
// and reported: queued requests are never dropped.
func teardown(e *iosched.Locked) error {
	var err error
	e.Do(func(inner iosched.Elevator) {
		if inner.Idle() {
			inner.Exit()
			return
		}
		if c, ok := iosched.CountersOf(inner); ok {
			err = fmt.Errorf("refusing to exit elevator %s: %d reads and %d writes still queued",
				inner.Name(), c.ReadsPending, c.WritesPending)
			return
		}
		err = fmt.Errorf("refusing to exit elevator %s: requests still queued", inner.Name())
	})
	return err
}

func registerServeFlags(cmd *cobra.Command) {
	registerElevatorFlags(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
}
